package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ravewall/internal/httputil"
	"ravewall/internal/model"
	"ravewall/internal/service"
	"ravewall/internal/transport/http/middleware"
)

type TestimonialHandler struct {
	testimonialService *service.TestimonialService
}

func NewTestimonialHandler(testimonialService *service.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{
		testimonialService: testimonialService,
	}
}

// Promote handles POST /comments/{commentId}/promote
func (h *TestimonialHandler) Promote(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	commentID, err := strconv.ParseInt(chi.URLParam(r, "commentId"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid comment ID")
		return
	}

	resp, err := h.testimonialService.Promote(r.Context(), commentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrCommentNotFound):
			httputil.WriteNotFound(w, "Comment not found")
		case errors.Is(err, model.ErrImportNotFound):
			httputil.WriteNotFound(w, "Import not found")
		case errors.Is(err, model.ErrAlreadyPromoted):
			httputil.WriteBadRequest(w, "Comment has already been promoted")
		default:
			log.Printf("[ERROR] Promote handler: comment=%d err=%v", commentID, err)
			httputil.WriteInternalError(w, "Failed to promote comment")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, resp)
}

// Create handles POST /testimonials
func (h *TestimonialHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.CreateTestimonialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	testimonial, err := h.testimonialService.Create(r.Context(), userID, req)
	if err != nil {
		if errors.Is(err, model.ErrContentRequired) {
			httputil.WriteBadRequest(w, "content is required")
			return
		}
		log.Printf("[ERROR] Create testimonial handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to create testimonial")
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, testimonial)
}

// List handles GET /testimonials?status=
func (h *TestimonialHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	status := r.URL.Query().Get("status")

	testimonials, err := h.testimonialService.List(r.Context(), userID, status)
	if err != nil {
		if errors.Is(err, model.ErrInvalidStatus) {
			httputil.WriteBadRequest(w, "Invalid status filter")
			return
		}
		log.Printf("[ERROR] List testimonials handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to list testimonials")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, testimonials)
}

// UpdateStatus handles PATCH /testimonials/{testimonialId}
func (h *TestimonialHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	testimonialID, err := strconv.ParseInt(chi.URLParam(r, "testimonialId"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid testimonial ID")
		return
	}

	var req model.UpdateTestimonialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	testimonial, err := h.testimonialService.UpdateStatus(r.Context(), testimonialID, userID, req)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidStatus):
			httputil.WriteBadRequest(w, "Invalid testimonial status")
		case errors.Is(err, model.ErrTestimonialNotFound):
			httputil.WriteNotFound(w, "Testimonial not found")
		default:
			log.Printf("[ERROR] Update testimonial handler: testimonial=%d err=%v", testimonialID, err)
			httputil.WriteInternalError(w, "Failed to update testimonial")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, testimonial)
}

// Delete handles DELETE /testimonials/{testimonialId}
func (h *TestimonialHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	testimonialID, err := strconv.ParseInt(chi.URLParam(r, "testimonialId"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid testimonial ID")
		return
	}

	if err := h.testimonialService.Delete(r.Context(), testimonialID, userID); err != nil {
		if errors.Is(err, model.ErrTestimonialNotFound) {
			httputil.WriteNotFound(w, "Testimonial not found")
			return
		}
		log.Printf("[ERROR] Delete testimonial handler: testimonial=%d err=%v", testimonialID, err)
		httputil.WriteInternalError(w, "Failed to delete testimonial")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Testimonial deleted"})
}
