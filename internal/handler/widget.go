package handler

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ravewall/internal/httputil"
	"ravewall/internal/service"
)

// WidgetHandler serves the public, unauthenticated testimonial feed that
// embeddable widgets fetch.
type WidgetHandler struct {
	testimonialService *service.TestimonialService
}

func NewWidgetHandler(testimonialService *service.TestimonialService) *WidgetHandler {
	return &WidgetHandler{
		testimonialService: testimonialService,
	}
}

// Feed handles GET /widget/{userId}
func (h *WidgetHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userId"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid user ID")
		return
	}

	testimonials, err := h.testimonialService.WidgetFeed(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] Widget feed handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to load widget feed")
		return
	}

	// Embedded widgets live on customer domains.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	httputil.WriteJSON(w, http.StatusOK, testimonials)
}
