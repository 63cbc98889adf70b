package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ravewall/internal/httputil"
	"ravewall/internal/model"
	"ravewall/internal/scraper"
	"ravewall/internal/service"
	"ravewall/internal/transport/http/middleware"
)

type ImportHandler struct {
	importService *service.ImportService
}

func NewImportHandler(importService *service.ImportService) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// Create handles POST /import
func (h *ImportHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req model.ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.URL) == "" {
		httputil.WriteBadRequest(w, "url is required")
		return
	}

	resp, err := h.importService.Run(r.Context(), userID, req)
	if err != nil {
		var upstreamErr *scraper.UpstreamError
		switch {
		case errors.Is(err, model.ErrInvalidPostURL):
			httputil.WriteBadRequest(w, "Invalid Instagram post URL")
		case errors.Is(err, model.ErrImportRateLimited):
			httputil.WriteError(w, http.StatusTooManyRequests, "Import rate limit exceeded, try again later")
		case errors.As(err, &upstreamErr):
			log.Printf("[ERROR] Import handler: user=%d upstream status=%d", userID, upstreamErr.Status)
			httputil.WriteInternalError(w, fmt.Sprintf("Comment scraping service failed with status %d", upstreamErr.Status))
		case errors.Is(err, scraper.ErrMalformedResponse):
			log.Printf("[ERROR] Import handler: user=%d err=%v", userID, err)
			httputil.WriteError(w, http.StatusBadGateway, "Comment scraping service returned an unexpected response")
		default:
			log.Printf("[ERROR] Import handler: user=%d err=%v", userID, err)
			httputil.WriteInternalError(w, "Failed to run import")
		}
		return
	}

	httputil.WriteJSON(w, http.StatusOK, resp)
}

// List handles GET /imports
func (h *ImportHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	imports, err := h.importService.List(r.Context(), userID)
	if err != nil {
		log.Printf("[ERROR] List imports handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to list imports")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, imports)
}

// GetComments handles GET /imports/{importId}/comments
func (h *ImportHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	importID, err := strconv.ParseInt(chi.URLParam(r, "importId"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid import ID")
		return
	}

	comments, err := h.importService.GetComments(r.Context(), importID, userID)
	if err != nil {
		if errors.Is(err, model.ErrImportNotFound) {
			httputil.WriteNotFound(w, "Import not found")
			return
		}
		log.Printf("[ERROR] Get import comments handler: import=%d err=%v", importID, err)
		httputil.WriteInternalError(w, "Failed to get comments")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, comments)
}

// Delete handles DELETE /imports/{importId}
func (h *ImportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	importID, err := strconv.ParseInt(chi.URLParam(r, "importId"), 10, 64)
	if err != nil {
		httputil.WriteBadRequest(w, "Invalid import ID")
		return
	}

	if err := h.importService.Delete(r.Context(), importID, userID); err != nil {
		if errors.Is(err, model.ErrImportNotFound) {
			httputil.WriteNotFound(w, "Import not found")
			return
		}
		log.Printf("[ERROR] Delete import handler: import=%d err=%v", importID, err)
		httputil.WriteInternalError(w, "Failed to delete import")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Import deleted"})
}
