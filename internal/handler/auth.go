package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"ravewall/internal/httputil"
	"ravewall/internal/model"
	"ravewall/internal/service"
	"ravewall/internal/transport/http/middleware"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrEmailExists) {
			httputil.WriteConflict(w, "Email already registered")
			return
		}
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	h.writeTokenResponse(w, http.StatusCreated, user)
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteBadRequest(w, "Invalid request body")
		return
	}

	user, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, model.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		log.Printf("[ERROR] Login handler: err=%v", err)
		httputil.WriteInternalError(w, "Failed to log in")
		return
	}

	h.writeTokenResponse(w, http.StatusOK, user)
}

// Me handles GET /me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	user, err := h.authService.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			httputil.WriteNotFound(w, "User not found")
			return
		}
		log.Printf("[ERROR] Me handler: user=%d err=%v", userID, err)
		httputil.WriteInternalError(w, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) writeTokenResponse(w http.ResponseWriter, status int, user *model.User) {
	token, err := h.authService.GenerateAccessToken(user.ID)
	if err != nil {
		log.Printf("[ERROR] Generate access token: user=%d err=%v", user.ID, err)
		httputil.WriteInternalError(w, "Failed to issue access token")
		return
	}

	httputil.WriteJSON(w, status, model.TokenResponse{
		AccessToken: token,
		ExpiresIn:   h.authService.AccessTokenMaxAge(),
		User:        user,
	})
}
