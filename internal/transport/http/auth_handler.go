package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/repository"
	"github.com/quickmatch/lobby-service/internal/security"
	"github.com/quickmatch/lobby-service/internal/service"
	httpmw "github.com/quickmatch/lobby-service/internal/transport/http/middleware"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	res, err := h.svc.Register(r.Context(), strings.TrimSpace(req.Email), req.Password, req.DisplayName)
	if err != nil {
		h.writeAuthError(w, "Register", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toAuthResponse(res))
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	res, err := h.svc.Login(r.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		h.writeAuthError(w, "Login", err)
		return
	}

	writeJSON(w, http.StatusOK, h.toAuthResponse(res))
}

// POST /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	res, err := h.svc.Refresh(r.Context(), strings.TrimSpace(req.RefreshToken))
	if err != nil {
		h.writeAuthError(w, "Refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int64(h.svc.AccessTTL().Seconds()),
	})
}

// POST /auth/logout (authenticated)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	if err := h.svc.Logout(r.Context(), userID); err != nil {
		h.writeAuthError(w, "Logout", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

// GET /auth/me (authenticated)
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	u, err := h.svc.Me(r.Context(), userID)
	if err != nil {
		h.writeAuthError(w, "Me", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserItem(u))
}

// PATCH /auth/me (authenticated)
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	u, err := h.svc.UpdateProfile(r.Context(), userID, req.DisplayName)
	if err != nil {
		h.writeAuthError(w, "UpdateMe", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserItem(u))
}

func (h *AuthHandler) toAuthResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		ExpiresIn:    int64(h.svc.AccessTTL().Seconds()),
		User:         toUserItem(res.User),
	}
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: "email already registered"})
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, security.ErrPasswordTooShort):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "user not found"})
	default:
		slog.Error("handler."+op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

func toUserItem(u *domain.User) UserItem {
	return UserItem{
		ID:          string(u.ID),
		Email:       u.Email,
		DisplayName: u.DisplayName,
	}
}
