package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/barberia/backend/internal/auth"
	"github.com/barberia/backend/internal/httpx"
	"github.com/barberia/backend/internal/middleware"
	"github.com/barberia/backend/internal/models"
	"github.com/barberia/backend/internal/services"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type AuthHandler struct {
	service *services.AuthService
	logger  zerolog.Logger
}

func NewAuthHandler(service *services.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service: service,
		logger:  logger.With().Str("component", "auth_handler").Logger(),
	}
}

type registerRequest struct {
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type deleteAccountRequest struct {
	Password string `json:"password"`
}

type authResponse struct {
	Token string             `json:"token"`
	User  models.AccountView `json:"user"`
}

type userResponse struct {
	User models.AccountView `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Register(r.Context(), services.RegisterRequest{
		FullName:        req.FullName,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, authResponse{Token: result.Token, User: result.Account})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, authResponse{Token: result.Token, User: result.Account})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	_, accountID, ok := requireClaims(w, r)
	if !ok {
		return
	}

	view, err := h.service.CurrentAccount(r.Context(), accountID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.JSON(w, http.StatusOK, userResponse{User: *view})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, accountID, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.ChangePassword(r.Context(), accountID, claims, req.CurrentPassword, req.NewPassword); err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.Ack(w, "password updated")
}

func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, accountID, ok := requireClaims(w, r)
	if !ok {
		return
	}

	var req deleteAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), accountID, claims, req.Password); err != nil {
		h.writeServiceError(w, err)
		return
	}

	httpx.Ack(w, "account deleted")
}

// Logout is a stateless acknowledgement; the client discards its token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.Ack(w, "logged out")
}

// requireClaims pulls the guard-verified claims off the request. The guard
// always runs first on protected routes; the nil check covers a
// misconfigured route rather than a reachable state.
func requireClaims(w http.ResponseWriter, r *http.Request) (*auth.Claims, uuid.UUID, bool) {
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		httpx.Error(w, http.StatusUnauthorized, "authentication required")
		return nil, uuid.Nil, false
	}
	accountID, err := claims.AccountID()
	if err != nil {
		httpx.Error(w, http.StatusForbidden, "invalid or expired token")
		return nil, uuid.Nil, false
	}
	return claims, accountID, true
}

func (h *AuthHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrMissingFields),
		errors.Is(err, services.ErrInvalidEmail),
		errors.Is(err, services.ErrPasswordMismatch),
		errors.Is(err, services.ErrPasswordTooShort):
		httpx.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrEmailTaken):
		httpx.Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrWrongPassword):
		httpx.Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrAccountNotFound):
		httpx.Error(w, http.StatusNotFound, err.Error())
	default:
		// Storage and hashing failures stay server-side; the client gets
		// a generic message.
		h.logger.Error().Err(err).Msg("internal error")
		httpx.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
