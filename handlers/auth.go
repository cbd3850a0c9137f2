package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"optix/models"
	"optix/services/auth"
)

type authProvider interface {
	SignIn(ctx context.Context, email, password string) (models.AuthUser, error)
	SignUp(ctx context.Context, email, password, displayName string) (models.AuthUser, error)
	SignOut(ctx context.Context) error
	UpdateProfile(ctx context.Context, displayName, avatarURL string) (models.AuthUser, error)
}

type authStateReader interface {
	State() auth.State
}

var (
	_ authProvider    = (*auth.LocalProvider)(nil)
	_ authStateReader = (*auth.Mirror)(nil)
)

type AuthHandler struct {
	Provider authProvider
	Mirror   authStateReader
}

func NewAuthHandler(provider authProvider, mirror authStateReader) *AuthHandler {
	return &AuthHandler{Provider: provider, Mirror: mirror}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Provider.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Provider.SignUp(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.Provider.SignOut(r.Context()); err != nil {
		log.Printf("[auth] sign out failed: %v", err)
		writeJSONError(w, auth.Message(err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the mirrored auth state.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Mirror.State())
}

type profileRequest struct {
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// UpdateMe changes the signed-in user's display name and avatar.
func (h *AuthHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.Provider.UpdateProfile(r.Context(), req.DisplayName, req.AvatarURL)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func writeAuthError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, auth.ErrInvalidEmail), errors.Is(err, auth.ErrWeakPassword):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrEmailInUse):
		status = http.StatusConflict
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrWrongPassword),
		errors.Is(err, auth.ErrInvalidCredential),
		errors.Is(err, auth.ErrSignedOut):
		status = http.StatusUnauthorized
	case errors.Is(err, auth.ErrUserDisabled), errors.Is(err, auth.ErrOperationNotAllowed):
		status = http.StatusForbidden
	case errors.Is(err, auth.ErrTooManyRequests):
		status = http.StatusTooManyRequests
	default:
		log.Printf("[auth] request failed: %v", err)
	}
	writeJSONError(w, auth.Message(err), status)
}
