package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"recipes_backend/auth"
	apperrors "recipes_backend/errors"
)

// AuthHandler serves registration and login.
type AuthHandler struct {
	auth   *auth.Service
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *auth.Service, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register creates a user.
// POST /auth/register
// Request:  {"username":"...","password":"..."}
// Response: {"message":"User registered successfully"}
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	user, err := h.auth.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	h.logger.Info("user registered", "userID", user.ID)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login checks credentials and returns a token.
// POST /auth/login
// Request:  {"username":"...","password":"..."}
// Response: {"token":"...","userID":"..."}
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := readJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	token, userID, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.respondAuthError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token, "userID": userID})
}

func (h *AuthHandler) respondAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var se *apperrors.StructuredError
	if errors.As(err, &se) {
		switch se.Code {
		case apperrors.ErrCodeInvalidRequest, apperrors.ErrCodeUnauthorized:
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": se.Message})
			return
		}
	}
	respondError(w, r, h.logger, err)
}
