package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"times-table-circuit/internal/app"
	"times-table-circuit/internal/domain"
)

type AuthHandler struct {
	service *app.GameService
}

func NewAuthHandler(service *app.GameService) *AuthHandler {
	return &AuthHandler{service: service}
}

type signInRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Mode     domain.Mode `json:"mode"`
}

type signInResponse struct {
	Success  bool        `json:"success"`
	IsNew    bool        `json:"isNew"`
	Error    string      `json:"error,omitempty"`
	Token    string      `json:"token,omitempty"`
	Username string      `json:"username,omitempty"`
	Mode     domain.Mode `json:"mode,omitempty"`
}

// SignIn handles POST /api/signin.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, signInResponse{Error: "invalid sign-in payload"})
		return
	}

	res, err := h.service.SignIn(r.Context(), req.Username, req.Password, req.Mode)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			status = http.StatusBadRequest
		case errors.Is(err, domain.ErrWrongPassword):
			status = http.StatusUnauthorized
		default:
			log.Error().Err(err).Msg("sign in failed")
		}
		writeJSON(w, status, signInResponse{Error: res.Error})
		return
	}

	writeJSON(w, http.StatusOK, signInResponse{
		Success:  true,
		IsNew:    res.IsNew,
		Token:    res.Session.Token,
		Username: res.Session.Username,
		Mode:     res.Session.Mode,
	})
}

// Session handles GET /api/session.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.GetSession(r.Context(), bearerToken(r))
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			log.Error().Err(err).Msg("session lookup failed")
		}
		writeJSON(w, http.StatusUnauthorized, errorPayload{Message: "not signed in"})
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// SignOut handles POST /api/signout.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.service.SignOut(r.Context(), bearerToken(r)); err != nil {
		log.Error().Err(err).Msg("sign out failed")
		writeJSON(w, http.StatusInternalServerError, errorPayload{Message: "sign out failed"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// bearerToken reads the Authorization header, falling back to ?token= for websocket clients.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}
