package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
)

// tokenResponse is returned by signup and token.
type tokenResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        models.Profile `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Username string `json:"username"`
}

// authHandler serves the /auth/v1 endpoints.
type authHandler struct {
	s *Server
}

func (h *authHandler) Routes() []string {
	return []string{
		"POST /auth/v1/signup",
		"POST /auth/v1/token",
		"POST /auth/v1/logout",
	}
}

func (h *authHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.s.identify(ctx, r)
	if err != nil {
		writeError(w, err)
		return
	}

	switch r.URL.Path {
	case "/auth/v1/signup":
		h.signup(ctx, w, r)
	case "/auth/v1/token":
		h.token(ctx, w, r)
	case "/auth/v1/logout":
		h.logout(ctx, w, r, p)
	default:
		http.NotFound(w, r)
	}
}

func (h *authHandler) signup(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(r, &c); err != nil {
		writeError(w, err)
		return
	}

	profile := &models.Profile{Email: c.Email, Username: c.Username}
	if err := h.s.profiles.Create(ctx, profile); err != nil {
		writeError(w, err)
		return
	}
	h.s.logger.Info("profile created", "user_id", profile.ID)
	h.issue(ctx, w, profile)
}

func (h *authHandler) token(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := decodeBody(r, &c); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.s.profiles.GetByEmail(ctx, c.Email)
	if errors.Is(err, shared.ErrNotFound) {
		writeError(w, fmt.Errorf("%w: invalid login credentials", shared.ErrNotAuthenticated))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	h.issue(ctx, w, profile)
}

func (h *authHandler) logout(ctx context.Context, w http.ResponseWriter, r *http.Request, p principal) {
	if p.owner == "" {
		writeError(w, fmt.Errorf("%w: user token required", shared.ErrNotAuthenticated))
		return
	}
	if err := h.s.sessions.Revoke(ctx, bearerToken(r)); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *authHandler) issue(ctx context.Context, w http.ResponseWriter, profile *models.Profile) {
	token, _, err := h.s.sessions.Create(ctx, profile.ID, h.s.opts.TokenTTL)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.s.opts.TokenTTL.Seconds()),
		User:        *profile,
	})
}
