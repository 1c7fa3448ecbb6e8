package server

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/moodx/internal/shared"
)

// principal is the caller identity resolved from the request headers.
type principal struct {
	owner   string // empty for anonymous and service callers
	service bool
}

func (p principal) authenticated() bool {
	return p.service || p.owner != ""
}

// canAccess reports whether the caller may touch rows owned by owner.
func (p principal) canAccess(owner string) bool {
	return p.service || (p.owner != "" && p.owner == owner)
}

func keyEqual(a, b string) bool {
	return b != "" && subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// identify checks the apikey header and resolves the bearer token, if any.
func (s *Server) identify(ctx context.Context, r *http.Request) (principal, error) {
	key := r.Header.Get("apikey")
	if !keyEqual(key, s.opts.AnonKey) && !keyEqual(key, s.opts.ServiceKey) {
		return principal{}, fmt.Errorf("%w: invalid api key", shared.ErrNotAuthenticated)
	}

	token := bearerToken(r)
	switch {
	case token == "":
		return principal{}, nil
	case keyEqual(token, s.opts.ServiceKey):
		return principal{service: true}, nil
	}

	owner, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return principal{}, err
	}
	return principal{owner: owner}, nil
}
