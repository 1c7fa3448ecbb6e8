package services

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/session"
	"github.com/desertthunder/moodx/internal/shared"
	"golang.org/x/oauth2"
)

// AuthResponse is returned by the signup and token endpoints.
type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"` // seconds
	User        models.Profile `json:"user"`
}

// Session converts the response into a [session.Session], computing the expiry from now.
func (r AuthResponse) Session(now time.Time) *session.Session {
	tokenType := r.TokenType
	if tokenType == "" {
		tokenType = "Bearer"
	}
	return &session.Session{
		Owner:    r.User.ID,
		Email:    r.User.Email,
		Username: r.User.Username,
		Token: &oauth2.Token{
			AccessToken: r.AccessToken,
			TokenType:   tokenType,
			Expiry:      now.Add(time.Duration(r.ExpiresIn) * time.Second),
		},
	}
}

// SignUpRequest is the signup payload.
type SignUpRequest struct {
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// SignInRequest is the token payload.
type SignInRequest struct {
	Email string `json:"email"`
}

// SignUp registers a profile and opens a session for it.
func (c *Client) SignUp(ctx context.Context, email, username string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}
	return c.authenticate(ctx, authPrefix+"/signup", SignUpRequest{Email: email, Username: strings.TrimSpace(username)})
}

// SignIn opens a session for an existing profile.
func (c *Client) SignIn(ctx context.Context, email string) (*session.Session, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}
	return c.authenticate(ctx, authPrefix+"/token", SignInRequest{Email: email})
}

// SignOut revokes the bearer token the client was derived with (see [Client.ForSession]).
func (c *Client) SignOut(ctx context.Context) error {
	if _, err := c.do(ctx, request{method: http.MethodPost, path: authPrefix + "/logout"}, nil); err != nil {
		return fmt.Errorf("failed to sign out: %w", err)
	}
	return nil
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*session.Session, error) {
	var resp AuthResponse
	if _, err := c.do(ctx, request{method: http.MethodPost, path: path, body: body}, &resp); err != nil {
		return nil, fmt.Errorf("failed to authenticate: %w", err)
	}
	if resp.AccessToken == "" || resp.User.ID == "" {
		return nil, fmt.Errorf("%w: empty auth response", shared.ErrNotAuthenticated)
	}
	return resp.Session(time.Now()), nil
}
