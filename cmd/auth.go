package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/moodx/internal/session"
	"github.com/desertthunder/moodx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthSignup registers a remote profile and signs in as it.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	client, err := r.remoteClient()
	if err != nil {
		return err
	}

	r.logger.Info("registering profile", "email", email)
	s, err := client.SignUp(ctx, email, cmd.String("username"))
	if err != nil {
		return fmt.Errorf("signup failed: %w", err)
	}
	return r.signIn(s)
}

// AuthLogin opens a session for an existing remote profile.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.StringArg("email")
	if email == "" {
		return fmt.Errorf("%w: email", shared.ErrMissingArgument)
	}

	client, err := r.remoteClient()
	if err != nil {
		return err
	}

	r.logger.Info("signing in", "email", email)
	s, err := client.SignIn(ctx, email)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	return r.signIn(s)
}

// AuthLogout revokes the current token and forgets the session. Moods stay in the remote history.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.sessionProvider()
	if err != nil {
		return err
	}

	current := sessions.Current()
	if current == nil {
		if err := sessions.SignOut(); err != nil {
			return err
		}
		return r.writePlain("Not signed in\n")
	}

	if client, err := r.remoteClient(); err == nil {
		if err := client.ForSession(current).SignOut(ctx); err != nil {
			r.logger.Warn("failed to revoke token", "error", err)
		}
	}

	if err := sessions.SignOut(); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out, moods are now stored on this device\n")
}

// AuthStatus reports which backend the history uses.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	sessions, err := r.sessionProvider()
	if err != nil {
		return err
	}

	current := sessions.Current()
	if cmd.Bool("json") {
		status := map[string]any{"signed_in": current.Valid(), "backend": "local"}
		if current.Valid() {
			status["backend"] = "remote"
			status["owner"] = current.Owner
			status["email"] = current.Email
			status["expires_at"] = current.Token.Expiry
		}
		return r.writeJSON(status, true)
	}

	if !current.Valid() {
		return r.writePlain("Not signed in, moods are stored on this device\n")
	}
	r.writePlain("✓ Signed in as %s <%s>\n", current.Username, current.Email)
	r.writePlain("Owner: %s\n", current.Owner)
	return r.writePlain("Token expires: %s\n", current.Token.Expiry.Local().Format("2006-01-02 15:04"))
}

func (r *Runner) signIn(s *session.Session) error {
	sessions, err := r.sessionProvider()
	if err != nil {
		return err
	}
	if err := sessions.SignIn(s); err != nil {
		return err
	}
	r.logger.Info("signed in", "owner", s.Owner)
	return r.writePlain("✓ Signed in as %s <%s>, moods are now stored remotely\n", s.Username, s.Email)
}
