package session

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/moodx/internal/shared"
	"golang.org/x/oauth2"
)

func validSession(owner string) *Session {
	return &Session{
		Owner: owner,
		Email: owner + "@example.com",
		Token: &oauth2.Token{AccessToken: "token-" + owner, TokenType: "bearer", Expiry: time.Now().Add(time.Hour)},
	}
}

func TestSession(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		var nilSession *Session
		if nilSession.Valid() {
			t.Error("nil session should not be valid")
		}
		if (&Session{Owner: "u1"}).Valid() {
			t.Error("session without token should not be valid")
		}
		expired := validSession("u1")
		expired.Token.Expiry = time.Now().Add(-time.Minute)
		if expired.Valid() {
			t.Error("expired session should not be valid")
		}
		if !validSession("u1").Valid() {
			t.Error("expected valid session")
		}
	})

	t.Run("TokenSource", func(t *testing.T) {
		tok, err := validSession("u1").TokenSource().Token()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if tok.AccessToken != "token-u1" {
			t.Errorf("expected token-u1, got %s", tok.AccessToken)
		}
	})
}

func TestFileProvider(t *testing.T) {
	t.Run("starts signed out without a file", func(t *testing.T) {
		p, err := NewFileProvider(filepath.Join(t.TempDir(), "session.json"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Current() != nil {
			t.Error("expected no session")
		}
	})

	t.Run("SignIn persists and notifies", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "session.json")
		p, err := NewFileProvider(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got []*Session
		unsubscribe := p.Subscribe(func(s *Session) { got = append(got, s) })
		defer unsubscribe()

		if err := p.SignIn(validSession("u1")); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}

		if len(got) != 1 || got[0].Owner != "u1" {
			t.Fatalf("expected one notification for u1, got %+v", got)
		}

		restored, err := NewFileProvider(path)
		if err != nil {
			t.Fatalf("failed to restore: %v", err)
		}
		if s := restored.Current(); s == nil || s.Owner != "u1" || s.Token.AccessToken != "token-u1" {
			t.Errorf("expected restored session for u1, got %+v", s)
		}

		if err := p.SignOut(); err != nil {
			t.Fatalf("SignOut failed: %v", err)
		}
		if len(got) != 2 || got[1] != nil {
			t.Errorf("expected nil notification on sign out, got %+v", got)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Error("session file should be removed on sign out")
		}
	})

	t.Run("SignIn rejects invalid session", func(t *testing.T) {
		p, _ := NewFileProvider("")
		err := p.SignIn(&Session{Owner: "u1"})
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("unsubscribe stops notifications", func(t *testing.T) {
		p, _ := NewFileProvider("")
		calls := 0
		unsubscribe := p.Subscribe(func(*Session) { calls++ })
		unsubscribe()

		if err := p.SignIn(validSession("u2")); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if calls != 0 {
			t.Errorf("expected no calls after unsubscribe, got %d", calls)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "session.json")
		if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
		if _, err := NewFileProvider(path); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("expired session reads as signed out", func(t *testing.T) {
		p, _ := NewFileProvider("")
		s := validSession("u3")
		if err := p.SignIn(s); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		p.current.Token.Expiry = time.Now().Add(-time.Second)
		if p.Current() != nil {
			t.Error("expired session should read as signed out")
		}
	})
}
