package store

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/session"
	"github.com/desertthunder/moodx/internal/shared"
	tu "github.com/desertthunder/moodx/internal/testing"
	"golang.org/x/oauth2"
)

func signedIn(owner string) *session.Session {
	return &session.Session{
		Owner: owner,
		Token: &oauth2.Token{AccessToken: "token-" + owner, TokenType: "Bearer", Expiry: time.Now().Add(time.Hour)},
	}
}

func TestSelector(t *testing.T) {
	ctx := context.Background()
	logger := shared.NewLogger(io.Discard)

	setup := func(t *testing.T) (*Store, *session.FileProvider, *FakeRemotes, *Selector) {
		t.Helper()
		provider, err := session.NewFileProvider("")
		if err != nil {
			t.Fatalf("failed to create provider: %v", err)
		}
		local := tu.NewFakeAdapter(tu.MakeEntry("local-1", models.Calm, now))
		remotes := &FakeRemotes{adapters: map[string]*tu.FakeAdapter{
			"alice": tu.NewFakeAdapter(tu.MakeEntry("alice-1", models.Happy, now)),
			"bob":   tu.NewFakeAdapter(tu.MakeEntry("bob-1", models.Sad, now)),
		}}
		st := New(WithClock(tu.FixedClock(now)), WithLogger(logger))
		sel := NewSelector(st, provider, local, remotes.Factory, logger)
		t.Cleanup(sel.Close)
		return st, provider, remotes, sel
	}

	t.Run("starts local without a session", func(t *testing.T) {
		st, _, _, sel := setup(t)
		if err := sel.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if sel.State() != Local {
			t.Errorf("expected local state, got %s", sel.State())
		}
		if got := ids(st.History()); len(got) != 1 || got[0] != "local-1" {
			t.Errorf("expected local history, got %v", got)
		}
	})

	t.Run("sign in switches to the owner's remote history", func(t *testing.T) {
		st, provider, _, sel := setup(t)
		if err := sel.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		if err := provider.SignIn(signedIn("alice")); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if sel.State() != Remote {
			t.Errorf("expected remote state, got %s", sel.State())
		}
		if got := ids(st.History()); len(got) != 1 || got[0] != "alice-1" {
			t.Errorf("expected only alice's entries, got %v", got)
		}

		if _, err := st.Add(ctx, models.Excited, "remote add"); err != nil {
			t.Fatalf("Add failed: %v", err)
		}

		if err := provider.SignOut(); err != nil {
			t.Fatalf("SignOut failed: %v", err)
		}
		if sel.State() != Local {
			t.Errorf("expected local state, got %s", sel.State())
		}
		if got := ids(st.History()); len(got) != 1 || got[0] != "local-1" {
			t.Errorf("remote entries must not migrate to local, got %v", got)
		}
	})

	t.Run("owner change reloads", func(t *testing.T) {
		st, provider, remotes, sel := setup(t)
		if err := provider.SignIn(signedIn("alice")); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if err := sel.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if sel.State() != Remote {
			t.Fatalf("expected remote state at start, got %s", sel.State())
		}

		if err := provider.SignIn(signedIn("bob")); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if got := ids(st.History()); len(got) != 1 || got[0] != "bob-1" {
			t.Errorf("expected bob's entries, got %v", got)
		}
		if remotes.built != 2 {
			t.Errorf("expected 2 remote adapters, got %d", remotes.built)
		}

		if err := provider.SignIn(signedIn("bob")); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if remotes.adapters["bob"].CallCount("load") != 1 {
			t.Error("same owner should not reload")
		}
	})

	t.Run("failed remote load leaves an empty history", func(t *testing.T) {
		st, provider, remotes, sel := setup(t)
		if err := sel.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		remotes.adapters["alice"].LoadErr = shared.ErrNetworkFailure

		if err := provider.SignIn(signedIn("alice")); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if !errors.Is(sel.Err(), shared.ErrNetworkFailure) {
			t.Errorf("expected transition error, got %v", sel.Err())
		}
		if len(st.History()) != 0 {
			t.Errorf("local entries must not leak into the remote view, got %v", ids(st.History()))
		}
	})

	t.Run("close stops following and can be called concurrently", func(t *testing.T) {
		_, provider, remotes, sel := setup(t)
		if err := sel.Start(ctx); err != nil {
			t.Fatalf("Start failed: %v", err)
		}

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				sel.Close()
			}()
		}
		wg.Wait()

		if err := provider.SignIn(signedIn("alice")); err != nil {
			t.Fatalf("SignIn failed: %v", err)
		}
		if sel.State() != Local {
			t.Errorf("closed selector should stay local, got %s", sel.State())
		}
		if remotes.built != 0 {
			t.Errorf("closed selector should not build remote adapters, built %d", remotes.built)
		}
	})
}

// FakeRemotes hands out one fake adapter per session owner.
type FakeRemotes struct {
	adapters map[string]*tu.FakeAdapter
	built    int
}

func (f *FakeRemotes) Factory(s *session.Session) Adapter {
	f.built++
	a, ok := f.adapters[s.Owner]
	if !ok {
		a = tu.NewFakeAdapter()
		f.adapters[s.Owner] = a
	}
	return a
}
