package store

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodx/internal/session"
	"github.com/desertthunder/moodx/internal/shared"
)

// SessionProvider exposes the current session and change notifications.
type SessionProvider interface {
	Current() *session.Session
	Subscribe(fn func(*session.Session)) (unsubscribe func())
}

// RemoteFactory builds the remote adapter for a signed-in session.
type RemoteFactory func(s *session.Session) Adapter

// Selector keeps a [Store] on the backend that matches the session state:
// [Local] without a session, [Remote] (scoped to the session owner) with one.
type Selector struct {
	store    *Store
	provider SessionProvider
	local    Adapter
	remote   RemoteFactory
	logger   *log.Logger

	mu          sync.Mutex
	ctx         context.Context
	owner       string
	started     bool
	lastErr     error
	unsubscribe func()
}

// NewSelector wires a store to a session provider.
func NewSelector(st *Store, provider SessionProvider, local Adapter, remote RemoteFactory, logger *log.Logger) *Selector {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Selector{
		store:    st,
		provider: provider,
		local:    local,
		remote:   remote,
		logger:   shared.WithLogger(logger, "component", "selector"),
	}
}

// Start selects the backend for the current session, loads the store, and follows later session changes.
//
// Errors from later transitions are logged and available through [Selector.Err].
func (sel *Selector) Start(ctx context.Context) error {
	sel.mu.Lock()
	sel.ctx = ctx
	sel.mu.Unlock()

	err := sel.transition(sel.provider.Current())
	unsubscribe := sel.provider.Subscribe(func(s *session.Session) {
		if err := sel.transition(s); err != nil {
			sel.logger.Error("backend reload failed", "err", err)
		}
	})

	sel.mu.Lock()
	sel.unsubscribe = unsubscribe
	sel.mu.Unlock()
	return err
}

// State returns the active backend.
func (sel *Selector) State() Backend {
	return sel.store.Backend()
}

// Err returns the error of the most recent transition, if any.
func (sel *Selector) Err() error {
	sel.mu.Lock()
	defer sel.mu.Unlock()
	return sel.lastErr
}

// Close stops following session changes.
// Safe to call more than once.
func (sel *Selector) Close() {
	sel.mu.Lock()
	unsubscribe := sel.unsubscribe
	sel.unsubscribe = nil
	sel.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

func (sel *Selector) transition(s *session.Session) error {
	sel.mu.Lock()
	defer sel.mu.Unlock()

	var (
		backend = Local
		adapter = sel.local
		owner   string
	)
	if s.Valid() {
		backend, adapter, owner = Remote, sel.remote(s), s.Owner
	}

	if sel.started && backend == sel.store.Backend() && owner == sel.owner {
		return nil
	}

	sel.logger.Info("switching backend", "from", sel.store.Backend(), "to", backend, "owner", owner)
	sel.started = true
	sel.owner = owner
	sel.lastErr = sel.store.Use(sel.ctx, backend, adapter)
	return sel.lastErr
}
