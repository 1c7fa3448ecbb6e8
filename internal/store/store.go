package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
)

// ErrNoBackend is returned when an operation runs before any adapter was selected.
var ErrNoBackend = fmt.Errorf("%w: no active backend", shared.ErrMissingConfig)

// Backend names the two persistence states.
type Backend int

const (
	Local Backend = iota
	Remote
)

func (b Backend) String() string {
	switch b {
	case Local:
		return "local"
	case Remote:
		return "remote"
	default:
		return "unknown"
	}
}

// Adapter is a backend-specific implementation of entry persistence.
//
// Load returns entries newest-first. Mutations return the canonical entry as persisted.
// An error matching [shared.ErrStorageFailure] means the mutation was applied but not made durable.
type Adapter interface {
	Load(ctx context.Context) ([]models.Entry, error)
	Insert(ctx context.Context, e models.Entry) (models.Entry, error)
	Update(ctx context.Context, id string, p models.Patch) (models.Entry, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Store is the history facade. The zero value is not usable; see [New].
type Store struct {
	mu         sync.RWMutex
	backend    Backend
	adapter    Adapter
	history    []models.Entry
	generation uint64

	now    func() time.Time
	logger *log.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithClock overrides the clock used to date new entries and compute "today".
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for non-fatal conditions.
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates an empty store with no active adapter.
func New(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = shared.NewLogger(nil)
	}
	s.logger = shared.WithLogger(s.logger, "component", "store")
	return s
}

// Open creates a store and loads it from adapter.
func Open(ctx context.Context, backend Backend, adapter Adapter, opts ...Option) (*Store, error) {
	s := New(opts...)
	if err := s.Use(ctx, backend, adapter); err != nil {
		return s, err
	}
	return s, nil
}

// Use swaps the active adapter, discards the cached history and reloads from the new adapter.
func (s *Store) Use(ctx context.Context, backend Backend, adapter Adapter) error {
	s.mu.Lock()
	s.backend = backend
	s.adapter = adapter
	s.history = nil
	s.generation++
	s.mu.Unlock()

	s.logger.Debug("backend selected", "backend", backend)
	return s.Refresh(ctx)
}

// Refresh reloads the cache from the active adapter.
//
// When the load fails the existing cache is left untouched, except for local read failures which degrade to an empty
// history and are only logged.
func (s *Store) Refresh(ctx context.Context) error {
	adapter, gen, err := s.active()
	if err != nil {
		return err
	}

	entries, err := adapter.Load(ctx)
	if err != nil && !errors.Is(err, shared.ErrStorageFailure) {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if err != nil {
		s.logger.Warn("history unreadable, starting empty", "err", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return nil
	}
	s.history = append([]models.Entry(nil), entries...)
	return nil
}

// Backend returns the active backend state.
func (s *Store) Backend() Backend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backend
}

// History returns a copy of the cached entries, newest first.
func (s *Store) History() []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Entry(nil), s.history...)
}

// Add records a new entry for mood, dated today, and puts it at the head of the history.
func (s *Store) Add(ctx context.Context, mood models.Mood, note string) (models.Entry, error) {
	entry, err := models.NewEntry(mood, note, s.now())
	if err != nil {
		return models.Entry{}, err
	}

	adapter, gen, err := s.active()
	if err != nil {
		return models.Entry{}, err
	}

	saved, err := adapter.Insert(ctx, entry)
	if err != nil && !errors.Is(err, shared.ErrStorageFailure) {
		return models.Entry{}, fmt.Errorf("failed to add entry: %w", err)
	}

	s.apply(gen, func(history []models.Entry) []models.Entry {
		return append([]models.Entry{saved}, history...)
	})
	return saved, s.degraded(err)
}

// Update patches the mood and/or note of the entry with the given id. An empty patch is rejected.
func (s *Store) Update(ctx context.Context, id string, p models.Patch) (models.Entry, error) {
	if p.Empty() {
		return models.Entry{}, fmt.Errorf("%w: patch sets neither mood nor note", shared.ErrValidationFailed)
	}
	if err := p.Validate(); err != nil {
		return models.Entry{}, err
	}

	adapter, gen, err := s.active()
	if err != nil {
		return models.Entry{}, err
	}

	updated, err := adapter.Update(ctx, id, p)
	if err != nil && !errors.Is(err, shared.ErrStorageFailure) {
		return models.Entry{}, fmt.Errorf("failed to update entry %s: %w", id, err)
	}

	s.apply(gen, func(history []models.Entry) []models.Entry {
		for i := range history {
			if history[i].ID == id {
				history[i] = updated
			}
		}
		return history
	})
	return updated, s.degraded(err)
}

// Delete removes the entry with the given id.
func (s *Store) Delete(ctx context.Context, id string) error {
	adapter, gen, err := s.active()
	if err != nil {
		return err
	}

	err = adapter.Delete(ctx, id)
	if err != nil && !errors.Is(err, shared.ErrStorageFailure) {
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}

	s.apply(gen, func(history []models.Entry) []models.Entry {
		kept := history[:0]
		for _, e := range history {
			if e.ID != id {
				kept = append(kept, e)
			}
		}
		return kept
	})
	return s.degraded(err)
}

// Clear removes every entry of the current owner or device.
func (s *Store) Clear(ctx context.Context) error {
	adapter, gen, err := s.active()
	if err != nil {
		return err
	}

	err = adapter.Clear(ctx)
	if err != nil && !errors.Is(err, shared.ErrStorageFailure) {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	s.apply(gen, func([]models.Entry) []models.Entry { return nil })
	return s.degraded(err)
}

// Today returns the first entry, in history order, dated with the current local calendar date.
func (s *Store) Today() (models.Entry, bool) {
	today := models.DateOf(s.now())

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.history {
		if e.Date == today {
			return e, true
		}
	}
	return models.Entry{}, false
}

// ByDateRange returns the entries with start <= date <= end, preserving history order.
func (s *Store) ByDateRange(start, end string) []models.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Entry
	for _, e := range s.history {
		if e.Date >= start && e.Date <= end {
			out = append(out, e)
		}
	}
	return out
}

func (s *Store) active() (Adapter, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.adapter == nil {
		return nil, 0, ErrNoBackend
	}
	return s.adapter, s.generation, nil
}

// apply mutates the cache unless the backend changed while the adapter call was in flight.
func (s *Store) apply(gen uint64, fn func([]models.Entry) []models.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("dropping result from previous backend")
		return
	}
	s.history = fn(s.history)
}

func (s *Store) degraded(err error) error {
	if err == nil {
		return nil
	}
	s.logger.Warn("change kept in memory but not persisted", "err", err)
	return err
}
