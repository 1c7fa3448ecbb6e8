// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
)

// FakeAdapter is an in-memory test double for store.Adapter.
//
// Setting one of the *Err fields makes that operation fail without touching Entries. Setting Degraded makes mutations
// apply and then report it, like a local slot whose write failed.
type FakeAdapter struct {
	mu        sync.Mutex
	Entries   []models.Entry
	LoadErr   error
	InsertErr error
	UpdateErr error
	DeleteErr error
	ClearErr  error
	Degraded  error
	Calls     map[string]int
}

// NewFakeAdapter returns an adapter preloaded with entries (newest first).
func NewFakeAdapter(entries ...models.Entry) *FakeAdapter {
	return &FakeAdapter{Entries: entries, Calls: make(map[string]int)}
}

func (f *FakeAdapter) record(op string) {
	if f.Calls == nil {
		f.Calls = make(map[string]int)
	}
	f.Calls[op]++
}

func (f *FakeAdapter) Load(ctx context.Context) ([]models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("load")
	if f.LoadErr != nil {
		if errors.Is(f.LoadErr, shared.ErrStorageFailure) {
			return []models.Entry{}, f.LoadErr
		}
		return nil, f.LoadErr
	}
	return append([]models.Entry(nil), f.Entries...), nil
}

func (f *FakeAdapter) Insert(ctx context.Context, e models.Entry) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("insert")
	if f.InsertErr != nil {
		return models.Entry{}, f.InsertErr
	}
	f.Entries = append([]models.Entry{e}, f.Entries...)
	return e, f.Degraded
}

func (f *FakeAdapter) Update(ctx context.Context, id string, p models.Patch) (models.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update")
	if f.UpdateErr != nil {
		return models.Entry{}, f.UpdateErr
	}
	for i, e := range f.Entries {
		if e.ID == id {
			f.Entries[i] = e.Apply(p)
			return f.Entries[i], f.Degraded
		}
	}
	return models.Entry{}, shared.ErrNotFound
}

func (f *FakeAdapter) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete")
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	for i, e := range f.Entries {
		if e.ID == id {
			f.Entries = append(f.Entries[:i], f.Entries[i+1:]...)
			return f.Degraded
		}
	}
	return shared.ErrNotFound
}

func (f *FakeAdapter) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("clear")
	if f.ClearErr != nil {
		return f.ClearErr
	}
	f.Entries = nil
	return f.Degraded
}

// CallCount returns how many times op ("load", "insert", ...) was invoked.
func (f *FakeAdapter) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Calls[op]
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// MakeEntry builds an entry dated at t without validation, for seeding fixtures.
func MakeEntry(id string, mood models.Mood, t time.Time) models.Entry {
	return models.Entry{ID: id, Mood: mood, Date: models.DateOf(t), Timestamp: t.UnixMilli()}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
	requests int
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	m.requests++
	return m.response, m.err
}

// Requests returns how many requests reached the round tripper.
func (m *MockRoundTripper) Requests() int {
	return m.requests
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
