// package session tracks the signed-in remote user and notifies subscribers when it changes.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/desertthunder/moodx/internal/shared"
	"golang.org/x/oauth2"
)

// Session is an authenticated remote identity.
type Session struct {
	Owner    string        `json:"owner"`
	Email    string        `json:"email,omitempty"`
	Username string        `json:"username,omitempty"`
	Token    *oauth2.Token `json:"token"`
}

// Valid reports whether the session has an owner and an unexpired access token.
func (s *Session) Valid() bool {
	return s != nil && s.Owner != "" && s.Token != nil && s.Token.Valid()
}

// TokenSource returns a static [oauth2.TokenSource] over the session's token.
func (s *Session) TokenSource() oauth2.TokenSource {
	return oauth2.StaticTokenSource(s.Token)
}

// FileProvider holds the current session and persists it as JSON at path.
//
// An empty path keeps the session in memory only.
type FileProvider struct {
	path    string
	mu      sync.Mutex
	current *Session
	subs    map[int]func(*Session)
	nextID  int
}

// NewFileProvider restores a previously saved session from path, if any.
func NewFileProvider(path string) (*FileProvider, error) {
	p := &FileProvider{path: path, subs: make(map[int]func(*Session))}
	if path == "" {
		return p, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("%w: corrupt session file %s: %v", shared.ErrInvalidInput, path, err)
	}
	p.current = &s
	return p, nil
}

// Current returns the active session, or nil when signed out or the token has expired.
func (p *FileProvider) Current() *Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.current.Valid() {
		return nil
	}
	s := *p.current
	return &s
}

// Subscribe registers fn to be called with the new session (nil when signed out) on every change.
// The returned func removes the subscription.
func (p *FileProvider) Subscribe(fn func(*Session)) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	p.subs[id] = fn

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
}

// SignIn stores s as the current session and notifies subscribers.
func (p *FileProvider) SignIn(s *Session) error {
	if !s.Valid() {
		return fmt.Errorf("%w: session has no owner or a stale token", shared.ErrNotAuthenticated)
	}

	if p.path != "" {
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(p.path), 0700); err != nil {
			return fmt.Errorf("failed to create session directory: %w", err)
		}
		if err := os.WriteFile(p.path, data, 0600); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
	}

	p.mu.Lock()
	cp := *s
	p.current = &cp
	p.mu.Unlock()

	p.notify(&cp)
	return nil
}

// SignOut forgets the current session and notifies subscribers.
func (p *FileProvider) SignOut() error {
	if p.path != "" {
		if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove session file: %w", err)
		}
	}

	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	p.notify(nil)
	return nil
}

func (p *FileProvider) notify(s *Session) {
	p.mu.Lock()
	fns := make([]func(*Session), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()

	for _, fn := range fns {
		if s == nil {
			fn(nil)
			continue
		}
		cp := *s
		fn(&cp)
	}
}
