package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
)

// RemoteAdapter persists the history of one owner in the hosted mood_entries table.
type RemoteAdapter struct {
	client *Client
	owner  string
}

// NewRemoteAdapter creates an adapter scoped to owner. client should already carry the owner's token.
func NewRemoteAdapter(client *Client, owner string) *RemoteAdapter {
	return &RemoteAdapter{client: client, owner: owner}
}

// Owner returns the id the adapter is scoped to.
func (a *RemoteAdapter) Owner() string {
	return a.owner
}

func (a *RemoteAdapter) scoped() (*Query, error) {
	if a.owner == "" {
		return nil, fmt.Errorf("%w: no remote owner", shared.ErrNotAuthenticated)
	}
	return NewQuery().Eq("user_id", a.owner), nil
}

// Load fetches every entry of the owner, newest first. A malformed row fails the whole load.
func (a *RemoteAdapter) Load(ctx context.Context) ([]models.Entry, error) {
	q, err := a.scoped()
	if err != nil {
		return nil, err
	}

	entries := []models.Entry{}
	_, err = a.client.do(ctx, request{
		method: http.MethodGet,
		path:   EntriesTable,
		query:  q.Select("*").Order("timestamp", false),
	}, &entries)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch entries: %w", err)
	}
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("%w: malformed entry %s from backend: %v", shared.ErrNetworkFailure, e.ID, err)
		}
	}
	return entries, nil
}

// Insert stores e under the owner and returns the stored row.
func (a *RemoteAdapter) Insert(ctx context.Context, e models.Entry) (models.Entry, error) {
	if _, err := a.scoped(); err != nil {
		return models.Entry{}, err
	}
	e.Owner = a.owner

	var rows []models.Entry
	_, err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   EntriesTable,
		body:   e,
		prefer: []string{PreferRepresentation},
	}, &rows)
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to insert entry: %w", err)
	}
	if len(rows) == 0 {
		return e, nil
	}
	return rows[0], nil
}

// Update patches the owner's entry with id.
func (a *RemoteAdapter) Update(ctx context.Context, id string, p models.Patch) (models.Entry, error) {
	q, err := a.scoped()
	if err != nil {
		return models.Entry{}, err
	}

	var rows []models.Entry
	_, err = a.client.do(ctx, request{
		method: http.MethodPatch,
		path:   EntriesTable,
		query:  q.Eq("id", id),
		body:   p,
		prefer: []string{PreferRepresentation},
	}, &rows)
	if err != nil {
		return models.Entry{}, fmt.Errorf("failed to update entry: %w", err)
	}
	if len(rows) == 0 {
		return models.Entry{}, fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	return rows[0], nil
}

// Delete removes the owner's entry with id.
func (a *RemoteAdapter) Delete(ctx context.Context, id string) error {
	q, err := a.scoped()
	if err != nil {
		return err
	}

	var rows []models.Entry
	_, err = a.client.do(ctx, request{
		method: http.MethodDelete,
		path:   EntriesTable,
		query:  q.Eq("id", id),
		prefer: []string{PreferRepresentation},
	}, &rows)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: %s", shared.ErrNotFound, id)
	}
	return nil
}

// Clear removes every entry of the owner.
func (a *RemoteAdapter) Clear(ctx context.Context) error {
	q, err := a.scoped()
	if err != nil {
		return err
	}

	if _, err := a.client.do(ctx, request{method: http.MethodDelete, path: EntriesTable, query: q}, nil); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}
	return nil
}
