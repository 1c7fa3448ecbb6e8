package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/moodx/internal/models"
)

// Profiles lists every profile, newest first. Requires a service client (see [Client.AsService]).
func (c *Client) Profiles(ctx context.Context) ([]models.Profile, error) {
	profiles := []models.Profile{}
	_, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   ProfileTable,
		query:  NewQuery().Select("*").Order("created_at", false),
	}, &profiles)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return profiles, nil
}

// CountEntries returns the number of mood entries owned by owner, or of all owners when owner is empty.
func (c *Client) CountEntries(ctx context.Context, owner string) (int, error) {
	q := NewQuery().Select("id")
	if owner != "" {
		q.Eq("user_id", owner)
	}

	header, err := c.do(ctx, request{
		method: http.MethodHead,
		path:   EntriesTable,
		query:  q,
		prefer: []string{PreferCountExact},
	}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}

	n, err := ParseContentRange(header.Get("Content-Range"))
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return n, nil
}

// LatestEntry returns the most recent entry of owner, or nil when the owner has none.
func (c *Client) LatestEntry(ctx context.Context, owner string) (*models.Entry, error) {
	var rows []models.Entry
	_, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   EntriesTable,
		query:  NewQuery().Select("*").Eq("user_id", owner).Order("timestamp", false).Limit(1),
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest entry: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}
