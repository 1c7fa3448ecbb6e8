package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
)

// entryColumns lists the columns that may be filtered or ordered on.
var entryColumns = map[string]bool{
	"id":         true,
	"user_id":    true,
	"mood":       true,
	"date":       true,
	"timestamp":  true,
	"created_at": true,
}

// EntryFilter selects mood rows. Zero fields are ignored.
type EntryFilter struct {
	// Eq holds column = value filters, keyed by column name.
	Eq map[string]string
	// Order is the column to sort by; rows come back by timestamp descending when empty.
	Order string
	Asc   bool
	Limit int
}

// IsOwnedBy reports whether the filter pins user_id to owner.
func (f EntryFilter) IsOwnedBy(owner string) bool {
	return f.Eq["user_id"] == owner
}

func (f EntryFilter) where() (string, []any, error) {
	if len(f.Eq) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(f.Eq))
	args := make([]any, 0, len(f.Eq))
	for col, val := range f.Eq {
		if !entryColumns[col] {
			return "", nil, fmt.Errorf("%w: unknown column %q", shared.ErrInvalidInput, col)
		}
		clauses = append(clauses, col+" = ?")
		args = append(args, val)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func (f EntryFilter) orderBy() (string, error) {
	col := f.Order
	if col == "" {
		col = "timestamp"
	}
	if !entryColumns[col] {
		return "", fmt.Errorf("%w: unknown column %q", shared.ErrInvalidInput, col)
	}
	dir := "DESC"
	if f.Asc {
		dir = "ASC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir), nil
}

// EntryRepository persists [models.Entry] rows in the mood_entries table.
type EntryRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewEntryRepository creates a new [EntryRepository] with the given database connection
func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db, now: time.Now}
}

// Insert stores e, generating an id when it has none. The entry must carry an owner.
func (r *EntryRepository) Insert(ctx context.Context, e models.Entry) (models.Entry, error) {
	if e.Owner == "" {
		return models.Entry{}, fmt.Errorf("%w: entry has no owner", shared.ErrInvalidInput)
	}
	if e.ID == "" {
		e.ID = shared.GenerateID()
	}
	if err := e.Validate(); err != nil {
		return models.Entry{}, err
	}

	query := `
		INSERT INTO mood_entries (id, user_id, mood, date, timestamp, note, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, e.ID, e.Owner, string(e.Mood), e.Date, e.Timestamp, nullString(e.Note), r.now())
	if err != nil {
		return models.Entry{}, mapConstraint(err, "mood entry")
	}
	return e, nil
}

// List returns the rows matching f.
func (r *EntryRepository) List(ctx context.Context, f EntryFilter) ([]models.Entry, error) {
	return listEntries(ctx, r.db, f)
}

// Count returns the number of rows matching f, ignoring its order and limit.
func (r *EntryRepository) Count(ctx context.Context, f EntryFilter) (int, error) {
	where, args, err := f.where()
	if err != nil {
		return 0, err
	}

	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM mood_entries"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count mood entries: %w", err)
	}
	return n, nil
}

// Update applies p to every row matching f and returns the updated rows.
func (r *EntryRepository) Update(ctx context.Context, f EntryFilter, p models.Patch) ([]models.Entry, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var updated []models.Entry
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := listEntries(ctx, tx, f)
		if err != nil {
			return err
		}

		for _, e := range rows {
			e = e.Apply(p)
			_, err := tx.ExecContext(ctx, "UPDATE mood_entries SET mood = ?, note = ? WHERE id = ?",
				string(e.Mood), nullString(e.Note), e.ID)
			if err != nil {
				return fmt.Errorf("failed to update mood entry %s: %w", e.ID, err)
			}
			updated = append(updated, e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes every row matching f and returns the removed rows.
func (r *EntryRepository) Delete(ctx context.Context, f EntryFilter) ([]models.Entry, error) {
	var deleted []models.Entry
	err := withTx(ctx, r.db, func(tx *sql.Tx) error {
		rows, err := listEntries(ctx, tx, f)
		if err != nil {
			return err
		}

		for _, e := range rows {
			if _, err := tx.ExecContext(ctx, "DELETE FROM mood_entries WHERE id = ?", e.ID); err != nil {
				return fmt.Errorf("failed to delete mood entry %s: %w", e.ID, err)
			}
		}
		deleted = rows
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deleted, nil
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func listEntries(ctx context.Context, q querier, f EntryFilter) ([]models.Entry, error) {
	where, args, err := f.where()
	if err != nil {
		return nil, err
	}
	order, err := f.orderBy()
	if err != nil {
		return nil, err
	}

	query := "SELECT id, user_id, mood, date, timestamp, note FROM mood_entries" + where + order
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query mood entries: %w", err)
	}
	defer rows.Close()

	entries := []models.Entry{}
	for rows.Next() {
		var (
			e    models.Entry
			mood string
			note sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Owner, &mood, &e.Date, &e.Timestamp, &note); err != nil {
			return nil, fmt.Errorf("failed to scan mood entry: %w", err)
		}
		e.Mood = models.Mood(mood)
		e.Note = note.String
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating mood entries: %w", err)
	}
	return entries, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
