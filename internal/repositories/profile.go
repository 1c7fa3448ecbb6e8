package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/moodx/internal/models"
	"github.com/desertthunder/moodx/internal/shared"
)

// ProfileRepository persists [models.Profile] rows.
type ProfileRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewProfileRepository creates a new [ProfileRepository] with the given database connection
func NewProfileRepository(db *sql.DB) *ProfileRepository {
	return &ProfileRepository{db: db, now: time.Now}
}

// Create inserts p with a generated id and creation time. Emails are unique.
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	p.Email = strings.TrimSpace(strings.ToLower(p.Email))
	p.Username = strings.TrimSpace(p.Username)
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return fmt.Errorf("%w: invalid email %q", shared.ErrValidationFailed, p.Email)
	}
	if p.Username == "" {
		p.Username = strings.SplitN(p.Email, "@", 2)[0]
	}

	p.ID = shared.GenerateID()
	p.CreatedAt = r.now().UTC()

	query := `
		INSERT INTO profiles (id, email, username, avatar_url, created_at) VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Email, p.Username, nullString(p.AvatarURL), p.CreatedAt)
	if err != nil {
		return mapConstraint(err, "profile")
	}
	return nil
}

// Get retrieves a profile by id.
func (r *ProfileRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	return r.getBy(ctx, "id", id)
}

// GetByEmail retrieves a profile by its (case-insensitive) email.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.getBy(ctx, "email", strings.TrimSpace(strings.ToLower(email)))
}

// List returns every profile, newest first.
func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	query := `
		SELECT id, email, username, avatar_url, created_at
		FROM profiles
		ORDER BY created_at DESC, id DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query profiles: %w", err)
	}
	defer rows.Close()

	profiles := []models.Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating profiles: %w", err)
	}
	return profiles, nil
}

func (r *ProfileRepository) getBy(ctx context.Context, col, val string) (*models.Profile, error) {
	query := "SELECT id, email, username, avatar_url, created_at FROM profiles WHERE " + col + " = ?"

	p, err := scanProfile(r.db.QueryRowContext(ctx, query, val))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: profile %s", shared.ErrNotFound, val)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanProfile(s scanner) (*models.Profile, error) {
	var (
		p      models.Profile
		avatar sql.NullString
	)
	if err := s.Scan(&p.ID, &p.Email, &p.Username, &avatar, &p.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	p.AvatarURL = avatar.String
	return &p, nil
}
