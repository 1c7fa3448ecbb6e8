package shared

import (
	"database/sql"
	"embed"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/*.sql
var migrationFiles embed.FS

// versionTable records which schema versions of the mood backend are applied.
const versionTable = "mood_schema_versions"

var createTableRe = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?([A-Za-z_][A-Za-z0-9_]*)`)

// Migration is one versioned step of the backend schema (profiles, sessions, mood_entries).
type Migration struct {
	Version int
	Name    string   // file stem without version and direction, e.g. "create_mood_entries"
	Tables  []string // tables created by Up
	Up      string
	Down    string
}

// Label renders the migration as it appears in file names and logs.
func (m Migration) Label() string {
	return fmt.Sprintf("%04d_%s", m.Version, m.Name)
}

func (m Migration) String() string {
	if len(m.Tables) == 0 {
		return m.Label()
	}
	return fmt.Sprintf("%s (%s)", m.Label(), strings.Join(m.Tables, ", "))
}

// parseMigrationFile splits "0001_create_mood_entries_up.sql" into (1, "create_mood_entries", "up").
func parseMigrationFile(file string) (version int, name, direction string, ok bool) {
	stem, found := strings.CutSuffix(file, ".sql")
	if !found {
		return 0, "", "", false
	}
	switch {
	case strings.HasSuffix(stem, "_up"):
		stem, direction = strings.TrimSuffix(stem, "_up"), "up"
	case strings.HasSuffix(stem, "_down"):
		stem, direction = strings.TrimSuffix(stem, "_down"), "down"
	default:
		return 0, "", "", false
	}
	prefix, name, found := strings.Cut(stem, "_")
	if !found || name == "" {
		return 0, "", "", false
	}
	version, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, "", "", false
	}
	return version, name, direction, true
}

// createdTables lists the tables a script creates, in order.
func createdTables(script string) []string {
	var tables []string
	for _, m := range createTableRe.FindAllStringSubmatch(removeComments(script), -1) {
		tables = append(tables, m[1])
	}
	return tables
}

// loadMigrations reads the embedded scripts sorted by version.
func loadMigrations() ([]Migration, error) {
	files, err := migrationFiles.ReadDir("sql")
	if err != nil {
		return nil, fmt.Errorf("failed to read schema directory: %w", err)
	}

	byVersion := make(map[int]*Migration)
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		version, name, direction, ok := parseMigrationFile(f.Name())
		if !ok {
			continue
		}

		content, err := migrationFiles.ReadFile(path.Join("sql", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read schema file %s: %w", f.Name(), err)
		}

		m := byVersion[version]
		if m == nil {
			m = &Migration{Version: version, Name: name}
			byVersion[version] = m
		} else if m.Name != name {
			return nil, fmt.Errorf("schema version %d is claimed by both %q and %q", version, m.Name, name)
		}

		if direction == "up" {
			m.Up = string(content)
			m.Tables = createdTables(m.Up)
		} else {
			m.Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.Up == "" || m.Down == "" {
			return nil, fmt.Errorf("schema step %s is missing its up or down script", m.Label())
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// RunMigrations brings the mood backend schema up to date.
func RunMigrations(db *sql.DB) error {
	_, err := ApplyMigrations(db)
	return err
}

// ApplyMigrations applies every pending schema step and returns the ones it ran.
// Already-applied versions are skipped, so calling it twice is a no-op.
func ApplyMigrations(db *sql.DB) ([]Migration, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return nil, err
	}
	if err := createVersionTable(db); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", versionTable, err)
	}

	applied, err := appliedVersions(db)
	if err != nil {
		return nil, err
	}

	var ran []Migration
	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := migrate(db, m, m.Up, "INSERT INTO "+versionTable+" (version, name) VALUES (?, ?)", m.Version, m.Name); err != nil {
			return ran, fmt.Errorf("failed to apply %s: %w", m, err)
		}
		ran = append(ran, m)
	}
	return ran, nil
}

// RollbackMigration undoes the most recently applied schema step and returns it.
// Rolling back 0001 drops mood_entries and leaves profiles and sessions in place.
func RollbackMigration(db *sql.DB) (Migration, error) {
	migrations, err := loadMigrations()
	if err != nil {
		return Migration{}, err
	}
	if err := createVersionTable(db); err != nil {
		return Migration{}, fmt.Errorf("failed to create %s: %w", versionTable, err)
	}

	var current sql.NullInt64
	if err := db.QueryRow("SELECT MAX(version) FROM " + versionTable).Scan(&current); err != nil {
		return Migration{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	if !current.Valid {
		return Migration{}, fmt.Errorf("%w: no schema steps applied", ErrNotFound)
	}

	for _, m := range migrations {
		if int64(m.Version) != current.Int64 {
			continue
		}
		if err := migrate(db, m, m.Down, "DELETE FROM "+versionTable+" WHERE version = ?", m.Version); err != nil {
			return Migration{}, fmt.Errorf("failed to roll back %s: %w", m, err)
		}
		return m, nil
	}
	return Migration{}, fmt.Errorf("%w: applied schema version %d has no script", ErrNotFound, current.Int64)
}

func createVersionTable(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + versionTable + ` (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`)
	return err
}

func appliedVersions(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM " + versionTable)
	if err != nil {
		return nil, fmt.Errorf("failed to read applied schema versions: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

// migrate runs script and the bookkeeping statement in a single transaction.
func migrate(db *sql.DB, m Migration, script, record string, args ...any) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(removeComments(stmt))
		if stmt == "" {
			continue
		}
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("%s statement %d: %w\n%s", m.Label(), i+1, err, stmt)
		}
	}

	if _, err := tx.Exec(record, args...); err != nil {
		return err
	}
	return tx.Commit()
}

// removeComments strips "--" comments and blank lines.
func removeComments(script string) string {
	var kept []string
	for _, line := range strings.Split(script, "\n") {
		if idx := strings.Index(line, "--"); idx >= 0 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
