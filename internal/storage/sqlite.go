package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is the SQLite consultation log.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "mentortable.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// An in-memory database lives only as long as its single connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate applies embedded migrations that are not yet recorded in
// schema_version, in filename order.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// timeLayout has fixed-width fractions so stored timestamps sort
// lexicographically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SaveConsultation inserts c. CreatedAt defaults to now.
func (s *Store) SaveConsultation(c Consultation) error {
	if c.ID == "" {
		return errors.New("consultation id is required")
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	ids := c.MentorIDs
	if ids == nil {
		ids = []string{}
	}
	mentorIDs, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encoding mentor ids: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO consultations (id, created_at, language, problem, mentor_ids, provider, model, response_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.CreatedAt.UTC().Format(timeLayout), c.Language, c.Problem,
		string(mentorIDs), c.Provider, c.Model, c.ResponseJSON,
	)
	return err
}

const consultationColumns = `id, created_at, language, problem, mentor_ids, provider, model, response_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConsultation(row rowScanner) (Consultation, error) {
	var (
		c         Consultation
		createdAt string
		mentorIDs string
	)
	if err := row.Scan(&c.ID, &createdAt, &c.Language, &c.Problem, &mentorIDs, &c.Provider, &c.Model, &c.ResponseJSON); err != nil {
		return Consultation{}, err
	}
	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return Consultation{}, fmt.Errorf("parsing created_at: %w", err)
	}
	c.CreatedAt = t
	if err := json.Unmarshal([]byte(mentorIDs), &c.MentorIDs); err != nil {
		return Consultation{}, fmt.Errorf("decoding mentor ids: %w", err)
	}
	return c, nil
}

// GetConsultation returns the consultation with id, or ErrNotFound.
func (s *Store) GetConsultation(id string) (Consultation, error) {
	c, err := scanConsultation(s.db.QueryRow(`SELECT `+consultationColumns+` FROM consultations WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Consultation{}, ErrNotFound
	}
	return c, err
}

// ListConsultations returns up to limit consultations, newest first.
func (s *Store) ListConsultations(limit int) ([]Consultation, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT `+consultationColumns+` FROM consultations ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Consultation
	for rows.Next() {
		c, err := scanConsultation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteConsultation removes the consultation with id, or returns
// ErrNotFound.
func (s *Store) DeleteConsultation(id string) error {
	res, err := s.db.Exec(`DELETE FROM consultations WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountConsultations returns the number of stored consultations.
func (s *Store) CountConsultations() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM consultations`).Scan(&n)
	return n, err
}
