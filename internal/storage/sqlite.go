// Package storage provides the SQLite-backed implementation of the profile
// and history stores, used when the configured storage backend is "sqlite".
// The default deployment keeps all state in process memory; this backend
// exists for installations that want sessions to survive a restart.
package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/griffinb3/agvisor/internal/history"
	"github.com/griffinb3/agvisor/internal/profile"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store wraps a SQLite database. It implements profile.Store and
// history.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending
// migrations. Pass ":memory:" as dataDir for an in-memory database (tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "agvisor.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
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

		var version int
		if _, err := fmt.Sscanf(entry.Name(), "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", entry.Name(), err)
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

// --- profile.Store ---

// Get returns the profile stored for sessionID.
func (s *Store) Get(sessionID string) (profile.Profile, bool, error) {
	var data string
	err := s.db.QueryRow("SELECT data FROM profiles WHERE session_id = ?", sessionID).Scan(&data)
	if err == sql.ErrNoRows {
		return profile.Profile{}, false, nil
	}
	if err != nil {
		return profile.Profile{}, false, fmt.Errorf("loading profile %q: %w", sessionID, err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return profile.Profile{}, false, fmt.Errorf("decoding profile %q: %w", sessionID, err)
	}
	return p, true, nil
}

// Put saves the profile as a JSON blob keyed by session id.
func (s *Store) Put(p profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding profile %q: %w", p.SessionID, err)
	}
	_, err = s.db.Exec(`INSERT INTO profiles (session_id, data, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = CURRENT_TIMESTAMP`,
		p.SessionID, string(data))
	if err != nil {
		return fmt.Errorf("saving profile %q: %w", p.SessionID, err)
	}
	return nil
}

// Delete removes the stored profile for sessionID.
func (s *Store) Delete(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM profiles WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("deleting profile %q: %w", sessionID, err)
	}
	return nil
}

// --- history.Store ---

// splitKey undoes history.Key. An unseparated key is treated as a session
// with an empty advisor part.
func splitKey(key string) (sessionID, advisorID string) {
	sessionID, advisorID, _ = strings.Cut(key, "/")
	return
}

// Append inserts turns and prunes the conversation down to the cap.
func (s *Store) Append(key string, turns ...history.Turn) error {
	sessionID, advisorID := splitKey(key)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, t := range turns {
		if _, err := tx.Exec(
			"INSERT INTO turns (session_id, advisor_id, role, content) VALUES (?, ?, ?, ?)",
			sessionID, advisorID, t.Role, t.Content,
		); err != nil {
			return fmt.Errorf("inserting turn: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM turns WHERE session_id = ? AND advisor_id = ? AND id NOT IN (
		SELECT id FROM turns WHERE session_id = ? AND advisor_id = ? ORDER BY id DESC LIMIT ?
	)`, sessionID, advisorID, sessionID, advisorID, history.MaxTurns); err != nil {
		return fmt.Errorf("pruning turns: %w", err)
	}

	return tx.Commit()
}

// Turns returns the conversation oldest-first.
func (s *Store) Turns(key string) ([]history.Turn, error) {
	sessionID, advisorID := splitKey(key)

	rows, err := s.db.Query(
		"SELECT role, content FROM turns WHERE session_id = ? AND advisor_id = ? ORDER BY id ASC",
		sessionID, advisorID,
	)
	if err != nil {
		return nil, fmt.Errorf("loading turns: %w", err)
	}
	defer rows.Close()

	var turns []history.Turn
	for rows.Next() {
		var t history.Turn
		if err := rows.Scan(&t.Role, &t.Content); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Clear removes one conversation.
func (s *Store) Clear(key string) error {
	sessionID, advisorID := splitKey(key)
	if _, err := s.db.Exec(
		"DELETE FROM turns WHERE session_id = ? AND advisor_id = ?", sessionID, advisorID,
	); err != nil {
		return fmt.Errorf("clearing conversation: %w", err)
	}
	return nil
}

// ClearSession removes every conversation for the session.
func (s *Store) ClearSession(sessionID string) error {
	if _, err := s.db.Exec("DELETE FROM turns WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}
