// Package sqlite provides the durable checkpoint store backed by a
// single SQLite database file.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/report"
	"github.com/custodia-labs/gitrecon-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/gitrecon-cli/internal/core/domain"
	"github.com/custodia-labs/gitrecon-cli/internal/core/ports/driven"
)

// Ensure Store implements the checkpoint port.
var _ driven.CheckpointStore = (*Store)(nil)

// Store is the SQLite-backed checkpoint store. Finalize additionally
// delegates report rendering to the report writer.
type Store struct {
	db      *sql.DB
	path    string
	reports *report.Writer
}

// NewStore opens (or creates) the checkpoint database under dataDir.
// If dataDir is empty, defaults to ~/.gitrecon/data.
func NewStore(dataDir string, reports *report.Writer) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".gitrecon", "data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "gitrecon.db")

	// WAL keeps checkpoint writes cheap while a status command reads.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:      db,
		path:    dbPath,
		reports: reports,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Persist implements driven.CheckpointStore. The slot is upserted;
// when the insert commits, the snapshot survives an interruption.
func (s *Store) Persist(ctx context.Context, key domain.ScanKey, state *domain.ScanState) error {
	state.LastUpdated = time.Now().UTC()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding checkpoint: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO checkpoints (platform, target, state, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (platform, target) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, string(key.Platform), key.Target, string(data), state.LastUpdated)
	if err != nil {
		return fmt.Errorf("persisting checkpoint %s: %w", key, err)
	}
	return nil
}

// Load implements driven.CheckpointStore.
func (s *Store) Load(ctx context.Context, key domain.ScanKey) (*domain.ScanState, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `
		SELECT state FROM checkpoints WHERE platform = ? AND target = ?
	`, string(key.Platform), key.Target).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("checkpoint %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint %s: %w", key, err)
	}

	var state domain.ScanState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decoding checkpoint %s: %w", key, err)
	}
	return &state, nil
}

// List implements driven.CheckpointStore, most recently updated first.
func (s *Store) List(ctx context.Context) ([]domain.ScanKey, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT platform, target FROM checkpoints ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	defer rows.Close()

	var keys []domain.ScanKey
	for rows.Next() {
		var platform, target string
		if err := rows.Scan(&platform, &target); err != nil {
			return nil, fmt.Errorf("scanning checkpoint row: %w", err)
		}
		keys = append(keys, domain.ScanKey{Platform: domain.Platform(platform), Target: target})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing checkpoints: %w", err)
	}
	return keys, nil
}

// Finalize implements driven.CheckpointStore: the final snapshot is
// persisted and the report artifacts are written next to it.
func (s *Store) Finalize(ctx context.Context, key domain.ScanKey, state *domain.ScanState, format domain.ReportFormat) ([]string, error) {
	if err := s.Persist(ctx, key, state); err != nil {
		return nil, err
	}
	if s.reports == nil {
		return nil, nil
	}
	return s.reports.Write(state, format)
}

// migrate applies all pending .up.sql migrations, tracked in
// schema_migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
