// Package sqlite persists evaluation runs and their results in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/baditaflorin/go_length_eval/internal/adapters/storage/sqlite/migrations"
	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Store is a SQLite database of evaluation runs.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the database at path and applies pending migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// Results are written from a single goroutine.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path}
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

func (s *Store) migrate(fsys fs.FS) error {
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

// BeginRun records a new run in the running state.
func (s *Store) BeginRun(ctx context.Context, runID, generator, modelLabel string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluation_runs (run_id, generator, model_label, status, started_at)
		VALUES (?, ?, ?, ?, ?)
	`, runID, generator, modelLabel, StatusRunning, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("saving run: %w", err)
	}
	return nil
}

// FinishRun marks a run completed or failed.
func (s *Store) FinishRun(ctx context.Context, runID, status string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE evaluation_runs SET status = ?, finished_at = ? WHERE run_id = ?
	`, status, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n == 0 {
		return ErrRunNotFound
	}
	return nil
}

// RunStatus returns the status of a run.
func (s *Store) RunStatus(ctx context.Context, runID string) (string, error) {
	var status string
	err := s.db.QueryRowContext(ctx, "SELECT status FROM evaluation_runs WHERE run_id = ?", runID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrRunNotFound
	}
	if err != nil {
		return "", fmt.Errorf("scanning run: %w", err)
	}
	return status, nil
}

// SaveResult stores one trial result.
func (s *Store) SaveResult(ctx context.Context, r domain.TrialResult) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO evaluation_results (
			run_id, seq, file_name, original_length, length_factor, operation, model,
			target_length, generated_text, generated_length,
			levenshtein_similarity, jaccard_similarity, cosine_similarity,
			kl_divergence, euclidean_distance, length_adherence, generation_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.Seq, r.FileName, r.OriginalLength, r.LengthFactor, r.Direction.String(), r.Model,
		r.TargetLength, r.GeneratedText, r.GeneratedLength,
		r.LevenshteinSimilarity, r.JaccardSimilarity, r.CosineSimilarity,
		r.KLDivergence, r.EuclideanDistance, r.LengthAdherence, r.GenerationTime.Milliseconds())
	if err != nil {
		return fmt.Errorf("saving result %d: %w", r.Seq, err)
	}
	return nil
}

// Results returns the results of a run in trial order.
func (s *Store) Results(ctx context.Context, runID string) ([]domain.TrialResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, seq, file_name, original_length, length_factor, operation, model,
			target_length, generated_text, generated_length,
			levenshtein_similarity, jaccard_similarity, cosine_similarity,
			kl_divergence, euclidean_distance, length_adherence, generation_ms
		FROM evaluation_results WHERE run_id = ? ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying results: %w", err)
	}
	defer rows.Close()

	var results []domain.TrialResult
	for rows.Next() {
		var r domain.TrialResult
		var operation string
		var genMillis int64
		if err := rows.Scan(&r.RunID, &r.Seq, &r.FileName, &r.OriginalLength, &r.LengthFactor, &operation, &r.Model,
			&r.TargetLength, &r.GeneratedText, &r.GeneratedLength,
			&r.LevenshteinSimilarity, &r.JaccardSimilarity, &r.CosineSimilarity,
			&r.KLDivergence, &r.EuclideanDistance, &r.LengthAdherence, &genMillis); err != nil {
			return nil, fmt.Errorf("scanning result: %w", err)
		}
		dir, err := domain.ParseDirection(operation)
		if err != nil {
			return nil, err
		}
		r.Direction = dir
		r.GenerationTime = time.Duration(genMillis) * time.Millisecond
		results = append(results, r)
	}
	return results, rows.Err()
}

// Sink returns a ResultSink writing into this store. Closing the sink leaves the store open.
func (s *Store) Sink() ports.ResultSink {
	return &resultSink{store: s}
}

type resultSink struct {
	store *Store
}

var _ ports.ResultSink = (*resultSink)(nil)

func (rs *resultSink) Write(ctx context.Context, result domain.TrialResult) error {
	return rs.store.SaveResult(ctx, result)
}

func (rs *resultSink) Close() error { return nil }
