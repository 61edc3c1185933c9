package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/recallhq/recall-mcp/internal/vector"
	"github.com/recallhq/recall-mcp/pkg/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// SQLite benefits from a single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

func (t *sqliteTx) querier() querier {
	return t.tx
}

func (s *SQLiteStorage) querier() querier {
	return s.db
}

// JSON column helpers

func marshalStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func unmarshalStrings(data string) ([]string, error) {
	if data == "" {
		return []string{}, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("%w: malformed JSON column: %v", types.ErrCorruptRecord, err)
	}
	return values, nil
}

// decodeEmbedding deserializes a vector blob, tolerating corrupt data.
// A wrong-length blob yields a nil vector; similarity scans skip those rows.
func decodeEmbedding(blob []byte) []float32 {
	if len(blob) == 0 {
		return nil
	}
	v, err := vector.Deserialize(blob, types.EmbeddingDimension)
	if err != nil {
		return nil
	}
	return v
}

// Solution operations

func (s *SQLiteStorage) createSolutionWithQuerier(ctx context.Context, q querier, sol *types.Solution) error {
	query := `
		INSERT INTO solutions (
			id, repo_id, problem, problem_embedding, solution, scope, tags, category,
			complexity, score, uses, successes, partial_successes, failures, supersedes,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	var category interface{}
	if sol.Category != nil {
		category = string(*sol.Category)
	}
	_, err := q.ExecContext(ctx, query,
		sol.ID, sol.RepoID, sol.Problem, vector.Serialize(sol.Embedding), sol.Solution,
		string(sol.Scope), marshalStrings(sol.Tags), category,
		sol.Complexity, sol.Score, sol.Uses, sol.Successes, sol.PartialSuccesses,
		sol.Failures, sol.Supersedes, now, now)
	if err != nil {
		return fmt.Errorf("failed to create solution: %w", err)
	}
	sol.CreatedAt = now
	sol.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateSolution(ctx context.Context, sol *types.Solution) error {
	return s.createSolutionWithQuerier(ctx, s.querier(), sol)
}

const solutionColumns = `id, repo_id, problem, problem_embedding, solution, scope, tags, category,
	       complexity, score, uses, successes, partial_successes, failures, supersedes,
	       created_at, updated_at`

// scanSolution reads one solution row. Corrupt embedding blobs decode to a
// nil vector; malformed tag JSON is a CorruptRecord error.
func scanSolution(scan func(dest ...interface{}) error) (*types.Solution, error) {
	var sol types.Solution
	var repoID, category, supersedes sql.NullString
	var tags string
	var blob []byte

	err := scan(
		&sol.ID, &repoID, &sol.Problem, &blob, &sol.Solution, (*string)(&sol.Scope),
		&tags, &category, &sol.Complexity, &sol.Score, &sol.Uses, &sol.Successes,
		&sol.PartialSuccesses, &sol.Failures, &supersedes, &sol.CreatedAt, &sol.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	sol.Embedding = decodeEmbedding(blob)
	if repoID.Valid {
		sol.RepoID = &repoID.String
	}
	if category.Valid {
		c := types.Category(category.String)
		sol.Category = &c
	}
	if supersedes.Valid {
		sol.Supersedes = &supersedes.String
	}

	parsed, err := unmarshalStrings(tags)
	if err != nil {
		return nil, err
	}
	sol.Tags = parsed
	return &sol, nil
}

func (s *SQLiteStorage) getSolutionWithQuerier(ctx context.Context, q querier, id string) (*types.Solution, error) {
	query := `SELECT ` + solutionColumns + ` FROM solutions WHERE id = ?`
	row := q.QueryRowContext(ctx, query, id)
	sol, err := scanSolution(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return sol, nil
}

func (s *SQLiteStorage) GetSolution(ctx context.Context, id string) (*types.Solution, error) {
	return s.getSolutionWithQuerier(ctx, s.querier(), id)
}

func (s *SQLiteStorage) listSolutionsWithQuerier(ctx context.Context, q querier, scope types.Scope) ([]*types.Solution, error) {
	query := `SELECT ` + solutionColumns + ` FROM solutions`
	args := []interface{}{}
	if scope != "" {
		query += ` WHERE scope = ?`
		args = append(args, string(scope))
	}
	query += ` ORDER BY id`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	solutions := make([]*types.Solution, 0)
	for rows.Next() {
		sol, err := scanSolution(rows.Scan)
		if err != nil {
			if errors.Is(err, types.ErrCorruptRecord) {
				continue // Skip unreadable rows, never abort the scan
			}
			return nil, err
		}
		solutions = append(solutions, sol)
	}
	return solutions, rows.Err()
}

func (s *SQLiteStorage) ListSolutions(ctx context.Context, scope types.Scope) ([]*types.Solution, error) {
	return s.listSolutionsWithQuerier(ctx, s.querier(), scope)
}

func (s *SQLiteStorage) updateSolutionWithQuerier(ctx context.Context, q querier, sol *types.Solution) error {
	query := `
		UPDATE solutions
		SET tags = ?, score = ?, uses = ?, successes = ?, partial_successes = ?,
		    failures = ?, updated_at = ?
		WHERE id = ?
	`
	now := time.Now()
	result, err := q.ExecContext(ctx, query,
		marshalStrings(sol.Tags), sol.Score, sol.Uses, sol.Successes,
		sol.PartialSuccesses, sol.Failures, now, sol.ID)
	if err != nil {
		return fmt.Errorf("failed to update solution: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	sol.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpdateSolution(ctx context.Context, sol *types.Solution) error {
	return s.updateSolutionWithQuerier(ctx, s.querier(), sol)
}

func (s *SQLiteStorage) deleteSolutionWithQuerier(ctx context.Context, q querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM solutions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteSolution(ctx context.Context, id string) error {
	return s.deleteSolutionWithQuerier(ctx, s.querier(), id)
}

func (s *SQLiteStorage) appendMergeLogWithQuerier(ctx context.Context, q querier, keptID, removedID, detail string) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO merge_log (kept_id, removed_id, detail, created_at) VALUES (?, ?, ?, ?)`,
		keptID, removedID, detail, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append merge log: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) AppendMergeLog(ctx context.Context, keptID, removedID, detail string) error {
	return s.appendMergeLogWithQuerier(ctx, s.querier(), keptID, removedID, detail)
}

func (s *SQLiteStorage) listMergeLogWithQuerier(ctx context.Context, q querier, limit int) ([]*MergeLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.QueryContext(ctx,
		`SELECT id, kept_id, removed_id, detail, created_at FROM merge_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*MergeLogEntry, 0)
	for rows.Next() {
		var e MergeLogEntry
		if err := rows.Scan(&e.ID, &e.KeptID, &e.RemovedID, &e.Detail, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (s *SQLiteStorage) ListMergeLog(ctx context.Context, limit int) ([]*MergeLogEntry, error) {
	return s.listMergeLogWithQuerier(ctx, s.querier(), limit)
}

// Failure operations

func (s *SQLiteStorage) createFailureWithQuerier(ctx context.Context, q querier, f *types.Failure) error {
	query := `
		INSERT INTO failures (id, signature, error_type, error_message, occurrences,
			root_cause, fix_applied, prevention, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		f.ID, f.Signature, f.ErrorType, f.Message, f.Occurrences,
		f.RootCause, f.FixApplied, f.Prevention, vector.Serialize(f.Embedding), now)
	if err != nil {
		return fmt.Errorf("failed to create failure: %w", err)
	}
	f.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateFailure(ctx context.Context, f *types.Failure) error {
	return s.createFailureWithQuerier(ctx, s.querier(), f)
}

const failureColumns = `id, signature, error_type, error_message, occurrences,
	       root_cause, fix_applied, prevention, embedding, created_at`

func scanFailure(scan func(dest ...interface{}) error) (*types.Failure, error) {
	var f types.Failure
	var blob []byte
	err := scan(&f.ID, &f.Signature, &f.ErrorType, &f.Message, &f.Occurrences,
		&f.RootCause, &f.FixApplied, &f.Prevention, &blob, &f.CreatedAt)
	if err != nil {
		return nil, err
	}
	f.Embedding = decodeEmbedding(blob)
	return &f, nil
}

func (s *SQLiteStorage) getFailureBySignatureWithQuerier(ctx context.Context, q querier, signature string) (*types.Failure, error) {
	row := q.QueryRowContext(ctx, `SELECT `+failureColumns+` FROM failures WHERE signature = ?`, signature)
	f, err := scanFailure(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (s *SQLiteStorage) GetFailureBySignature(ctx context.Context, signature string) (*types.Failure, error) {
	return s.getFailureBySignatureWithQuerier(ctx, s.querier(), signature)
}

func (s *SQLiteStorage) updateFailureWithQuerier(ctx context.Context, q querier, f *types.Failure) error {
	query := `
		UPDATE failures
		SET occurrences = ?, root_cause = ?, fix_applied = ?, prevention = ?
		WHERE id = ?
	`
	result, err := q.ExecContext(ctx, query, f.Occurrences, f.RootCause, f.FixApplied, f.Prevention, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update failure: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) UpdateFailure(ctx context.Context, f *types.Failure) error {
	return s.updateFailureWithQuerier(ctx, s.querier(), f)
}

func (s *SQLiteStorage) listFailuresWithQuerier(ctx context.Context, q querier) ([]*types.Failure, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+failureColumns+` FROM failures ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	failures := make([]*types.Failure, 0)
	for rows.Next() {
		f, err := scanFailure(rows.Scan)
		if err != nil {
			return nil, err
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

func (s *SQLiteStorage) ListFailures(ctx context.Context) ([]*types.Failure, error) {
	return s.listFailuresWithQuerier(ctx, s.querier())
}

// Repo fingerprint operations

func (s *SQLiteStorage) upsertRepoWithQuerier(ctx context.Context, q querier, repo *types.Repo) error {
	query := `
		INSERT INTO repos (id, path, languages, frameworks, patterns, fingerprint_embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			languages = excluded.languages,
			frameworks = excluded.frameworks,
			patterns = excluded.patterns,
			fingerprint_embedding = excluded.fingerprint_embedding,
			updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		repo.ID, repo.Path, marshalStrings(repo.Languages), marshalStrings(repo.Frameworks),
		marshalStrings(repo.Patterns), vector.Serialize(repo.Embedding), now)
	if err != nil {
		return fmt.Errorf("failed to upsert repo: %w", err)
	}
	repo.UpdatedAt = now
	return nil
}

func (s *SQLiteStorage) UpsertRepo(ctx context.Context, repo *types.Repo) error {
	return s.upsertRepoWithQuerier(ctx, s.querier(), repo)
}

const repoColumns = `id, path, languages, frameworks, patterns, fingerprint_embedding, updated_at`

func scanRepo(scan func(dest ...interface{}) error) (*types.Repo, error) {
	var r types.Repo
	var languages, frameworks, patterns string
	var blob []byte
	err := scan(&r.ID, &r.Path, &languages, &frameworks, &patterns, &blob, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Embedding = decodeEmbedding(blob)
	if r.Languages, err = unmarshalStrings(languages); err != nil {
		return nil, err
	}
	if r.Frameworks, err = unmarshalStrings(frameworks); err != nil {
		return nil, err
	}
	if r.Patterns, err = unmarshalStrings(patterns); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *SQLiteStorage) getRepoWithQuerier(ctx context.Context, q querier, id string) (*types.Repo, error) {
	row := q.QueryRowContext(ctx, `SELECT `+repoColumns+` FROM repos WHERE id = ?`, id)
	r, err := scanRepo(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStorage) GetRepo(ctx context.Context, id string) (*types.Repo, error) {
	return s.getRepoWithQuerier(ctx, s.querier(), id)
}

func (s *SQLiteStorage) getRepoByPathWithQuerier(ctx context.Context, q querier, path string) (*types.Repo, error) {
	row := q.QueryRowContext(ctx, `SELECT `+repoColumns+` FROM repos WHERE path = ?`, path)
	r, err := scanRepo(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStorage) GetRepoByPath(ctx context.Context, path string) (*types.Repo, error) {
	return s.getRepoByPathWithQuerier(ctx, s.querier(), path)
}

func (s *SQLiteStorage) listReposWithQuerier(ctx context.Context, q querier) ([]*types.Repo, error) {
	rows, err := q.QueryContext(ctx, `SELECT `+repoColumns+` FROM repos ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	repos := make([]*types.Repo, 0)
	for rows.Next() {
		r, err := scanRepo(rows.Scan)
		if err != nil {
			if errors.Is(err, types.ErrCorruptRecord) {
				continue
			}
			return nil, err
		}
		repos = append(repos, r)
	}
	return repos, rows.Err()
}

func (s *SQLiteStorage) ListRepos(ctx context.Context) ([]*types.Repo, error) {
	return s.listReposWithQuerier(ctx, s.querier())
}

// Warning operations

func (s *SQLiteStorage) createWarningWithQuerier(ctx context.Context, q querier, w *types.Warning) error {
	query := `
		INSERT INTO warnings (id, type, target, severity, reason, repo_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	_, err := q.ExecContext(ctx, query,
		w.ID, string(w.Type), w.Target, string(w.Severity), w.Reason, w.RepoID, now)
	if err != nil {
		return fmt.Errorf("failed to create warning: %w", err)
	}
	w.CreatedAt = now
	return nil
}

func (s *SQLiteStorage) CreateWarning(ctx context.Context, w *types.Warning) error {
	return s.createWarningWithQuerier(ctx, s.querier(), w)
}

func (s *SQLiteStorage) deleteWarningWithQuerier(ctx context.Context, q querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM warnings WHERE id = ?`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) DeleteWarning(ctx context.Context, id string) error {
	return s.deleteWarningWithQuerier(ctx, s.querier(), id)
}

// listWarningsWithQuerier returns global warnings plus, when repoID is set,
// warnings scoped to that repository.
func (s *SQLiteStorage) listWarningsWithQuerier(ctx context.Context, q querier, repoID *string) ([]*types.Warning, error) {
	query := `SELECT id, type, target, severity, reason, repo_id, created_at FROM warnings`
	args := []interface{}{}
	if repoID != nil {
		query += ` WHERE repo_id IS NULL OR repo_id = ?`
		args = append(args, *repoID)
	}
	query += ` ORDER BY created_at`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	warnings := make([]*types.Warning, 0)
	for rows.Next() {
		var w types.Warning
		var repo sql.NullString
		err := rows.Scan(&w.ID, (*string)(&w.Type), &w.Target, (*string)(&w.Severity), &w.Reason, &repo, &w.CreatedAt)
		if err != nil {
			return nil, err
		}
		if repo.Valid {
			w.RepoID = &repo.String
		}
		warnings = append(warnings, &w)
	}
	return warnings, rows.Err()
}

func (s *SQLiteStorage) ListWarnings(ctx context.Context, repoID *string) ([]*types.Warning, error) {
	return s.listWarningsWithQuerier(ctx, s.querier(), repoID)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier) (*Status, error) {
	status := &Status{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM solutions", &status.Solutions},
		{"SELECT COUNT(*) FROM failures", &status.Failures},
		{"SELECT COUNT(*) FROM repos", &status.Repos},
		{"SELECT COUNT(*) FROM repo_files", &status.Files},
		{"SELECT COUNT(*) FROM symbols", &status.Symbols},
		{"SELECT COUNT(*) FROM imports", &status.Imports},
		{"SELECT COUNT(*) FROM warnings", &status.Warnings},
	}
	for _, c := range counts {
		if err := q.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, err
		}
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.SizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	return status, nil
}

func (s *SQLiteStorage) GetStatus(ctx context.Context) (*Status, error) {
	return s.getStatusWithQuerier(ctx, s.querier())
}
