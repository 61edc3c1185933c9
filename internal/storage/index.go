package storage

import (
	"context"
	"database/sql"
)

// Indexed file operations

func (s *SQLiteStorage) upsertRepoFileWithQuerier(ctx context.Context, q querier, file *RepoFile) error {
	query := `
		INSERT INTO repo_files (repo_id, path, mtime, language)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(repo_id, path) DO UPDATE SET
			mtime = excluded.mtime,
			language = excluded.language
	`
	_, err := q.ExecContext(ctx, query, file.RepoID, file.Path, file.MTime, file.Language)
	return err
}

func (s *SQLiteStorage) UpsertRepoFile(ctx context.Context, file *RepoFile) error {
	return s.upsertRepoFileWithQuerier(ctx, s.querier(), file)
}

func (s *SQLiteStorage) getRepoFileWithQuerier(ctx context.Context, q querier, repoID, path string) (*RepoFile, error) {
	var f RepoFile
	err := q.QueryRowContext(ctx,
		`SELECT repo_id, path, mtime, language FROM repo_files WHERE repo_id = ? AND path = ?`,
		repoID, path).Scan(&f.RepoID, &f.Path, &f.MTime, &f.Language)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *SQLiteStorage) GetRepoFile(ctx context.Context, repoID, path string) (*RepoFile, error) {
	return s.getRepoFileWithQuerier(ctx, s.querier(), repoID, path)
}

func (s *SQLiteStorage) listRepoFilesWithQuerier(ctx context.Context, q querier, repoID string) ([]*RepoFile, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT repo_id, path, mtime, language FROM repo_files WHERE repo_id = ? ORDER BY path`, repoID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	files := make([]*RepoFile, 0)
	for rows.Next() {
		var f RepoFile
		if err := rows.Scan(&f.RepoID, &f.Path, &f.MTime, &f.Language); err != nil {
			return nil, err
		}
		files = append(files, &f)
	}
	return files, rows.Err()
}

func (s *SQLiteStorage) ListRepoFiles(ctx context.Context, repoID string) ([]*RepoFile, error) {
	return s.listRepoFilesWithQuerier(ctx, s.querier(), repoID)
}

// deleteRepoFileWithQuerier removes a file row. Symbols and imports cascade.
func (s *SQLiteStorage) deleteRepoFileWithQuerier(ctx context.Context, q querier, repoID, path string) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM repo_files WHERE repo_id = ? AND path = ?`, repoID, path)
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

func (s *SQLiteStorage) DeleteRepoFile(ctx context.Context, repoID, path string) error {
	return s.deleteRepoFileWithQuerier(ctx, s.querier(), repoID, path)
}

// Symbol and import rows

func (s *SQLiteStorage) insertSymbolWithQuerier(ctx context.Context, q querier, sym *SymbolRow) error {
	query := `
		INSERT INTO symbols (repo_id, path, name, kind, line, end_line, exported, is_default, scope, signature)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		sym.RepoID, sym.Path, sym.Name, sym.Kind, sym.Line, sym.EndLine,
		sym.Exported, sym.IsDefault, sym.Scope, sym.Signature)
	return err
}

func (s *SQLiteStorage) InsertSymbol(ctx context.Context, sym *SymbolRow) error {
	return s.insertSymbolWithQuerier(ctx, s.querier(), sym)
}

func (s *SQLiteStorage) insertImportWithQuerier(ctx context.Context, q querier, imp *ImportRow) error {
	query := `
		INSERT INTO imports (repo_id, path, imported_name, source_path, local_name, is_default, is_namespace, is_type, line)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := q.ExecContext(ctx, query,
		imp.RepoID, imp.Path, imp.ImportedName, imp.SourcePath, imp.LocalName,
		imp.IsDefault, imp.IsNamespace, imp.IsType, imp.Line)
	return err
}

func (s *SQLiteStorage) InsertImport(ctx context.Context, imp *ImportRow) error {
	return s.insertImportWithQuerier(ctx, s.querier(), imp)
}

func (s *SQLiteStorage) deleteSymbolsByFileWithQuerier(ctx context.Context, q querier, repoID, path string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM symbols WHERE repo_id = ? AND path = ?`, repoID, path)
	return err
}

func (s *SQLiteStorage) DeleteSymbolsByFile(ctx context.Context, repoID, path string) error {
	return s.deleteSymbolsByFileWithQuerier(ctx, s.querier(), repoID, path)
}

func (s *SQLiteStorage) deleteImportsByFileWithQuerier(ctx context.Context, q querier, repoID, path string) error {
	_, err := q.ExecContext(ctx, `DELETE FROM imports WHERE repo_id = ? AND path = ?`, repoID, path)
	return err
}

func (s *SQLiteStorage) DeleteImportsByFile(ctx context.Context, repoID, path string) error {
	return s.deleteImportsByFileWithQuerier(ctx, s.querier(), repoID, path)
}

// Index queries

const symbolColumns = `repo_id, path, name, kind, line, end_line, exported, is_default, scope, signature`

func scanSymbolRows(rows *sql.Rows) ([]*SymbolRow, error) {
	defer func() { _ = rows.Close() }()
	symbols := make([]*SymbolRow, 0)
	for rows.Next() {
		var s SymbolRow
		err := rows.Scan(&s.RepoID, &s.Path, &s.Name, &s.Kind, &s.Line, &s.EndLine,
			&s.Exported, &s.IsDefault, &s.Scope, &s.Signature)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, &s)
	}
	return symbols, rows.Err()
}

func applySymbolFilter(query string, args []interface{}, filter *SymbolFilter) (string, []interface{}) {
	if filter == nil {
		return query + ` ORDER BY path, line`, args
	}
	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, filter.Kind)
	}
	if filter.Path != "" {
		query += ` AND path = ?`
		args = append(args, filter.Path)
	}
	if filter.ExportedOnly {
		query += ` AND exported = 1`
	}
	query += ` ORDER BY path, line`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}
	return query, args
}

func (s *SQLiteStorage) findDefinitionsWithQuerier(ctx context.Context, q querier, repoID, name string, filter *SymbolFilter) ([]*SymbolRow, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE repo_id = ? AND name = ?`
	args := []interface{}{repoID, name}
	query, args = applySymbolFilter(query, args, filter)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanSymbolRows(rows)
}

func (s *SQLiteStorage) FindDefinitions(ctx context.Context, repoID, name string, filter *SymbolFilter) ([]*SymbolRow, error) {
	return s.findDefinitionsWithQuerier(ctx, s.querier(), repoID, name, filter)
}

func (s *SQLiteStorage) listExportsWithQuerier(ctx context.Context, q querier, repoID, pathPrefix string) ([]*SymbolRow, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE repo_id = ? AND exported = 1`
	args := []interface{}{repoID}
	if pathPrefix != "" {
		query += ` AND path LIKE ? ESCAPE '\'`
		args = append(args, escapeLike(pathPrefix)+"%")
	}
	query += ` ORDER BY path, line`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanSymbolRows(rows)
}

func (s *SQLiteStorage) ListExports(ctx context.Context, repoID, pathPrefix string) ([]*SymbolRow, error) {
	return s.listExportsWithQuerier(ctx, s.querier(), repoID, pathPrefix)
}

func (s *SQLiteStorage) searchSymbolsWithQuerier(ctx context.Context, q querier, repoID, substr string, filter *SymbolFilter) ([]*SymbolRow, error) {
	query := `SELECT ` + symbolColumns + ` FROM symbols WHERE repo_id = ? AND name LIKE ? ESCAPE '\'`
	args := []interface{}{repoID, "%" + escapeLike(substr) + "%"}
	query, args = applySymbolFilter(query, args, filter)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return scanSymbolRows(rows)
}

func (s *SQLiteStorage) SearchSymbols(ctx context.Context, repoID, substr string, filter *SymbolFilter) ([]*SymbolRow, error) {
	return s.searchSymbolsWithQuerier(ctx, s.querier(), repoID, substr, filter)
}

const importColumns = `repo_id, path, imported_name, source_path, local_name, is_default, is_namespace, is_type, line`

func scanImportRows(rows *sql.Rows) ([]*ImportRow, error) {
	defer func() { _ = rows.Close() }()
	imports := make([]*ImportRow, 0)
	for rows.Next() {
		var i ImportRow
		err := rows.Scan(&i.RepoID, &i.Path, &i.ImportedName, &i.SourcePath, &i.LocalName,
			&i.IsDefault, &i.IsNamespace, &i.IsType, &i.Line)
		if err != nil {
			return nil, err
		}
		imports = append(imports, &i)
	}
	return imports, rows.Err()
}

func (s *SQLiteStorage) listImportsByFileWithQuerier(ctx context.Context, q querier, repoID, path string) ([]*ImportRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+importColumns+` FROM imports WHERE repo_id = ? AND path = ? ORDER BY line`,
		repoID, path)
	if err != nil {
		return nil, err
	}
	return scanImportRows(rows)
}

func (s *SQLiteStorage) ListImportsByFile(ctx context.Context, repoID, path string) ([]*ImportRow, error) {
	return s.listImportsByFileWithQuerier(ctx, s.querier(), repoID, path)
}

// listImportsByNameWithQuerier matches by imported name and includes namespace
// imports, which pull every name from their source into scope.
func (s *SQLiteStorage) listImportsByNameWithQuerier(ctx context.Context, q querier, repoID, importedName string) ([]*ImportRow, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+importColumns+` FROM imports WHERE repo_id = ? AND (imported_name = ? OR is_namespace = 1) ORDER BY path, line`,
		repoID, importedName)
	if err != nil {
		return nil, err
	}
	return scanImportRows(rows)
}

func (s *SQLiteStorage) ListImportsByName(ctx context.Context, repoID, importedName string) ([]*ImportRow, error) {
	return s.listImportsByNameWithQuerier(ctx, s.querier(), repoID, importedName)
}

// escapeLike escapes LIKE metacharacters so user input matches literally
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
