// Package storage provides SQLite-based persistence for the memory store
// and the code index.
//
// The storage layer manages:
//   - Solutions with problem embeddings and feedback counters
//   - Failures deduplicated by normalized signature
//   - Repository fingerprints
//   - Indexed files keyed by (repo_id, path) with mtime change detection
//   - Symbols and imports, replaced atomically per file on reparse
//   - Warnings and the merge audit log
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.recall/recall.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	sol := &types.Solution{ID: uuid.NewString(), Problem: "...", ...}
//	if err := db.CreateSolution(ctx, sol); err != nil {
//	    return err
//	}
//
// # Transactions
//
// Per-file index updates are atomic. Use a transaction to replace a file's
// rows so readers never observe a half-indexed file:
//
//	tx, err := db.BeginTx(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tx.Rollback()
//
//	_ = tx.DeleteSymbolsByFile(ctx, repoID, path)
//	_ = tx.DeleteImportsByFile(ctx, repoID, path)
//	for _, sym := range symbols {
//	    _ = tx.InsertSymbol(ctx, sym)
//	}
//	_ = tx.UpsertRepoFile(ctx, file)
//
//	if err := tx.Commit(); err != nil {
//	    return err
//	}
//
// # Build Tags
//
// Two driver configurations are supported:
//
// Pure Go build (default):
//
//   - Uses modernc.org/sqlite
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build ./...
//
// CGO build (cgo_sqlite tag):
//
//   - Uses github.com/mattn/go-sqlite3
//
//   - Faster on large databases
//
//     CGO_ENABLED=1 go build -tags "cgo_sqlite" ./...
//
// Embeddings are stored as little-endian float32 blobs. A blob whose length
// does not match the configured dimension decodes to a nil vector and the
// row is skipped by similarity scans rather than failing the operation.
package storage
