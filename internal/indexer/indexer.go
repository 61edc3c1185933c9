package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/recallhq/recall-mcp/internal/memory"
	"github.com/recallhq/recall-mcp/internal/parser"
	"github.com/recallhq/recall-mcp/internal/storage"
	"github.com/recallhq/recall-mcp/pkg/types"
)

// ErrIndexInProgress is returned when a reindex is already running
var ErrIndexInProgress = errors.New("index already in progress")

// DefaultMaxFileSize is the largest file the indexer will parse.
// Bigger files are almost always generated or vendored bundles.
const DefaultMaxFileSize = 1 << 20

// Directories never descended into
var skipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	"venv":         true,
}

// Indexer maintains the per-repository code index: which files exist,
// their symbols, and their imports. Indexing is incremental; a file is
// reparsed only when its mtime changed since the last successful parse.
type Indexer struct {
	store   storage.Storage
	workers int
	lock    IndexLock
}

// Config controls a reindex run
type Config struct {
	Workers     int      // Concurrent parse workers (default: runtime.NumCPU())
	BatchSize   int      // Files committed per transaction (default: 20)
	MaxFileSize int64    // Parse ceiling in bytes (default: DefaultMaxFileSize)
	Excludes    []string // Glob patterns matched against relative paths
	Full        bool     // Reparse every file regardless of mtime
}

// ScannedFile is one supported source file found on disk
type ScannedFile struct {
	Path     string // Relative to the repository root
	MTime    int64  // Unix nanoseconds
	Language string
}

// Diff separates scanned files into work items against the stored index
type Diff struct {
	Added    []ScannedFile
	Modified []ScannedFile
	Deleted  []string // Paths indexed before but gone from disk
}

// Statistics summarizes a reindex run
type Statistics struct {
	FilesScanned int
	FilesIndexed int
	FilesDeleted int
	FilesFailed  int
	Symbols      int
	Imports      int
	ParseErrors  int
	Duration     time.Duration
	Errors       []string
}

// New creates a new Indexer
func New(store storage.Storage) *Indexer {
	return &Indexer{
		store:   store,
		workers: runtime.NumCPU(),
	}
}

// Scan walks the repository root and returns every supported source file
// with its current mtime. Hidden directories, dependency trees, and
// paths matching an exclude glob are skipped.
func (idx *Indexer) Scan(root string, maxFileSize int64, excludes []string) ([]ScannedFile, error) {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	var files []ScannedFile
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if path != root && (strings.HasPrefix(name, ".") || skipDirs[name]) {
				return filepath.SkipDir
			}
			return nil
		}
		if !parser.Supported(path) || info.Size() > maxFileSize {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relSlash := filepath.ToSlash(rel)
		if excluded(relSlash, excludes) {
			return nil
		}
		files = append(files, ScannedFile{
			Path:     relSlash,
			MTime:    info.ModTime().UnixNano(),
			Language: parser.LanguageForFile(path),
		})
		return nil
	})
	return files, err
}

// excluded reports whether a relative slash path matches any exclude
// glob. Patterns match the whole path or the base name.
func excluded(relPath string, excludes []string) bool {
	base := relPath
	if i := strings.LastIndexByte(relPath, '/'); i >= 0 {
		base = relPath[i+1:]
	}
	for _, pattern := range excludes {
		if ok, _ := filepath.Match(pattern, relPath); ok {
			return true
		}
		if ok, _ := filepath.Match(pattern, base); ok {
			return true
		}
	}
	return false
}

// ComputeDiff compares scanned files against the stored index. full forces
// every scanned file into Modified.
func ComputeDiff(scanned []ScannedFile, indexed []*storage.RepoFile, full bool) *Diff {
	known := make(map[string]*storage.RepoFile, len(indexed))
	for _, f := range indexed {
		known[f.Path] = f
	}

	diff := &Diff{}
	seen := make(map[string]bool, len(scanned))
	for _, f := range scanned {
		seen[f.Path] = true
		prev, ok := known[f.Path]
		switch {
		case !ok:
			diff.Added = append(diff.Added, f)
		case full || prev.MTime != f.MTime:
			diff.Modified = append(diff.Modified, f)
		}
	}
	for _, f := range indexed {
		if !seen[f.Path] {
			diff.Deleted = append(diff.Deleted, f.Path)
		}
	}
	return diff
}

// Reindex brings the stored index up to date with the repository on disk.
// Only one reindex runs at a time; a second call while one is in flight
// returns ErrIndexInProgress. Parse failures are recorded and skipped, they
// never abort the run.
func (idx *Indexer) Reindex(ctx context.Context, root string, config *Config) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, ErrIndexInProgress
	}
	defer idx.lock.Release()

	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	root = filepath.Clean(root)
	start := time.Now()
	stats := &Statistics{Errors: make([]string, 0)}

	repoID, err := idx.ensureRepo(ctx, root)
	if err != nil {
		return nil, fmt.Errorf("failed to register repo: %w", err)
	}

	scanned, err := idx.Scan(root, config.MaxFileSize, config.Excludes)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	stats.FilesScanned = len(scanned)

	indexed, err := idx.store.ListRepoFiles(ctx, repoID)
	if err != nil {
		return nil, err
	}
	diff := ComputeDiff(scanned, indexed, config.Full)

	work := make([]ScannedFile, 0, len(diff.Added)+len(diff.Modified))
	work = append(work, diff.Added...)
	work = append(work, diff.Modified...)

	if err := idx.indexFiles(ctx, root, repoID, work, workers, batchSize, stats); err != nil {
		return nil, err
	}

	for _, path := range diff.Deleted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := idx.store.DeleteRepoFile(ctx, repoID, path); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, err
		}
		stats.FilesDeleted++
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

// ensureRepo guarantees the repo row exists so file rows have a parent
func (idx *Indexer) ensureRepo(ctx context.Context, root string) (string, error) {
	repoID := memory.RepoID(root)
	if _, err := idx.store.GetRepo(ctx, repoID); err == nil {
		return repoID, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return "", err
	}
	repo := &types.Repo{ID: repoID, Path: root}
	if err := idx.store.UpsertRepo(ctx, repo); err != nil {
		return "", err
	}
	return repoID, nil
}

// indexFiles parses and stores files in batches, one transaction per batch
func (idx *Indexer) indexFiles(ctx context.Context, root, repoID string, files []ScannedFile, workers, batchSize int, stats *Statistics) error {
	if len(files) == 0 {
		return nil
	}

	semaphore := make(chan struct{}, workers)
	var (
		indexedCount int32
		failedCount  int32
		symbolCount  int32
		importCount  int32
		parseErrors  int32
	)
	var mu sync.Mutex // Protects stats.Errors

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < len(files); i += batchSize {
		end := i + batchSize
		if end > len(files) {
			end = len(files)
		}
		batch := files[i:end]

		g.Go(func() error {
			return idx.indexBatch(gctx, root, repoID, batch, semaphore,
				&indexedCount, &failedCount, &symbolCount, &importCount, &parseErrors, &mu, stats)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats.FilesIndexed = int(indexedCount)
	stats.FilesFailed = int(failedCount)
	stats.Symbols = int(symbolCount)
	stats.Imports = int(importCount)
	stats.ParseErrors = int(parseErrors)
	return nil
}

func (idx *Indexer) indexBatch(ctx context.Context, root, repoID string, files []ScannedFile,
	semaphore chan struct{}, indexed, failed, symbols, imports, parseErrors *int32,
	mu *sync.Mutex, stats *Statistics) error {

	tx, err := idx.store.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, file := range files {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case semaphore <- struct{}{}:
		}

		err := idx.indexFile(ctx, tx, root, repoID, file, symbols, imports, parseErrors)
		<-semaphore

		if err != nil {
			atomic.AddInt32(failed, 1)
			mu.Lock()
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", file.Path, err))
			mu.Unlock()
			continue
		}
		atomic.AddInt32(indexed, 1)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// indexFile reparses one file and atomically replaces its rows. The mtime
// written is the one observed at scan time, so a write racing the parse is
// picked up by the next reindex.
func (idx *Indexer) indexFile(ctx context.Context, tx storage.Tx, root, repoID string, file ScannedFile,
	symbols, imports, parseErrors *int32) error {

	content, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(file.Path)))
	if err != nil {
		return err
	}

	p := parser.ForFile(file.Path)
	if p == nil {
		return fmt.Errorf("no parser for %s", file.Path)
	}
	result := p.Parse(file.Path, content)
	atomic.AddInt32(parseErrors, int32(len(result.Errors)))

	if err := tx.DeleteSymbolsByFile(ctx, repoID, file.Path); err != nil {
		return err
	}
	if err := tx.DeleteImportsByFile(ctx, repoID, file.Path); err != nil {
		return err
	}
	if err := tx.UpsertRepoFile(ctx, &storage.RepoFile{
		RepoID:   repoID,
		Path:     file.Path,
		MTime:    file.MTime,
		Language: file.Language,
	}); err != nil {
		return err
	}

	for _, sym := range result.Symbols {
		if err := tx.InsertSymbol(ctx, &storage.SymbolRow{
			RepoID:    repoID,
			Path:      file.Path,
			Name:      sym.Name,
			Kind:      string(sym.Kind),
			Line:      sym.Line,
			EndLine:   sym.EndLine,
			Exported:  sym.Exported,
			IsDefault: sym.IsDefault,
			Scope:     sym.Scope,
			Signature: sym.Signature,
		}); err != nil {
			return err
		}
		atomic.AddInt32(symbols, 1)
	}
	for _, imp := range result.Imports {
		if err := tx.InsertImport(ctx, &storage.ImportRow{
			RepoID:       repoID,
			Path:         file.Path,
			ImportedName: imp.ImportedName,
			SourcePath:   imp.SourcePath,
			LocalName:    imp.LocalName,
			IsDefault:    imp.IsDefault,
			IsNamespace:  imp.IsNamespace,
			IsType:       imp.IsType,
			Line:         imp.Line,
		}); err != nil {
			return err
		}
		atomic.AddInt32(imports, 1)
	}
	return nil
}
