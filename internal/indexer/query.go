package indexer

import (
	"context"
	"path"
	"strings"

	"github.com/recallhq/recall-mcp/internal/storage"
)

// FindDefinition returns the locations where a symbol is defined
func (idx *Indexer) FindDefinition(ctx context.Context, repoID, name string, filter *storage.SymbolFilter) ([]*storage.SymbolRow, error) {
	return idx.store.FindDefinitions(ctx, repoID, name, filter)
}

// ListExports returns the exported symbols under a path prefix, or the
// whole repository when the prefix is empty
func (idx *Indexer) ListExports(ctx context.Context, repoID, pathPrefix string) ([]*storage.SymbolRow, error) {
	return idx.store.ListExports(ctx, repoID, pathPrefix)
}

// SearchSymbols finds symbols whose name contains the substring
func (idx *Indexer) SearchSymbols(ctx context.Context, repoID, substr string, filter *storage.SymbolFilter) ([]*storage.SymbolRow, error) {
	return idx.store.SearchSymbols(ctx, repoID, substr, filter)
}

// GetImports returns the imports declared by one file
func (idx *Indexer) GetImports(ctx context.Context, repoID, filePath string) ([]*storage.ImportRow, error) {
	return idx.store.ListImportsByFile(ctx, repoID, filePath)
}

// Caller is a file that imports a symbol
type Caller struct {
	Path      string // Importing file
	Line      int    // Line of the import statement
	LocalName string // Name the symbol is bound to locally
	Namespace bool   // Imported via a namespace or wildcard import
}

// FindCallers returns the files that import a symbol from one of its
// defining files. Relative import paths are resolved against the importing
// file; bare module imports only match when the source path appears in a
// defining file's path.
func (idx *Indexer) FindCallers(ctx context.Context, repoID, name string) ([]*Caller, error) {
	defs, err := idx.store.FindDefinitions(ctx, repoID, name, nil)
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		return []*Caller{}, nil
	}
	defPaths := make([]string, 0, len(defs))
	for _, d := range defs {
		defPaths = append(defPaths, d.Path)
	}

	imports, err := idx.store.ListImportsByName(ctx, repoID, name)
	if err != nil {
		return nil, err
	}

	callers := make([]*Caller, 0)
	for _, imp := range imports {
		if !importResolvesTo(imp, defPaths) {
			continue
		}
		local := imp.LocalName
		if local == "" {
			local = imp.ImportedName
		}
		callers = append(callers, &Caller{
			Path:      imp.Path,
			Line:      imp.Line,
			LocalName: local,
			Namespace: imp.IsNamespace,
		})
	}
	return callers, nil
}

// importResolvesTo reports whether an import statement can refer to any of
// the defining files
func importResolvesTo(imp *storage.ImportRow, defPaths []string) bool {
	source := imp.SourcePath
	var resolved string
	if strings.HasPrefix(source, ".") {
		resolved = path.Join(path.Dir(imp.Path), source)
	} else {
		resolved = source
	}

	for _, def := range defPaths {
		if def == imp.Path {
			continue // A file does not call itself via its own import
		}
		if matchesModulePath(resolved, def) {
			return true
		}
		// Bare specifiers ("app/models") may be rooted anywhere
		if !strings.HasPrefix(source, ".") && strings.Contains(def, source) {
			return true
		}
	}
	return false
}

// matchesModulePath checks a resolved import path against a file path,
// tolerating omitted extensions and index files
func matchesModulePath(resolved, filePath string) bool {
	if resolved == filePath {
		return true
	}
	noExt := strings.TrimSuffix(filePath, path.Ext(filePath))
	if resolved == noExt {
		return true
	}
	// "./dir" importing "dir/index.ts" or "dir/__init__.py"
	base := path.Base(noExt)
	if (base == "index" || base == "__init__") && resolved == path.Dir(filePath) {
		return true
	}
	// Python dotted modules: "pkg.module" vs "pkg/module.py"
	if strings.Contains(resolved, ".") && !strings.Contains(resolved, "/") {
		if strings.ReplaceAll(resolved, ".", "/") == noExt {
			return true
		}
	}
	return false
}
