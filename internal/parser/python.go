package parser

import (
	"regexp"
	"strings"

	"github.com/recallhq/recall-mcp/pkg/types"
)

// PythonParser extracts symbols and imports from Python source. Structure
// comes from indentation: a declaration extends until the next line at the
// same or shallower indent. Names with a leading underscore are private by
// convention and recorded as unexported.
type PythonParser struct{}

func (p *PythonParser) Language() string { return "python" }

var (
	pyImport     = regexp.MustCompile(`^import\s+([\w.]+)(?:\s+as\s+(\w+))?\s*$`)
	pyFromImport = regexp.MustCompile(`^from\s+([\w.]+|\.+[\w.]*)\s+import\s+(.+)$`)
	pyDef        = regexp.MustCompile(`^(async\s+)?def\s+(\w+)\s*\(`)
	pyClass      = regexp.MustCompile(`^class\s+(\w+)`)
	pyAssign     = regexp.MustCompile(`^(\w+)\s*(?::[^=]+)?=\s*`)
	pyUpperName  = regexp.MustCompile(`^[A-Z][A-Z0-9_]*$`)
)

// pyOpenDecl is a def or class whose extent is still open
type pyOpenDecl struct {
	symbolIndex int
	indent      int
	isClass     bool
	name        string
	exported    bool
}

func (p *PythonParser) Parse(path string, content []byte) *types.ParseResult {
	result := &types.ParseResult{Language: p.Language()}

	var open []pyOpenDecl
	lastCode := 0

	lines := strings.Split(string(content), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line := raw
		if idx := strings.Index(line, "#"); idx >= 0 {
			line = line[:idx]
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		indent := indentOf(raw)

		// Close any declaration this line has dedented out of
		for len(open) > 0 && indent <= open[len(open)-1].indent {
			result.Symbols[open[len(open)-1].symbolIndex].EndLine = lastCode
			open = open[:len(open)-1]
		}
		lastCode = lineNo

		if indent == 0 && p.parseImportLine(result, trimmed, lineNo) {
			continue
		}

		if m := pyDef.FindStringSubmatch(trimmed); m != nil {
			name := m[2]
			sym := types.Symbol{
				Name:      name,
				Kind:      types.KindFunction,
				Line:      lineNo,
				EndLine:   lineNo,
				Exported:  !strings.HasPrefix(name, "_"),
				Signature: strings.TrimSuffix(trimmed, ":"),
			}
			if class := enclosingClass(open, indent); class != nil {
				sym.Kind = types.KindMethod
				sym.Scope = class.name
				sym.Exported = sym.Exported && class.exported
			} else if indent > 0 {
				continue // Function nested inside a function, not indexed
			}
			result.Symbols = append(result.Symbols, sym)
			open = append(open, pyOpenDecl{
				symbolIndex: len(result.Symbols) - 1,
				indent:      indent,
				name:        name,
				exported:    sym.Exported,
			})
			continue
		}

		if m := pyClass.FindStringSubmatch(trimmed); m != nil && indent == 0 {
			name := m[1]
			sym := types.Symbol{
				Name:     name,
				Kind:     types.KindClass,
				Line:     lineNo,
				EndLine:  lineNo,
				Exported: !strings.HasPrefix(name, "_"),
			}
			result.Symbols = append(result.Symbols, sym)
			open = append(open, pyOpenDecl{
				symbolIndex: len(result.Symbols) - 1,
				indent:      indent,
				isClass:     true,
				name:        name,
				exported:    sym.Exported,
			})
			continue
		}

		if indent == 0 {
			if m := pyAssign.FindStringSubmatch(trimmed); m != nil {
				name := m[1]
				kind := types.KindVariable
				if pyUpperName.MatchString(name) {
					kind = types.KindConst
				}
				result.Symbols = append(result.Symbols, types.Symbol{
					Name:     name,
					Kind:     kind,
					Line:     lineNo,
					EndLine:  lineNo,
					Exported: !strings.HasPrefix(name, "_"),
				})
			}
		}
	}

	for _, o := range open {
		result.Symbols[o.symbolIndex].EndLine = lastCode
	}
	return result
}

// enclosingClass finds the innermost open class a def at the given indent
// belongs to
func enclosingClass(open []pyOpenDecl, indent int) *pyOpenDecl {
	for i := len(open) - 1; i >= 0; i-- {
		if open[i].indent >= indent {
			continue
		}
		if open[i].isClass {
			return &open[i]
		}
		return nil // Nested inside a function, not a method
	}
	return nil
}

func (p *PythonParser) parseImportLine(result *types.ParseResult, line string, lineNo int) bool {
	if m := pyImport.FindStringSubmatch(line); m != nil {
		imp := types.Import{
			ImportedName: "*",
			SourcePath:   m[1],
			LocalName:    m[2],
			IsNamespace:  true,
			Line:         lineNo,
		}
		result.Imports = append(result.Imports, imp)
		return true
	}
	if m := pyFromImport.FindStringSubmatch(line); m != nil {
		source := m[1]
		names := strings.Trim(strings.TrimSpace(m[2]), "()")
		for _, part := range strings.Split(names, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if part == "*" {
				result.Imports = append(result.Imports, types.Import{
					ImportedName: "*",
					SourcePath:   source,
					IsNamespace:  true,
					Line:         lineNo,
				})
				continue
			}
			name, local := part, ""
			if idx := strings.Index(part, " as "); idx >= 0 {
				name = strings.TrimSpace(part[:idx])
				local = strings.TrimSpace(part[idx+4:])
			}
			result.Imports = append(result.Imports, types.Import{
				ImportedName: name,
				SourcePath:   source,
				LocalName:    local,
				Line:         lineNo,
			})
		}
		return true
	}
	return false
}

// indentOf counts leading whitespace, tabs as 8 columns
func indentOf(line string) int {
	indent := 0
	for _, r := range line {
		switch r {
		case ' ':
			indent++
		case '\t':
			indent += 8
		default:
			return indent
		}
	}
	return indent
}
