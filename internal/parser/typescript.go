package parser

import (
	"regexp"
	"strings"

	"github.com/recallhq/recall-mcp/pkg/types"
)

// TypeScriptParser extracts symbols and imports from TypeScript and
// JavaScript source. It is a line scanner, not a full grammar: it
// recognizes top-level declaration forms and tracks brace depth for class
// bodies and declaration extents. Anything it cannot recognize is skipped,
// never fatal.
type TypeScriptParser struct{}

func (p *TypeScriptParser) Language() string { return "typescript" }

var (
	tsSideEffectImport = regexp.MustCompile(`^import\s+['"]([^'"]+)['"]`)
	tsImportFrom       = regexp.MustCompile(`^import\s+(type\s+)?(.+?)\s+from\s+['"]([^'"]+)['"]`)
	tsReExport         = regexp.MustCompile(`^export\s+(type\s+)?(\*(?:\s+as\s+(\w+))?|\{[^}]*\})\s+from\s+['"]([^'"]+)['"]`)
	tsRequire          = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*require\(\s*['"]([^'"]+)['"]\s*\)`)

	tsFunction  = regexp.MustCompile(`^(export\s+)?(default\s+)?(async\s+)?function\s*\*?\s*(\w*)\s*[(<]`)
	tsClass     = regexp.MustCompile(`^(export\s+)?(default\s+)?(abstract\s+)?class\s*(\w*)`)
	tsInterface = regexp.MustCompile(`^(export\s+)?interface\s+(\w+)`)
	tsTypeAlias = regexp.MustCompile(`^(export\s+)?type\s+(\w+)`)
	tsEnum      = regexp.MustCompile(`^(export\s+)?(const\s+)?enum\s+(\w+)`)
	tsVariable  = regexp.MustCompile(`^(export\s+)?(const|let|var)\s+(\w+)\s*(.*)$`)
	tsMethod    = regexp.MustCompile(`^(?:(?:public|private|protected|static|override|readonly|async|get|set)\s+)*(\w+)\s*[(<]`)

	tsNamespaceClause = regexp.MustCompile(`^\*\s+as\s+(\w+)$`)
	tsStringLiteral   = regexp.MustCompile(`'(?:[^'\\]|\\.)*'|"(?:[^"\\]|\\.)*"|` + "`(?:[^`\\\\]|\\\\.)*`")
)

// openDecl is a brace-delimited declaration whose closing line is pending
type openDecl struct {
	symbolIndex int
	closeAt     int // Depth at which the declaration is closed
}

type classCtx struct {
	name     string
	exported bool
	closeAt  int
}

func (p *TypeScriptParser) Parse(path string, content []byte) *types.ParseResult {
	result := &types.ParseResult{Language: p.Language()}

	depth := 0
	inBlockComment := false
	var open []openDecl
	var classes []classCtx

	lines := strings.Split(string(content), "\n")
	for i, raw := range lines {
		lineNo := i + 1
		line, nowInComment := stripComments(raw, inBlockComment)
		inBlockComment = nowInComment
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		clean := tsStringLiteral.ReplaceAllString(line, `""`)

		switch {
		case p.parseImportLine(result, line, lineNo):
			// Import or re-export line, no symbol
		case depth == 0 || insideClassBody(classes, depth):
			symIdx, opensBody := p.parseDeclaration(result, line, lineNo, depth, classes)
			if symIdx >= 0 && opensBody && strings.Contains(clean, "{") {
				sym := &result.Symbols[symIdx]
				open = append(open, openDecl{symbolIndex: symIdx, closeAt: depth})
				if sym.Kind == types.KindClass {
					classes = append(classes, classCtx{name: sym.Name, exported: sym.Exported, closeAt: depth})
				}
			}
		}

		depth += strings.Count(clean, "{") - strings.Count(clean, "}")
		if depth < 0 {
			depth = 0
		}
		for len(open) > 0 && depth <= open[len(open)-1].closeAt {
			result.Symbols[open[len(open)-1].symbolIndex].EndLine = lineNo
			open = open[:len(open)-1]
		}
		for len(classes) > 0 && depth <= classes[len(classes)-1].closeAt {
			classes = classes[:len(classes)-1]
		}
	}

	// Unterminated declarations extend to EOF
	for _, o := range open {
		result.Symbols[o.symbolIndex].EndLine = len(lines)
	}
	return result
}

// insideClassBody reports whether depth is directly inside the innermost
// class body, where member declarations live
func insideClassBody(classes []classCtx, depth int) bool {
	return len(classes) > 0 && depth == classes[len(classes)-1].closeAt+1
}

// parseImportLine handles import and re-export forms. Re-exports reference
// another module's names, so they land in Imports, not Symbols.
func (p *TypeScriptParser) parseImportLine(result *types.ParseResult, line string, lineNo int) bool {
	if m := tsImportFrom.FindStringSubmatch(line); m != nil {
		p.parseImportClause(result, m[2], m[3], m[1] != "", lineNo)
		return true
	}
	if m := tsSideEffectImport.FindStringSubmatch(line); m != nil {
		result.Imports = append(result.Imports, types.Import{
			ImportedName: "*",
			SourcePath:   m[1],
			IsNamespace:  true,
			Line:         lineNo,
		})
		return true
	}
	if m := tsReExport.FindStringSubmatch(line); m != nil {
		clause := m[2]
		if strings.HasPrefix(clause, "*") {
			imp := types.Import{
				ImportedName: "*",
				SourcePath:   m[4],
				IsNamespace:  true,
				IsType:       m[1] != "",
				Line:         lineNo,
			}
			if sub := tsNamespaceClause.FindStringSubmatch(clause); sub != nil {
				imp.LocalName = sub[1]
			}
			result.Imports = append(result.Imports, imp)
		} else {
			p.parseNamedClause(result, clause, m[4], m[1] != "", lineNo)
		}
		return true
	}
	if m := tsRequire.FindStringSubmatch(line); m != nil {
		result.Imports = append(result.Imports, types.Import{
			ImportedName: "*",
			SourcePath:   m[2],
			LocalName:    m[1],
			IsNamespace:  true,
			Line:         lineNo,
		})
		return true
	}
	return false
}

// parseImportClause splits "Default, { a, b as c }" style clauses
func (p *TypeScriptParser) parseImportClause(result *types.ParseResult, clause, source string, typeOnly bool, lineNo int) {
	clause = strings.TrimSpace(clause)

	// Default import before a named or namespace part
	if idx := strings.IndexAny(clause, ",{*"); idx > 0 && clause[idx] == ',' {
		def := strings.TrimSpace(clause[:idx])
		if isIdentifier(def) {
			result.Imports = append(result.Imports, types.Import{
				ImportedName: "default",
				SourcePath:   source,
				LocalName:    def,
				IsDefault:    true,
				IsType:       typeOnly,
				Line:         lineNo,
			})
		}
		clause = strings.TrimSpace(clause[idx+1:])
	}

	if m := tsNamespaceClause.FindStringSubmatch(clause); m != nil {
		result.Imports = append(result.Imports, types.Import{
			ImportedName: "*",
			SourcePath:   source,
			LocalName:    m[1],
			IsNamespace:  true,
			IsType:       typeOnly,
			Line:         lineNo,
		})
		return
	}
	if strings.HasPrefix(clause, "{") {
		p.parseNamedClause(result, clause, source, typeOnly, lineNo)
		return
	}
	if isIdentifier(clause) {
		result.Imports = append(result.Imports, types.Import{
			ImportedName: "default",
			SourcePath:   source,
			LocalName:    clause,
			IsDefault:    true,
			IsType:       typeOnly,
			Line:         lineNo,
		})
	}
}

// parseNamedClause splits "{ a, b as c, type D }" into individual imports
func (p *TypeScriptParser) parseNamedClause(result *types.ParseResult, clause, source string, typeOnly bool, lineNo int) {
	clause = strings.Trim(clause, "{} \t")
	for _, part := range strings.Split(clause, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		isType := typeOnly
		if strings.HasPrefix(part, "type ") {
			isType = true
			part = strings.TrimSpace(strings.TrimPrefix(part, "type "))
		}
		name, local := part, ""
		if idx := strings.Index(part, " as "); idx >= 0 {
			name = strings.TrimSpace(part[:idx])
			local = strings.TrimSpace(part[idx+4:])
		}
		if !isIdentifier(name) {
			continue
		}
		result.Imports = append(result.Imports, types.Import{
			ImportedName: name,
			SourcePath:   source,
			LocalName:    local,
			IsType:       isType,
			Line:         lineNo,
		})
	}
}

// parseDeclaration recognizes one declaration line. It returns the index of
// the appended symbol (-1 if none) and whether the declaration owns a brace
// body whose extent should be tracked.
func (p *TypeScriptParser) parseDeclaration(result *types.ParseResult, line string, lineNo, depth int, classes []classCtx) (int, bool) {
	appendSym := func(sym types.Symbol) int {
		sym.Line = lineNo
		sym.EndLine = lineNo
		result.Symbols = append(result.Symbols, sym)
		return len(result.Symbols) - 1
	}

	if insideClassBody(classes, depth) {
		class := classes[len(classes)-1]
		if m := tsMethod.FindStringSubmatch(line); m != nil && !isReservedWord(m[1]) {
			return appendSym(types.Symbol{
				Name:     m[1],
				Kind:     types.KindMethod,
				Exported: class.exported && !strings.Contains(line, "private"),
				Scope:    class.name,
			}), true
		}
		return -1, false
	}

	if m := tsFunction.FindStringSubmatch(line); m != nil {
		name := m[4]
		isDefault := m[2] != ""
		if name == "" {
			if !isDefault {
				return -1, false
			}
			name = "default"
		}
		return appendSym(types.Symbol{
			Name:      name,
			Kind:      types.KindFunction,
			Exported:  m[1] != "",
			IsDefault: isDefault,
			Signature: strings.TrimSuffix(strings.TrimSpace(line), "{"),
		}), true
	}
	if m := tsClass.FindStringSubmatch(line); m != nil {
		name := m[4]
		if name == "extends" || name == "implements" {
			name = "" // Anonymous class expression
		}
		isDefault := m[2] != ""
		if name == "" {
			if !isDefault {
				return -1, false
			}
			name = "default"
		}
		return appendSym(types.Symbol{
			Name:      name,
			Kind:      types.KindClass,
			Exported:  m[1] != "",
			IsDefault: isDefault,
		}), true
	}
	if m := tsInterface.FindStringSubmatch(line); m != nil {
		return appendSym(types.Symbol{
			Name:     m[2],
			Kind:     types.KindInterface,
			Exported: m[1] != "",
		}), true
	}
	if m := tsEnum.FindStringSubmatch(line); m != nil {
		return appendSym(types.Symbol{
			Name:     m[3],
			Kind:     types.KindEnum,
			Exported: m[1] != "",
		}), true
	}
	if m := tsTypeAlias.FindStringSubmatch(line); m != nil {
		return appendSym(types.Symbol{
			Name:     m[2],
			Kind:     types.KindType,
			Exported: m[1] != "",
		}), false
	}
	if m := tsVariable.FindStringSubmatch(line); m != nil && depth == 0 {
		kind := types.KindVariable
		if m[2] == "const" {
			kind = types.KindConst
		}
		// Arrow and function expressions are functions in all but syntax
		rest := m[4]
		if strings.Contains(rest, "=>") || strings.Contains(rest, "function") {
			kind = types.KindFunction
		}
		return appendSym(types.Symbol{
			Name:     m[3],
			Kind:     kind,
			Exported: m[1] != "",
		}), false
	}
	if strings.HasPrefix(line, "export default ") && isIdentifier(strings.TrimSuffix(strings.TrimPrefix(line, "export default "), ";")) {
		// Re-exporting an existing binding as default; already indexed
		return -1, false
	}
	return -1, false
}

// stripComments removes // and /* */ comment text from one line, carrying
// block comment state across lines
func stripComments(line string, inBlock bool) (string, bool) {
	var out strings.Builder
	i := 0
	for i < len(line) {
		if inBlock {
			if end := strings.Index(line[i:], "*/"); end >= 0 {
				i += end + 2
				inBlock = false
				continue
			}
			return out.String(), true
		}
		if strings.HasPrefix(line[i:], "//") {
			return out.String(), false
		}
		if strings.HasPrefix(line[i:], "/*") {
			inBlock = true
			i += 2
			continue
		}
		out.WriteByte(line[i])
		i++
	}
	return out.String(), inBlock
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		alpha := (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '_' || r == '$'
		digit := r >= '0' && r <= '9'
		if !alpha && !(digit && i > 0) {
			return false
		}
	}
	return true
}

func isReservedWord(s string) bool {
	switch s {
	case "constructor", "if", "for", "while", "switch", "return", "catch", "new", "super", "this", "typeof":
		return true
	}
	return false
}
