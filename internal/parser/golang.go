package parser

import (
	"fmt"
	"go/ast"
	goparser "go/parser"
	"go/token"
	"strings"

	"github.com/recallhq/recall-mcp/pkg/types"
)

// GoParser extracts symbols and imports from Go source using the
// standard library AST
type GoParser struct{}

func (p *GoParser) Language() string { return "go" }

func (p *GoParser) Parse(path string, content []byte) *types.ParseResult {
	result := &types.ParseResult{Language: p.Language()}

	fset := token.NewFileSet()
	file, err := goparser.ParseFile(fset, path, content, goparser.ParseComments)
	if err != nil {
		// A partial AST is usually still returned; extract what we can
		result.AddError(path, 0, fmt.Sprintf("syntax error: %v", err))
	}
	if file == nil {
		return result
	}

	for _, imp := range file.Imports {
		source := strings.Trim(imp.Path.Value, `"`)
		i := types.Import{
			ImportedName: "*",
			SourcePath:   source,
			IsNamespace:  true,
			Line:         fset.Position(imp.Pos()).Line,
		}
		if imp.Name != nil {
			i.LocalName = imp.Name.Name
		}
		result.Imports = append(result.Imports, i)
	}

	e := &goExtractor{fset: fset, result: result}
	ast.Inspect(file, e.visit)
	return result
}

type goExtractor struct {
	fset   *token.FileSet
	result *types.ParseResult
}

func (e *goExtractor) visit(node ast.Node) bool {
	if node == nil {
		return false
	}
	switch n := node.(type) {
	case *ast.FuncDecl:
		e.extractFunction(n)
		return false // Nested declarations are not indexed
	case *ast.GenDecl:
		e.extractGenDecl(n)
	}
	return true
}

func (e *goExtractor) line(pos token.Pos) int {
	return e.fset.Position(pos).Line
}

func (e *goExtractor) extractFunction(fn *ast.FuncDecl) {
	sym := types.Symbol{
		Name:      fn.Name.Name,
		Kind:      types.KindFunction,
		Line:      e.line(fn.Pos()),
		EndLine:   e.line(fn.End()),
		Exported:  token.IsExported(fn.Name.Name),
		Signature: e.functionSignature(fn),
	}
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sym.Kind = types.KindMethod
		sym.Scope = receiverName(fn.Recv.List[0].Type)
	}
	e.result.Symbols = append(e.result.Symbols, sym)
}

func (e *goExtractor) extractGenDecl(decl *ast.GenDecl) {
	for _, spec := range decl.Specs {
		switch s := spec.(type) {
		case *ast.TypeSpec:
			e.extractTypeSpec(s)
		case *ast.ValueSpec:
			e.extractValueSpec(s, decl.Tok)
		}
	}
}

func (e *goExtractor) extractTypeSpec(spec *ast.TypeSpec) {
	sym := types.Symbol{
		Name:     spec.Name.Name,
		Line:     e.line(spec.Pos()),
		EndLine:  e.line(spec.End()),
		Exported: token.IsExported(spec.Name.Name),
	}
	switch spec.Type.(type) {
	case *ast.StructType:
		sym.Kind = types.KindClass
		sym.Signature = fmt.Sprintf("type %s struct", spec.Name.Name)
	case *ast.InterfaceType:
		sym.Kind = types.KindInterface
		sym.Signature = fmt.Sprintf("type %s interface", spec.Name.Name)
	default:
		sym.Kind = types.KindType
		sym.Signature = fmt.Sprintf("type %s", spec.Name.Name)
	}
	e.result.Symbols = append(e.result.Symbols, sym)
}

func (e *goExtractor) extractValueSpec(spec *ast.ValueSpec, tok token.Token) {
	kind := types.KindVariable
	if tok == token.CONST {
		kind = types.KindConst
	}
	for _, name := range spec.Names {
		if name.Name == "_" {
			continue
		}
		e.result.Symbols = append(e.result.Symbols, types.Symbol{
			Name:     name.Name,
			Kind:     kind,
			Line:     e.line(spec.Pos()),
			EndLine:  e.line(spec.End()),
			Exported: token.IsExported(name.Name),
		})
	}
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.IndexExpr:
		return receiverName(t.X)
	case *ast.IndexListExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	}
	return ""
}

func (e *goExtractor) functionSignature(fn *ast.FuncDecl) string {
	var sig strings.Builder
	sig.WriteString("func ")
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		sig.WriteString("(")
		sig.WriteString(exprString(fn.Recv.List[0].Type))
		sig.WriteString(") ")
	}
	sig.WriteString(fn.Name.Name)
	sig.WriteString("(")
	sig.WriteString(fieldList(fn.Type.Params))
	sig.WriteString(")")
	if fn.Type.Results != nil && fn.Type.Results.NumFields() > 0 {
		results := fieldList(fn.Type.Results)
		if fn.Type.Results.NumFields() > 1 {
			sig.WriteString(" (" + results + ")")
		} else {
			sig.WriteString(" " + results)
		}
	}
	return sig.String()
}

func fieldList(fields *ast.FieldList) string {
	if fields == nil || len(fields.List) == 0 {
		return ""
	}
	parts := make([]string, 0, len(fields.List))
	for _, field := range fields.List {
		typeStr := exprString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typeStr)
			continue
		}
		for _, name := range field.Names {
			parts = append(parts, name.Name+" "+typeStr)
		}
	}
	return strings.Join(parts, ", ")
}

func exprString(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return "*" + exprString(t.X)
	case *ast.ArrayType:
		return "[]" + exprString(t.Elt)
	case *ast.MapType:
		return fmt.Sprintf("map[%s]%s", exprString(t.Key), exprString(t.Value))
	case *ast.ChanType:
		return "chan " + exprString(t.Value)
	case *ast.FuncType:
		return "func(...)"
	case *ast.InterfaceType:
		return "interface{}"
	case *ast.SelectorExpr:
		return exprString(t.X) + "." + t.Sel.Name
	case *ast.Ellipsis:
		return "..." + exprString(t.Elt)
	case *ast.IndexExpr:
		return exprString(t.X) + "[...]"
	default:
		return "..."
	}
}
