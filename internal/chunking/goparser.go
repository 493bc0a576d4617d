package chunking

import (
	"go/ast"
	"go/parser"
	"go/token"

	"github.com/raglite/raglite/pkg/types"
)

// goParser extracts top-level declaration spans from Go source. Functions
// and methods map to function chunks; type declarations map to class chunks.
// Import, const and var blocks are left for the module chunk.
type goParser struct{}

// Parse implements languageParser.
func (p *goParser) Parse(content string) ([]declaration, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, "src.go", content, parser.ParseComments)
	if err != nil {
		return nil, err
	}

	var decls []declaration

	for _, d := range file.Decls {
		switch n := d.(type) {
		case *ast.FuncDecl:
			decls = append(decls, declaration{
				Name:      funcName(n),
				Kind:      types.ChunkFunction,
				StartLine: declStart(fset, n.Pos(), n.Doc),
				EndLine:   fset.Position(n.End()).Line,
			})
		case *ast.GenDecl:
			if n.Tok != token.TYPE {
				continue
			}
			for _, spec := range n.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				// Grouped type blocks share the decl's doc comment; a
				// single type spec may carry its own.
				doc := ts.Doc
				if doc == nil && len(n.Specs) == 1 {
					doc = n.Doc
				}
				decls = append(decls, declaration{
					Name:      ts.Name.Name,
					Kind:      types.ChunkClass,
					StartLine: declStart(fset, ts.Pos(), doc),
					EndLine:   fset.Position(ts.End()).Line,
				})
			}
		}
	}

	return decls, nil
}

// declStart returns the declaration's first line, extended upward to the
// start of its doc comment when one is attached.
func declStart(fset *token.FileSet, pos token.Pos, doc *ast.CommentGroup) int {
	if doc != nil {
		return fset.Position(doc.Pos()).Line
	}
	return fset.Position(pos).Line
}

// funcName renders "Recv.Name" for methods and "Name" for functions.
func funcName(fn *ast.FuncDecl) string {
	name := fn.Name.Name
	if fn.Recv != nil && len(fn.Recv.List) > 0 {
		if recv := receiverName(fn.Recv.List[0].Type); recv != "" {
			return recv + "." + name
		}
	}
	return name
}

func receiverName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.StarExpr:
		return receiverName(t.X)
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr: // generic receiver
		return receiverName(t.X)
	}
	return ""
}
