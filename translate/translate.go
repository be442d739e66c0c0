// Package translate maps the TiDB SQL parser's syntax tree onto the
// engine's own AST (emberql/ast), rejecting constructs outside the
// supported subset and performing purely-syntactic normalizations:
// quoted identifiers become string literals, nested binary/unary trees
// are folded, data types are mapped to the engine's value.Kind
// enumeration, and ORDER BY drops any NULLS FIRST/LAST clause.
//
// Translate performs no I/O; it is a pure function of the parsed tree.
package translate

import (
	"fmt"

	tiast "github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/format"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"emberql/ast"
)

// Translator converts one parsed statement node at a time. It is
// stateless and safe for concurrent use by independent callers.
type Translator struct{}

func New() *Translator { return &Translator{} }

// Translate maps a single parsed statement node into the engine AST.
func (t *Translator) Translate(stmt tiast.StmtNode) (ast.Statement, error) {
	switch n := stmt.(type) {
	case *tiast.SelectStmt:
		q, err := t.translateSelectAsQuery(n)
		if err != nil {
			return nil, err
		}
		return q, nil
	case *tiast.SetOprStmt:
		return t.translateSetOpr(n)
	case *tiast.InsertStmt:
		return t.translateInsert(n)
	case *tiast.UpdateStmt:
		return t.translateUpdate(n)
	case *tiast.DeleteStmt:
		return t.translateDelete(n)
	case *tiast.CreateTableStmt:
		return t.translateCreateTable(n)
	case *tiast.AlterTableStmt:
		return t.translateAlterTable(n)
	case *tiast.DropTableStmt:
		return t.translateDropTable(n)
	case *tiast.CreateIndexStmt:
		return t.translateCreateIndex(n)
	case *tiast.DropIndexStmt:
		return &ast.DropIndex{Table: n.Table.Name.O, IndexName: n.IndexName}, nil
	case *tiast.BeginStmt:
		return &ast.StartTransaction{}, nil
	case *tiast.CommitStmt:
		return &ast.Commit{}, nil
	case *tiast.RollbackStmt:
		return &ast.Rollback{}, nil
	case *tiast.ShowStmt:
		return t.translateShow(n)
	default:
		return nil, errUnsupportedStatement(render(stmt))
	}
}

// render renders a parser node back to SQL text via
// pkg/parser/format.RestoreCtx, for error messages and for the default
// label of a projection item that has no AS alias.
func render(node tiast.Node) string {
	var sb stringBuilder
	ctx := format.NewRestoreCtx(format.DefaultRestoreFlags, &sb)
	if err := node.Restore(ctx); err != nil {
		return fmt.Sprintf("<unrenderable: %v>", err)
	}
	return sb.String()
}

// stringBuilder satisfies io.Writer for format.RestoreCtx without pulling
// in strings.Builder's broader surface than needed here.
type stringBuilder struct{ buf []byte }

func (s *stringBuilder) Write(p []byte) (int, error) {
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *stringBuilder) WriteString(str string) (int, error) {
	s.buf = append(s.buf, str...)
	return len(str), nil
}

func (s *stringBuilder) String() string { return string(s.buf) }
