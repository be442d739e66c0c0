// Package plan implements the three pure transformation passes: a
// schemaless rewrite that turns identifiers against a schemaless table
// into document-column lookups, an index-selection pass that annotates
// base table references with a usable secondary index, and a
// join-executor pass that marks equi-joins for the hash executor. No
// pass touches storage; all operate purely on the translated ast.
package plan

import (
	"emberql/ast"
	"emberql/schema"
	"emberql/value"
)

// DocColumn is the reserved column name a schemaless table's row is
// addressed through once rewritten.
const DocColumn = "doc"

// SchemaLookup is the narrow registry the planner consults to learn
// whether a referenced base table is schemaless and what secondary
// indexes it declares. glue wires this against the live schema cache.
type SchemaLookup interface {
	Schema(table string) (*schema.Table, bool)
}

// Planner runs the passes over one translated statement at a time. It
// holds no mutable state of its own: same input, same SchemaLookup
// snapshot, same output.
type Planner struct {
	Schemas SchemaLookup
}

func New(schemas SchemaLookup) *Planner { return &Planner{Schemas: schemas} }

// Plan rewrites stmt in place and returns it, running the schemaless
// rewrite first, index selection second and join-executor selection
// third, each exactly once per query. UPDATE and DELETE get only the
// schemaless rewrite.
func (p *Planner) Plan(stmt ast.Statement) (ast.Statement, error) {
	switch s := stmt.(type) {
	case *ast.Query:
		if err := p.rewriteQuery(s, nil); err != nil {
			return nil, err
		}
		p.selectIndexes(s)
		p.selectHashJoins(s)
		return s, nil
	case *ast.Insert:
		if s.Source != nil {
			if err := p.rewriteQuery(s.Source, nil); err != nil {
				return nil, err
			}
			p.selectIndexes(s.Source)
			p.selectHashJoins(s.Source)
		}
		return s, nil
	case *ast.Update:
		aliases, err := p.schemalessAliasesForTable(s.Table, "")
		if err != nil {
			return nil, err
		}
		for i := range s.Assignments {
			p.rewriteExpr(&s.Assignments[i].Value, aliases)
		}
		p.rewriteExpr(&s.Selection, aliases)
		return s, nil
	case *ast.Delete:
		aliases, err := p.schemalessAliasesForTable(s.Table, "")
		if err != nil {
			return nil, err
		}
		p.rewriteExpr(&s.Selection, aliases)
		return s, nil
	default:
		return stmt, nil
	}
}

// aliasSet maps every alias (or bare table name when no alias was given)
// reachable at some lexical scope to whether it names a schemaless table.
type aliasSet map[string]bool

func (p *Planner) schemalessAliasesForTable(table, alias string) (aliasSet, error) {
	t, ok := p.Schemas.Schema(table)
	if !ok {
		return nil, nil
	}
	key := alias
	if key == "" {
		key = table
	}
	return aliasSet{key: t.Schemaless()}, nil
}

// rewriteQuery applies the schemaless rewrite to one Query, threading
// outer (correlated) aliases down into nested scopes; an inner alias of
// the same name shadows the outer one.
func (p *Planner) rewriteQuery(q *ast.Query, outer aliasSet) error {
	if q == nil {
		return nil
	}
	inner, err := p.rewriteSetExpr(q.Body, outer)
	if err != nil {
		return err
	}
	scope := mergeAliases(outer, inner)
	for i := range q.OrderBy {
		p.rewriteExpr(&q.OrderBy[i].Expr, scope)
	}
	p.rewriteExpr(&q.Limit, scope)
	p.rewriteExpr(&q.Offset, scope)
	return nil
}

func mergeAliases(outer, inner aliasSet) aliasSet {
	if len(outer) == 0 {
		return inner
	}
	if len(inner) == 0 {
		return outer
	}
	merged := make(aliasSet, len(outer)+len(inner))
	for k, v := range outer {
		merged[k] = v
	}
	for k, v := range inner {
		merged[k] = v
	}
	return merged
}

// rewriteSetExpr rewrites one SetExpr (a Select, a Values list, or a set
// operation) and returns the alias scope a sibling ORDER BY at the same
// level would see (only meaningful for a plain Select).
func (p *Planner) rewriteSetExpr(se *ast.SetExpr, outer aliasSet) (aliasSet, error) {
	if se == nil {
		return nil, nil
	}
	if se.Select != nil {
		own, err := p.schemalessAliases(se.Select.From)
		if err != nil {
			return nil, err
		}
		scope := mergeAliases(outer, own)
		if err := p.rewriteSelect(se.Select, scope); err != nil {
			return nil, err
		}
		return own, nil
	}
	for r := range se.Values {
		for i := range se.Values[r] {
			p.rewriteExpr(&se.Values[r][i], outer)
		}
	}
	if se.SetOp != nil {
		if _, err := p.rewriteSetExpr(se.SetOp.Left, outer); err != nil {
			return nil, err
		}
		if _, err := p.rewriteSetExpr(se.SetOp.Right, outer); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// schemalessAliases builds the alias->schemaless map for every base table
// factor directly in a FROM clause (derived tables are never schemaless
// themselves; their own FROM gets its own scope).
func (p *Planner) schemalessAliases(from *ast.TableWithJoins) (aliasSet, error) {
	if from == nil {
		return nil, nil
	}
	out := aliasSet{}
	add := func(tf *ast.TableFactor) {
		if tf == nil || tf.Name == "" {
			return
		}
		t, ok := p.Schemas.Schema(tf.Name)
		if !ok {
			return
		}
		key := tf.Alias
		if key == "" {
			key = tf.Name
		}
		out[key] = t.Schemaless()
	}
	add(from.Base)
	for i := range from.Joins {
		add(from.Joins[i].Table)
	}
	return out, nil
}

func (p *Planner) rewriteSelect(sel *ast.Select, scope aliasSet) error {
	for i := range sel.Projection {
		item := &sel.Projection[i]
		if item.Wildcard {
			p.rewriteWildcard(item, scope)
			continue
		}
		p.rewriteExpr(&item.Expr, scope)
	}
	p.rewriteExpr(&sel.Selection, scope)
	for i := range sel.GroupBy {
		p.rewriteExpr(&sel.GroupBy[i], scope)
	}
	p.rewriteExpr(&sel.Having, scope)
	if sel.From != nil {
		if err := p.rewriteTableWithJoins(sel.From, scope); err != nil {
			return err
		}
	}
	return nil
}

func (p *Planner) rewriteTableWithJoins(t *ast.TableWithJoins, scope aliasSet) error {
	if err := p.rewriteTableFactor(t.Base, scope); err != nil {
		return err
	}
	for i := range t.Joins {
		j := &t.Joins[i]
		if err := p.rewriteTableFactor(j.Table, scope); err != nil {
			return err
		}
		p.rewriteExpr(&j.On, scope)
		if j.Hash != nil {
			p.rewriteExpr(&j.Hash.KeyExpr, scope)
			p.rewriteExpr(&j.Hash.ValueExpr, scope)
			if j.Hash.Where.Kind != 0 {
				p.rewriteExpr(&j.Hash.Where, scope)
			}
		}
	}
	return nil
}

func (p *Planner) rewriteTableFactor(tf *ast.TableFactor, scope aliasSet) error {
	if tf == nil || tf.Derived == nil {
		return nil
	}
	return p.rewriteQuery(tf.Derived, scope)
}

// rewriteWildcard turns `*` or `alias.*` over a schemaless source into a
// projection of that source's document column.
func (p *Planner) rewriteWildcard(item *ast.SelectItem, scope aliasSet) {
	if item.WildcardOf != "" {
		if schemaless, ok := scope[item.WildcardOf]; ok && schemaless {
			item.Wildcard = false
			item.Expr = docExpr(item.WildcardOf)
			item.Alias = DocColumn
		}
		return
	}
	// Bare `*`: only unambiguous when exactly one schemaless source is in
	// scope and it is the sole source, mirroring the unqualified-identifier
	// resolution rule below.
	only, ok := soleSchemalessAlias(scope)
	if ok && len(scope) == 1 {
		item.Wildcard = false
		item.Expr = docExpr(only)
		item.Alias = DocColumn
	}
}

func soleSchemalessAlias(scope aliasSet) (string, bool) {
	var found string
	n := 0
	for alias, schemaless := range scope {
		if schemaless {
			found = alias
			n++
		}
	}
	if n == 1 {
		return found, true
	}
	return "", false
}

func docExpr(alias string) ast.Expr {
	return ast.Expr{Kind: ast.ExprCompoundIdentifier, CompoundAlias: alias, CompoundColumn: DocColumn}
}

// rewriteExpr walks e post-order, rewriting identifiers that resolve
// against a schemaless alias into a `doc ->> 'col'` lookup. It is a
// hand-written walk (rather than ast.Walk) because it needs to thread the
// alias scope down into nested subqueries' own FROM clauses instead of
// reusing a single flat scope for the whole tree.
func (p *Planner) rewriteExpr(e *ast.Expr, scope aliasSet) {
	if e == nil {
		return
	}
	switch e.Kind {
	case ast.ExprNested:
		p.rewriteExpr(e.Inner, scope)
	case ast.ExprBinaryOp:
		p.rewriteExpr(e.Left, scope)
		p.rewriteExpr(e.Right, scope)
	case ast.ExprUnaryOp:
		p.rewriteExpr(e.Operand, scope)
	case ast.ExprBetween:
		p.rewriteExpr(e.BetweenExpr, scope)
		p.rewriteExpr(e.BetweenLow, scope)
		p.rewriteExpr(e.BetweenHigh, scope)
	case ast.ExprInList:
		p.rewriteExpr(e.InExpr, scope)
		for i := range e.InList {
			p.rewriteExpr(&e.InList[i], scope)
		}
	case ast.ExprInSubquery:
		p.rewriteExpr(e.InExpr, scope)
		_ = p.rewriteQuery(e.InSub, scope)
	case ast.ExprExists:
		_ = p.rewriteQuery(e.ExistsSub, scope)
	case ast.ExprSubquery:
		_ = p.rewriteQuery(e.SubqueryOf, scope)
	case ast.ExprCase:
		if e.CaseOperand != nil {
			p.rewriteExpr(e.CaseOperand, scope)
		}
		for i := range e.CaseWhens {
			p.rewriteExpr(&e.CaseWhens[i].Condition, scope)
			p.rewriteExpr(&e.CaseWhens[i].Result, scope)
		}
		if e.CaseElse != nil {
			p.rewriteExpr(e.CaseElse, scope)
		}
	case ast.ExprCast:
		p.rewriteExpr(e.CastExpr, scope)
	case ast.ExprArrayIndex:
		p.rewriteExpr(e.ArrayBase, scope)
		p.rewriteExpr(e.ArrayIndex, scope)
	case ast.ExprFunctionCall:
		for i := range e.FuncArgs {
			p.rewriteExpr(&e.FuncArgs[i], scope)
		}
	case ast.ExprIdentifier:
		if alias, ok := soleSchemalessAlias(scope); ok && len(scope) == 1 {
			col := e.Ident
			*e = ast.Expr{
				Kind:       ast.ExprArrayIndex,
				ArrayBase:  ptr(docExpr(alias)),
				ArrayIndex: ptr(ast.Expr{Kind: ast.ExprLiteral, Literal: value.Text(col)}),
				ArrayLong:  true,
			}
		}
	case ast.ExprCompoundIdentifier:
		if schemaless, ok := scope[e.CompoundAlias]; ok && schemaless && e.CompoundColumn != DocColumn {
			col := e.CompoundColumn
			alias := e.CompoundAlias
			*e = ast.Expr{
				Kind:       ast.ExprArrayIndex,
				ArrayBase:  ptr(docExpr(alias)),
				ArrayIndex: ptr(ast.Expr{Kind: ast.ExprLiteral, Literal: value.Text(col)}),
				ArrayLong:  true,
			}
		}
	}
}

func ptr(e ast.Expr) *ast.Expr { return &e }
