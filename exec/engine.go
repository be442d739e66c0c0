// Package exec implements the execution engine: the SELECT pipeline,
// DML appliers, DDL appliers and transaction control, all driven against
// the backend-neutral storage.Backend contract. It is the single
// consumer of package plan's rewritten/annotated statements and the
// implementer of eval.SubqueryRunner, closing the evaluator's callback
// loop for EXISTS/IN/scalar subqueries.
package exec

import (
	"context"

	"emberql/ast"
	"emberql/eval"
	"emberql/fn"
	"emberql/plan"
	"emberql/storage"
)

// Engine ties the planner, evaluator, function registry and a storage
// backend together behind the single Execute entry point.
type Engine struct {
	Store     storage.Backend
	Functions *fn.Registry
	Eval      *eval.Evaluator
	Planner   *plan.Planner
	schemas   *schemaCache

	// inTransaction tracks whether the engine is inside an explicit
	// transaction begun by START TRANSACTION.
	inTransaction bool
}

// New builds an Engine against store, seeding the schema cache with its
// current schema catalog.
func New(ctx context.Context, store storage.Backend) (*Engine, error) {
	cache, err := newSchemaCache(ctx, store)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		Store:     store,
		Functions: fn.NewRegistry(),
		schemas:   cache,
	}
	e.Planner = plan.New(cache)
	e.Eval = eval.New(e.Functions, e)
	return e, nil
}

// Execute plans and runs one statement, returning its orchestrator-facing
// Payload. Every mutation made outside an explicit transaction
// auto-commits as part of this call; inside one, it is left pending until
// COMMIT/ROLLBACK.
func (e *Engine) Execute(ctx context.Context, stmt ast.Statement) (Payload, error) {
	planned, err := e.Planner.Plan(stmt)
	if err != nil {
		return Payload{}, err
	}

	switch s := planned.(type) {
	case *ast.Query:
		return e.execQuery(ctx, s)
	case *ast.Insert:
		return e.execInsert(ctx, s)
	case *ast.Update:
		return e.execUpdate(ctx, s)
	case *ast.Delete:
		return e.execDelete(ctx, s)
	case *ast.CreateTable:
		return e.execCreateTable(ctx, s)
	case *ast.AlterTable:
		return e.execAlterTable(ctx, s)
	case *ast.DropTable:
		return e.execDropTable(ctx, s)
	case *ast.CreateIndex:
		return e.execCreateIndex(ctx, s)
	case *ast.DropIndex:
		return e.execDropIndex(ctx, s)
	case *ast.StartTransaction:
		noop, err := e.Store.Begin(ctx, false)
		if err != nil {
			return Payload{}, err
		}
		if !noop {
			e.inTransaction = true
		}
		return Payload{Kind: PayloadStartTransaction}, nil
	case *ast.Commit:
		if err := e.Store.Commit(ctx); err != nil {
			return Payload{}, err
		}
		e.inTransaction = false
		return Payload{Kind: PayloadCommit}, nil
	case *ast.Rollback:
		if err := e.Store.Rollback(ctx); err != nil {
			return Payload{}, err
		}
		e.inTransaction = false
		return Payload{Kind: PayloadRollback}, nil
	case *ast.ShowColumns:
		return e.execShowColumns(ctx, s)
	case *ast.ShowVariable:
		return e.execShowVariable(ctx, s)
	case *ast.ShowIndexes:
		return e.execShowIndexes(ctx, s)
	default:
		return Payload{}, errUnreachablePlanState("unknown statement type")
	}
}

// withAutoCommit runs body under an implicit per-statement transaction
// when the engine isn't already inside an explicit one. A failure
// inside an explicit transaction is never auto-rolled-back; it is the caller's responsibility to ROLLBACK.
func (e *Engine) withAutoCommit(ctx context.Context, body func() error) error {
	if e.inTransaction {
		return body()
	}
	noop, err := e.Store.Begin(ctx, true)
	if err != nil {
		return err
	}
	if err := body(); err != nil {
		if !noop {
			_ = e.Store.Rollback(ctx)
		}
		return err
	}
	if !noop {
		return e.Store.Commit(ctx)
	}
	return nil
}

func (e *Engine) execQuery(ctx context.Context, q *ast.Query) (Payload, error) {
	labels, rows, err := e.runQuery(ctx, q, nil)
	if err != nil {
		return Payload{}, err
	}
	return buildSelectPayload(labels, rows), nil
}
