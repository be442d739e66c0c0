package glue

import (
	"context"
	"fmt"

	tiparser "github.com/pingcap/tidb/pkg/parser"
	"go.uber.org/zap"

	"emberql/ast"
	"emberql/exec"
	"emberql/storage"
	"emberql/translate"
)

// Glue is the embeddable entry point: one Glue binds one
// storage.Backend and drives SQL text through the external parser, the
// translator, the planner and the executor, the same shape as a
// command-line entry point driving input through parse → translate →
// plan → execute, but with a
// live backend in place of a one-shot diff.
type Glue struct {
	store  storage.Backend
	engine *exec.Engine
	trans  *translate.Translator
	parser *tiparser.Parser
	log    *zap.Logger
	cfg    Config
}

// New constructs a Glue bound to store. cfg's zero value runs with
// DefaultConfig (auto-commit on, isolation advisory "snapshot"); logger
// nil installs zap.NewNop() so embedding stays silent unless the caller
// supplies one (SPEC_FULL ambient stack).
func New(ctx context.Context, store storage.Backend, cfg Config, logger *zap.Logger) (*Glue, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	cfg = cfg.withIsolationDefault()

	if m, ok := store.(storage.Migrator); ok {
		version, err := m.FormatVersion(ctx)
		if err != nil {
			return nil, fmt.Errorf("glue: reading store format version: %w", err)
		}
		if version != 0 && version < storage.CurrentFormatVersion {
			logger.Info("migrating store to latest format",
				zap.Int("from_version", version),
				zap.Int("to_version", storage.CurrentFormatVersion))
			if err := m.Migrate(ctx); err != nil {
				return nil, fmt.Errorf("glue: migrating store: %w", err)
			}
		} else if version > storage.CurrentFormatVersion {
			return nil, fmt.Errorf("glue: store format version %d is newer than this build supports (%d); refusing to open", version, storage.CurrentFormatVersion)
		}
	}

	engine, err := exec.New(ctx, store)
	if err != nil {
		return nil, fmt.Errorf("glue: initializing engine: %w", err)
	}

	return &Glue{
		store:  store,
		engine: engine,
		trans:  translate.New(),
		parser: tiparser.New(),
		log:    logger,
		cfg:    cfg,
	}, nil
}

func (cfg Config) withIsolationDefault() Config {
	if cfg.IsolationAdvisory == "" {
		cfg.IsolationAdvisory = DefaultConfig().IsolationAdvisory
	}
	return cfg
}

// Execute parses sqlText (which may hold multiple `;`-separated
// statements), translates, plans and runs each in turn, returning one
// Payload per statement. A failure on statement N aborts the
// remaining statements in the batch; payloads already produced for
// statements before N are returned alongside the error.
func (g *Glue) Execute(ctx context.Context, sqlText string) ([]exec.Payload, error) {
	stmts, err := g.Plan(ctx, sqlText)
	if err != nil {
		return nil, g.annotate(sqlText, err)
	}

	payloads := make([]exec.Payload, 0, len(stmts))
	for _, stmt := range stmts {
		g.log.Debug("executing statement", zap.String("kind", fmt.Sprintf("%T", stmt)))
		payload, err := g.engine.Execute(ctx, stmt)
		if err != nil {
			g.log.Warn("statement failed", zap.Error(err))
			return payloads, g.annotate(sqlText, err)
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}

// Plan parses and translates sqlText, then runs the planner over each
// resulting statement, returning the planned ast.Statement slice without
// executing anything ("plan(sql_text) for introspection/tests"). The
// planner passes are pure; calling Plan twice on the same text and
// the same schema catalog yields identical trees.
func (g *Glue) Plan(ctx context.Context, sqlText string) ([]ast.Statement, error) {
	parsed, _, err := g.parser.Parse(sqlText, "", "")
	if err != nil {
		g.log.Warn("parse failed", zap.Error(err))
		return nil, g.annotate(sqlText, fmt.Errorf("parse error: %w", err))
	}

	out := make([]ast.Statement, 0, len(parsed))
	for _, node := range parsed {
		translated, err := g.trans.Translate(node)
		if err != nil {
			g.log.Warn("translate failed", zap.Error(err))
			return nil, g.annotate(sqlText, err)
		}
		planned, err := g.engine.Planner.Plan(translated)
		if err != nil {
			g.log.Warn("plan failed", zap.Error(err))
			return nil, g.annotate(sqlText, err)
		}
		out = append(out, planned)
	}
	return out, nil
}

// Close releases the bound backend's resources, if it supports that.
func (g *Glue) Close(ctx context.Context) error {
	type closer interface {
		Close(ctx context.Context) error
	}
	if c, ok := g.store.(closer); ok {
		return c.Close(ctx)
	}
	return nil
}

// sqlError wraps an underlying error with the originating SQL text per
// propagation policy: "attaches the originating SQL string for
// diagnostics", without discarding the typed error (errors.As/Is still
// see through it via %w).
type sqlError struct {
	sql string
	err error
}

func (e *sqlError) Error() string { return fmt.Sprintf("%s (sql: %s)", e.err, e.sql) }
func (e *sqlError) Unwrap() error { return e.err }

func (g *Glue) annotate(sqlText string, err error) error {
	return &sqlError{sql: sqlText, err: err}
}
