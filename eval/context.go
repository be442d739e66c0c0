// Package eval implements the expression evaluator: a contextual
// mode that resolves identifiers against a chain of row contexts, and a
// stateless mode for literal-only expressions (DEFAULT clauses, VALUES
// rows, index expressions).
package eval

import (
	"fmt"

	"emberql/value"
)

// RowContext binds a table alias and its column labels to one row of
// values, optionally chained to an outer context for join outputs and
// correlated subqueries.
type RowContext struct {
	Alias   string
	Labels  []string
	Row     []value.Value
	Doc     *value.Map // non-nil for a schemaless row bound under Alias
	Parent  *RowContext
	// Padded marks a synthesized all-Null side of a LEFT OUTER JOIN with
	// no matching right row: every column this context
	// would otherwise hold resolves to Null instead of ValueNotFound.
	Padded bool
	// Aggregates holds the per-group accumulator results keyed by the
	// canonical rendering of the aggregate call, populated by the
	// executor's aggregate stage before HAVING/projection
	// evaluate against this context.
	Aggregates map[string]value.Value
}

// Lookup resolves an unqualified or qualified identifier by walking the
// context chain from innermost outward.
func (c *RowContext) Lookup(qualifier, name string) (value.Value, error) {
	var schemalessPadFallback bool
	for ctx := c; ctx != nil; ctx = ctx.Parent {
		if qualifier != "" && ctx.Alias != qualifier {
			continue
		}
		if ctx.Padded {
			if ctx.Doc != nil || len(ctx.Labels) > 0 {
				for _, label := range ctx.Labels {
					if label == name {
						return value.Null(), nil
					}
				}
				if qualifier != "" {
					return value.Value{}, errValueNotFound(qualifier, name)
				}
				continue
			}
			// A padded schemaless side has no declared columns at all;
			// any name asked of it is Null.
			if qualifier != "" {
				return value.Null(), nil
			}
			schemalessPadFallback = true
			continue
		}
		if ctx.Doc != nil {
			if v, ok := ctx.Doc.Get(name); ok {
				return v, nil
			}
			if qualifier != "" {
				return value.Value{}, errValueNotFound(qualifier, name)
			}
			continue
		}
		for i, label := range ctx.Labels {
			if label == name {
				return ctx.Row[i], nil
			}
		}
		if qualifier != "" {
			return value.Value{}, errValueNotFound(qualifier, name)
		}
	}
	if schemalessPadFallback {
		return value.Null(), nil
	}
	return value.Value{}, errValueNotFound(qualifier, name)
}

// Aggregate resolves an aggregate reference against the context's
// per-group accumulator table; evaluating one in stateless mode (nil
// context) is itself an error.
func (c *RowContext) Aggregate(label string) (value.Value, bool) {
	if c == nil || c.Aggregates == nil {
		return value.Value{}, false
	}
	v, ok := c.Aggregates[label]
	return v, ok
}

// Error is the evaluator's error taxonomy: missing identifiers,
// stateless-mode violations, and function-call arity/type failures.
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Msg) }

func errValueNotFound(qualifier, name string) error {
	if qualifier != "" {
		return &Error{Op: "ValueNotFound", Msg: fmt.Sprintf("%s.%s", qualifier, name)}
	}
	return &Error{Op: "ValueNotFound", Msg: name}
}

func errStatelessViolation(what string) error {
	return &Error{Op: "StatelessModeViolation", Msg: what}
}
