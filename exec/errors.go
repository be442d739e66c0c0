package exec

import "fmt"

// Error is the executor's own error taxonomy:
// unreachable plan states, ambiguous references, and runtime table lookups
// that slip past planning (a view or CTE the planner never resolved).
type Error struct {
	Op  string
	Msg string
}

func (e *Error) Error() string { return fmt.Sprintf("%s: %s", e.Op, e.Msg) }

func errUnreachablePlanState(what string) error {
	return &Error{Op: "UnreachablePlanState", Msg: what}
}

func errAmbiguousReference(name string) error {
	return &Error{Op: "AmbiguousReference", Msg: name}
}

func errTableNotFoundDuringFetch(table string) error {
	return &Error{Op: "TableNotFound", Msg: table}
}
