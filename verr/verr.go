// Package verr defines the error taxonomy shared by every Virta package.
//
// Every structural, parse, execution, and planner failure is surfaced as a
// *Error carrying a machine-readable Kind, a human-readable Message, and an
// optional Where locator identifying the offending element (a token, a
// node id, a dialect element id, a state name). Non-fatal adapter
// warnings are not carried here; adapters return them as model.Warning.
// The core never logs, so this struct is the only failure shape a caller
// inspects.
package verr

import "fmt"

// Kind is a machine-readable error/warning classification.
//
// Kind values are the "surface names" enumerated in the specification's
// error taxonomy: structural (cycle, unknown-dependency,
// duplicate-registration, unknown-step), parse/validate (invalid-dialect,
// scenario-not-found), execution (step-failure, budget-exhausted), and
// planner (no-entries, no-cut-found).
type Kind string

const (
	KindCycle                Kind = "cycle"
	KindUnknownDependency    Kind = "unknown-dependency"
	KindDuplicateRegistration Kind = "duplicate-registration"
	KindUnknownStep          Kind = "unknown-step"
	KindUnregisteredToken    Kind = "unregistered-token"
	KindScenarioNotFound     Kind = "scenario-not-found"
	KindInvalidDialect       Kind = "invalid-dialect"
	KindSchemaViolation      Kind = "schema-violation"
	KindStepFailure          Kind = "step-failure"
	KindBudgetExhausted      Kind = "budget-exhausted"
	KindNoEntries            Kind = "no-entries"
	KindNoCutFound           Kind = "no-cut-found"
	KindDowngraded           Kind = "downgraded"
	KindInvalidRetryPolicy   Kind = "invalid-retry-policy"
)

// Error is the shape every fatal failure takes.
//
// Where is dialect- or domain-specific: a step token's string form, a
// node id, a state name, a BPMN element id. It is empty when no single
// element is responsible (e.g. KindNoEntries on an empty graph).
type Error struct {
	Kind    Kind
	Message string
	Where   string
	Cause   error
}

func (e *Error) Error() string {
	if e.Where != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Where)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is(err, verr.Sentinel(kind)) style matching work by comparing
// Kind; two *Error values are "the same" error for errors.Is purposes
// when their Kind matches, regardless of Message/Where.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs an *Error with the given kind, message, and locator.
func New(kind Kind, message, where string) *Error {
	return &Error{Kind: kind, Message: message, Where: where}
}

// Wrap constructs an *Error that also carries an underlying cause.
func Wrap(kind Kind, message, where string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Where: where, Cause: cause}
}

// Sentinel returns a bare *Error for use with errors.Is comparisons,
// e.g. `errors.Is(err, verr.Sentinel(verr.KindCycle))`.
func Sentinel(kind Kind) *Error {
	return &Error{Kind: kind}
}
