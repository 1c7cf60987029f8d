package pipeline

import (
	"fmt"

	"github.com/Lacoz/virta/verr"
)

func tokenLabel(t Token) string {
	return fmt.Sprintf("%v", t)
}

func dupErr(t Token) error {
	return verr.New(verr.KindDuplicateRegistration, "token registered more than once in definition", tokenLabel(t))
}

func unknownDepErr(t Token) error {
	return verr.New(verr.KindUnknownDependency, "dependency token not registered in definition", tokenLabel(t))
}

func cycleErr() error {
	return verr.New(verr.KindCycle, "no step has all dependencies satisfied while tokens remain", "")
}

// StepFailure wraps the error a step returned, recording which token
// produced it. It is never returned from Run; each entry of
// Result.Errors is one.
type StepFailure struct {
	Token Token
	Err   error
}

func (f *StepFailure) Error() string {
	return fmt.Sprintf("step %s failed: %v", tokenLabel(f.Token), f.Err)
}

func (f *StepFailure) Unwrap() error { return f.Err }
