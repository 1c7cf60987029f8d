package fallback

import (
	"errors"

	"github.com/Lacoz/virta/verr"
)

// ErrBudgetExhausted is the sentinel the monitor's hooks raise when
// IsExhausted trips mid-run; the unified runner matches on
// verr.KindBudgetExhausted via IsBudgetExhausted to decide whether to advance
// the fallback chain or let the failure propagate.
func ErrBudgetExhausted(where string) *verr.Error {
	return verr.New(verr.KindBudgetExhausted, "wall-clock budget exhausted", where)
}

// IsBudgetExhausted reports whether err is (or wraps) a
// budget-exhausted failure.
func IsBudgetExhausted(err error) bool {
	var ve *verr.Error
	if !errors.As(err, &ve) {
		return false
	}
	return ve.Kind == verr.KindBudgetExhausted
}
