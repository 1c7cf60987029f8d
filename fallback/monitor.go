// Package fallback implements the fallback runner and timeout monitor
// (C12): a wall-clock budget tracker wrapping the scheduler, and a
// unified runner that walks inline -> hybrid -> orchestrated on
// budget-exhausted signals.
package fallback

import (
	"sync"
	"time"
)

// DefaultWarningFraction is applied when NewMonitor is given a
// warningFraction of zero, per §4.7's "warningFraction=0.8".
const DefaultWarningFraction = 0.8

// Monitor is a wall-clock budget tracker created with a fixed budget.
// RemainingMs, OnWarning, and IsExhausted are all safe for concurrent
// use, since the monitor is read from hook callbacks running on the
// scheduler's goroutines while its warning timer fires on its own.
type Monitor struct {
	start           time.Time
	budget          time.Duration
	warningFraction float64

	mu        sync.Mutex
	warned    bool
	warnTimer *time.Timer
}

// NewMonitor starts a budget tracker of budgetMs with the given
// warningFraction (0 selects DefaultWarningFraction). The clock starts
// immediately.
func NewMonitor(budgetMs int64, warningFraction float64) *Monitor {
	if warningFraction == 0 {
		warningFraction = DefaultWarningFraction
	}
	return &Monitor{
		start:           time.Now(),
		budget:          time.Duration(budgetMs) * time.Millisecond,
		warningFraction: warningFraction,
	}
}

// RemainingMs returns the milliseconds left in the budget, clamped to
// zero once exhausted.
func (m *Monitor) RemainingMs() int64 {
	remaining := m.budget - time.Since(m.start)
	if remaining < 0 {
		remaining = 0
	}
	return remaining.Milliseconds()
}

// IsExhausted reports whether the budget has run out. Used by hooks to
// raise a budget-exhausted failure from beforeLevel/beforeStep.
func (m *Monitor) IsExhausted() bool {
	return m.RemainingMs() <= 0
}

// OnWarning registers cb to fire exactly once, the first time elapsed
// wall time exceeds warningFraction*budgetMs. Calling OnWarning more
// than once only the first registration takes effect; later calls are
// no-ops, matching the one-shot contract.
func (m *Monitor) OnWarning(cb func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.warnTimer != nil {
		return
	}

	warnAt := time.Duration(float64(m.budget) * m.warningFraction)
	delay := warnAt - time.Since(m.start)
	if delay < 0 {
		delay = 0
	}

	m.warnTimer = time.AfterFunc(delay, func() {
		m.mu.Lock()
		already := m.warned
		m.warned = true
		m.mu.Unlock()
		if !already {
			cb()
		}
	})
}

// Stop cancels any pending warning timer. Callers should Stop a
// Monitor once its run has concluded to release the timer goroutine.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.warnTimer != nil {
		m.warnTimer.Stop()
	}
}
