// Package messages collects user facing diagnostics produced while the ledger is
// processed. Diagnostics never abort processing; they are gathered and shown to
// the user afterwards.
package messages

import "sync"

// Messenger receives diagnostics. Implementations must not block.
type Messenger interface {
	AddError(err error)
	AddWarning(msg string)
}

// Aggregator is a Messenger that keeps diagnostics in memory until consumed.
// It is safe for concurrent use.
type Aggregator struct {
	mu       sync.Mutex
	errors   []error
	warnings []string
}

// NewAggregator creates an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// AddError records an error diagnostic.
func (a *Aggregator) AddError(err error) {
	if err == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errors = append(a.errors, err)
}

// AddWarning records a warning diagnostic.
func (a *Aggregator) AddWarning(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.warnings = append(a.warnings, msg)
}

// ConsumeErrors returns all recorded errors and clears them.
func (a *Aggregator) ConsumeErrors() []error {
	a.mu.Lock()
	defer a.mu.Unlock()
	errs := a.errors
	a.errors = nil
	return errs
}

// ConsumeWarnings returns all recorded warnings and clears them.
func (a *Aggregator) ConsumeWarnings() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	warnings := a.warnings
	a.warnings = nil
	return warnings
}

// Len returns the number of pending diagnostics.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.errors) + len(a.warnings)
}

// Discard is a Messenger that drops every diagnostic.
var Discard Messenger = discard{}

type discard struct{}

func (discard) AddError(error)    {}
func (discard) AddWarning(string) {}
