// Package telemetry collects hierarchical timings of a replay.
//
// Collectors travel through context so the loader, the accounting pipeline and
// the store can be instrumented without changing their signatures. When no
// collector is attached every call is a no-op.
//
// Example usage:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	root := collector.Start("replay")
//	ctx = telemetry.WithRootTimer(ctx, root)
//
//	timer := telemetry.StartTimer(ctx, "load events.jsonl")
//	// ... work ...
//	timer.End()
//
//	root.End()
//	collector.Report(os.Stderr, output.NewStyles(os.Stderr))
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/costbasis/output"
)

type contextKey int

const (
	collectorKey contextKey = iota
	rootTimerKey
)

// Collector gathers timings and reports them.
type Collector interface {
	// Start begins timing an operation at the top level.
	Start(name string) Timer

	// Report writes the collected timings to w. Styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks a single operation. Timers nest through Child; children
// sharing a name are merged and reported with a count.
type Timer interface {
	End()
	Child(name string) Timer
}

// WithCollector attaches a collector to ctx.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext returns the collector attached to ctx or a no-op collector.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// WithRootTimer makes timer the parent of timers started through StartTimer.
func WithRootTimer(ctx context.Context, timer Timer) context.Context {
	return context.WithValue(ctx, rootTimerKey, timer)
}

// StartTimer starts a timer below the root timer of ctx, or at the top level of
// the collector when there is none.
func StartTimer(ctx context.Context, name string) Timer {
	if root, ok := ctx.Value(rootTimerKey).(Timer); ok {
		return root.Child(name)
	}
	return FromContext(ctx).Start(name)
}
