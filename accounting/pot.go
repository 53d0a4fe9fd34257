// Package accounting replays a chronological stream of events through the
// cost basis calculator and collects what every spend produced.
package accounting

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/ledger"
	"github.com/robinvdvleuten/costbasis/logging"
	"github.com/robinvdvleuten/costbasis/messages"
	"github.com/robinvdvleuten/costbasis/telemetry"
)

// SpendReport is the outcome of one spend of the stream.
type SpendReport struct {
	Seq    int // Position of the spend in the event stream
	Spend  event.Spend
	Result ledger.SpendResult
}

// Result collects everything a replay produced.
type Result struct {
	// Acquisitions holds every acquisition obtained, including the ones
	// synthesized for chain forks, in processing order.
	Acquisitions []event.Acquisition
	Spends       []SpendReport

	// Errors and Warnings are the diagnostics reported during the replay.
	Errors   []error
	Warnings []string
}

// Incomplete counts the spends whose cost basis is incomplete.
func (r *Result) Incomplete() int {
	n := 0
	for _, s := range r.Spends {
		if info, ok := s.Result.CostBasis(); ok && !info.IsComplete {
			n++
		}
	}
	return n
}

// Balance is the amount of an asset held after a replay.
type Balance struct {
	Asset  asset.Asset
	Amount decimal.Decimal
	Known  bool // False when no lot of the asset is pending
}

// Pot drives a Calculator over an event stream.
type Pot struct {
	settings  ledger.Settings
	messenger *messages.Aggregator
	logger    *slog.Logger
	calc      *ledger.Calculator
}

// Option configures a Pot.
type Option func(*Pot)

// WithLogger sets the logger handed to the calculator.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pot) {
		p.logger = logger
	}
}

// NewPot creates a pot for the given settings.
func NewPot(settings ledger.Settings, opts ...Option) *Pot {
	p := &Pot{
		settings:  settings,
		messenger: messages.NewAggregator(),
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.calc = ledger.NewCalculator(p.messenger, settings, ledger.WithLogger(p.logger))
	return p
}

// Calculator exposes the calculator holding the state of the last replay.
func (p *Pot) Calculator() *ledger.Calculator {
	return p.calc
}

// Process resets the calculator and replays events in order. Events must be
// sorted by timestamp; an event older than its predecessor aborts the replay
// with an *OrderError. Cancelling ctx stops the replay between two events.
func (p *Pot) Process(ctx context.Context, events []event.Event) (*Result, error) {
	timer := telemetry.StartTimer(ctx, fmt.Sprintf("process %d events", len(events)))
	defer timer.End()

	p.calc.Reset(p.settings)
	p.messenger.ConsumeErrors()
	p.messenger.ConsumeWarnings()

	result := &Result{}
	var previous event.Timestamp

	for idx, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("replay interrupted at event %d: %w", idx, err)
		}

		ts := ev.Timestamp()
		if idx > 0 && ts < previous {
			return nil, &OrderError{Index: idx, Previous: previous, Timestamp: ts}
		}
		previous = ts

		switch ev.Kind {
		case event.KindAcquisition:
			t := timer.Child("acquire " + ev.Asset().String())
			p.acquire(*ev.Acquisition, result)
			t.End()
		case event.KindSpend:
			t := timer.Child("spend " + ev.Asset().String())
			p.spend(idx, *ev.Spend, result)
			t.End()
		default:
			return nil, fmt.Errorf("event %d has unknown kind %q", idx, ev.Kind)
		}
	}

	result.Errors = p.messenger.ConsumeErrors()
	result.Warnings = p.messenger.ConsumeWarnings()

	p.logger.Info("Replay finished",
		"events", len(events),
		"spends", len(result.Spends),
		"incomplete", result.Incomplete(),
		"diagnostics", len(result.Errors)+len(result.Warnings),
	)
	return result, nil
}

func (p *Pot) acquire(acq event.Acquisition, result *Result) {
	p.calc.ObtainAsset(acq)
	result.Acquisitions = append(result.Acquisitions, acq)

	prefork := p.calc.HandlePreforkAcquisitions(acq.Location, acq.Timestamp, acq.Asset, acq.TaxableAmount, acq.Price)
	result.Acquisitions = append(result.Acquisitions, prefork...)
}

func (p *Pot) spend(seq int, spend event.Spend, result *Result) {
	outcome := p.calc.SpendAsset(spend)
	if outcome.Kind == ledger.SpendReduced && !outcome.Covered && !spend.Asset.IsFiat() {
		p.messenger.AddWarning(fmt.Sprintf(
			"Spent more %s than acquired at %s", spend.Asset, p.settings.FormatTimestamp(spend.Timestamp)))
	}
	p.calc.HandlePreforkSpends(spend.Asset, spend.Amount, spend.Timestamp)

	result.Spends = append(result.Spends, SpendReport{Seq: seq, Spend: spend, Result: outcome})
}

// Balances returns the held amount of every asset seen in the last replay.
func (p *Pot) Balances() []Balance {
	assets := p.calc.Assets()
	balances := make([]Balance, 0, len(assets))
	for _, a := range assets {
		amount, known := p.calc.CalculatedAssetAmount(a)
		balances = append(balances, Balance{Asset: a, Amount: amount, Known: known})
	}
	return balances
}
