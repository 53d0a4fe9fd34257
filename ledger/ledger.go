// Package ledger computes the cost basis of asset spends.
//
// The Calculator keeps one ledger of acquisition lots per asset and matches
// every spend against the oldest remaining lots first (FIFO). Lots that were
// held longer than the configured tax free period are accounted as tax free.
// Gaps in the acquisition history never fail a calculation: the result is
// flagged incomplete and a diagnostic goes to the Messenger.
//
// Events must be fed in chronological order; the calculator does not sort.
//
// Example usage:
//
//	agg := messages.NewAggregator()
//	calc := ledger.NewCalculator(agg, ledger.DefaultSettings())
//
//	calc.ObtainAsset(event.Acquisition{
//	    Asset:         asset.BTC,
//	    Timestamp:     1500000000,
//	    Location:      event.LocationKraken,
//	    Price:         decimal.NewFromInt(2000),
//	    TaxableAmount: decimal.NewFromInt(1),
//	})
//
//	result := calc.SpendAsset(event.Spend{
//	    Asset:     asset.BTC,
//	    Timestamp: 1600000000,
//	    Amount:    decimal.RequireFromString("0.5"),
//	    Rate:      decimal.NewFromInt(9000),
//	    Taxable:   true,
//	})
//	if info, ok := result.CostBasis(); ok {
//	    fmt.Println(info.TaxableBoughtCost) // 1000
//	}
//
// A Calculator is not safe for concurrent use. Independent assets may be
// processed by separate calculators, but the events of a single asset must go
// through one calculator in order.
package ledger

import (
	"log/slog"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/logging"
	"github.com/robinvdvleuten/costbasis/messages"
)

// Calculator tracks acquisition lots per asset and computes the cost basis of
// spends.
type Calculator struct {
	settings  Settings
	messenger messages.Messenger
	logger    *slog.Logger
	events    map[asset.Asset]*Events
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithLogger sets the logger used for matching details and ledger inconsistencies.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Calculator) {
		c.logger = logger
	}
}

// NewCalculator creates a calculator reporting diagnostics to messenger.
func NewCalculator(messenger messages.Messenger, settings Settings, opts ...Option) *Calculator {
	if messenger == nil {
		messenger = messages.Discard
	}
	c := &Calculator{
		messenger: messenger,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset(settings)
	return c
}

// Reset replaces the settings and drops every ledger.
func (c *Calculator) Reset(settings Settings) {
	c.settings = settings
	c.events = make(map[asset.Asset]*Events)
}

// Settings returns the active settings.
func (c *Calculator) Settings() Settings {
	return c.settings
}

// ProfitCurrency is the currency costs are expressed in.
func (c *Calculator) ProfitCurrency() asset.Asset {
	return c.settings.MainCurrency
}

// Events returns the ledger of a, creating an empty one if needed. Wrapped
// assets share the ledger of their underlying asset.
func (c *Calculator) Events(a asset.Asset) *Events {
	a = asset.Canonical(a)
	events, ok := c.events[a]
	if !ok {
		events = newEvents()
		c.events[a] = events
	}
	return events
}

// Assets returns every asset that has a ledger, sorted.
func (c *Calculator) Assets() []asset.Asset {
	assets := make([]asset.Asset, 0, len(c.events))
	for a := range c.events {
		assets = append(assets, a)
	}
	sort.Slice(assets, func(i, j int) bool { return assets[i] < assets[j] })
	return assets
}

// ObtainAsset appends a lot for acq to the ledger of its asset.
func (c *Calculator) ObtainAsset(acq event.Acquisition) {
	id := c.Events(acq.Asset).add(acq)
	c.logger.Debug("Obtained asset",
		"asset", acq.Asset,
		"lot", id,
		"amount", acq.TaxableAmount.String(),
		"rate", acq.Price.String(),
		"time", c.timestampToDate(acq.Timestamp),
	)
}

// SpendKind tells whether a spend produced a cost basis.
type SpendKind int

const (
	// SpendReduced means the held amount was reduced without computing a cost basis.
	SpendReduced SpendKind = iota
	// SpendCostBasis means the spend was taxable and Info holds its cost basis.
	SpendCostBasis
)

func (k SpendKind) String() string {
	switch k {
	case SpendReduced:
		return "reduced"
	case SpendCostBasis:
		return "cost basis"
	default:
		return "unknown"
	}
}

// SpendResult is the outcome of SpendAsset.
type SpendResult struct {
	Kind SpendKind

	// Info is only set for SpendCostBasis.
	Info Info

	// Covered is false for SpendReduced when the held lots could not cover the amount.
	Covered bool
}

// CostBasis returns the cost basis if one was computed.
func (r SpendResult) CostBasis() (Info, bool) {
	if r.Kind != SpendCostBasis {
		return Info{}, false
	}
	return r.Info, true
}

// SpendAsset records a spend of an asset. Taxable spends of non fiat assets
// get a cost basis; everything else only reduces the held amount, which is
// how swaps that count as deposits (ETH for a wrapped variant, locking a
// token) are handled.
func (c *Calculator) SpendAsset(spend event.Spend) SpendResult {
	events := c.Events(spend.Asset)
	events.spends = append(events.spends, SpendEvent{
		Timestamp: spend.Timestamp,
		Location:  spend.Location,
		Amount:    spend.Amount,
		Rate:      spend.Rate,
	})

	if !spend.Asset.IsFiat() && spend.Taxable {
		info := c.CalculateSpendCostBasis(spend.Amount, spend.Asset, spend.Timestamp)
		return SpendResult{Kind: SpendCostBasis, Info: info, Covered: info.IsComplete}
	}

	covered := c.ReduceAssetAmount(spend.Asset, spend.Amount, spend.Timestamp)
	return SpendResult{Kind: SpendReduced, Covered: covered}
}

// CalculatedAssetAmount returns the amount of a the ledger believes is held.
// The second result is false when no lot is pending, whether or not the asset
// was ever acquired.
func (c *Calculator) CalculatedAssetAmount(a asset.Asset) (decimal.Decimal, bool) {
	events := c.Events(a)
	if len(events.pending) == 0 {
		return decimal.Zero, false
	}
	return events.Balance(), true
}

func (c *Calculator) timestampToDate(ts event.Timestamp) string {
	return c.settings.FormatTimestamp(ts)
}
