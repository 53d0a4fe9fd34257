package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/logging"
)

// CalculateSpendCostBasis matches spendingAmount of spendingAsset spent at
// timestamp against the pending lots, oldest first, and consumes them.
//
// Lots acquired more than the tax free period before timestamp count as tax
// free. Without any pending lot the whole spend is taxable with a zero cost
// basis, since no acquisition can be proven. When the lots only cover part of
// the spend, the uncovered part is taxable as well. In both cases the result
// is incomplete and the messenger is informed.
func (c *Calculator) CalculateSpendCostBasis(
	spendingAmount decimal.Decimal,
	spendingAsset asset.Asset,
	timestamp event.Timestamp,
) Info {
	events := c.Events(spendingAsset)

	if len(events.pending) == 0 {
		c.informMissingAcquisition(spendingAsset, timestamp)
		return Info{
			TaxableAmount:       spendingAmount,
			TaxableBoughtCost:   decimal.Zero,
			TaxfreeBoughtCost:   decimal.Zero,
			MatchedAcquisitions: []MatchedAcquisition{},
			IsComplete:          false,
		}
	}

	var (
		taxableAmount     = decimal.Zero
		taxfreeAmount     = decimal.Zero
		taxableBoughtCost = decimal.Zero
		taxfreeBoughtCost = decimal.Zero
		matched           []MatchedAcquisition
	)

	missing := events.consume(spendingAmount, func(lot Lot, used decimal.Decimal) {
		taxfree := c.isTaxfree(lot, timestamp)
		cost := lot.Rate().Mul(used)
		if taxfree {
			taxfreeAmount = taxfreeAmount.Add(used)
			taxfreeBoughtCost = taxfreeBoughtCost.Add(cost)
		} else {
			taxableAmount = taxableAmount.Add(used)
			taxableBoughtCost = taxableBoughtCost.Add(cost)
		}

		msg := "Spend uses up entire historical acquisition"
		if used.LessThan(lot.Remaining) {
			msg = "Spend uses up part of historical acquisition"
		}
		c.logger.Debug(msg,
			"tax_status", taxStatus(taxfree),
			"used_amount", used.String(),
			"from_amount", lot.Amount().String(),
			"asset", spendingAsset,
			"acquisition_rate", lot.Rate().String(),
			"profit_currency", c.ProfitCurrency(),
			"time", c.timestampToDate(lot.Timestamp()),
		)

		matched = append(matched, newMatchedAcquisition(lot, used))
	})

	isComplete := true
	if !missing.IsZero() {
		c.informInsufficientAcquisition(spendingAsset, timestamp, taxableAmount.Add(taxfreeAmount), missing)
		taxableAmount = spendingAmount.Sub(taxfreeAmount)
		isComplete = false
	}

	if matched == nil {
		matched = []MatchedAcquisition{}
	}

	return Info{
		TaxableAmount:       taxableAmount,
		TaxableBoughtCost:   taxableBoughtCost,
		TaxfreeBoughtCost:   taxfreeBoughtCost,
		MatchedAcquisitions: matched,
		IsComplete:          isComplete,
	}
}

// ReduceAssetAmount consumes amount of a from the pending lots without
// computing a cost basis. It returns false when the lots could not cover the
// amount. Without any pending lot nothing happens. Otherwise the lots consumed
// on the way stay consumed, leaving the ledger with a zero balance, and the
// inconsistency is logged as critical.
func (c *Calculator) ReduceAssetAmount(a asset.Asset, amount decimal.Decimal, timestamp event.Timestamp) bool {
	if amount.IsZero() {
		return true
	}

	events := c.Events(a)
	if len(events.pending) == 0 {
		return false
	}

	missing := events.consume(amount, nil)
	if missing.IsZero() {
		return true
	}

	logging.Critical(c.logger, "No documented acquisition found to reduce asset amount",
		"asset", a,
		"amount", amount.String(),
		"missing", missing.String(),
		"time", c.timestampToDate(timestamp),
	)
	return false
}

func (c *Calculator) isTaxfree(lot Lot, timestamp event.Timestamp) bool {
	period := c.settings.TaxfreeAfterPeriod
	if period == nil {
		return false
	}
	return lot.Timestamp().Add(*period) < timestamp
}

func (c *Calculator) informMissingAcquisition(a asset.Asset, timestamp event.Timestamp) {
	c.messenger.AddError(&MissingAcquisitionError{
		Asset: a,
		Time:  timestamp,
		Date:  c.timestampToDate(timestamp),
	})
}

func (c *Calculator) informInsufficientAcquisition(a asset.Asset, timestamp event.Timestamp, found, missing decimal.Decimal) {
	c.messenger.AddError(&InsufficientAcquisitionError{
		Asset:   a,
		Time:    timestamp,
		Date:    c.timestampToDate(timestamp),
		Found:   found,
		Missing: missing,
	})
}

func taxStatus(taxfree bool) string {
	if taxfree {
		return "TAX-FREE"
	}
	return "TAXABLE"
}
