package ledger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/logging"
)

func TestCalculateSpendCostBasis(t *testing.T) {
	t.Run("FIFO matches the oldest lot", func(t *testing.T) {
		calc, agg := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "100"))
		calc.ObtainAsset(acquisition(asset.BTC, 2000, "1", "200"))
		calc.ObtainAsset(acquisition(asset.BTC, 3000, "1", "300"))

		info := calc.CalculateSpendCostBasis(d("0.25"), asset.BTC, 4000)

		assert.True(t, info.IsComplete)
		assert.Equal(t, 1, len(info.MatchedAcquisitions))
		m := info.MatchedAcquisitions[0]
		assert.Equal(t, LotID(0), m.LotID)
		assert.Equal(t, event.Timestamp(1000), m.Timestamp)
		assert.True(t, m.UsedAmount.Equal(d("0.25")))
		assert.True(t, info.TaxableAmount.Equal(d("0.25")))
		assert.True(t, info.TaxableBoughtCost.Equal(d("25")))
		assert.True(t, info.TaxfreeBoughtCost.IsZero())

		pending := calc.Events(asset.BTC).Pending()
		assert.Equal(t, 3, len(pending))
		assert.True(t, pending[0].Remaining.Equal(d("0.75")))
		assert.True(t, pending[1].Remaining.Equal(d("1")))
		assert.Equal(t, 0, agg.Len())
	})

	t.Run("Full lot exhaustion", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.ETH, 1000, "2", "10"))
		calc.ObtainAsset(acquisition(asset.ETH, 2000, "3", "20"))
		calc.ObtainAsset(acquisition(asset.ETH, 3000, "4", "30"))

		info := calc.CalculateSpendCostBasis(d("5"), asset.ETH, 4000)

		assert.True(t, info.IsComplete)
		assert.Equal(t, 2, len(info.MatchedAcquisitions))
		assert.True(t, info.TaxableBoughtCost.Equal(d("80")))

		events := calc.Events(asset.ETH)
		used := events.Used()
		assert.Equal(t, 2, len(used))
		assert.Equal(t, LotID(0), used[0].ID)
		assert.Equal(t, LotID(1), used[1].ID)
		assert.True(t, used[0].Remaining.IsZero())
		assert.True(t, used[1].Remaining.IsZero())

		pending := events.Pending()
		assert.Equal(t, 1, len(pending))
		assert.Equal(t, LotID(2), pending[0].ID)
		assert.True(t, pending[0].Remaining.Equal(d("4")))
	})

	t.Run("Partial lot split", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "10", "1"))

		info := calc.CalculateSpendCostBasis(d("4"), asset.BTC, 2000)
		assert.True(t, info.IsComplete)

		pending := calc.Events(asset.BTC).Pending()
		assert.Equal(t, 1, len(pending))
		assert.True(t, pending[0].Remaining.Equal(d("6")))
		assert.True(t, pending[0].Amount().Equal(d("10")))
		assert.Equal(t, 0, len(calc.Events(asset.BTC).Used()))
	})

	t.Run("Spanning lots splits the last one", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "100"))
		calc.ObtainAsset(acquisition(asset.BTC, 2000, "1", "300"))

		info := calc.CalculateSpendCostBasis(d("1.5"), asset.BTC, 3000)

		assert.True(t, info.IsComplete)
		assert.Equal(t, 2, len(info.MatchedAcquisitions))
		assert.True(t, info.MatchedAcquisitions[1].UsedAmount.Equal(d("0.5")))
		assert.True(t, info.TaxableBoughtCost.Equal(d("250")))

		amount, ok := calc.CalculatedAssetAmount(asset.BTC)
		assert.True(t, ok)
		assert.True(t, amount.Equal(d("0.5")))
	})

	t.Run("Tax free boundary", func(t *testing.T) {
		settings := DefaultSettings().WithTaxfreePeriod(year)
		t0 := event.Timestamp(1_500_000_000)
		period := event.Timestamp(year.Seconds())

		calc, _ := newTestCalculator(t, settings)
		calc.ObtainAsset(acquisition(asset.BTC, t0, "2", "1000"))
		info := calc.CalculateSpendCostBasis(d("1"), asset.BTC, t0+period+1)
		assert.True(t, info.TaxableBoughtCost.IsZero())
		assert.True(t, info.TaxfreeBoughtCost.Equal(d("1000")))
		assert.True(t, info.TaxableAmount.IsZero())

		calc.Reset(settings)
		calc.ObtainAsset(acquisition(asset.BTC, t0, "2", "1000"))
		info = calc.CalculateSpendCostBasis(d("1"), asset.BTC, t0+period-1)
		assert.True(t, info.TaxableBoughtCost.Equal(d("1000")))
		assert.True(t, info.TaxfreeBoughtCost.IsZero())
		assert.True(t, info.TaxableAmount.Equal(d("1")))

		// Exactly at the boundary the lot is not yet tax free.
		calc.Reset(settings)
		calc.ObtainAsset(acquisition(asset.BTC, t0, "2", "1000"))
		info = calc.CalculateSpendCostBasis(d("1"), asset.BTC, t0+period)
		assert.True(t, info.TaxfreeBoughtCost.IsZero())
	})

	t.Run("Mixed tax status across lots", func(t *testing.T) {
		settings := DefaultSettings().WithTaxfreePeriod(year)
		period := event.Timestamp(year.Seconds())

		calc, _ := newTestCalculator(t, settings)
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "100"))
		calc.ObtainAsset(acquisition(asset.BTC, 1000+period, "1", "200"))

		info := calc.CalculateSpendCostBasis(d("1.5"), asset.BTC, 1000+period+10)
		assert.True(t, info.TaxfreeBoughtCost.Equal(d("100")))
		assert.True(t, info.TaxableBoughtCost.Equal(d("100")))
		assert.True(t, info.TaxableAmount.Equal(d("0.5")))
	})

	t.Run("Missing acquisition is fully taxable", func(t *testing.T) {
		calc, agg := newTestCalculator(t, DefaultSettings())

		info := calc.CalculateSpendCostBasis(d("3"), asset.BTC, 1500000000)

		assert.False(t, info.IsComplete)
		assert.True(t, info.TaxableAmount.Equal(d("3")))
		assert.True(t, info.TaxableBoughtCost.IsZero())
		assert.True(t, info.TaxfreeBoughtCost.IsZero())
		assert.Equal(t, 0, len(info.MatchedAcquisitions))

		errs := agg.ConsumeErrors()
		assert.Equal(t, 1, len(errs))
		missing, ok := errs[0].(*MissingAcquisitionError)
		assert.True(t, ok)
		assert.Equal(t, asset.BTC, missing.Asset)
		assert.Equal(t, "14/07/2017 02:40:00 UTC", missing.Date)
		assert.Contains(t, missing.Error(), "No documented acquisition found for BTC")
	})

	t.Run("Partially missing acquisitions", func(t *testing.T) {
		settings := DefaultSettings().WithTaxfreePeriod(year)
		period := event.Timestamp(year.Seconds())

		calc, agg := newTestCalculator(t, settings)
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "5", "10"))

		info := calc.CalculateSpendCostBasis(d("8"), asset.BTC, 1000+period+1)

		assert.False(t, info.IsComplete)
		assert.Equal(t, 1, len(info.MatchedAcquisitions))
		assert.True(t, info.MatchedAcquisitions[0].UsedAmount.Equal(d("5")))
		// all 5 found units are tax free, the missing 3 are taxable
		assert.True(t, info.TaxableAmount.Equal(d("3")))
		assert.True(t, info.TaxfreeBoughtCost.Equal(d("50")))
		assert.True(t, info.TaxableBoughtCost.IsZero())

		errs := agg.ConsumeErrors()
		assert.Equal(t, 1, len(errs))
		insufficient, ok := errs[0].(*InsufficientAcquisitionError)
		assert.True(t, ok)
		assert.True(t, insufficient.Found.Equal(d("5")))
		assert.True(t, insufficient.Missing.Equal(d("3")))

		_, ok = calc.CalculatedAssetAmount(asset.BTC)
		assert.False(t, ok)
		assert.Equal(t, 1, len(calc.Events(asset.BTC).Used()))
	})

	t.Run("Exact decimal arithmetic", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.ETH, 1000, "0.1", "3"))
		calc.ObtainAsset(acquisition(asset.ETH, 1001, "0.2", "3"))

		info := calc.CalculateSpendCostBasis(d("0.3"), asset.ETH, 2000)
		assert.True(t, info.IsComplete)
		assert.True(t, info.TaxableBoughtCost.Equal(d("0.9")))
		_, ok := calc.CalculatedAssetAmount(asset.ETH)
		assert.False(t, ok)
	})

	t.Run("Results do not change after later spends", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "10", "1"))

		first := calc.CalculateSpendCostBasis(d("4"), asset.BTC, 2000)
		calc.CalculateSpendCostBasis(d("6"), asset.BTC, 3000)

		m := first.MatchedAcquisitions[0]
		assert.True(t, m.UsedAmount.Equal(d("4")))
		assert.True(t, m.Amount.Equal(d("10")))
		lot, ok := calc.Events(asset.BTC).Lot(m.LotID)
		assert.True(t, ok)
		assert.True(t, lot.Remaining.IsZero())
	})

	t.Run("Zero amount with pending lots", func(t *testing.T) {
		calc, agg := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "2", "100"))

		info := calc.CalculateSpendCostBasis(decimal.Zero, asset.BTC, 2000)
		assert.True(t, info.IsComplete)
		assert.Equal(t, 0, len(info.MatchedAcquisitions))
		assert.True(t, info.TaxableAmount.IsZero())
		assert.True(t, info.TaxableBoughtCost.IsZero())
		assert.True(t, info.TaxfreeBoughtCost.IsZero())
		assert.Equal(t, 0, agg.Len())

		amount, ok := calc.CalculatedAssetAmount(asset.BTC)
		assert.True(t, ok)
		assert.True(t, amount.Equal(d("2")))
	})

	t.Run("Wrapped asset after the ledger ran dry", func(t *testing.T) {
		calc, agg := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.ETH, 1000, "1", "200"))
		calc.CalculateSpendCostBasis(d("1"), asset.ETH, 2000)

		info := calc.CalculateSpendCostBasis(d("0.5"), asset.WETH, 3000)
		assert.False(t, info.IsComplete)
		assert.Equal(t, 0, len(info.MatchedAcquisitions))
		assert.True(t, info.TaxableAmount.Equal(d("0.5")))

		errs := agg.ConsumeErrors()
		assert.Equal(t, 1, len(errs))
		missing, ok := errs[0].(*MissingAcquisitionError)
		assert.True(t, ok)
		assert.Equal(t, asset.WETH, missing.Asset)
	})
}

func TestReduceAssetAmount(t *testing.T) {
	t.Run("Zero amount never touches the ledger", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		assert.True(t, calc.ReduceAssetAmount(asset.BTC, decimal.Zero, 1000))
		assert.Equal(t, 0, len(calc.Assets()))

		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "1"))
		assert.True(t, calc.ReduceAssetAmount(asset.BTC, decimal.Zero, 2000))
		amount, ok := calc.CalculatedAssetAmount(asset.BTC)
		assert.True(t, ok)
		assert.True(t, amount.Equal(d("1")))
	})

	t.Run("Reduces without cost basis", func(t *testing.T) {
		calc, agg := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "1"))
		calc.ObtainAsset(acquisition(asset.BTC, 2000, "1", "1"))

		assert.True(t, calc.ReduceAssetAmount(asset.BTC, d("1.5"), 3000))
		amount, ok := calc.CalculatedAssetAmount(asset.BTC)
		assert.True(t, ok)
		assert.True(t, amount.Equal(d("0.5")))
		assert.Equal(t, 0, agg.Len())
	})

	t.Run("Exhausted lots log critical", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := logging.New("text", "info", &buf)
		assert.NoError(t, err)

		calc := NewCalculator(nil, DefaultSettings(), WithLogger(logger))
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "1"))

		assert.False(t, calc.ReduceAssetAmount(asset.BTC, d("2"), 2000))
		assert.True(t, strings.Contains(buf.String(), "CRITICAL"))
		assert.True(t, strings.Contains(buf.String(), "missing=1"))

		_, ok := calc.CalculatedAssetAmount(asset.BTC)
		assert.False(t, ok)
		assert.Equal(t, 1, len(calc.Events(asset.BTC).Used()))
	})

	t.Run("No lots at all", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := logging.New("text", "debug", &buf)
		assert.NoError(t, err)

		calc := NewCalculator(nil, DefaultSettings(), WithLogger(logger))
		assert.False(t, calc.ReduceAssetAmount(asset.ETC, d("1"), 1000))
		assert.False(t, strings.Contains(buf.String(), "CRITICAL"))
		assert.Equal(t, 0, len(calc.Events(asset.ETC).Used()))
	})

	t.Run("Fully drained lots stay quiet", func(t *testing.T) {
		var buf bytes.Buffer
		logger, err := logging.New("text", "info", &buf)
		assert.NoError(t, err)

		calc := NewCalculator(nil, DefaultSettings(), WithLogger(logger))
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "1"))
		assert.True(t, calc.ReduceAssetAmount(asset.BTC, d("1"), 2000))

		assert.False(t, calc.ReduceAssetAmount(asset.BTC, d("1"), 3000))
		assert.False(t, strings.Contains(buf.String(), "CRITICAL"))
	})
}

func TestSpendAsset(t *testing.T) {
	t.Run("Taxable spend returns cost basis", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "100"))

		result := calc.SpendAsset(taxableSpend(asset.BTC, 2000, "0.5", "300"))

		assert.Equal(t, SpendCostBasis, result.Kind)
		info, ok := result.CostBasis()
		assert.True(t, ok)
		assert.True(t, info.TaxableBoughtCost.Equal(d("50")))
		assert.True(t, result.Covered)

		spends := calc.Events(asset.BTC).Spends()
		assert.Equal(t, 1, len(spends))
		assert.True(t, spends[0].Rate.Equal(d("300")))
	})

	t.Run("Non taxable spend only reduces", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.ETH, 1000, "2", "100"))

		spend := taxableSpend(asset.ETH, 2000, "1", "300")
		spend.Taxable = false
		result := calc.SpendAsset(spend)

		assert.Equal(t, SpendReduced, result.Kind)
		_, ok := result.CostBasis()
		assert.False(t, ok)
		assert.True(t, result.Covered)
		amount, _ := calc.CalculatedAssetAmount(asset.ETH)
		assert.True(t, amount.Equal(d("1")))
		assert.Equal(t, 1, len(calc.Events(asset.ETH).Spends()))
	})

	t.Run("Fiat spend only reduces", func(t *testing.T) {
		calc, agg := newTestCalculator(t, DefaultSettings())
		result := calc.SpendAsset(taxableSpend(asset.EUR, 2000, "100", "1"))

		assert.Equal(t, SpendReduced, result.Kind)
		assert.False(t, result.Covered)
		assert.Equal(t, 0, agg.Len())
		assert.Equal(t, 1, len(calc.Events(asset.EUR).Spends()))
	})
}

func TestEventsLookup(t *testing.T) {
	t.Run("Wrapped assets share the underlying ledger", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.WETH, 1000, "1", "100"))

		assert.True(t, calc.Events(asset.WETH) == calc.Events(asset.ETH))
		info := calc.CalculateSpendCostBasis(d("1"), asset.ETH, 2000)
		assert.True(t, info.IsComplete)
		assert.Equal(t, []asset.Asset{asset.ETH}, calc.Assets())
	})

	t.Run("Lazily creates empty ledgers", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		events := calc.Events(asset.BTC)
		assert.NotZero(t, events)
		assert.Equal(t, 0, len(events.Pending()))
		assert.Equal(t, 0, len(events.Used()))
		assert.Equal(t, 0, len(events.Spends()))
		_, ok := events.Lot(0)
		assert.False(t, ok)
	})

	t.Run("Zero amount acquisitions are not pending", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "0", "100"))
		_, ok := calc.CalculatedAssetAmount(asset.BTC)
		assert.False(t, ok)
		assert.Equal(t, 1, len(calc.Events(asset.BTC).Used()))
	})

	t.Run("Reset wipes every ledger", func(t *testing.T) {
		calc, _ := newTestCalculator(t, DefaultSettings())
		calc.ObtainAsset(acquisition(asset.BTC, 1000, "1", "100"))

		calc.Reset(Settings{MainCurrency: asset.USD})
		assert.Equal(t, asset.USD, calc.ProfitCurrency())
		assert.Equal(t, 0, len(calc.Assets()))
		_, ok := calc.CalculatedAssetAmount(asset.BTC)
		assert.False(t, ok)
	})
}
