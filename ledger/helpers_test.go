package ledger

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/messages"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestCalculator(t *testing.T, settings Settings) (*Calculator, *messages.Aggregator) {
	t.Helper()
	agg := messages.NewAggregator()
	return NewCalculator(agg, settings), agg
}

func acquisition(a asset.Asset, ts event.Timestamp, amount, price string) event.Acquisition {
	return event.Acquisition{
		Type:          event.TypeTrade,
		Asset:         a,
		Timestamp:     ts,
		Location:      event.LocationKraken,
		Price:         d(price),
		TaxableAmount: d(amount),
		Notes:         "buy " + string(a),
	}
}

func taxableSpend(a asset.Asset, ts event.Timestamp, amount, rate string) event.Spend {
	return event.Spend{
		Location:  event.LocationKraken,
		Timestamp: ts,
		Asset:     a,
		Amount:    d(amount),
		Rate:      d(rate),
		Taxable:   true,
	}
}

const year = 365 * 24 * time.Hour
