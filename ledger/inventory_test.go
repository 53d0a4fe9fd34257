package ledger

import (
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
)

func TestEventsConsume(t *testing.T) {
	newLedger := func() *Events {
		e := newEvents()
		e.add(acquisition(asset.BTC, 1000, "1", "10"))
		e.add(acquisition(asset.BTC, 2000, "2", "20"))
		e.add(acquisition(asset.BTC, 3000, "3", "30"))
		return e
	}

	t.Run("Visits lots oldest first", func(t *testing.T) {
		e := newLedger()
		var visited []LotID
		var amounts []string
		missing := e.consume(d("2.5"), func(lot Lot, used decimal.Decimal) {
			visited = append(visited, lot.ID)
			amounts = append(amounts, used.String())
		})

		assert.True(t, missing.IsZero())
		assert.Equal(t, []LotID{0, 1}, visited)
		assert.Equal(t, []string{"1", "1.5"}, amounts)
		assert.True(t, e.Balance().Equal(d("3.5")))
	})

	t.Run("Exact cover stops before the next lot", func(t *testing.T) {
		e := newLedger()
		calls := 0
		missing := e.consume(d("3"), func(Lot, decimal.Decimal) { calls++ })

		assert.True(t, missing.IsZero())
		assert.Equal(t, 2, calls)
		pending := e.Pending()
		assert.Equal(t, 1, len(pending))
		assert.Equal(t, LotID(2), pending[0].ID)
		assert.True(t, pending[0].Remaining.Equal(d("3")))
	})

	t.Run("Returns the uncovered amount", func(t *testing.T) {
		e := newLedger()
		missing := e.consume(d("10"), nil)

		assert.True(t, missing.Equal(d("4")))
		assert.Equal(t, 0, len(e.Pending()))
		assert.Equal(t, 3, len(e.Used()))
		assert.True(t, e.Balance().IsZero())
	})

	t.Run("Visitor sees the lot before consumption", func(t *testing.T) {
		e := newLedger()
		e.consume(d("0.5"), func(lot Lot, used decimal.Decimal) {
			assert.True(t, lot.Remaining.Equal(d("1")))
			assert.True(t, used.Equal(d("0.5")))
		})
		lot, ok := e.Lot(0)
		assert.True(t, ok)
		assert.True(t, lot.Remaining.Equal(d("0.5")))
	})

	t.Run("Lot accessor bounds", func(t *testing.T) {
		e := newLedger()
		_, ok := e.Lot(-1)
		assert.False(t, ok)
		_, ok = e.Lot(3)
		assert.False(t, ok)
		lot, ok := e.Lot(2)
		assert.True(t, ok)
		assert.Contains(t, lot.String(), "lot #2")
	})
}
