package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/event"
)

// SpendEvent records a disposal of an asset. It is kept for every spend,
// taxable or not.
type SpendEvent struct {
	Timestamp event.Timestamp
	Location  event.Location
	Amount    decimal.Decimal
	Rate      decimal.Decimal // Rate in the main currency for which one unit was spent
}

func (s SpendEvent) String() string {
	return fmt.Sprintf("spend in %s @ %s. amount: %s rate: %s",
		s.Location, s.Timestamp, s.Amount.String(), s.Rate.String())
}

// Events is the cost basis ledger of a single asset.
//
// Lots live in an append-only arena addressed by LotID. The pending sequence
// holds the IDs of lots that still have a remaining amount, oldest first. Lots
// leave it for the used sequence once a spend or reduction has consumed them.
type Events struct {
	lots    []Lot
	pending []LotID
	used    []LotID
	spends  []SpendEvent
}

func newEvents() *Events {
	return &Events{}
}

// add appends a new lot for acq at the tail of the pending sequence. Lots with
// nothing to consume go straight to the used sequence, so the pending sequence
// only ever holds lots with a positive remaining amount.
func (e *Events) add(acq event.Acquisition) LotID {
	id := LotID(len(e.lots))
	e.lots = append(e.lots, newLot(id, acq))
	if acq.TaxableAmount.IsPositive() {
		e.pending = append(e.pending, id)
	} else {
		e.lots[id].Remaining = decimal.Zero
		e.used = append(e.used, id)
	}
	return id
}

// consume takes up to amount from the pending lots, oldest first, and returns
// the part of amount that the pending lots could not cover. visit is called
// for every lot touched, with the lot as it was before and the amount taken
// from it. Fully consumed lots move to the used sequence; a partially consumed
// lot stays at the head of the pending sequence with its remaining amount
// reduced.
func (e *Events) consume(amount decimal.Decimal, visit func(lot Lot, used decimal.Decimal)) decimal.Decimal {
	remaining := amount
	consumed := 0

	for _, id := range e.pending {
		// Every recorded match takes a positive amount; an exact cover
		// stops here instead of matching zero of the next lot.
		if remaining.IsZero() {
			break
		}

		lot := &e.lots[id]
		used := lot.Remaining
		if remaining.LessThan(used) {
			used = remaining
		}

		if visit != nil {
			visit(*lot, used)
		}

		lot.Remaining = lot.Remaining.Sub(used)
		remaining = remaining.Sub(used)

		if !lot.Remaining.IsZero() {
			break
		}
		consumed++
	}

	e.used = append(e.used, e.pending[:consumed]...)
	e.pending = e.pending[consumed:]

	return remaining
}

// Lot returns the lot with the given ID.
func (e *Events) Lot(id LotID) (Lot, bool) {
	if id < 0 || int(id) >= len(e.lots) {
		return Lot{}, false
	}
	return e.lots[id], true
}

// Pending returns the lots that still hold a remaining amount, oldest first.
func (e *Events) Pending() []Lot {
	return e.collect(e.pending)
}

// Used returns the lots that have been fully consumed, in consumption order.
func (e *Events) Used() []Lot {
	return e.collect(e.used)
}

// Spends returns every recorded spend of the asset.
func (e *Events) Spends() []SpendEvent {
	spends := make([]SpendEvent, len(e.spends))
	copy(spends, e.spends)
	return spends
}

// Balance sums the remaining amount of all pending lots.
func (e *Events) Balance() decimal.Decimal {
	total := decimal.Zero
	for _, id := range e.pending {
		total = total.Add(e.lots[id].Remaining)
	}
	return total
}

func (e *Events) collect(ids []LotID) []Lot {
	lots := make([]Lot, 0, len(ids))
	for _, id := range ids {
		lots = append(lots, e.lots[id])
	}
	return lots
}
