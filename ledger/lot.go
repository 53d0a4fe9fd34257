package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/event"
)

// LotID identifies a lot within the ledger of its asset. IDs are assigned in
// acquisition order and never reused.
type LotID int

// UnknownLot marks matched acquisitions that were recalled from their serialized
// form and no longer point into a ledger.
const UnknownLot LotID = -1

// Lot is one acquisition tracked for cost basis. The acquisition itself never
// changes; Remaining is the part of it that no spend has consumed yet.
type Lot struct {
	ID        LotID
	Event     event.Acquisition
	Remaining decimal.Decimal
}

// newLot creates a lot with its full taxable amount remaining.
func newLot(id LotID, acq event.Acquisition) Lot {
	return Lot{
		ID:        id,
		Event:     acq,
		Remaining: acq.TaxableAmount,
	}
}

// Amount is the originally acquired taxable amount.
func (l Lot) Amount() decimal.Decimal {
	return l.Event.TaxableAmount
}

// Timestamp is when the lot was acquired.
func (l Lot) Timestamp() event.Timestamp {
	return l.Event.Timestamp
}

// Rate is the price paid for one unit, in the main currency.
func (l Lot) Rate() decimal.Decimal {
	return l.Event.Price
}

// String returns a string representation of the lot
func (l Lot) String() string {
	return fmt.Sprintf("lot #%d %s in %s @ %s. amount: %s remaining: %s rate: %s",
		l.ID, l.Event.Notes, l.Event.Location, l.Event.Timestamp,
		l.Amount().String(), l.Remaining.String(), l.Rate().String())
}
