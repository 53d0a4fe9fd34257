package event

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
)

// Acquisition is an accounting event that increases the held amount of an asset.
// Only TaxableAmount takes part in cost basis matching.
type Acquisition struct {
	Type          Type
	Asset         asset.Asset
	Timestamp     Timestamp
	Location      Location
	Price         decimal.Decimal // Rate in the main currency for one unit of Asset
	TaxableAmount decimal.Decimal
	FreeAmount    decimal.Decimal
	Notes         string
}

func (a Acquisition) String() string {
	return fmt.Sprintf("%s of %s %s in %s @ %s",
		a.Type, a.TaxableAmount.String(), a.Asset, a.Location, a.Timestamp)
}

// Spend describes the disposal of an asset.
type Spend struct {
	Location  Location
	Timestamp Timestamp
	Asset     asset.Asset
	Amount    decimal.Decimal
	Rate      decimal.Decimal // Rate in the main currency for one unit of Asset
	Taxable   bool
	Notes     string
}

func (s Spend) String() string {
	return fmt.Sprintf("spend of %s %s in %s @ %s", s.Amount.String(), s.Asset, s.Location, s.Timestamp)
}

// Kind tells which variant an Event carries.
type Kind string

const (
	KindAcquisition Kind = "acquisition"
	KindSpend       Kind = "spend"
)

// Event is one entry of an event stream: either an acquisition or a spend.
type Event struct {
	Kind        Kind
	Acquisition *Acquisition
	Spend       *Spend
}

// NewAcquisition wraps an acquisition into an Event.
func NewAcquisition(a Acquisition) Event {
	return Event{Kind: KindAcquisition, Acquisition: &a}
}

// NewSpend wraps a spend into an Event.
func NewSpend(s Spend) Event {
	return Event{Kind: KindSpend, Spend: &s}
}

// Timestamp returns the time of the wrapped event.
func (e Event) Timestamp() Timestamp {
	switch e.Kind {
	case KindAcquisition:
		return e.Acquisition.Timestamp
	case KindSpend:
		return e.Spend.Timestamp
	}
	return 0
}

// Asset returns the asset of the wrapped event.
func (e Event) Asset() asset.Asset {
	switch e.Kind {
	case KindAcquisition:
		return e.Acquisition.Asset
	case KindSpend:
		return e.Spend.Asset
	}
	return ""
}

// wireEvent is the flat JSON shape of an Event.
type wireEvent struct {
	Kind          Kind             `json:"kind"`
	Type          *Type            `json:"type,omitempty"`
	Asset         string           `json:"asset"`
	Timestamp     Timestamp        `json:"timestamp"`
	Location      Location         `json:"location,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	TaxableAmount *decimal.Decimal `json:"taxable_amount,omitempty"`
	FreeAmount    *decimal.Decimal `json:"free_amount,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Rate          *decimal.Decimal `json:"rate,omitempty"`
	Taxable       *bool            `json:"taxable,omitempty"`
	Notes         string           `json:"notes,omitempty"`
}

func orZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

// UnmarshalJSON decodes the flat wire form of an event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Asset == "" {
		return fmt.Errorf("missing asset")
	}
	location := w.Location
	if location == "" {
		location = LocationExternal
	}

	switch w.Kind {
	case KindAcquisition:
		if w.TaxableAmount == nil {
			return fmt.Errorf("acquisition is missing taxable_amount")
		}
		if w.TaxableAmount.IsNegative() {
			return fmt.Errorf("acquisition has negative taxable_amount %s", w.TaxableAmount.String())
		}
		a := Acquisition{
			Asset:         asset.New(w.Asset),
			Timestamp:     w.Timestamp,
			Location:      location,
			Price:         orZero(w.Price),
			TaxableAmount: *w.TaxableAmount,
			FreeAmount:    orZero(w.FreeAmount),
			Notes:         w.Notes,
		}
		if w.Type != nil {
			a.Type = *w.Type
		}
		*e = NewAcquisition(a)
	case KindSpend:
		if w.Amount == nil {
			return fmt.Errorf("spend is missing amount")
		}
		if w.Amount.IsNegative() {
			return fmt.Errorf("spend has negative amount %s", w.Amount.String())
		}
		s := Spend{
			Location:  location,
			Timestamp: w.Timestamp,
			Asset:     asset.New(w.Asset),
			Amount:    *w.Amount,
			Rate:      orZero(w.Rate),
			Taxable:   true,
			Notes:     w.Notes,
		}
		if w.Taxable != nil {
			s.Taxable = *w.Taxable
		}
		*e = NewSpend(s)
	default:
		return fmt.Errorf("unknown event kind %q", w.Kind)
	}
	return nil
}

// MarshalJSON encodes the event into its flat wire form.
func (e Event) MarshalJSON() ([]byte, error) {
	w := wireEvent{Kind: e.Kind}
	switch e.Kind {
	case KindAcquisition:
		a := e.Acquisition
		w.Type = &a.Type
		w.Asset = a.Asset.String()
		w.Timestamp = a.Timestamp
		w.Location = a.Location
		w.Price = &a.Price
		w.TaxableAmount = &a.TaxableAmount
		w.FreeAmount = &a.FreeAmount
		w.Notes = a.Notes
	case KindSpend:
		s := e.Spend
		w.Asset = s.Asset.String()
		w.Timestamp = s.Timestamp
		w.Location = s.Location
		w.Amount = &s.Amount
		w.Rate = &s.Rate
		w.Taxable = &s.Taxable
		w.Notes = s.Notes
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return json.Marshal(w)
}
