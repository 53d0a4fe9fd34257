package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
)

// Diagnostics reported to the messenger while matching spends. They describe
// gaps in the acquisition history and never stop processing.

// MissingAcquisitionError is reported when an asset is spent without any
// documented acquisition.
type MissingAcquisitionError struct {
	Asset asset.Asset
	Time  event.Timestamp
	Date  string // Time rendered with the display settings
}

func (e *MissingAcquisitionError) Error() string {
	return fmt.Sprintf("No documented acquisition found for %s before %s. "+
		"Add how you acquired it to the event stream", e.Asset, e.Date)
}

func (e *MissingAcquisitionError) GetAsset() asset.Asset {
	return e.Asset
}

func (e *MissingAcquisitionError) GetTime() event.Timestamp {
	return e.Time
}

// InsufficientAcquisitionError is reported when the documented acquisitions
// only cover part of a spend.
type InsufficientAcquisitionError struct {
	Asset   asset.Asset
	Time    event.Timestamp
	Date    string
	Found   decimal.Decimal
	Missing decimal.Decimal
}

func (e *InsufficientAcquisitionError) Error() string {
	return fmt.Sprintf("Not enough documented acquisitions found for %s before %s. "+
		"Only found acquisitions for %s %s and miss %s %s. "+
		"Add how you acquired it to the event stream",
		e.Asset, e.Date, e.Found.String(), e.Asset, e.Missing.String(), e.Asset)
}

func (e *InsufficientAcquisitionError) GetAsset() asset.Asset {
	return e.Asset
}

func (e *InsufficientAcquisitionError) GetTime() event.Timestamp {
	return e.Time
}

func (e *InsufficientAcquisitionError) GetFound() decimal.Decimal {
	return e.Found
}

func (e *InsufficientAcquisitionError) GetMissing() decimal.Decimal {
	return e.Missing
}

// DeserializationError is returned when a serialized cost basis result cannot
// be decoded.
type DeserializationError struct {
	Key    string
	Reason string
}

func (e *DeserializationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("could not decode cost basis info due to missing key %q", e.Key)
	}
	return fmt.Sprintf("could not decode cost basis info: key %q %s", e.Key, e.Reason)
}
