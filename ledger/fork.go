package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
)

// Chain fork boundaries.
const (
	ETHDAOForkTS event.Timestamp = 1469020840 // 2016-07-20 13:20:40 UTC
	BTCBCHForkTS event.Timestamp = 1501593374 // 2017-08-01 13:16:14 UTC
	BCHBSVForkTS event.Timestamp = 1542304800 // 2018-11-15 18:00:00 UTC
)

// Fork describes a chain fork: holding Base before Boundary grants an equal
// amount of every descendant.
type Fork struct {
	Base        asset.Asset
	Boundary    event.Timestamp
	Descendants []asset.Asset
}

// Forks is consulted both when acquiring and when spending a base asset, so
// the two directions always agree on which descendants are affected.
var Forks = []Fork{
	{Base: asset.ETH, Boundary: ETHDAOForkTS, Descendants: []asset.Asset{asset.ETC}},
	{Base: asset.BTC, Boundary: BTCBCHForkTS, Descendants: []asset.Asset{asset.BCH, asset.BSV}},
	{Base: asset.BCH, Boundary: BCHBSVForkTS, Descendants: []asset.Asset{asset.BSV}},
}

// forkDescendants returns the assets credited for holding a at ts.
func forkDescendants(a asset.Asset, ts event.Timestamp) []asset.Asset {
	var descendants []asset.Asset
	for _, fork := range Forks {
		if fork.Base == a && ts < fork.Boundary {
			descendants = append(descendants, fork.Descendants...)
		}
	}
	return descendants
}

// HandlePreforkAcquisitions adds an acquisition of every fork descendant when
// a is acquired before a fork. The synthesized acquisitions are obtained by the
// calculator and returned so the caller can record them with its own events.
func (c *Calculator) HandlePreforkAcquisitions(
	location event.Location,
	timestamp event.Timestamp,
	a asset.Asset,
	amount decimal.Decimal,
	price decimal.Decimal,
) []event.Acquisition {
	descendants := forkDescendants(a, timestamp)
	if len(descendants) == 0 {
		return nil
	}

	acquisitions := make([]event.Acquisition, 0, len(descendants))
	for _, descendant := range descendants {
		acq := event.Acquisition{
			Type:          event.TypePreforkAcquisition,
			Asset:         descendant,
			Timestamp:     timestamp,
			Location:      location,
			Price:         price,
			TaxableAmount: amount,
			FreeAmount:    decimal.Zero,
			Notes:         fmt.Sprintf("Prefork acquisition for %s", descendant),
		}
		c.ObtainAsset(acq)
		acquisitions = append(acquisitions, acq)
	}
	return acquisitions
}

// HandlePreforkSpends mirrors HandlePreforkAcquisitions: spending a before a
// fork reduces every descendant by the same amount. No spend events are
// recorded for the descendants and missing acquisitions are not reported,
// since the gap is in the history of a itself.
func (c *Calculator) HandlePreforkSpends(a asset.Asset, amount decimal.Decimal, timestamp event.Timestamp) {
	for _, descendant := range forkDescendants(a, timestamp) {
		c.ReduceAssetAmount(descendant, amount, timestamp)
	}
}
