// Package asset identifies the assets tracked by the cost basis ledger.
//
// An Asset is a plain identifier such as "BTC" or "EUR". The package knows which
// identifiers are fiat currencies (ISO-4217 codes, looked up through go-money) and
// which wrapped assets share a cost basis with their underlying asset.
package asset

import (
	"strings"

	"github.com/Rhymond/go-money"
)

// Asset is the canonical identifier of a tradeable asset.
type Asset string

const (
	BTC  Asset = "BTC"
	BCH  Asset = "BCH"
	BSV  Asset = "BSV"
	ETH  Asset = "ETH"
	ETC  Asset = "ETC"
	WETH Asset = "WETH"
	EUR  Asset = "EUR"
	USD  Asset = "USD"
)

// Aliases maps wrapped assets to the asset whose cost basis they share.
// Lookups are a single hop; an alias never points to another alias.
var Aliases = map[Asset]Asset{
	WETH: ETH,
}

// crypto lists the known assets that are never fiat, whatever the currency
// tables say.
var crypto = map[Asset]bool{
	BTC: true, BCH: true, BSV: true, ETH: true, ETC: true, WETH: true,
}

// New normalizes an identifier into an Asset.
func New(identifier string) Asset {
	return Asset(strings.ToUpper(strings.TrimSpace(identifier)))
}

func (a Asset) String() string {
	return string(a)
}

// IsFiat reports whether the asset is a fiat currency.
func (a Asset) IsFiat() bool {
	if a == "" || crypto[a] {
		return false
	}
	return money.GetCurrency(string(a)) != nil
}

// Symbol returns the currency grapheme for fiat assets ("€" for EUR) and the
// identifier itself otherwise.
func (a Asset) Symbol() string {
	if !a.IsFiat() {
		return string(a)
	}
	if c := money.GetCurrency(string(a)); c.Grapheme != "" {
		return c.Grapheme
	}
	return string(a)
}

// Canonical returns the asset whose ledger a is accounted in.
func Canonical(a Asset) Asset {
	if underlying, ok := Aliases[a]; ok {
		return underlying
	}
	return a
}
