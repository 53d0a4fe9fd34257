// Package event defines the accounting events fed into the cost basis ledger.
//
// Events arrive from an accounting pipeline in chronological order. Acquisitions
// create lots, spends consume them. Amounts and prices are exact decimals.
package event

import (
	"fmt"
	"strings"
	"time"
)

// Timestamp is a point in time in unix seconds.
type Timestamp int64

// FromTime converts a time.Time into a Timestamp, dropping sub-second precision.
func FromTime(t time.Time) Timestamp {
	return Timestamp(t.Unix())
}

// Time returns the timestamp as a UTC time.Time.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts), 0).UTC()
}

// Add returns ts shifted by d, truncated to whole seconds.
func (ts Timestamp) Add(d time.Duration) Timestamp {
	return ts + Timestamp(d/time.Second)
}

func (ts Timestamp) String() string {
	return ts.Time().Format(time.RFC3339)
}

// Location is where an event happened, usually an exchange or a blockchain.
type Location string

const (
	LocationExternal   Location = "external"
	LocationBlockchain Location = "blockchain"
	LocationKraken     Location = "kraken"
	LocationBinance    Location = "binance"
	LocationCoinbase   Location = "coinbase"
)

func (l Location) String() string {
	return string(l)
}

// Type classifies what produced an acquisition.
type Type int

const (
	TypeTrade Type = iota
	TypeTransaction
	TypeLedgerAction
	TypeStaking
	TypePreforkAcquisition
)

var typeNames = map[Type]string{
	TypeTrade:              "trade",
	TypeTransaction:        "transaction",
	TypeLedgerAction:       "ledger action",
	TypeStaking:            "staking",
	TypePreforkAcquisition: "prefork acquisition",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseType parses the textual form of a Type.
func ParseType(s string) (Type, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return TypeTrade, nil
	}
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown event type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
