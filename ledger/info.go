package ledger

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
)

// DateFormatter renders a timestamp for humans.
type DateFormatter func(event.Timestamp) string

// MatchedAcquisition is the part of a lot attributed to a single spend. It is
// a snapshot taken when the spend was matched and does not follow later
// changes of the lot.
type MatchedAcquisition struct {
	UsedAmount  decimal.Decimal
	LotID       LotID
	Asset       asset.Asset
	Timestamp   event.Timestamp
	Location    event.Location
	Amount      decimal.Decimal // Amount originally acquired by the lot
	Rate        decimal.Decimal
	Description string
}

func newMatchedAcquisition(lot Lot, used decimal.Decimal) MatchedAcquisition {
	return MatchedAcquisition{
		UsedAmount:  used,
		LotID:       lot.ID,
		Asset:       lot.Event.Asset,
		Timestamp:   lot.Timestamp(),
		Location:    lot.Event.Location,
		Amount:      lot.Amount(),
		Rate:        lot.Rate(),
		Description: lot.Event.Notes,
	}
}

// Serialize turns the record into the map handed to reports and storage.
func (m MatchedAcquisition) Serialize() map[string]any {
	return map[string]any{
		"time":        int64(m.Timestamp),
		"description": m.Description,
		"location":    m.Location.String(),
		"amount":      m.Amount.String(),
		"rate":        m.Rate.String(),
		"used_amount": m.UsedAmount.String(),
	}
}

// Format renders the record as a single line of an audit trail.
func (m MatchedAcquisition) Format(date DateFormatter) string {
	return fmt.Sprintf("%s / %s  acquired in %s at %s for price: %s",
		m.UsedAmount.String(), m.Amount.String(), m.Location, date(m.Timestamp), m.Rate.String())
}

// Info is the cost basis of a single spend.
//
// TaxableAmount is the part of the spent amount that is taxable after applying
// the tax free period. TaxableBoughtCost and TaxfreeBoughtCost are what the
// taxable and tax free parts cost when they were acquired. IsComplete is false
// when the acquisition history could not account for the whole spend; the
// totals then understate the real values.
type Info struct {
	TaxableAmount       decimal.Decimal
	TaxableBoughtCost   decimal.Decimal
	TaxfreeBoughtCost   decimal.Decimal
	MatchedAcquisitions []MatchedAcquisition
	IsComplete          bool
}

// Serialize turns the info into the map handed to reports and storage. The
// totals are left out; they are only meaningful during processing.
func (i Info) Serialize() map[string]any {
	matched := make([]map[string]any, 0, len(i.MatchedAcquisitions))
	for _, m := range i.MatchedAcquisitions {
		matched = append(matched, m.Serialize())
	}
	return map[string]any{
		"is_complete":          i.IsComplete,
		"matched_acquisitions": matched,
	}
}

// MarshalJSON implements json.Marshaler using Serialize.
func (i Info) MarshalJSON() ([]byte, error) {
	return json.Marshal(i.Serialize())
}

// UnmarshalJSON implements json.Unmarshaler using DeserializeInfo.
func (i *Info) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	info, err := DeserializeInfo(raw)
	if err != nil {
		return err
	}
	*i = info
	return nil
}

// DeserializeInfo rebuilds an Info from the output of Serialize. Only the
// completeness flag and the matched acquisitions survive; the totals are zero
// and the matched acquisitions no longer reference a lot. Recalled infos are
// for display only.
func DeserializeInfo(data map[string]any) (Info, error) {
	rawComplete, ok := data["is_complete"]
	if !ok {
		return Info{}, &DeserializationError{Key: "is_complete"}
	}
	isComplete, ok := rawComplete.(bool)
	if !ok {
		return Info{}, &DeserializationError{Key: "is_complete", Reason: "is not a boolean"}
	}

	rawMatched, ok := data["matched_acquisitions"]
	if !ok {
		return Info{}, &DeserializationError{Key: "matched_acquisitions"}
	}

	var entries []map[string]any
	switch v := rawMatched.(type) {
	case []map[string]any:
		entries = v
	case []any:
		for idx, entry := range v {
			m, ok := entry.(map[string]any)
			if !ok {
				return Info{}, &DeserializationError{
					Key:    fmt.Sprintf("matched_acquisitions[%d]", idx),
					Reason: "is not an object",
				}
			}
			entries = append(entries, m)
		}
	case nil:
	default:
		return Info{}, &DeserializationError{Key: "matched_acquisitions", Reason: "is not a list"}
	}

	matched := make([]MatchedAcquisition, 0, len(entries))
	for idx, entry := range entries {
		m, err := deserializeMatchedAcquisition(entry)
		if err != nil {
			err.Key = fmt.Sprintf("matched_acquisitions[%d].%s", idx, err.Key)
			return Info{}, err
		}
		matched = append(matched, m)
	}

	return Info{
		TaxableAmount:       decimal.Zero,
		TaxableBoughtCost:   decimal.Zero,
		TaxfreeBoughtCost:   decimal.Zero,
		MatchedAcquisitions: matched,
		IsComplete:          isComplete,
	}, nil
}

func deserializeMatchedAcquisition(entry map[string]any) (MatchedAcquisition, *DeserializationError) {
	m := MatchedAcquisition{LotID: UnknownLot}

	rawTime, ok := entry["time"]
	if !ok {
		return m, &DeserializationError{Key: "time"}
	}
	ts, err := toTimestamp(rawTime)
	if err != nil {
		return m, &DeserializationError{Key: "time", Reason: err.Error()}
	}
	m.Timestamp = ts

	strs := make(map[string]string, 5)
	for _, key := range []string{"description", "location", "amount", "rate", "used_amount"} {
		raw, ok := entry[key]
		if !ok {
			return m, &DeserializationError{Key: key}
		}
		s, ok := raw.(string)
		if !ok {
			return m, &DeserializationError{Key: key, Reason: "is not a string"}
		}
		strs[key] = s
	}
	m.Description = strs["description"]
	m.Location = event.Location(strs["location"])

	for key, dst := range map[string]*decimal.Decimal{
		"amount":      &m.Amount,
		"rate":        &m.Rate,
		"used_amount": &m.UsedAmount,
	} {
		d, err := decimal.NewFromString(strs[key])
		if err != nil {
			return m, &DeserializationError{Key: key, Reason: "is not a decimal"}
		}
		*dst = d
	}

	return m, nil
}

func toTimestamp(v any) (event.Timestamp, error) {
	switch t := v.(type) {
	case int64:
		return event.Timestamp(t), nil
	case int:
		return event.Timestamp(t), nil
	case float64:
		return event.Timestamp(int64(t)), nil
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, err
		}
		return event.Timestamp(n), nil
	case string:
		n, err := strconv.ParseInt(t, 10, 64)
		if err != nil {
			return 0, err
		}
		return event.Timestamp(n), nil
	}
	return 0, fmt.Errorf("is not a number")
}

// Format renders the info for exports such as CSV files.
func (i Info) Format(date DateFormatter) string {
	var buf strings.Builder
	if !i.IsComplete {
		buf.WriteString("Incomplete cost basis information for spend. ")
	}

	if len(i.MatchedAcquisitions) == 0 {
		return buf.String()
	}

	buf.WriteString("Used: ")
	for idx, m := range i.MatchedAcquisitions {
		if idx > 0 {
			buf.WriteByte('|')
		}
		buf.WriteString(m.Format(date))
	}
	return buf.String()
}
