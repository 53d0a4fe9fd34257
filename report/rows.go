// Package report renders replay results as terminal tables and Markdown.
package report

import (
	"github.com/robinvdvleuten/costbasis/accounting"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/ledger"
	"github.com/robinvdvleuten/costbasis/store"
)

// Row is one spend in a report, from a fresh replay or from the journal.
type Row struct {
	Seq     int
	Spend   event.Spend
	Kind    ledger.SpendKind
	Covered bool
	Info    *ledger.Info // Set for ledger.SpendCostBasis
}

// Status summarizes the row in a single word.
func (r Row) Status() string {
	switch {
	case r.Info != nil && r.Info.IsComplete:
		return "complete"
	case r.Info != nil:
		return "incomplete"
	case r.Covered || r.Spend.Asset.IsFiat():
		return "reduced"
	default:
		return "uncovered"
	}
}

// FromResult turns the spends of a replay into rows.
func FromResult(result *accounting.Result) []Row {
	rows := make([]Row, 0, len(result.Spends))
	for _, s := range result.Spends {
		row := Row{Seq: s.Seq, Spend: s.Spend, Kind: s.Result.Kind, Covered: s.Result.Covered}
		if info, ok := s.Result.CostBasis(); ok {
			row.Info = &info
		}
		rows = append(rows, row)
	}
	return rows
}

// FromJournal turns journaled spends into rows.
func FromJournal(spends []store.Spend) []Row {
	rows := make([]Row, 0, len(spends))
	for _, s := range spends {
		rows = append(rows, Row{Seq: s.Seq, Spend: s.Spend, Kind: s.Kind, Covered: s.Covered, Info: s.Info})
	}
	return rows
}
