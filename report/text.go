package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/robinvdvleuten/costbasis/accounting"
	"github.com/robinvdvleuten/costbasis/ledger"
	"github.com/robinvdvleuten/costbasis/output"
)

// Options control text rendering.
type Options struct {
	Settings ledger.Settings
	Styles   *output.Styles // Nil renders plain text

	// Matches lists the matched acquisitions below every cost basis row.
	Matches bool
}

func (o Options) style(fn func(*output.Styles, string) string, text string) string {
	if o.Styles == nil {
		return text
	}
	return fn(o.Styles, text)
}

type cell struct {
	text  string
	style func(*output.Styles, string) string
	right bool
}

var spendHeader = []string{"#", "Time", "Asset", "Amount", "Rate", "Taxable", "Taxable cost", "Tax-free cost", "Status"}

// Text writes rows as an aligned table.
func Text(w io.Writer, rows []Row, opts Options) error {
	currency := opts.Settings.MainCurrency
	table := make([][]cell, 0, len(rows))
	for _, r := range rows {
		taxable, taxableCost, taxfreeCost := cell{text: "-"}, cell{text: "-"}, cell{text: "-"}
		if r.Info != nil {
			taxable = cell{text: r.Info.TaxableAmount.String(), style: (*output.Styles).Taxable, right: true}
			taxableCost = cell{text: FormatMoney(r.Info.TaxableBoughtCost, currency), style: (*output.Styles).Taxable, right: true}
			taxfreeCost = cell{text: FormatMoney(r.Info.TaxfreeBoughtCost, currency), style: (*output.Styles).TaxFree, right: true}
		}

		status := cell{text: r.Status(), style: (*output.Styles).Dim}
		if r.Status() == "incomplete" || r.Status() == "uncovered" {
			status.style = (*output.Styles).Incomplete
		}

		table = append(table, []cell{
			{text: fmt.Sprintf("%d", r.Seq), right: true},
			{text: opts.Settings.FormatTimestamp(r.Spend.Timestamp)},
			{text: r.Spend.Asset.String(), style: (*output.Styles).Asset},
			{text: r.Spend.Amount.String(), style: (*output.Styles).Amount, right: true},
			{text: FormatMoney(r.Spend.Rate, currency), right: true},
			taxable,
			taxableCost,
			taxfreeCost,
			status,
		})
	}

	widths := columnWidths(spendHeader, table)
	if err := writeHeader(w, spendHeader, widths, opts); err != nil {
		return err
	}

	date := opts.Settings.FormatTimestamp
	for i, row := range table {
		if err := writeRow(w, row, widths, opts); err != nil {
			return err
		}
		info := rows[i].Info
		if !opts.Matches || info == nil {
			continue
		}
		for _, m := range info.MatchedAcquisitions {
			if _, err := fmt.Fprintf(w, "    %s\n", opts.style((*output.Styles).Dim, "↳ "+m.Format(date))); err != nil {
				return err
			}
		}
	}
	return nil
}

var balanceHeader = []string{"Asset", "Held", "Lots"}

// Balances writes the held amount of every asset after a replay.
func Balances(w io.Writer, balances []accounting.Balance, opts Options) error {
	table := make([][]cell, 0, len(balances))
	for _, b := range balances {
		held := cell{text: b.Amount.String(), style: (*output.Styles).Amount, right: true}
		lots := cell{text: "pending"}
		if !b.Known {
			held = cell{text: "0", right: true}
			lots = cell{text: "none", style: (*output.Styles).Dim}
		}
		table = append(table, []cell{{text: b.Asset.String(), style: (*output.Styles).Asset}, held, lots})
	}

	widths := columnWidths(balanceHeader, table)
	if err := writeHeader(w, balanceHeader, widths, opts); err != nil {
		return err
	}
	for _, row := range table {
		if err := writeRow(w, row, widths, opts); err != nil {
			return err
		}
	}
	return nil
}

func columnWidths(header []string, table [][]cell) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range table {
		for i, c := range row {
			if cw := runewidth.StringWidth(c.text); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	return widths
}

func writeHeader(w io.Writer, header []string, widths []int, opts Options) error {
	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = opts.style((*output.Styles).Keyword, runewidth.FillRight(h, widths[i]))
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	return err
}

// writeRow pads before styling so escape sequences do not skew the columns.
func writeRow(w io.Writer, row []cell, widths []int, opts Options) error {
	cells := make([]string, len(row))
	for i, c := range row {
		padded := runewidth.FillRight(c.text, widths[i])
		if c.right {
			padded = runewidth.FillLeft(c.text, widths[i])
		}
		if c.style != nil {
			padded = opts.style(c.style, padded)
		}
		cells[i] = padded
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	return err
}
