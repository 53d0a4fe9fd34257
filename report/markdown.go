package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/robinvdvleuten/costbasis/ledger"
)

// Markdown renders rows as a Markdown document.
func Markdown(title string, rows []Row, settings ledger.Settings) string {
	var b strings.Builder
	currency := settings.MainCurrency

	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Costs in **%s** (%s)", currency, currency.Symbol())
	if settings.TaxfreeAfterPeriod != nil {
		fmt.Fprintf(&b, ", lots held longer than **%s** are tax free", *settings.TaxfreeAfterPeriod)
	}
	b.WriteString(".\n\n")

	if len(rows) == 0 {
		b.WriteString("No spends.\n")
		return b.String()
	}

	b.WriteString("| # | Time | Asset | Amount | Taxable | Taxable cost | Tax-free cost | Status |\n")
	b.WriteString("|--:|------|-------|-------:|--------:|-------------:|--------------:|--------|\n")
	for _, r := range rows {
		taxable, taxableCost, taxfreeCost := "-", "-", "-"
		if r.Info != nil {
			taxable = r.Info.TaxableAmount.String()
			taxableCost = FormatMoney(r.Info.TaxableBoughtCost, currency)
			taxfreeCost = FormatMoney(r.Info.TaxfreeBoughtCost, currency)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s |\n",
			r.Seq, settings.FormatTimestamp(r.Spend.Timestamp), r.Spend.Asset, r.Spend.Amount,
			taxable, taxableCost, taxfreeCost, r.Status())
	}

	wroteHeading := false
	for _, r := range rows {
		if r.Info == nil || (len(r.Info.MatchedAcquisitions) == 0 && r.Info.IsComplete) {
			continue
		}
		if !wroteHeading {
			b.WriteString("\n## Matched acquisitions\n")
			wroteHeading = true
		}
		fmt.Fprintf(&b, "\n### Spend %d: %s %s\n\n", r.Seq, r.Spend.Amount, r.Spend.Asset)
		if !r.Info.IsComplete {
			b.WriteString("> The acquisition history does not cover this spend.\n\n")
		}
		for _, m := range r.Info.MatchedAcquisitions {
			fmt.Fprintf(&b, "- %s\n", m.Format(settings.FormatTimestamp))
		}
	}
	return b.String()
}

// Render formats a Markdown document for a terminal of the given width. An
// empty style picks one matching the terminal background.
func Render(md string, width int, style string) (string, error) {
	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	if style == "" {
		opts = append(opts, glamour.WithAutoStyle())
	} else {
		opts = append(opts, glamour.WithStandardStyle(style))
	}

	renderer, err := glamour.NewTermRenderer(opts...)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return renderer.Render(md)
}
