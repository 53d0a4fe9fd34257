package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/accounting"
	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/ledger"
	"github.com/robinvdvleuten/costbasis/store"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func replay(t *testing.T) (*accounting.Pot, *accounting.Result) {
	t.Helper()
	pot := accounting.NewPot(ledger.DefaultSettings())
	result, err := pot.Process(context.Background(), []event.Event{
		event.NewAcquisition(event.Acquisition{
			Asset: asset.ETH, Timestamp: 1500000000, Location: event.LocationKraken,
			Price: d("200"), TaxableAmount: d("2"),
		}),
		event.NewSpend(event.Spend{
			Asset: asset.ETH, Timestamp: 1600000000, Location: event.LocationKraken,
			Amount: d("1.5"), Rate: d("350"), Taxable: true,
		}),
		event.NewSpend(event.Spend{
			Asset: asset.EUR, Timestamp: 1600000100, Amount: d("20"), Rate: d("1"), Taxable: true,
		}),
		event.NewSpend(event.Spend{
			Asset: asset.BTC, Timestamp: 1600000200, Amount: d("0.1"), Rate: d("9000"), Taxable: true,
		}),
	})
	assert.NoError(t, err)
	return pot, result
}

func TestRows(t *testing.T) {
	_, result := replay(t)
	rows := FromResult(result)

	assert.Equal(t, 3, len(rows))
	assert.Equal(t, "complete", rows[0].Status())
	assert.Equal(t, "reduced", rows[1].Status())
	assert.Equal(t, "incomplete", rows[2].Status())
	assert.Zero(t, rows[1].Info)

	journaled := FromJournal([]store.Spend{{Seq: 4, Kind: ledger.SpendReduced, Covered: false, Spend: event.Spend{Asset: asset.ETC}}})
	assert.Equal(t, "uncovered", journaled[0].Status())
}

func TestFormatMoney(t *testing.T) {
	assert.Contains(t, FormatMoney(d("300"), asset.EUR), "€")
	assert.Contains(t, FormatMoney(d("300"), asset.EUR), "300")
	assert.Contains(t, FormatMoney(d("12.345"), asset.USD), "12.35")
	assert.Equal(t, "0.5 BTC", FormatMoney(d("0.5"), asset.BTC))
}

func TestText(t *testing.T) {
	_, result := replay(t)

	var buf bytes.Buffer
	err := Text(&buf, FromResult(result), Options{Settings: ledger.DefaultSettings(), Matches: true})
	assert.NoError(t, err)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, 5, len(lines))
	assert.True(t, strings.HasPrefix(lines[0], "#  Time"))
	assert.Contains(t, lines[1], "ETH")
	assert.Contains(t, lines[1], "complete")
	assert.Contains(t, lines[2], "↳ 1.5 / 2  acquired in kraken at 14/07/2017 02:40:00 UTC for price: 200")
	assert.Contains(t, lines[3], "reduced")
	assert.Contains(t, lines[4], "incomplete")

	// columns line up across rows
	assert.Equal(t, strings.Index(lines[1], "ETH"), strings.Index(lines[3], "EUR"))
}

func TestBalances(t *testing.T) {
	pot, _ := replay(t)

	var buf bytes.Buffer
	assert.NoError(t, Balances(&buf, pot.Balances(), Options{}))

	out := buf.String()
	assert.Contains(t, out, "Asset")
	assert.Contains(t, out, "0.5")
	assert.Contains(t, out, "none")
}

func TestMarkdown(t *testing.T) {
	_, result := replay(t)
	settings := ledger.DefaultSettings().WithTaxfreePeriod(24 * time.Hour)

	md := Markdown("Cost basis report", FromResult(result), settings)

	assert.True(t, strings.HasPrefix(md, "# Cost basis report\n"))
	assert.Contains(t, md, "Costs in **EUR** (€), lots held longer than **24h0m0s** are tax free.")
	assert.Contains(t, md, "| 1 | 13/09/2020 12:26:40 UTC | ETH | 1.5 |")
	assert.Contains(t, md, "### Spend 1: 1.5 ETH")
	assert.Contains(t, md, "### Spend 3: 0.1 BTC")
	assert.Contains(t, md, "> The acquisition history does not cover this spend.")

	t.Run("Empty", func(t *testing.T) {
		assert.Contains(t, Markdown("Report", nil, ledger.DefaultSettings()), "No spends.")
	})

	t.Run("Render", func(t *testing.T) {
		out, err := Render(md, 120, "notty")
		assert.NoError(t, err)
		assert.Contains(t, out, "Cost basis report")
		assert.Contains(t, out, "ETH")
	})
}
