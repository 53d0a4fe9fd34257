// Large Event Stream Generator
//
// This tool generates a large JSONL event stream for performance testing and profiling.
// It creates realistic acquisitions and spends across several assets and exchanges to
// stress-test the loader and the FIFO ledger.
//
// Usage:
//
//	go run main.go > large.jsonl
//	go run main.go 20000000 > large.jsonl  # Specify target size in bytes
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
)

const (
	defaultTargetSize = 10 * 1024 * 1024 // 10MB
)

var (
	assets = []asset.Asset{asset.BTC, asset.ETH, asset.BCH, asset.WETH}

	// Rough starting prices in EUR.
	basePrices = map[asset.Asset]float64{
		asset.BTC:  2500,
		asset.ETH:  200,
		asset.BCH:  300,
		asset.WETH: 200,
	}

	locations = []event.Location{
		event.LocationKraken,
		event.LocationBinance,
		event.LocationCoinbase,
		event.LocationBlockchain,
		event.LocationExternal,
	}

	types = []event.Type{
		event.TypeTrade,
		event.TypeTrade,
		event.TypeTransaction,
		event.TypeLedgerAction,
		event.TypeStaking,
	}

	notes = []string{
		"", "", "dca", "rebalance", "payment", "staking reward", "airdrop", "gift",
	}
)

type generator struct {
	out      *bufio.Writer
	holdings map[asset.Asset]float64
	prices   map[asset.Asset]float64

	bytesWritten int
	acquisitions int
	spends       int
}

func main() {
	targetSize := defaultTargetSize
	if len(os.Args) > 1 {
		if size, err := strconv.Atoi(os.Args[1]); err == nil {
			targetSize = size
		}
	}

	g := &generator{
		out:      bufio.NewWriter(os.Stdout),
		holdings: make(map[asset.Asset]float64),
		prices:   make(map[asset.Asset]float64),
	}
	for a, p := range basePrices {
		g.prices[a] = p
	}

	g.writeHeader()

	// Start before the BTC/BCH fork so some lots are credited with descendants.
	currentDate := time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)

	for g.bytesWritten < targetSize {
		a := assets[rand.Intn(len(assets))]
		g.walkPrice(a)

		// Mix different kinds of events
		switch rand.Intn(10) {
		case 0, 1, 2, 3, 4: // 50% - Acquisition
			g.acquire(a, currentDate)

		case 5, 6, 7: // 30% - Spend of part of the holdings
			g.spend(a, currentDate, rand.Float64()*g.holdings[a], true)

		case 8: // 10% - Non taxable spend, e.g. a transfer to a wrapped token
			g.spend(a, currentDate, rand.Float64()*g.holdings[a]/2, false)

		case 9: // 10% - Spend exceeding the holdings
			g.spend(a, currentDate, g.holdings[a]+rand.Float64(), true)
		}

		// Advance time by up to a day
		currentDate = currentDate.Add(time.Duration(rand.Intn(86400)+1) * time.Second)
	}

	if err := g.out.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write stream: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "\nGenerated %d bytes with %d acquisitions and %d spends\n",
		g.bytesWritten, g.acquisitions, g.spends)
}

func (g *generator) writeHeader() {
	g.writeLine("# Large event stream for performance testing")
	g.writeLine("# Generated: " + time.Now().Format("2006-01-02 15:04:05"))
	g.writeLine("")
}

func (g *generator) acquire(a asset.Asset, date time.Time) {
	amount := randAmount(0.01, 5)
	g.holdings[a] += amount

	g.writeEvent(event.NewAcquisition(event.Acquisition{
		Type:          types[rand.Intn(len(types))],
		Asset:         a,
		Timestamp:     event.FromTime(date),
		Location:      locations[rand.Intn(len(locations))],
		Price:         decimalOf(g.prices[a], 2),
		TaxableAmount: decimalOf(amount, 8),
		FreeAmount:    decimal.Zero,
		Notes:         notes[rand.Intn(len(notes))],
	}))
	g.acquisitions++
}

func (g *generator) spend(a asset.Asset, date time.Time, amount float64, taxable bool) {
	if amount <= 0 {
		return
	}
	g.holdings[a] -= amount
	if g.holdings[a] < 0 {
		g.holdings[a] = 0
	}

	g.writeEvent(event.NewSpend(event.Spend{
		Location:  locations[rand.Intn(len(locations))],
		Timestamp: event.FromTime(date),
		Asset:     a,
		Amount:    decimalOf(amount, 8),
		Rate:      decimalOf(g.prices[a], 2),
		Taxable:   taxable,
		Notes:     notes[rand.Intn(len(notes))],
	}))
	g.spends++
}

func (g *generator) writeEvent(ev event.Event) {
	line, err := json.Marshal(ev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to encode event: %v\n", err)
		os.Exit(1)
	}
	g.writeLine(string(line))
}

func (g *generator) writeLine(line string) {
	n, _ := g.out.WriteString(line + "\n")
	g.bytesWritten += n
}

// walkPrice moves the price of a by up to 3% in either direction.
func (g *generator) walkPrice(a asset.Asset) {
	g.prices[a] *= 1 + (rand.Float64()-0.5)*0.06
}

// Helper functions

func randAmount(min, max float64) float64 {
	return min + rand.Float64()*(max-min)
}

func decimalOf(v float64, places int32) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(places)
}
