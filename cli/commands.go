package cli

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/ledger"
	"github.com/robinvdvleuten/costbasis/logging"
)

var (
	Version   = ""
	CommitSHA = ""
)

// Globals defines global flags available to all commands.
type Globals struct {
	Telemetry bool   `help:"Show timing telemetry for operations."`
	LogLevel  string `help:"Log level (${enum})." enum:"debug,info,warn,error,critical" default:"warn"`
	LogFormat string `help:"Log format (${enum})." enum:"text,json" default:"text"`

	Settings     string        `help:"Settings file (YAML or JSON)." type:"existingfile" short:"s"`
	MainCurrency string        `help:"Fiat currency costs are expressed in, overrides the settings file."`
	TaxfreeAfter time.Duration `help:"Holding period after which spends are tax free, e.g. 8760h. Overrides the settings file."`
}

// Logger builds the logger configured by the flags, writing to w.
func (g *Globals) Logger(w io.Writer) (*slog.Logger, error) {
	return logging.New(g.LogFormat, g.LogLevel, w)
}

// LoadSettings reads the settings file, if any, and applies the overrides.
func (g *Globals) LoadSettings() (ledger.Settings, error) {
	settings := ledger.DefaultSettings()
	if g.Settings != "" {
		loaded, err := ledger.LoadSettings(g.Settings)
		if err != nil {
			return ledger.Settings{}, err
		}
		settings = loaded
	}

	if g.MainCurrency != "" {
		settings.MainCurrency = asset.New(g.MainCurrency)
	}
	if g.TaxfreeAfter != 0 {
		settings = settings.WithTaxfreePeriod(g.TaxfreeAfter)
	}

	if err := settings.Validate(); err != nil {
		return ledger.Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return settings, nil
}

type Commands struct {
	Globals

	Replay  ReplayCmd  `cmd:"" help:"Replay an event stream and report the cost basis of every spend."`
	Balance BalanceCmd `cmd:"" help:"Show the amount of every asset held after an event stream."`
	Show    ShowCmd    `cmd:"" help:"Show journaled replay results."`
	Watch   WatchCmd   `cmd:"" help:"Replay an event stream every time it changes."`
	Doctor  DoctorCmd  `cmd:"" help:"Doctor utilities for debugging event streams."`
}
