package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kong"
	"github.com/oklog/ulid/v2"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/output"
	"github.com/robinvdvleuten/costbasis/report"
	"github.com/robinvdvleuten/costbasis/store"
)

type ShowCmd struct {
	DB       string `help:"SQLite journal written by replay --db." arg:"" type:"existingfile"`
	RunID    string `help:"Run ID to show, defaults to the latest run." name:"run"`
	Asset    string `help:"Only show spends of this asset."`
	List     bool   `help:"List the journaled runs instead." short:"l"`
	Markdown bool   `help:"Render the report as Markdown."`
	Matches  bool   `help:"List the matched acquisitions of every spend." short:"m"`
}

func (cmd *ShowCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx := context.Background()

	db, err := store.Open(cmd.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if cmd.List {
		return listRuns(runCtx, ctx.Stdout, db)
	}

	run, err := cmd.findRun(runCtx, db)
	if err != nil {
		return err
	}

	var filter asset.Asset
	if cmd.Asset != "" {
		filter = asset.New(cmd.Asset)
	}
	spends, err := db.ListSpends(runCtx, run.ID, filter)
	if err != nil {
		return err
	}

	// Recalled results are rendered with the settings they were computed with.
	settings, err := globals.LoadSettings()
	if err != nil {
		return err
	}
	settings.MainCurrency = run.MainCurrency
	settings.TaxfreeAfterPeriod = run.TaxfreeAfter

	rows := report.FromJournal(spends)
	if cmd.Markdown {
		md := report.Markdown(fmt.Sprintf("Run %s", run.ID), rows, settings)
		if !isTerminal() {
			_, err := fmt.Fprint(ctx.Stdout, md)
			return err
		}
		rendered, err := report.Render(md, terminalWidth(100), "")
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(ctx.Stdout, rendered)
		return err
	}

	printInfof(ctx.Stderr, "Run %s of %s, %s", run.ID, pathStyle.Render(run.Source), run.CreatedAt.Format("2006-01-02 15:04:05"))
	return report.Text(ctx.Stdout, rows, report.Options{
		Settings: settings,
		Styles:   output.NewStyles(ctx.Stdout),
		Matches:  cmd.Matches,
	})
}

func (cmd *ShowCmd) findRun(ctx context.Context, db *store.SQLite) (store.Run, error) {
	if cmd.RunID == "" {
		return db.LatestRun(ctx)
	}
	id, err := ulid.Parse(cmd.RunID)
	if err != nil {
		return store.Run{}, fmt.Errorf("invalid run ID %q: %w", cmd.RunID, err)
	}
	return db.GetRun(ctx, id)
}

func listRuns(ctx context.Context, w io.Writer, db *store.SQLite) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	for _, run := range runs {
		period := "none"
		if run.TaxfreeAfter != nil {
			period = run.TaxfreeAfter.String()
		}
		_, err := fmt.Fprintf(w, "%s  %s  %s  events=%d diagnostics=%d taxfree_after=%s  %s\n",
			run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"), run.MainCurrency,
			run.Events, run.Diagnostics, period, run.Source)
		if err != nil {
			return err
		}
	}
	return nil
}

