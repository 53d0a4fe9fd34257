package cli

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/costbasis/accounting"
	"github.com/robinvdvleuten/costbasis/errors"
	"github.com/robinvdvleuten/costbasis/ledger"
	"github.com/robinvdvleuten/costbasis/output"
	"github.com/robinvdvleuten/costbasis/report"
	"github.com/robinvdvleuten/costbasis/store"
)

type ReplayCmd struct {
	File    FileOrStdin `help:"Event stream (JSONL, use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Sort    bool        `help:"Sort events by time before replaying."`
	Format  string      `help:"Output format (${enum})." enum:"text,markdown,json" default:"text" short:"f"`
	Matches bool        `help:"List the matched acquisitions of every spend." short:"m"`
	DB      string      `help:"Journal the results in this SQLite database."`
	Yes     bool        `help:"Append to an existing journal without asking." short:"y"`
	Strict  bool        `help:"Exit with an error when the acquisition history has gaps."`
}

func (cmd *ReplayCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	s, err := newSession(context.Background(), globals, "replay "+filepath.Base(cmd.File.Filename), ctx.Stderr)
	if err != nil {
		return err
	}
	defer s.report()

	if cmd.DB != "" {
		if err := confirmJournal(ctx.Stderr, cmd.DB, cmd.Yes); err != nil {
			return err
		}
	}

	loaded, result, err := s.replay(&cmd.File, cmd.Sort)
	if err != nil {
		return err
	}

	if err := cmd.render(ctx.Stdout, s.settings, result); err != nil {
		return err
	}

	if cmd.Format != "json" {
		s.printDiagnostics(result)
	}

	if cmd.DB != "" {
		run, err := journal(s, cmd.DB, cmd.File.GetAbsoluteFilename(), len(loaded.Events), result)
		if err != nil {
			return err
		}
		printInfof(ctx.Stderr, "Journaled run %s in %s", run.ID, pathStyle.Render(cmd.DB))
	}

	if n := result.Incomplete(); n > 0 {
		msg := fmt.Sprintf("%d spend(s) with incomplete cost basis", n)
		if cmd.Strict {
			printError(ctx.Stderr, msg)
			return NewCommandError(ExitIncomplete, msg)
		}
		printWarning(ctx.Stderr, msg)
		return nil
	}

	printSuccess(ctx.Stderr, fmt.Sprintf("Replayed %d events, %d spends", len(loaded.Events), len(result.Spends)))
	return nil
}

func (cmd *ReplayCmd) render(w io.Writer, settings ledger.Settings, result *accounting.Result) error {
	rows := report.FromResult(result)

	switch cmd.Format {
	case "markdown":
		_, err := fmt.Fprint(w, report.Markdown("Cost basis report", rows, settings))
		return err
	case "json":
		return writeJSON(w, result)
	default:
		return report.Text(w, rows, report.Options{
			Settings: settings,
			Styles:   output.NewStyles(w),
			Matches:  cmd.Matches,
		})
	}
}

type spendJSON struct {
	Seq       int          `json:"seq"`
	Asset     string       `json:"asset"`
	Timestamp int64        `json:"timestamp"`
	Amount    string       `json:"amount"`
	Kind      string       `json:"kind"`
	Covered   bool         `json:"covered"`
	CostBasis *ledger.Info `json:"cost_basis,omitempty"`

	TaxableAmount     string `json:"taxable_amount,omitempty"`
	TaxableBoughtCost string `json:"taxable_bought_cost,omitempty"`
	TaxfreeBoughtCost string `json:"taxfree_bought_cost,omitempty"`
}

func writeJSON(w io.Writer, result *accounting.Result) error {
	spends := make([]spendJSON, 0, len(result.Spends))
	for _, s := range result.Spends {
		out := spendJSON{
			Seq:       s.Seq,
			Asset:     s.Spend.Asset.String(),
			Timestamp: int64(s.Spend.Timestamp),
			Amount:    s.Spend.Amount.String(),
			Kind:      s.Result.Kind.String(),
			Covered:   s.Result.Covered,
		}
		if info, ok := s.Result.CostBasis(); ok {
			out.CostBasis = &info
			out.TaxableAmount = info.TaxableAmount.String()
			out.TaxableBoughtCost = info.TaxableBoughtCost.String()
			out.TaxfreeBoughtCost = info.TaxfreeBoughtCost.String()
		}
		spends = append(spends, out)
	}

	diagnostics := errors.NewJSONFormatter().FormatAllToSlice(result.Errors)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(map[string]any{
		"spends":      spends,
		"diagnostics": diagnostics,
		"warnings":    result.Warnings,
	})
}

// confirmJournal asks before appending to an existing journal.
func confirmJournal(w io.Writer, path string, yes bool) error {
	if _, err := os.Stat(path); err != nil {
		if stdErrors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to access journal: %w", err)
	}
	if yes {
		return nil
	}

	confirmed, err := promptYesNo(fmt.Sprintf("Journal %q already exists. Append this run?", path))
	if err != nil {
		return err
	}
	if !confirmed {
		printError(w, "journal exists, pass --yes to append")
		return NewCommandError(ExitDeclined, "journal exists")
	}
	return nil
}

func journal(s *session, path, source string, events int, result *accounting.Result) (store.Run, error) {
	db, err := store.Open(path)
	if err != nil {
		return store.Run{}, err
	}
	defer db.Close()

	return db.SaveResult(s.ctx, source, s.settings, events, result)
}
