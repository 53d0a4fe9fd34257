package cli

import (
	"context"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/robinvdvleuten/costbasis/output"
	"github.com/robinvdvleuten/costbasis/report"
)

type BalanceCmd struct {
	File FileOrStdin `help:"Event stream (JSONL, use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Sort bool        `help:"Sort events by time before replaying."`
}

func (cmd *BalanceCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	s, err := newSession(context.Background(), globals, "balance "+filepath.Base(cmd.File.Filename), ctx.Stderr)
	if err != nil {
		return err
	}
	defer s.report()

	if _, _, err := s.replay(&cmd.File, cmd.Sort); err != nil {
		return err
	}

	return report.Balances(ctx.Stdout, s.pot.Balances(), report.Options{
		Settings: s.settings,
		Styles:   output.NewStyles(ctx.Stdout),
	})
}
