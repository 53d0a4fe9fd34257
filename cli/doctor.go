package cli

import (
	"context"
	"fmt"

	"github.com/alecthomas/kong"
	"github.com/alecthomas/repr"

	"github.com/robinvdvleuten/costbasis/ledger"
)

// DoctorCmd provides utilities for debugging event streams.
type DoctorCmd struct {
	Events   EventsCmd   `cmd:"" help:"Show the decoded events of a stream."`
	Settings SettingsCmd `cmd:"" help:"Show the effective settings."`
	Forks    ForksCmd    `cmd:"" help:"Show the chain forks credited to holders."`
}

// EventsCmd prints every decoded event of a stream.
type EventsCmd struct {
	File FileOrStdin `help:"Event stream (JSONL, use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Sort bool        `help:"Sort events by time."`
}

func (cmd *EventsCmd) Run(ctx *kong.Context, globals *Globals) error {
	if err := cmd.File.EnsureContents(); err != nil {
		return err
	}

	s, err := newSession(context.Background(), globals, "doctor events", ctx.Stderr)
	if err != nil {
		return err
	}
	defer s.report()

	loaded, err := s.load(&cmd.File, cmd.Sort)
	if err != nil {
		return err
	}

	for idx, ev := range loaded.Events {
		_, _ = fmt.Fprintf(ctx.Stdout, "%-5d %s %s\n", idx, s.settings.FormatTimestamp(ev.Timestamp()), repr.String(ev, repr.OmitEmpty(true)))
	}
	for _, include := range loaded.Includes {
		printInfof(ctx.Stderr, "include %s", include)
	}
	return nil
}

// SettingsCmd prints the settings after applying files and flags.
type SettingsCmd struct{}

func (cmd *SettingsCmd) Run(ctx *kong.Context, globals *Globals) error {
	settings, err := globals.LoadSettings()
	if err != nil {
		return err
	}
	repr.New(ctx.Stdout, repr.Indent("  ")).Println(settings)
	return nil
}

// ForksCmd prints the fork table.
type ForksCmd struct{}

func (cmd *ForksCmd) Run(ctx *kong.Context, globals *Globals) error {
	settings, err := globals.LoadSettings()
	if err != nil {
		return err
	}
	for _, fork := range ledger.Forks {
		_, _ = fmt.Fprintf(ctx.Stdout, "%s before %s -> %v\n", fork.Base, settings.FormatTimestamp(fork.Boundary), fork.Descendants)
	}
	return nil
}
