package main

import (
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	costbasis "github.com/robinvdvleuten/costbasis/cli"
)

var (
	cli struct {
		Version kong.VersionFlag `help:"Show version information"`
		costbasis.Commands
	}
)

func main() {
	ctx := kong.Parse(&cli,
		kong.Vars{
			"version": buildVersion(costbasis.Version, costbasis.CommitSHA),
		},
		kong.Name("costbasis"),
		kong.Description("Replays acquisitions and spends and reports their FIFO cost basis."),
		kong.UsageOnError(),
		kong.Bind(&cli.Globals),
	)

	err := ctx.Run()

	// Commands print their own output before failing with an exit code.
	if code, ok := costbasis.ExitCode(err); ok {
		os.Exit(code)
	}
	ctx.FatalIfErrorf(err)
}

func buildVersion(version, commit string) string {
	if version == "" {
		version = "dev"
	}
	if commit == "" {
		return version
	}
	return fmt.Sprintf("%s (%s)", version, commit)
}
