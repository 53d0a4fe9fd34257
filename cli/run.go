package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/robinvdvleuten/costbasis/accounting"
	"github.com/robinvdvleuten/costbasis/errors"
	"github.com/robinvdvleuten/costbasis/ledger"
	"github.com/robinvdvleuten/costbasis/loader"
	"github.com/robinvdvleuten/costbasis/output"
	"github.com/robinvdvleuten/costbasis/telemetry"
)

// session carries what every command that replays a stream needs.
type session struct {
	ctx      context.Context
	settings ledger.Settings
	pot      *accounting.Pot
	stderr   io.Writer

	report func()
}

// newSession configures logging, settings and telemetry from the global flags.
// Call report once the command is done to print the timings.
func newSession(ctx context.Context, globals *Globals, name string, stderr io.Writer) (*session, error) {
	logger, err := globals.Logger(stderr)
	if err != nil {
		return nil, err
	}
	settings, err := globals.LoadSettings()
	if err != nil {
		return nil, err
	}

	s := &session{
		ctx:      settings.WithContext(ctx),
		settings: settings,
		pot:      accounting.NewPot(settings, accounting.WithLogger(logger)),
		stderr:   stderr,
		report:   func() {},
	}

	if globals.Telemetry {
		collector := telemetry.NewTimingCollector()
		s.ctx = telemetry.WithCollector(s.ctx, collector)

		root := collector.Start(name)
		s.ctx = telemetry.WithRootTimer(s.ctx, root)

		var once sync.Once
		s.report = func() {
			once.Do(func() {
				root.End()
				_, _ = fmt.Fprintln(stderr)
				collector.Report(stderr, output.NewStyles(stderr))
			})
		}
	}
	return s, nil
}

// load reads the stream in file, printing load errors with source context.
func (s *session) load(file *FileOrStdin, sortByTime bool) (*loader.Result, error) {
	opts := []loader.Option{loader.WithFollowIncludes()}
	if sortByTime {
		opts = append(opts, loader.WithSortByTime())
	}

	result, err := file.LoadEvents(s.ctx, loader.New(opts...))
	if err == nil {
		return result, nil
	}

	var formatterOpts []errors.TextFormatterOption
	if source, readErr := file.GetSourceContent(); readErr == nil {
		formatterOpts = append(formatterOpts, errors.WithSource(source))
	}
	_, _ = fmt.Fprintln(s.stderr, errors.NewTextFormatter(formatterOpts...).Format(err))
	msg := fmt.Sprintf("failed to load %s", filepath.Base(file.Filename))
	printError(s.stderr, msg)
	return nil, NewCommandError(ExitFailure, msg)
}

// replay loads and processes the stream.
func (s *session) replay(file *FileOrStdin, sortByTime bool) (*loader.Result, *accounting.Result, error) {
	loaded, err := s.load(file, sortByTime)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.pot.Process(s.ctx, loaded.Events)
	if err != nil {
		printError(s.stderr, err.Error())
		return nil, nil, NewCommandError(ExitFailure, err.Error())
	}
	return loaded, result, nil
}

// printDiagnostics writes the errors and warnings of a replay to stderr.
func (s *session) printDiagnostics(result *accounting.Result) {
	if len(result.Errors) > 0 {
		formatter := errors.NewTextFormatter(errors.WithStyles(output.NewStyles(s.stderr)))
		_, _ = fmt.Fprintln(s.stderr, formatter.FormatAll(result.Errors))
		_, _ = fmt.Fprintln(s.stderr)
	}
	for _, warning := range result.Warnings {
		printWarning(s.stderr, warning)
	}
}
