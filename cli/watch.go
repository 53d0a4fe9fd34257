package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/robinvdvleuten/costbasis/output"
	"github.com/robinvdvleuten/costbasis/report"
)

// Editors often write files in multiple steps.
const debounceDelay = 100 * time.Millisecond

type WatchCmd struct {
	File    string `help:"Event stream (JSONL) to watch." arg:"" type:"existingfile"`
	Sort    bool   `help:"Sort events by time before replaying."`
	Matches bool   `help:"List the matched acquisitions of every spend." short:"m"`
}

func (cmd *WatchCmd) Run(ctx *kong.Context, globals *Globals) error {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	w := &watcher{
		cmd:     cmd,
		globals: globals,
		stdout:  ctx.Stdout,
		stderr:  ctx.Stderr,
	}
	return w.run(runCtx)
}

type watcher struct {
	cmd     *WatchCmd
	globals *Globals
	stdout  io.Writer
	stderr  io.Writer

	mu    sync.Mutex
	files []string
}

func (w *watcher) run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	w.replay(ctx)
	w.updateWatches(fsw, nil)
	printInfof(w.stderr, "Watching %s, press Ctrl+C to stop", pathStyle.Render(w.cmd.File))

	// Replays run on this goroutine only, so they never overlap and never
	// outlive the watcher.
	reload := make(chan struct{}, 1)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			// Remove and rename are common in atomic saves.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceDelay, func() {
				requestReload(reload)
			})

		case <-reload:
			previous := w.watched()
			w.replay(ctx)
			w.updateWatches(fsw, previous)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			printWarning(w.stderr, fmt.Sprintf("file watcher error: %v", err))
		}
	}
}

// requestReload queues a reload unless one is already waiting.
func requestReload(reload chan<- struct{}) {
	select {
	case reload <- struct{}{}:
	default:
	}
}

// replay runs one replay and prints its report. Failures are printed and the
// watch goes on.
func (w *watcher) replay(ctx context.Context) {
	file := FileOrStdin{Filename: w.cmd.File}
	s, err := newSession(ctx, w.globals, "replay "+filepath.Base(w.cmd.File), w.stderr)
	if err != nil {
		printError(w.stderr, err.Error())
		return
	}
	defer s.report()

	loaded, result, err := s.replay(&file, w.cmd.Sort)
	if err != nil {
		return
	}

	w.mu.Lock()
	w.files = loaded.Files
	w.mu.Unlock()

	_, _ = fmt.Fprintf(w.stdout, "\n%s\n", time.Now().Format("15:04:05"))
	if err := report.Text(w.stdout, report.FromResult(result), report.Options{
		Settings: s.settings,
		Styles:   output.NewStyles(w.stdout),
		Matches:  w.cmd.Matches,
	}); err != nil {
		printError(w.stderr, err.Error())
	}
	s.printDiagnostics(result)
}

func (w *watcher) watched() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.files...)
}

// updateWatches drops files no longer part of the stream and (re)adds the
// current ones, which catches files recreated by atomic saves.
func (w *watcher) updateWatches(fsw *fsnotify.Watcher, previous []string) {
	current := w.watched()
	if len(current) == 0 {
		current = []string{w.cmd.File}
	}

	keep := make(map[string]bool, len(current))
	for _, file := range current {
		keep[file] = true
	}
	for _, file := range previous {
		if !keep[file] {
			_ = fsw.Remove(file)
		}
	}
	for _, file := range current {
		if err := fsw.Add(file); err != nil {
			printWarning(w.stderr, fmt.Sprintf("failed to watch %s: %v", file, err))
		}
	}
}
