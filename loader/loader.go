// Package loader reads event streams from JSONL files.
//
// Every non blank line holds one JSON encoded event. Lines starting with '#'
// are comments. A line of the form
//
//	include "kraken.jsonl"
//
// pulls in another stream, resolved relative to the including file. Includes
// are only followed with WithFollowIncludes; otherwise they are kept in
// Result.Includes.
//
// Example usage:
//
//	ldr := loader.New(loader.WithFollowIncludes(), loader.WithSortByTime())
//	result, err := ldr.Load(ctx, "events.jsonl")
package loader

import (
	"bufio"
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/telemetry"
)

const maxLineSize = 1 << 20

// Loader reads event streams.
//
// Configure the loader using functional options passed to New:
//
//	loader := New(WithSortByTime())
type Loader struct {
	// FollowIncludes loads included streams and merges them into the result.
	FollowIncludes bool

	// SortByTime stably sorts the events by timestamp. Merged streams are
	// always sorted since their files interleave in time.
	SortByTime bool
}

// Option configures how streams are loaded.
type Option func(*Loader)

// WithFollowIncludes recursively loads included streams. Files included more
// than once are only read the first time.
func WithFollowIncludes() Option {
	return func(l *Loader) {
		l.FollowIncludes = true
	}
}

// WithSortByTime sorts the loaded events by timestamp, keeping the file order
// of events sharing a timestamp.
func WithSortByTime() Option {
	return func(l *Loader) {
		l.SortByTime = true
	}
}

// New creates a new Loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Result is a loaded event stream.
type Result struct {
	Root     string        // Absolute path of the loaded file, empty for LoadBytes
	Files    []string      // Every file read, in load order
	Includes []string      // Includes left unresolved
	Events   []event.Event // Events in stream order, or by time when sorted
}

// Load reads the stream in filename.
func (l *Loader) Load(ctx context.Context, filename string) (*Result, error) {
	absPath, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path for %s: %w", filename, err)
	}

	state := &loaderState{loader: l, visited: make(map[string]bool), result: &Result{Root: absPath}}
	if err := state.loadFile(ctx, absPath); err != nil {
		return nil, err
	}
	return state.finish(), nil
}

// LoadBytes reads a stream held in memory. Includes are resolved relative to
// the directory of name.
func (l *Loader) LoadBytes(ctx context.Context, name string, data []byte) (*Result, error) {
	state := &loaderState{loader: l, visited: make(map[string]bool), result: &Result{}}
	if err := state.parse(ctx, name, filepath.Dir(name), data); err != nil {
		return nil, err
	}
	return state.finish(), nil
}

type loaderState struct {
	loader  *Loader
	visited map[string]bool
	result  *Result
	merged  bool
}

func (s *loaderState) loadFile(ctx context.Context, absPath string) error {
	if s.visited[absPath] {
		return nil
	}
	s.visited[absPath] = true

	timer := telemetry.StartTimer(ctx, "load "+filepath.Base(absPath))
	defer timer.End()

	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", absPath, err)
	}
	s.result.Files = append(s.result.Files, absPath)
	return s.parse(ctx, absPath, filepath.Dir(absPath), data)
}

func (s *loaderState) parse(ctx context.Context, filename, baseDir string, data []byte) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if rest, ok := strings.CutPrefix(text, "include "); ok {
			target, err := parseIncludeTarget(rest)
			if err != nil {
				return &LoadError{Filename: filename, Line: line, Err: err}
			}
			if err := s.include(ctx, filename, baseDir, target); err != nil {
				return err
			}
			continue
		}

		var ev event.Event
		if err := json.Unmarshal([]byte(text), &ev); err != nil {
			return &LoadError{Filename: filename, Line: line, Err: err}
		}
		s.result.Events = append(s.result.Events, ev)
	}
	if err := scanner.Err(); err != nil {
		return &LoadError{Filename: filename, Line: line + 1, Err: err}
	}
	return nil
}

func (s *loaderState) include(ctx context.Context, filename, baseDir, target string) error {
	if !s.loader.FollowIncludes {
		s.result.Includes = append(s.result.Includes, target)
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if !filepath.IsAbs(target) {
		target = filepath.Join(baseDir, target)
	}
	s.merged = true
	if err := s.loadFile(ctx, target); err != nil {
		return fmt.Errorf("in file %s: %w", filename, err)
	}
	return nil
}

func (s *loaderState) finish() *Result {
	if s.loader.SortByTime || s.merged {
		slices.SortStableFunc(s.result.Events, func(a, b event.Event) int {
			return cmp.Compare(a.Timestamp(), b.Timestamp())
		})
	}
	return s.result
}

func parseIncludeTarget(rest string) (string, error) {
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, `"`) {
		unquoted, err := strconv.Unquote(rest)
		if err != nil {
			return "", fmt.Errorf("invalid include path %s", rest)
		}
		rest = unquoted
	}
	if rest == "" {
		return "", fmt.Errorf("include without a path")
	}
	return rest, nil
}
