// Package watcher polls a directory for path documents written by the
// real-time application and reports new or changed files.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

type EventType int

const (
	EventCreate EventType = iota
	EventModify
)

func (e EventType) String() string {
	switch e {
	case EventCreate:
		return "create"
	case EventModify:
		return "modify"
	default:
		return "unknown"
	}
}

// Handler is called with the full path of a file that appeared or changed.
// An error is logged; the file is retried only after it changes again.
type Handler func(ctx context.Context, path string, event EventType) error

type fileState struct {
	size    int64
	modTime time.Time
}

func (s fileState) same(o fileState) bool {
	return s.size == o.size && s.modTime.Equal(o.modTime)
}

type Watcher struct {
	dir      string
	interval time.Duration
	handler  Handler
	logger   *slog.Logger
	seen     map[string]fileState
}

func New(dir string, interval time.Duration, handler Handler, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		interval: interval,
		handler:  handler,
		logger:   logger,
		seen:     make(map[string]fileState),
	}
}

// Prime records the files already present so that only later changes are
// reported.
func (w *Watcher) Prime() error {
	states, err := w.list()
	if err != nil {
		return err
	}
	w.seen = states
	return nil
}

// Scan compares the directory with the previous scan and calls the handler
// for each new or modified file, in name order. It returns how many files
// were reported.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	states, err := w.list()
	if err != nil {
		return 0, err
	}

	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	sort.Strings(names)

	reported := 0
	for _, name := range names {
		if ctx.Err() != nil {
			return reported, ctx.Err()
		}
		state := states[name]
		prev, known := w.seen[name]
		if known && prev.same(state) {
			continue
		}
		event := EventCreate
		if known {
			event = EventModify
		}
		w.seen[name] = state
		reported++

		full := filepath.Join(w.dir, name)
		if err := w.handler(ctx, full, event); err != nil {
			w.logger.Warn("failed to handle exported file", "file", name, "event", event.String(), "error", err)
			continue
		}
		w.logger.Info("exported file handled", "file", name, "event", event.String())
	}

	for name := range w.seen {
		if _, ok := states[name]; !ok {
			delete(w.seen, name)
		}
	}
	return reported, nil
}

// Run primes the watcher and scans every interval until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create watch directory: %w", err)
	}
	if err := w.Prime(); err != nil {
		return err
	}
	w.logger.Info("watching for exported paths", "dir", w.dir, "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Scan(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("watch scan failed", "dir", w.dir, "error", err)
			}
		}
	}
}

func (w *Watcher) list() (map[string]fileState, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("read watch directory: %w", err)
	}

	states := make(map[string]fileState, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		states[e.Name()] = fileState{size: info.Size(), modTime: info.ModTime()}
	}
	return states, nil
}
