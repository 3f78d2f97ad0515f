// Package spool watches a directory the external streaming client drops raw
// envelope capture files into, handing each file to the pipeline exactly once.
package spool

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 250 * time.Millisecond

// Handler processes one capture file.
type Handler func(path string)

// Watcher tracks which spool files have already been handed off.
type Watcher struct {
	dir     string
	handler Handler

	mu   sync.Mutex
	seen map[string]struct{}
}

func NewWatcher(dir string, handler Handler) *Watcher {
	return &Watcher{
		dir:     dir,
		handler: handler,
		seen:    make(map[string]struct{}),
	}
}

// Run processes files already present in the spool directory, then blocks
// watching for new ones until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.sweep(); err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return err
	}

	debounce := time.NewTimer(0)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(debounceDelay)
		case <-debounce.C:
			if err := w.sweep(); err != nil {
				slog.Error("spool sweep failed", "dir", w.dir, "err", err)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Error("spool watch error", "err", err)
		}
	}
}

// sweep hands every unprocessed capture file to the handler, oldest name
// first. Capture files are expected to arrive with sortable names
// (timestamps), so lexical order is chronological order.
func (w *Watcher) sweep() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), ".ndjson") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(w.dir, name)
		if !w.claim(path) {
			continue
		}
		w.handler(path)
	}
	return nil
}

func (w *Watcher) claim(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.seen[path]; ok {
		return false
	}
	w.seen[path] = struct{}{}
	return true
}
