// Package watcher monitors a drop folder and hands settled subtitle files
// to a handler, typically the service's enqueue path.
package watcher

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"vidsum/pkg/file"
	"vidsum/pkg/log"
)

// Handler receives the path of a newly dropped subtitle file.
type Handler func(ctx context.Context, subtitlePath string) error

type Watcher struct {
	inboxDir string
	settle   time.Duration
	handler  Handler
	fs       *fsnotify.Watcher
}

// New creates a watcher over inboxDir. settle is how long a file must stay
// unchanged before it counts as fully written.
func New(inboxDir string, settle time.Duration, handler Handler) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fs.Add(inboxDir); err != nil {
		_ = fs.Close()
		return nil, fmt.Errorf("watch %s: %w", inboxDir, err)
	}
	if settle <= 0 {
		settle = 3 * time.Second
	}
	return &Watcher{
		inboxDir: inboxDir,
		settle:   settle,
		handler:  handler,
		fs:       fs,
	}, nil
}

// Start blocks processing filesystem events until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	log.Info("watching inbox %s", w.inboxDir)

	for {
		select {
		case <-ctx.Done():
			log.Info("inbox watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fs.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !file.IsSubtitlePath(event.Name) {
				log.Debug("ignoring non-subtitle file %s", event.Name)
				continue
			}

			if err := w.awaitSettled(ctx, event.Name); err != nil {
				log.Warn("skipping %s: %v", event.Name, err)
				continue
			}
			log.Info("new subtitle file %s", event.Name)
			if err := w.handler(ctx, event.Name); err != nil {
				log.Error("handle %s: %v", event.Name, err)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			log.Error("watcher error: %v", err)
		}
	}
}

func (w *Watcher) Stop() error {
	return w.fs.Close()
}

// awaitSettled waits until the file size stays constant for one settle
// interval, so half-written drops are not picked up.
func (w *Watcher) awaitSettled(ctx context.Context, path string) error {
	const maxChecks = 20

	lastSize := int64(-1)
	for i := 0; i < maxChecks; i++ {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat: %w", err)
		}
		if info.Size() == lastSize {
			return nil
		}
		lastSize = info.Size()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.settle):
		}
	}
	return fmt.Errorf("file did not settle after %d checks", maxChecks)
}
