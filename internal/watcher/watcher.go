// Package watcher feeds transcripts dropped as .txt files in a directory
// into the analysis pipeline.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/csg4786/transcript-insights/internal/logger"
)

// Handler receives the file's base name (without extension) and its text.
type Handler func(ctx context.Context, name, text string)

type Watcher struct {
	dir     string
	handler Handler
	seen    map[string]struct{}
	log     *logrus.Entry
}

func New(dir string, handler Handler) *Watcher {
	return &Watcher{
		dir:     dir,
		handler: handler,
		seen:    map[string]struct{}{},
		log:     logger.New().Component("watcher"),
	}
}

// Run watches the directory until ctx is cancelled. Files still being
// written are retried by waiting briefly after the create event.
func (w *Watcher) Run(ctx context.Context) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
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
	w.log.WithField("dir", w.dir).Info("watching for transcripts")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if strings.ToLower(filepath.Ext(event.Name)) != ".txt" {
				continue
			}
			w.handleFile(ctx, event.Name)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.WithError(err).Warn("watch error")
		}
	}
}

func (w *Watcher) handleFile(ctx context.Context, path string) {
	// create is usually followed by writes for the same file
	if _, ok := w.seen[path]; ok {
		return
	}
	w.seen[path] = struct{}{}

	// give the writer a moment to finish
	time.Sleep(200 * time.Millisecond)

	data, err := os.ReadFile(path)
	if err != nil {
		w.log.WithError(err).WithField("path", path).Warn("failed to read transcript file")
		return
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	w.log.WithField("file", name).Info("transcript picked up")
	w.handler(ctx, name, text)
}
