package render

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/even/showrunner/internal/report"
)

// Watch renders the run directory's prompt sheet whenever it changes,
// until the context is cancelled. An initial render happens immediately
// if the sheet already exists. Writers typically produce several events
// per save, so renders are debounced.
func (r *Renderer) Watch(ctx context.Context, runDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(runDir); err != nil {
		return fmt.Errorf("watch %s: %w", runDir, err)
	}

	sheet := filepath.Join(runDir, report.BrollPromptsFile)
	if err := r.RenderSheet(ctx, sheet); err != nil {
		log.Printf("[render] initial render: %v", err)
	}

	const debounce = 500 * time.Millisecond
	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != sheet {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			log.Printf("[render] prompt sheet changed, re-rendering")
			if err := r.RenderSheet(ctx, sheet); err != nil {
				log.Printf("[render] re-render: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("[render] watcher: %v", err)
		}
	}
}
