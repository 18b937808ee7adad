package sentmon

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// Watcher watches the configuration directory and nudges the supervisor
// into polling immediately when a sentinel file shows up, instead of
// waiting out the rest of the poll interval. A nudge never produces an
// action by itself; polling stays the authority.
type Watcher struct {
	// Nudges coalesces wake-up requests; receiving one means a sentinel
	// file was probably created.
	Nudges chan struct{}

	w   *fsnotify.Watcher
	j   Journaler
	dir string
}

// TryWatch attempts to watch the given directory asynchronously, but it
// will log into the journaler if, for some reason, it fails to watch
// the directory. The supervisor keeps polling either way.
func TryWatch(ctx context.Context, dir string, j Journaler) *Watcher {
	w := &Watcher{
		Nudges: make(chan struct{}, 1),
		j:      j,
		dir:    dir,
	}

	go func() {
		if err := w.init(); err != nil {
			j.Write(&EventWarning{
				Component: "watcher",
				Error:     fmt.Sprintf("not watching dir because: %v", err),
			})
			return
		}

		w.watch(ctx)
	}()

	return w
}

func (w *Watcher) init() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create watcher")
	}

	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return errors.Wrap(err, "failed to watch dir")
	}

	w.w = watcher
	return nil
}

func (w *Watcher) watch(ctx context.Context) {
	defer w.w.Close()

	for {
		select {
		case <-ctx.Done():
			return

		case err := <-w.w.Errors:
			w.j.Write(&EventWarning{
				Component: "watcher",
				Error:     "inotify error: " + err.Error(),
			})

		case evt := <-w.w.Events:
			if !isSentinelEvent(evt) {
				continue
			}

			select {
			case w.Nudges <- struct{}{}:
			default: // a nudge is already pending
			}
		}
	}
}

// isSentinelEvent reports whether the fsnotify event concerns the
// creation of one of the two sentinel files.
func isSentinelEvent(evt fsnotify.Event) bool {
	if !evt.Op.Has(fsnotify.Create) && !evt.Op.Has(fsnotify.Write) {
		return false
	}

	switch filepath.Base(evt.Name) {
	case FileStop, FileRestart:
		return true
	}
	return false
}
