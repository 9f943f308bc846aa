// Package confwatcher contains a configuration watcher.
package confwatcher

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	defaultMinInterval = 1 * time.Second
	additionalWait     = 10 * time.Millisecond
)

// ConfWatcher notifies when a configuration file changes.
// The parent directory is watched, so that files replaced by editors
// or by symlink swaps are detected too.
type ConfWatcher struct {
	FilePath    string
	MinInterval time.Duration

	inner        *fsnotify.Watcher
	absolutePath string

	// in
	terminate chan struct{}

	// out
	signal chan struct{}
	done   chan struct{}
}

// Initialize initializes a ConfWatcher.
func (w *ConfWatcher) Initialize() error {
	if w.MinInterval == 0 {
		w.MinInterval = defaultMinInterval
	}

	if _, err := os.Stat(w.FilePath); err != nil {
		return err
	}

	var err error
	w.inner, err = fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// use absolute paths to support Darwin
	w.absolutePath, _ = filepath.Abs(w.FilePath)

	err = w.inner.Add(filepath.Dir(w.absolutePath))
	if err != nil {
		w.inner.Close() //nolint:errcheck
		return err
	}

	w.terminate = make(chan struct{})
	w.signal = make(chan struct{})
	w.done = make(chan struct{})

	go w.run()

	return nil
}

// Close closes a ConfWatcher.
func (w *ConfWatcher) Close() {
	close(w.terminate)
	<-w.done
}

func (w *ConfWatcher) isChange(event fsnotify.Event, previous string) (string, bool) {
	current, _ := filepath.EvalSymlinks(w.absolutePath)

	// watched file was removed. Wait for a write or create event.
	if current == "" {
		return "", false
	}

	if current != previous {
		return current, true
	}

	eventPath, _ := filepath.Abs(event.Name)
	eventPath, _ = filepath.EvalSymlinks(eventPath)

	return current, eventPath == current &&
		(event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create))
}

func (w *ConfWatcher) run() {
	defer close(w.done)
	defer w.inner.Close() //nolint:errcheck
	defer close(w.signal)

	var lastCalled time.Time
	previous, _ := filepath.EvalSymlinks(w.absolutePath)

	for {
		select {
		case event := <-w.inner.Events:
			if time.Since(lastCalled) < w.MinInterval {
				continue
			}

			var changed bool
			previous, changed = w.isChange(event, previous)
			if !changed {
				continue
			}

			// let the writer complete its job
			time.Sleep(additionalWait)
			lastCalled = time.Now()

			select {
			case w.signal <- struct{}{}:
			case <-w.terminate:
				return
			}

		case <-w.inner.Errors:
			return

		case <-w.terminate:
			return
		}
	}
}

// Watch returns a channel that receives a value after the configuration file has changed.
func (w *ConfWatcher) Watch() chan struct{} {
	return w.signal
}
