package reload

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce coalesces the burst of events a single save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a Holder when its file changes.
type Watcher struct {
	h        *Holder
	fs       *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// StartWatching watches the directory containing the holder's file, so that
// editors replacing the file through a rename are noticed too. The watch is
// active when StartWatching returns.
func (h *Holder) StartWatching(debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fw.Add(filepath.Dir(h.path)); err != nil {
		fw.Close()
		return nil, err
	}
	w := &Watcher{h: h, fs: fw, debounce: debounce, done: make(chan struct{})}
	w.wg.Add(1)
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()
	target := filepath.Clean(w.h.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			if _, err := w.h.Reload(); err != nil {
				w.h.log.Warn("reload failed", "path", w.h.path, "error", err)
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.h.log.Warn("watch error", "path", w.h.path, "error", err)
		}
	}
}

// Close stops watching and waits for a pending reload to finish.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
		w.wg.Wait()
	})
	return err
}
