// Package reload guards a loaded GameData shared by concurrent readers and writers
// and swaps it for a fresh copy when the file changes on disk.
package reload

import (
	"fmt"
	"os"
	"sync"

	"github.com/samcharles93/cffkit/internal/logger"
	"github.com/samcharles93/cffkit/pkg/cff"
)

// Loader parses file bytes into a GameData.
type Loader func(data []byte) (*cff.GameData, error)

// Holder owns the current GameData of one file. Views run concurrently; updates,
// saves and reloads are exclusive.
type Holder struct {
	path string
	load Loader
	log  logger.Logger

	mu         sync.RWMutex
	data       *cff.GameData
	sum        string // checksum of the bytes last read or written
	dirty      bool
	generation uint64
}

// Open reads path and keeps the result.
func Open(path string, load Loader, log logger.Logger) (*Holder, error) {
	if log == nil {
		log = logger.Discard()
	}
	h := &Holder{path: path, load: load, log: log}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	g, err := load(raw)
	if err != nil {
		return nil, err
	}
	h.data, h.sum, h.generation = g, cff.Checksum(raw), 1
	return h, nil
}

func (h *Holder) Path() string { return h.path }

// Generation increases every time a new file version is loaded.
func (h *Holder) Generation() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.generation
}

// Dirty reports whether updates happened since the last load or save.
func (h *Holder) Dirty() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dirty
}

// View runs fn with shared access. fn must not modify g.
func (h *Holder) View(fn func(g *cff.GameData) error) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return fn(h.data)
}

// Update runs fn with exclusive access. The data is marked dirty when fn succeeds;
// fn must leave g untouched when it fails. Stale indexes are rebuilt before the
// lock is released, so View never writes.
func (h *Holder) Update(fn func(g *cff.GameData) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	defer h.data.Reindex()
	if err := fn(h.data); err != nil {
		return err
	}
	h.dirty = true
	return nil
}

// Save writes the current data back to the holder's path.
func (h *Holder) Save() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out, err := h.data.Bytes()
	if err != nil {
		return 0, err
	}
	if err := h.data.Save(h.path); err != nil {
		return 0, err
	}
	h.sum, h.dirty = cff.Checksum(out), false
	h.log.Info("saved data file", "path", h.path, "bytes", len(out))
	return len(out), nil
}

// Reload re-reads the file. Content identical to what the holder last read or
// wrote is ignored, so the holder's own saves do not discard anything. On a parse
// failure the current data is kept. Reload reports whether new data was loaded.
func (h *Holder) Reload() (bool, error) {
	raw, err := os.ReadFile(h.path)
	if err != nil {
		return false, err
	}
	sum := cff.Checksum(raw)

	h.mu.RLock()
	same := sum == h.sum
	h.mu.RUnlock()
	if same {
		return false, nil
	}

	g, err := h.load(raw)
	if err != nil {
		return false, fmt.Errorf("reload %s: %w", h.path, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.dirty {
		h.log.Warn("discarding unsaved edits after external change", "path", h.path)
	}
	h.data, h.sum, h.dirty = g, sum, false
	h.generation++
	h.log.Info("reloaded data file", "path", h.path, "generation", h.generation)
	return true, nil
}
