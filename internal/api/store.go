package api

import (
	"sync"
	"time"
)

// Edit records one field change made through the API.
type Edit struct {
	ID        string `json:"id"`
	Object    string `json:"object"`
	CreatedAt int64  `json:"created_at"`
	Table     string `json:"table"`
	Row       int    `json:"row"`
	Field     string `json:"field"`
	Old       any    `json:"old"`
	New       any    `json:"new"`
}

// EditLog keeps the edits made since the last save.
type EditLog struct {
	mu    sync.Mutex
	edits []Edit
}

func NewEditLog() *EditLog {
	return &EditLog{}
}

func (l *EditLog) Record(table string, row int, field string, before, after any, now time.Time) Edit {
	e := Edit{
		ID:        newEditID(),
		Object:    "edit",
		CreatedAt: now.Unix(),
		Table:     table,
		Row:       row,
		Field:     field,
		Old:       before,
		New:       after,
	}
	l.mu.Lock()
	l.edits = append(l.edits, e)
	l.mu.Unlock()
	return e
}

func (l *EditLog) List() []Edit {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Edit, len(l.edits))
	copy(out, l.edits)
	return out
}

// Clear drops every edit and returns how many there were.
func (l *EditLog) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := len(l.edits)
	l.edits = nil
	return n
}
