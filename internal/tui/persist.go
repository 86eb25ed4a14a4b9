package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/versetype/internal/model"
)

// snapshotWriter saves session snapshots off the event loop. Writes are
// serialized and always store the newest queued snapshot, so a slow write
// never lets an older snapshot land after a newer one.
type snapshotWriter struct {
	store Store

	// writeMu serializes store writes.
	writeMu sync.Mutex

	// mu guards the fields below.
	mu     sync.Mutex
	latest model.Snapshot
	queued uint64
	saved  uint64
	dirty  bool
}

func newSnapshotWriter(st Store) *snapshotWriter {
	return &snapshotWriter{store: st}
}

// queue records snap as the newest state to persist.
func (w *snapshotWriter) queue(snap model.Snapshot) {
	if w.store == nil {
		return
	}
	w.mu.Lock()
	w.latest = snap
	w.queued++
	w.dirty = true
	w.mu.Unlock()
}

// cmd returns a command that writes the newest queued snapshot, or nil when
// nothing is waiting.
func (w *snapshotWriter) cmd() tea.Cmd {
	w.mu.Lock()
	dirty := w.dirty
	w.dirty = false
	w.mu.Unlock()
	if !dirty {
		return nil
	}
	return func() tea.Msg {
		w.flush()
		return nil
	}
}

// flush writes the newest snapshot if it has not been written yet.
func (w *snapshotWriter) flush() {
	if w.store == nil {
		return
	}
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	w.mu.Lock()
	if w.saved == w.queued {
		w.mu.Unlock()
		return
	}
	snap, seq := w.latest, w.queued
	w.mu.Unlock()

	if err := w.store.SaveSnapshot(context.Background(), snap); err != nil {
		logErrf("failed to save snapshot: %v\n", err)
		return
	}
	w.mu.Lock()
	w.saved = seq
	w.mu.Unlock()
}
