// Package history keeps the play-by-play record of a game: an append-only
// sequence of labelled board snapshots.
package history

import (
	"sync"
	"time"

	"riskserver/game"
	"riskserver/protocol"
)

// Snapshot is one recorded event. It is never modified after it is recorded.
type Snapshot struct {
	Seq    int                 `json:"seq"`
	Label  string              `json:"label"`
	Time   time.Time           `json:"time"`
	Digest string              `json:"digest"`
	Status protocol.GameStatus `json:"status"`
}

func (s Snapshot) clone() Snapshot {
	s.Status = s.Status.Clone()
	return s
}

// Recorder is safe for one writer and any number of concurrent readers.
type Recorder struct {
	mu        sync.RWMutex
	snapshots []Snapshot
	now       func() time.Time
}

type RecorderOption func(*Recorder)

// WithClock sets the time source used to stamp snapshots.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

func NewRecorder(opts ...RecorderOption) *Recorder {
	r := &Recorder{now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends a snapshot. The status is copied so that later changes by
// the caller never reach the history.
func (r *Recorder) Record(label string, status protocol.GameStatus, digest game.StateHash) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Seq:    len(r.snapshots),
		Label:  label,
		Time:   r.now(),
		Digest: digest.String(),
		Status: status.Clone(),
	}
	r.snapshots = append(r.snapshots, s)
	return s.clone()
}

func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.snapshots)
}

func (r *Recorder) At(i int) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 || i >= len(r.snapshots) {
		return Snapshot{}, false
	}
	return r.snapshots[i].clone(), true
}

// All returns every snapshot in recording order.
func (r *Recorder) All() []Snapshot {
	return r.Since(0)
}

// Since returns the snapshots recorded at or after index i.
func (r *Recorder) Since(i int) []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i < 0 {
		i = 0
	}
	if i >= len(r.snapshots) {
		return []Snapshot{}
	}
	out := make([]Snapshot, 0, len(r.snapshots)-i)
	for _, s := range r.snapshots[i:] {
		out = append(out, s.clone())
	}
	return out
}

// Reset discards the history for a new game instance.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = nil
}
