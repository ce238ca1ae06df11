package state

import (
	"sync"
	"time"
)

// Patch mutates a snapshot copy in place. Patches must tolerate their target
// being absent, e.g. a circuit id that the next poll no longer reports.
type Patch func(*Snapshot)

type pendingPatch struct {
	patch    Patch
	resolved bool
}

// Store owns the current controller snapshot. Only the poller replaces the
// polled document; optimistic control edits are layered on top as pending
// patches that survive a replace until the corresponding write resolves.
type Store struct {
	mu          sync.RWMutex
	polled      *Snapshot
	displayed   *Snapshot
	lastSuccess time.Time
	pending     map[string]*pendingPatch
}

// NewStore returns a store holding an empty snapshot.
func NewStore() *Store {
	empty := &Snapshot{}
	return &Store{
		polled:    empty,
		displayed: empty,
		pending:   make(map[string]*pendingPatch),
	}
}

// Current returns the displayed snapshot: the last polled document with all
// pending optimistic patches applied. Never blocks on I/O, never nil. The
// returned value must be treated as read-only.
func (s *Store) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.displayed
}

// LastSuccess returns the timestamp of the last successful poll, or the zero
// time before the first one.
func (s *Store) LastSuccess() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSuccess
}

// Stale reports whether the last successful poll is older than the threshold.
// Boundary equality is not stale; a store that has never been filled is.
func (s *Store) Stale(now time.Time, threshold time.Duration) bool {
	last := s.LastSuccess()
	if last.IsZero() {
		return true
	}
	return now.Sub(last) > threshold
}

// Replace installs a fresh polled document. Pending patches whose write has
// already resolved are dropped (the controller now reports the written
// value); unresolved ones are reapplied over the fresh document so an
// in-flight optimistic edit is not clobbered by the poll.
func (s *Store) Replace(snap *Snapshot, at time.Time) {
	if snap == nil {
		snap = &Snapshot{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.polled = snap
	s.lastSuccess = at
	for key, entry := range s.pending {
		if entry.resolved {
			delete(s.pending, key)
		}
	}
	s.rebuildLocked()
}

// Stage records an optimistic patch under the given control key and applies
// it to the displayed snapshot immediately. Staging the same key again
// replaces the previous patch.
func (s *Store) Stage(key string, patch Patch) {
	if patch == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[key] = &pendingPatch{patch: patch}
	s.rebuildLocked()
}

// Resolve marks the patch for key as confirmed by the controller. The patch
// keeps shaping the displayed snapshot until the next replace delivers a
// document that includes the written value.
func (s *Store) Resolve(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.pending[key]; ok {
		entry.resolved = true
	}
}

// Revert discards the patch for key and restores the displayed snapshot to
// the last polled values.
func (s *Store) Revert(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.pending[key]; !ok {
		return
	}
	delete(s.pending, key)
	s.rebuildLocked()
}

// PendingCount returns the number of staged patches.
func (s *Store) PendingCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pending)
}

func (s *Store) rebuildLocked() {
	if len(s.pending) == 0 {
		s.displayed = s.polled
		return
	}
	next := s.polled.Clone()
	for _, entry := range s.pending {
		entry.patch(next)
	}
	s.displayed = next
}
