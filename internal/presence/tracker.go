// Package presence derives best-effort online/offline hints from the
// set of currently tracked realtime sessions. Nothing here is durable:
// state is rebuilt from session lifecycles and a crashed tab may appear
// online briefly past its last valid heartbeat.
package presence

import (
	"sort"
	"sync"
	"time"

	"coach-service/internal/models"
)

type entry struct {
	role     models.Role
	lastSeen time.Time
	sessions int
}

// Tracker keeps one record per tracked user. A user with several open
// sessions stays online until the last one untracks.
type Tracker struct {
	mu      sync.RWMutex
	entries map[int]*entry
	now     func() time.Time
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[int]*entry), now: time.Now}
}

// Track registers a session for the user and refreshes the heartbeat.
func (t *Tracker) Track(userID int, role models.Role) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[userID]
	if !ok {
		e = &entry{role: role}
		t.entries[userID] = e
	}
	e.role = role
	e.lastSeen = t.now()
	e.sessions++
}

// Heartbeat refreshes the user's last-seen timestamp without opening a
// new session slot.
func (t *Tracker) Heartbeat(userID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[userID]; ok {
		e.lastSeen = t.now()
	}
}

// Untrack drops one session for the user; the entry disappears when no
// sessions remain. Idempotent for unknown users.
func (t *Tracker) Untrack(userID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[userID]
	if !ok {
		return
	}
	e.sessions--
	if e.sessions <= 0 {
		delete(t.entries, userID)
	}
}

// IsOnline is a pure lookup against the current set.
func (t *Tracker) IsOnline(userID int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.entries[userID]
	return ok
}

// Snapshot returns the full presence set, ordered by user id so
// repeated syncs are stable.
func (t *Tracker) Snapshot() []models.PresenceEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.PresenceEntry, 0, len(t.entries))
	for id, e := range t.entries {
		out = append(out, models.PresenceEntry{UserID: id, Role: e.role, LastSeen: e.lastSeen})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}
