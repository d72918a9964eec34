package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coach-service/internal/models"
)

func TestTrackerMultipleSessions(t *testing.T) {
	tracker := NewTracker()

	tracker.Track(1, models.RoleClient)
	tracker.Track(1, models.RoleClient)
	assert.True(t, tracker.IsOnline(1))

	tracker.Untrack(1)
	assert.True(t, tracker.IsOnline(1), "one session still open")

	tracker.Untrack(1)
	assert.False(t, tracker.IsOnline(1))
}

func TestTrackerUntrackUnknownUser(t *testing.T) {
	tracker := NewTracker()
	tracker.Untrack(42)
	assert.False(t, tracker.IsOnline(42))
}

func TestTrackerSnapshotSorted(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(9, models.RoleClient)
	tracker.Track(2, models.RoleStaff)
	tracker.Track(5, models.RoleClient)

	snap := tracker.Snapshot()
	require.Len(t, snap, 3)
	assert.Equal(t, 2, snap[0].UserID)
	assert.Equal(t, 5, snap[1].UserID)
	assert.Equal(t, 9, snap[2].UserID)
	assert.Equal(t, models.RoleStaff, snap[0].Role)
}

func TestTrackerHeartbeatRefreshesLastSeen(t *testing.T) {
	tracker := NewTracker()
	current := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return current }

	tracker.Track(1, models.RoleClient)
	current = current.Add(30 * time.Second)
	tracker.Heartbeat(1)

	snap := tracker.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, current, snap[0].LastSeen)
}

func TestTypingDecaysAfterWindow(t *testing.T) {
	indicator := NewTypingIndicator()
	current := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	indicator.now = func() time.Time { return current }

	indicator.Signal(5, 1)
	assert.True(t, indicator.IsTyping(5, 1))

	current = current.Add(TypingDecay - time.Millisecond)
	assert.True(t, indicator.IsTyping(5, 1), "still inside the window")

	current = current.Add(time.Millisecond)
	assert.False(t, indicator.IsTyping(5, 1), "decayed exactly at the window")
	assert.False(t, indicator.IsTyping(5, 1), "record dropped after expiry")
}

func TestTypingRefreshExtendsWindow(t *testing.T) {
	indicator := NewTypingIndicator()
	current := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	indicator.now = func() time.Time { return current }

	indicator.Signal(5, 1)
	current = current.Add(2 * time.Second)
	indicator.Signal(5, 1)

	current = current.Add(2 * time.Second)
	assert.True(t, indicator.IsTyping(5, 1))
}

func TestTypingScopedPerConversationAndUser(t *testing.T) {
	indicator := NewTypingIndicator()
	indicator.Signal(5, 1)

	assert.True(t, indicator.IsTyping(5, 1))
	assert.False(t, indicator.IsTyping(5, 2))
	assert.False(t, indicator.IsTyping(6, 1))
}
