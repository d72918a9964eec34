package presence

import (
	"sync"
	"time"
)

// TypingDecay is how long a typing signal stays valid without a refresh.
const TypingDecay = 3 * time.Second

type typingKey struct {
	conversationID int
	userID         int
}

// TypingIndicator tracks ephemeral typing signals. There is no cancel
// message: an indicator simply decays once the window passes without a
// refresh signal.
type TypingIndicator struct {
	mu     sync.Mutex
	last   map[typingKey]time.Time
	window time.Duration
	now    func() time.Time
}

// NewTypingIndicator uses the fixed decay window and wall clock.
func NewTypingIndicator() *TypingIndicator {
	return NewTypingIndicatorWindow(TypingDecay)
}

// NewTypingIndicatorWindow uses a custom decay window.
func NewTypingIndicatorWindow(window time.Duration) *TypingIndicator {
	return &TypingIndicator{
		last:   make(map[typingKey]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Signal records (or refreshes) a typing signal.
func (t *TypingIndicator) Signal(conversationID, userID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.last[typingKey{conversationID, userID}] = t.now()
}

// IsTyping reports whether the user's last signal is still inside the
// decay window, dropping the record once it has expired.
func (t *TypingIndicator) IsTyping(conversationID, userID int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := typingKey{conversationID, userID}
	at, ok := t.last[key]
	if !ok {
		return false
	}
	if t.now().Sub(at) >= t.window {
		delete(t.last, key)
		return false
	}
	return true
}
