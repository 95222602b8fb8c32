package quota

import (
	"sync"
	"time"

	"twitbot/internal/logging"
)

// Kind labels the quota-bounded action categories.
type Kind string

const (
	KindRetweet  Kind = "retweet"
	KindFavorite Kind = "favorite"
)

// Tracker holds the process-wide daily action counters. Both counters
// reset together whenever the observed UTC day differs from the stored
// one; the reset happens under the same lock as the eligibility check,
// so the first reservation of a new day always sees clean counters.
//
// Reservations are taken before the remote call and released if the call
// did not succeed, so concurrent pipeline executions can never overshoot
// a cap.
type Tracker struct {
	mu       sync.Mutex
	day      string
	retweets int
	likes    int

	maxRetweets int
	maxLikes    int

	now func() time.Time
}

// New returns a Tracker with the given daily caps. A cap of zero or
// less means unlimited.
func New(maxRetweets, maxLikes int) *Tracker {
	t := &Tracker{maxRetweets: maxRetweets, maxLikes: maxLikes, now: time.Now}
	t.day = t.today()
	return t
}

func (t *Tracker) today() string {
	return t.now().UTC().Format(time.DateOnly)
}

// rollover must be called with the lock held.
func (t *Tracker) rollover() {
	d := t.today()
	if d != t.day {
		t.retweets = 0
		t.likes = 0
		t.day = d
		logging.Info("quota_reset", map[string]any{"day": d})
	}
}

// Reserve claims one slot of the kind's daily quota. It returns false
// when the quota is spent; a successful reservation must be confirmed by
// the action succeeding, or undone with Release.
func (t *Tracker) Reserve(kind Kind) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	switch kind {
	case KindRetweet:
		if t.maxRetweets > 0 && t.retweets >= t.maxRetweets {
			return false
		}
		t.retweets++
	case KindFavorite:
		if t.maxLikes > 0 && t.likes >= t.maxLikes {
			return false
		}
		t.likes++
	default:
		return false
	}
	return true
}

// Release undoes a reservation whose remote action did not succeed.
func (t *Tracker) Release(kind Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	switch kind {
	case KindRetweet:
		if t.retweets > 0 {
			t.retweets--
		}
	case KindFavorite:
		if t.likes > 0 {
			t.likes--
		}
	}
}

// Counts returns the current counters after applying any pending rollover.
func (t *Tracker) Counts() (retweets, likes int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rollover()
	return t.retweets, t.likes
}
