// Package viewer is the client half of the live-data path: it keeps a
// single "current reading" in sync with the server by merging pushed
// websocket events with periodic polls.
package viewer

import (
	"sync"

	"airwatch-server/internal/modules/readings/types"
)

// CurrentView holds the latest known reading for rendering. Both event
// sources (push and poll) feed the same merge rule, which is idempotent and
// order-insensitive: the view never regresses to an older timestamp, even
// when a stale poll response lands after a newer push.
type CurrentView struct {
	mu      sync.Mutex
	reading types.Reading
	valid   bool
}

// Apply merges r into the view and reports whether the view changed.
// r replaces the view only when the view is empty or r is strictly newer;
// equal or older timestamps are discarded.
func (v *CurrentView) Apply(r types.Reading) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.valid && !r.Timestamp.After(v.reading.Timestamp) {
		return false
	}
	v.reading = r
	v.valid = true
	return true
}

// Reading returns the current reading and whether one has been applied yet.
func (v *CurrentView) Reading() (types.Reading, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.reading, v.valid
}
