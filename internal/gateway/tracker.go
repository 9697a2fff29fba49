package gateway

import "sync"

// Tracker keeps the per-content attempt index. It only moves forward, one
// step per failure of the current host, and stops at the placeholder.
type Tracker struct {
	resolver *Resolver

	mu       sync.Mutex
	attempts map[string]int
}

// NewTracker starts every id at attempt zero.
func NewTracker(r *Resolver) *Tracker {
	return &Tracker{resolver: r, attempts: make(map[string]int)}
}

// Attempt returns the current attempt index for id.
func (t *Tracker) Attempt(id string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts[id]
}

// URL resolves id at its current attempt.
func (t *Tracker) URL(id string) string {
	return t.resolver.Resolve(id, t.Attempt(id))
}

// LoadFailed records that the URL for attempt failed and returns the URL to
// use now. Only a failure of the current attempt advances id; a failure
// reported for an attempt the tracker has already moved past is ignored.
func (t *Tracker) LoadFailed(id string, attempt int) string {
	t.mu.Lock()
	n := t.attempts[id]
	if n == attempt && n < t.resolver.Len() {
		n++
		t.attempts[id] = n
	}
	t.mu.Unlock()
	return t.resolver.Resolve(id, n)
}

// Exhausted reports whether every host has failed for id.
func (t *Tracker) Exhausted(id string) bool {
	return t.Attempt(id) >= t.resolver.Len()
}

// Forget drops the attempt state for id.
func (t *Tracker) Forget(id string) {
	t.mu.Lock()
	delete(t.attempts, id)
	t.mu.Unlock()
}
