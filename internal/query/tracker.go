package query

import "sync"

// Ticket identifies one requested fetch. It is handed out by Tracker.Begin and
// checked with Tracker.Current before the fetched data is applied.
type Ticket struct {
	Key        string
	Generation uint64
}

// Tracker hands out monotonically increasing tickets so that a response is only
// applied if no newer request was started in the meantime (latest wins).
type Tracker struct {
	mu         sync.Mutex
	generation uint64
	key        string
}

// Begin starts a new request for key and supersedes every earlier ticket.
func (t *Tracker) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	t.key = key
	return Ticket{Key: key, Generation: t.generation}
}

// Invalidate supersedes all outstanding tickets without starting a new request.
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.generation++
	t.key = ""
}

// Current reports whether tk is still the latest ticket.
func (t *Tracker) Current(tk Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return tk.Generation == t.generation && tk.Key == t.key
}
