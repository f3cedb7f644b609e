package orderbook

import (
	"sync/atomic"
)

// Store holds the current snapshot behind an atomic pointer. Readers get
// one complete, self-consistent snapshot and can keep using it for the
// whole duration of a query while the poller installs newer ones; neither
// side ever blocks the other.
type Store struct {
	current atomic.Pointer[Snapshot]
	seq     atomic.Uint64
}

// NewStore creates an empty store. Current returns nil until the first
// Replace.
func NewStore() *Store {
	return &Store{}
}

// Replace stamps next with the following sequence number, installs it
// atomically and returns the snapshot it displaced (nil on first install).
// The returned snapshot is what delta computation diffs against.
func (st *Store) Replace(next *Snapshot) *Snapshot {
	next.Sequence = st.seq.Add(1)
	return st.current.Swap(next)
}

// Current returns the latest published snapshot, or nil before the first
// successful poll.
func (st *Store) Current() *Snapshot {
	return st.current.Load()
}
