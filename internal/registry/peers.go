package registry

import "sync"

// PeerRegistry maps every live connection to its outbound queue.
type PeerRegistry struct {
	mu     sync.RWMutex
	peers  map[ConnID]*Outbound
	closed bool
}

// NewPeerRegistry creates an empty peer registry.
func NewPeerRegistry() *PeerRegistry {
	return &PeerRegistry{peers: make(map[ConnID]*Outbound)}
}

// Insert adds a live connection.
func (r *PeerRegistry) Insert(id ConnID, out *Outbound) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	if _, exists := r.peers[id]; exists {
		return ErrPeerExists
	}
	r.peers[id] = out
	return nil
}

// Remove deletes id and reports whether it was present. Removal only happens
// if the entry still points at out, so a late cleanup by one session cannot
// evict a newer connection that reused the address. A nil out removes
// unconditionally.
func (r *PeerRegistry) Remove(id ConnID, out *Outbound) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false, ErrRegistryClosed
	}
	cur, ok := r.peers[id]
	if !ok || (out != nil && cur != out) {
		return false, nil
	}
	delete(r.peers, id)
	return true, nil
}

// Len returns the number of live peers.
func (r *PeerRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.peers)
}

// IDs returns the connected peer IDs in no particular order.
func (r *PeerRegistry) IDs() []ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ConnID, 0, len(r.peers))
	for id := range r.peers {
		ids = append(ids, id)
	}
	return ids
}

// Retain calls keep for every peer under one lock and removes the peers for
// which it returns false. keep must not block.
func (r *PeerRegistry) Retain(keep func(id ConnID, out *Outbound) bool) (removed int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrRegistryClosed
	}
	return r.retainLocked(keep), nil
}

func (r *PeerRegistry) retainLocked(keep func(id ConnID, out *Outbound) bool) int {
	removed := 0
	for id, out := range r.peers {
		if !keep(id, out) {
			delete(r.peers, id)
			removed++
		}
	}
	return removed
}

// Close breaks the registry and returns the outbound queues that were still
// registered so the caller can shut them down.
func (r *PeerRegistry) Close() []*Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	outs := make([]*Outbound, 0, len(r.peers))
	for _, out := range r.peers {
		outs = append(outs, out)
	}
	clear(r.peers)
	return outs
}
