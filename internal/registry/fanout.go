package registry

// FanOutResult summarises one pass of FanOut.
type FanOutResult struct {
	Sent    int // Registered peers whose send succeeded
	Skipped int // Peers without a token registration
	Pruned  int // Registered peers removed because send failed
}

// FanOut calls send for every peer that holds a token registration, with both
// registries locked once for the whole pass (tokens first, then peers). Peers
// for which send returns false are removed from peers in the same pass.
// Unregistered peers are left alone. send must only enqueue.
func FanOut(peers *PeerRegistry, tokens *TokenRegistry, send func(id ConnID, token string, out *Outbound) bool) (FanOutResult, error) {
	tokens.mu.RLock()
	defer tokens.mu.RUnlock()
	peers.mu.Lock()
	defer peers.mu.Unlock()

	if tokens.closed || peers.closed {
		return FanOutResult{}, ErrRegistryClosed
	}

	var res FanOutResult
	res.Pruned = peers.retainLocked(func(id ConnID, out *Outbound) bool {
		token, ok := tokens.byConn[id]
		if !ok {
			res.Skipped++
			return true
		}
		if send(id, token, out) {
			res.Sent++
			return true
		}
		return false
	})
	return res, nil
}
