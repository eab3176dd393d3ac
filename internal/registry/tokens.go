package registry

import (
	"maps"
	"sync"
)

// TokenRegistry binds connections to token symbols one-to-one. The two
// directions are only ever changed together under mu, so byConn and byToken
// are always inverse maps.
type TokenRegistry struct {
	mu      sync.RWMutex
	byConn  map[ConnID]string
	byToken map[string]ConnID
	closed  bool
}

// NewTokenRegistry creates an empty token registry.
func NewTokenRegistry() *TokenRegistry {
	return &TokenRegistry{
		byConn:  make(map[ConnID]string),
		byToken: make(map[string]ConnID),
	}
}

// Register binds token to id if the token is free. The check and the insert
// happen in one critical section, so two connections racing for the same
// token cannot both win.
func (r *TokenRegistry) Register(id ConnID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRegistryClosed
	}
	if owner, taken := r.byToken[token]; taken {
		if owner == id {
			return nil
		}
		return ErrTokenTaken
	}
	if _, has := r.byConn[id]; has {
		return ErrAlreadyRegistered
	}

	r.byConn[id] = token
	r.byToken[token] = id
	return nil
}

// Unregister removes the binding held by id, both directions at once.
func (r *TokenRegistry) Unregister(id ConnID) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return "", false, ErrRegistryClosed
	}
	token, ok := r.byConn[id]
	if !ok {
		return "", false, nil
	}
	delete(r.byConn, id)
	delete(r.byToken, token)
	return token, true, nil
}

// ConnOf returns the connection holding token.
func (r *TokenRegistry) ConnOf(token string) (ConnID, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return "", false, ErrRegistryClosed
	}
	id, ok := r.byToken[token]
	return id, ok, nil
}

// Len returns the number of registered tokens.
func (r *TokenRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConn)
}

// Snapshot returns a copy of the connection → token bindings.
func (r *TokenRegistry) Snapshot() map[ConnID]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.byConn)
}

// Close breaks the registry; later operations return ErrRegistryClosed.
func (r *TokenRegistry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	clear(r.byConn)
	clear(r.byToken)
}
