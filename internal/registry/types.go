package registry

import "errors"

// Errors
var (
	ErrRegistryClosed    = errors.New("registry closed")
	ErrTokenTaken        = errors.New("token already registered by another connection")
	ErrAlreadyRegistered = errors.New("connection already registered a token")
	ErrPeerExists        = errors.New("peer already registered")
)

// ConnID identifies a live connection, in practice its remote ip:port.
type ConnID string

func (id ConnID) String() string {
	return string(id)
}
