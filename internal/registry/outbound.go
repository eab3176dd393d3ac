package registry

import "sync"

// DefaultOutboundSize is the queue depth used when NewOutbound gets size <= 0.
const DefaultOutboundSize = 256

// Outbound is the send side of one connection's write pump. Any goroutine may
// call Send; only the owning session reads Frames and calls Close.
type Outbound struct {
	mu     sync.Mutex
	frames chan []byte
	closed bool
}

// NewOutbound creates a queue holding up to size frames.
func NewOutbound(size int) *Outbound {
	if size <= 0 {
		size = DefaultOutboundSize
	}
	return &Outbound{frames: make(chan []byte, size)}
}

// Send enqueues frame without blocking. It returns false if the handle is
// closed or the queue is full; either way the peer should be treated as dead.
func (o *Outbound) Send(frame []byte) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return false
	}
	select {
	case o.frames <- frame:
		return true
	default:
		return false
	}
}

// Frames returns the queue drained by the write pump. It is closed by Close
// after any frames already queued.
func (o *Outbound) Frames() <-chan []byte {
	return o.frames
}

// Close stops accepting frames. Frames queued before Close are still
// delivered by Frames. Safe to call more than once.
func (o *Outbound) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	close(o.frames)
}

// Closed reports whether Close has been called.
func (o *Outbound) Closed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}
