// Package hub implements the relay hub: the WebSocket acceptor, one session
// per agent connection, and the periodic TokenPrice broadcast.
//
// Session protocol, per connection:
//
//	Connected ──WhichToken(free token)──▶ Registered(token)
//	    │
//	    └──WhichToken(taken token)──▶ Rejected (RepeatedToken sent, connection closed)
//
// Any state moves to Closed when either direction of the stream ends. On every
// exit path the session removes itself from the peer registry and releases its
// token binding.
//
// The acceptor and the broadcast share one dispatch loop; sessions run on
// their own goroutines.
package hub
