// Package registry holds the hub's shared connection state.
//
//   - PeerRegistry: every live connection and its outbound queue
//   - TokenRegistry: the one-to-one binding between connections and token symbols
//
// Both registries guard their maps with short critical sections and are never
// locked across a network write; Outbound.Send only enqueues. Closing a
// registry puts it in a broken state where every operation fails with
// ErrRegistryClosed, so callers abandon the operation instead of crashing.
package registry
