// Package model defines shared data types used across the relay.
//
// Conventions:
//   - Timestamps: int64 microseconds since Unix epoch for local receive times,
//     unix seconds for price-source timestamps (as reported upstream)
//   - IDs: registry.ConnID for connections, uuid.UUID for sessions
package model
