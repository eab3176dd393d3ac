// Package wire defines the hub/agent message taxonomy and its binary codec.
//
// Frames use the fixed bincode-1 layout so the hub can talk to existing agents:
//   - enum variant: u32 little-endian tag
//   - string: u64 little-endian byte length, then UTF-8 bytes
//   - u64/f64: 8 bytes little-endian
//   - map: u64 entry count, then key/value pairs
//
// Requests flow hub→agent and responses agent→hub; the two enums never share
// a direction, so no version or schema negotiation is carried on the wire.
package wire
