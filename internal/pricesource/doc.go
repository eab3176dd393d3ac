// Package pricesource is the agent's client for the upstream price oracle.
//
// The oracle is addressed by a base URL to which the token's contract address
// is appended, e.g. https://coins.llama.fi/prices/current/sui: + 0x2::sui::SUI,
// and answers with {"coins": {"<address>": {...}}}.
package pricesource
