// Package agent implements the price-reporting side of the relay.
//
// An agent owns one token symbol. It connects to the hub, answers the hub's
// WhichToken request with its symbol and, once accepted, answers every
// TokenPrice request with a fresh report fetched from the price source:
//
//	hub -> WhichToken     agent -> WhichToken(symbol)
//	hub -> ValidToken     (registered)
//	hub -> TokenPrice     agent -> TokenPrice(report)
//	hub -> RepeatedToken  Run returns ErrRepeatedToken
//
// Fetches run concurrently, bounded by Config.MaxInflightFetches. A request
// that arrives while every slot is busy is skipped; a failed fetch is logged
// and left unanswered.
package agent
