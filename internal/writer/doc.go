// Package writer implements the batch writer for relayed price reports.
//
// The hub hands every TokenPrice answer to PriceWriter.Record, which never
// blocks the session: updates are queued, flattened to one row per contract
// address, and flushed to the token_prices table when the batch fills or the
// flush interval elapses. Append-only; duplicate rows are ignored.
package writer
