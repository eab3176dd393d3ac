// Package database provides the TimescaleDB connection pool used by the
// optional price sink.
//
// The hub stores relayed price reports only; registry state is never persisted.
package database
