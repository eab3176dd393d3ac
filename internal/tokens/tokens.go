// Package tokens reads the agent's symbol → contract address lookup file.
//
// The file is a flat JSON object, e.g.
//
//	{"SUI": "0x2::sui::SUI", "USDC": "0x5d4b...::coin::COIN"}
package tokens

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrUnknownToken is returned when a symbol is not listed in the table.
var ErrUnknownToken = errors.New("token not listed")

// Table maps token symbols to contract addresses.
type Table map[string]string

// Load reads and parses the lookup file at path.
func Load(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tokens file: %w", err)
	}

	var table Table
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, fmt.Errorf("parse tokens file: %w", err)
	}
	return table, nil
}

// Address returns the contract address for symbol.
func (t Table) Address(symbol string) (string, error) {
	addr, ok := t[symbol]
	if !ok || addr == "" {
		return "", fmt.Errorf("%w: %s", ErrUnknownToken, symbol)
	}
	return addr, nil
}

// Resolve loads path and looks up symbol in one step.
func Resolve(path, symbol string) (string, error) {
	table, err := Load(path)
	if err != nil {
		return "", err
	}
	return table.Address(symbol)
}
