package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/price-relay/internal/registry"
	"github.com/rickgao/price-relay/internal/wire"
)

// PriceUpdate is one TokenPrice answer received by the hub from a registered agent.
type PriceUpdate struct {
	SessionID  uuid.UUID       // Hub session that received the answer
	ConnID     registry.ConnID // Agent connection
	Token      string          // Token the agent registered
	Report     wire.PriceReport
	ReceivedAt time.Time // Local timestamp when the frame was read
}

// PriceRow is a single contract address entry of a PriceUpdate, flattened
// for storage.
type PriceRow struct {
	ReceivedAt int64     // Hub receive timestamp (µs since epoch)
	SessionID  uuid.UUID // Hub session
	ConnID     string    // Agent connection
	Token      string    // Registered token symbol
	Address    string    // Contract address
	Symbol     string    // Symbol reported by the price source
	Price      float64
	Decimals   int64
	Confidence float64
	SourceTS   int64 // Price source timestamp (unix seconds)
}

// Rows flattens u into one row per contract address, in address order.
func (u PriceUpdate) Rows() []PriceRow {
	addrs := u.Report.Addresses()
	rows := make([]PriceRow, 0, len(addrs))
	for _, addr := range addrs {
		info := u.Report.Coins[addr]
		rows = append(rows, PriceRow{
			ReceivedAt: u.ReceivedAt.UnixMicro(),
			SessionID:  u.SessionID,
			ConnID:     string(u.ConnID),
			Token:      u.Token,
			Address:    addr,
			Symbol:     info.Symbol,
			Price:      info.Price,
			Decimals:   int64(info.Decimals),
			Confidence: info.Confidence,
			SourceTS:   int64(info.Timestamp),
		})
	}
	return rows
}
