package wire

import (
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const timestampLayout = "02-01-2006 15:04:05"

// FormatTimestamp renders unix seconds as a UTC dd-mm-yyyy hh:mm:ss string.
func FormatTimestamp(secs uint64) string {
	if secs > math.MaxInt64 {
		return "Invalid timestamp"
	}
	t := time.Unix(int64(secs), 0).UTC()
	if t.Year() > 9999 {
		return "Invalid timestamp"
	}
	return t.Format(timestampLayout)
}

func (c CoinInfo) String() string {
	return fmt.Sprintf("Symbol: %s\nPrice: %v\nDecimals: %d\nConfidence: %v\nTimestamp: %s",
		c.Symbol, c.Price, c.Decimals, c.Confidence, FormatTimestamp(c.Timestamp))
}

// Addresses returns the report's contract addresses in sorted order.
func (r PriceReport) Addresses() []string {
	addrs := make([]string, 0, len(r.Coins))
	for addr := range r.Coins {
		addrs = append(addrs, addr)
	}
	slices.Sort(addrs)
	return addrs
}

func (r PriceReport) String() string {
	var sb strings.Builder
	for _, addr := range r.Addresses() {
		fmt.Fprintf(&sb, "\nContract Address: %s\n%s", addr, r.Coins[addr])
	}
	return sb.String()
}
