package pricesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rickgao/price-relay/internal/wire"
)

// ErrEmptyReport is returned when the oracle knows nothing about the address.
var ErrEmptyReport = errors.New("price source returned no coins")

// GetPrice fetches the current price report for a contract address.
func (c *Client) GetPrice(ctx context.Context, address string) (wire.PriceReport, error) {
	fullURL := c.baseURL + address
	c.logger.Debug("fetching token price", "url", fullURL)

	body, err := c.doWithRetry(ctx, fullURL)
	if err != nil {
		return wire.PriceReport{}, err
	}

	var report wire.PriceReport
	if err := json.Unmarshal(body, &report); err != nil {
		return wire.PriceReport{}, fmt.Errorf("unmarshal response: %w", err)
	}
	if len(report.Coins) == 0 {
		return wire.PriceReport{}, ErrEmptyReport
	}

	return report, nil
}
