package market

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gvakproject/SteamAnaliticWorker/internal/types"
)

// Fetcher retrieves and normalizes one item/side's order snapshot. It owns
// the fetch-parse-normalize pipeline: network and retry policy live in the
// Client, payload-shape assumptions in ParseHistogram, and the cumulative
// to discrete conversion in Normalize.
type Fetcher struct {
	client *Client
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher over the given client.
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{
		client: client,
		logger: log.With().Str("component", "market_fetcher").Logger(),
	}
}

// FetchOrders fetches the histogram for an item and returns the normalized
// records for one side, stamped with collectedAt. Fetch failures propagate;
// a payload that fetched fine but does not parse is treated as "no orders
// for this call" and logged, never raised.
func (f *Fetcher) FetchOrders(ctx context.Context, item types.Item, side types.Side, collectedAt time.Time) ([]types.OrderRecord, error) {
	raw, err := f.client.FetchHistogram(ctx, item.MarketNameID)
	if err != nil {
		return nil, err
	}

	histogram, err := ParseHistogram(raw)
	if err != nil {
		f.logger.Warn().Err(err).
			Uint("item_id", item.ID).
			Str("market_name_id", item.MarketNameID).
			Msg("malformed histogram payload, treating as empty")
		return nil, nil
	}

	return NormalizeSide(item.ID, side, histogram, collectedAt), nil
}
