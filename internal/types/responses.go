package types

import "time"

// Summary is the store-wide roll-up returned by the summary endpoint.
type Summary struct {
	ItemCount      int64     `json:"item_count"`
	BuyOrderCount  int64     `json:"buy_order_count"`
	SellOrderCount int64     `json:"sell_order_count"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Granularity selects the bucket width for time-series queries. Unknown
// values fall back to hourly.
type Granularity string

const (
	GranularityHour Granularity = "hour"
	GranularityDay  Granularity = "day"
)

// AggregatedBucket is one time-bucketed roll-up of order records. Buckets
// are computed on read and never persisted; empty buckets are not emitted.
type AggregatedBucket struct {
	BucketStart   time.Time `json:"bucket_start"`
	AvgPriceCents float64   `json:"avg_price_cents"`
	MinPriceCents int64     `json:"min_price_cents"`
	MaxPriceCents int64     `json:"max_price_cents"`
	TotalQuantity int64     `json:"total_quantity"`
	Count         int64     `json:"count"`
}

// PricePoint is one raw (price, quantity, instant) observation, used by the
// unaggregated price-history endpoint.
type PricePoint struct {
	PriceCents  int64     `json:"price_cents"`
	Quantity    int64     `json:"quantity"`
	CollectedAt time.Time `json:"collected_at"`
}

// SideAnalytics summarizes one side of an item's stored history.
type SideAnalytics struct {
	RecordCount    int64     `json:"record_count"`
	BestPriceCents int64     `json:"best_price_cents"`
	TotalQuantity  int64     `json:"total_quantity"`
	LastCollected  time.Time `json:"last_collected"`
}

// ItemAnalytics is the per-item roll-up across both sides.
type ItemAnalytics struct {
	Item Item          `json:"item"`
	Buy  SideAnalytics `json:"buy"`
	Sell SideAnalytics `json:"sell"`
}

// CollectionStatus is returned by the on-demand collection trigger. The
// trigger never waits for the run: status is always "started" and the
// outcome is observable only through logs and subsequent queries.
type CollectionStatus struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}
