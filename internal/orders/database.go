package orders

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gvakproject/SteamAnaliticWorker/internal/types"
	"github.com/gvakproject/SteamAnaliticWorker/pkg/clock"
)

// DefaultRetention is how long order records are kept. Every write cycle
// sweeps records older than this for the side being written.
const DefaultRetention = 30 * 24 * time.Hour

// Database is the durable order store. Writes dedup by the current UTC
// hour window and enforce retention; series/history reads are best-effort
// and degrade to empty results, while item/summary/latest/write paths
// propagate storage failures.
type Database struct {
	db        *gorm.DB
	clock     clock.Clock
	retention time.Duration
	logger    zerolog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*Database)

// WithRetention overrides the retention horizon.
func WithRetention(d time.Duration) DatabaseOption {
	return func(db *Database) {
		if d > 0 {
			db.retention = d
		}
	}
}

func NewDatabase(db *gorm.DB, clk clock.Clock, opts ...DatabaseOption) *Database {
	d := &Database{
		db:        db,
		clock:     clk,
		retention: DefaultRetention,
		logger:    log.With().Str("component", "order_store").Logger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// UpsertItem creates a tracked item or, if the listing id is already
// known, updates its display name in place. It never creates a duplicate:
// the external id carries a unique constraint.
func (d *Database) UpsertItem(marketNameID, name string) (*types.Item, error) {
	now := d.clock.Now().UTC()
	var item types.Item
	err := d.db.Where("market_name_id = ?", marketNameID).First(&item).Error
	switch {
	case err == nil:
		item.Name = name
		item.LastUpdated = now
		if err := d.db.Save(&item).Error; err != nil {
			return nil, err
		}
		return &item, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = types.Item{Name: name, MarketNameID: marketNameID, LastUpdated: now}
		if err := d.db.Create(&item).Error; err != nil {
			return nil, err
		}
		return &item, nil
	default:
		return nil, err
	}
}

// GetItem retrieves an item by surrogate id. Returns nil when not found.
func (d *Database) GetItem(itemID uint) (*types.Item, error) {
	var item types.Item
	if err := d.db.First(&item, itemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

// ListItems returns all tracked items.
func (d *Database) ListItems() ([]types.Item, error) {
	var items []types.Item
	if err := d.db.Order("id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// TouchItem records a successful collection instant on the item.
func (d *Database) TouchItem(itemID uint) error {
	return d.db.Model(&types.Item{}).
		Where("id = ?", itemID).
		Update("last_updated", d.clock.Now().UTC()).Error
}

// PersistOrders stores one side's batch. All records in a call belong to
// the given side. In a single transaction it deletes any records for the
// same items and side inside the current UTC hour window, sweeps records
// older than the retention horizon for that side regardless of item, then
// inserts the batch. A failure at any step leaves prior state unchanged.
func (d *Database) PersistOrders(side types.Side, records []types.OrderRecord) error {
	if len(records) == 0 {
		return nil
	}

	now := d.clock.Now().UTC()
	windowStart := now.Truncate(time.Hour)
	windowEnd := windowStart.Add(time.Hour)
	cutoff := now.Add(-d.retention)

	seen := make(map[uint]struct{})
	itemIDs := make([]uint, 0, 1)
	for _, r := range records {
		if _, ok := seen[r.ItemID]; !ok {
			seen[r.ItemID] = struct{}{}
			itemIDs = append(itemIDs, r.ItemID)
		}
	}

	switch side {
	case types.SideBuy:
		return d.db.Transaction(func(tx *gorm.DB) error {
			rows := make([]types.BuyOrder, 0, len(records))
			for _, r := range records {
				if r.Quantity <= 0 {
					continue
				}
				rows = append(rows, types.BuyOrder{
					ItemID:      r.ItemID,
					PriceCents:  r.PriceCents,
					Quantity:    r.Quantity,
					CollectedAt: r.CollectedAt,
				})
			}
			return persistRows(tx, itemIDs, windowStart, windowEnd, cutoff, rows)
		})
	case types.SideSell:
		return d.db.Transaction(func(tx *gorm.DB) error {
			rows := make([]types.SellOrder, 0, len(records))
			for _, r := range records {
				if r.Quantity <= 0 {
					continue
				}
				rows = append(rows, types.SellOrder{
					ItemID:      r.ItemID,
					PriceCents:  r.PriceCents,
					Quantity:    r.Quantity,
					CollectedAt: r.CollectedAt,
				})
			}
			return persistRows(tx, itemIDs, windowStart, windowEnd, cutoff, rows)
		})
	default:
		return fmt.Errorf("persist orders: unknown side %q", side)
	}
}

// persistRows runs the delete-window, retention-sweep and insert steps for
// one side's table inside the caller's transaction.
func persistRows[T any](tx *gorm.DB, itemIDs []uint, windowStart, windowEnd, cutoff time.Time, rows []T) error {
	var model T
	if err := tx.
		Where("item_id IN ? AND collected_at >= ? AND collected_at < ?", itemIDs, windowStart, windowEnd).
		Delete(&model).Error; err != nil {
		return fmt.Errorf("delete dedup window: %w", err)
	}
	if err := tx.Where("collected_at < ?", cutoff).Delete(&model).Error; err != nil {
		return fmt.Errorf("retention sweep: %w", err)
	}
	if len(rows) == 0 {
		return nil
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("insert batch: %w", err)
	}
	return nil
}

// LatestOrders returns the most recent records for an item and side,
// newest first, ties broken by insertion order.
func (d *Database) LatestOrders(itemID uint, side types.Side, limit int) ([]types.OrderRecord, error) {
	switch side {
	case types.SideBuy:
		var rows []types.BuyOrder
		err := d.db.Where("item_id = ?", itemID).
			Order("collected_at DESC, id ASC").
			Limit(limit).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		out := make([]types.OrderRecord, len(rows))
		for i, r := range rows {
			out[i] = types.OrderRecord{ItemID: r.ItemID, Side: side, PriceCents: r.PriceCents, Quantity: r.Quantity, CollectedAt: r.CollectedAt}
		}
		return out, nil
	case types.SideSell:
		var rows []types.SellOrder
		err := d.db.Where("item_id = ?", itemID).
			Order("collected_at DESC, id ASC").
			Limit(limit).
			Find(&rows).Error
		if err != nil {
			return nil, err
		}
		out := make([]types.OrderRecord, len(rows))
		for i, r := range rows {
			out[i] = types.OrderRecord{ItemID: r.ItemID, Side: side, PriceCents: r.PriceCents, Quantity: r.Quantity, CollectedAt: r.CollectedAt}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("latest orders: unknown side %q", side)
	}
}

// Summary returns store-wide counts and the most recent item update.
func (d *Database) Summary() (*types.Summary, error) {
	var s types.Summary
	if err := d.db.Model(&types.Item{}).Count(&s.ItemCount).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&types.BuyOrder{}).Count(&s.BuyOrderCount).Error; err != nil {
		return nil, err
	}
	if err := d.db.Model(&types.SellOrder{}).Count(&s.SellOrderCount).Error; err != nil {
		return nil, err
	}

	var newest types.Item
	err := d.db.Order("last_updated DESC").First(&newest).Error
	switch {
	case err == nil:
		s.LastUpdated = newest.LastUpdated.UTC()
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No items yet; zero timestamp.
	default:
		return nil, err
	}
	return &s, nil
}

// rawPoint is the projection loaded for series and history reads.
type rawPoint struct {
	PriceCents  int64
	Quantity    int64
	CollectedAt time.Time
}

// pointsSince loads one side's records for an item since the cutoff,
// ascending by collection time with insertion order as tie-break.
func (d *Database) pointsSince(itemID uint, side types.Side, since time.Time) ([]rawPoint, error) {
	var points []rawPoint
	var err error
	switch side {
	case types.SideBuy:
		err = d.db.Model(&types.BuyOrder{}).
			Select("price_cents, quantity, collected_at").
			Where("item_id = ? AND collected_at >= ?", itemID, since).
			Order("collected_at ASC, id ASC").
			Scan(&points).Error
	case types.SideSell:
		err = d.db.Model(&types.SellOrder{}).
			Select("price_cents, quantity, collected_at").
			Where("item_id = ? AND collected_at >= ?", itemID, since).
			Order("collected_at ASC, id ASC").
			Scan(&points).Error
	default:
		return nil, fmt.Errorf("unknown side %q", side)
	}
	if err != nil {
		return nil, err
	}
	return points, nil
}

// TimeSeries groups an item's records into hour or day buckets over the
// lookback period. Buckets appear in order of their first record; empty
// buckets are not emitted. Storage failures degrade to an empty series:
// aggregate reads are best-effort, unlike the core persistence paths.
func (d *Database) TimeSeries(itemID uint, side types.Side, granularity types.Granularity, lookbackDays int) []types.AggregatedBucket {
	since := d.clock.Now().UTC().AddDate(0, 0, -lookbackDays)
	points, err := d.pointsSince(itemID, side, since)
	if err != nil {
		d.logger.Error().Err(err).
			Uint("item_id", itemID).
			Str("side", side.String()).
			Msg("time series query failed, returning empty result")
		return []types.AggregatedBucket{}
	}

	truncate := bucketTruncator(granularity)

	index := make(map[time.Time]int)
	buckets := make([]types.AggregatedBucket, 0)
	sums := make([]int64, 0)

	for _, p := range points {
		start := truncate(p.CollectedAt.UTC())
		i, ok := index[start]
		if !ok {
			i = len(buckets)
			index[start] = i
			buckets = append(buckets, types.AggregatedBucket{
				BucketStart:   start,
				MinPriceCents: p.PriceCents,
				MaxPriceCents: p.PriceCents,
			})
			sums = append(sums, 0)
		}
		b := &buckets[i]
		if p.PriceCents < b.MinPriceCents {
			b.MinPriceCents = p.PriceCents
		}
		if p.PriceCents > b.MaxPriceCents {
			b.MaxPriceCents = p.PriceCents
		}
		b.TotalQuantity += p.Quantity
		b.Count++
		sums[i] += p.PriceCents
	}

	for i := range buckets {
		buckets[i].AvgPriceCents = float64(sums[i]) / float64(buckets[i].Count)
	}
	return buckets
}

// bucketTruncator maps a granularity to its boundary function. Unknown
// granularities bucket hourly.
func bucketTruncator(g types.Granularity) func(time.Time) time.Time {
	switch g {
	case types.GranularityDay:
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		}
	default:
		return func(t time.Time) time.Time {
			return t.Truncate(time.Hour)
		}
	}
}

// PriceHistory returns raw (price, quantity, instant) tuples for an item
// and side over the lookback period, ascending by collection time. Like
// TimeSeries, it degrades to an empty result on storage failure.
func (d *Database) PriceHistory(itemID uint, side types.Side, lookbackDays int) []types.PricePoint {
	since := d.clock.Now().UTC().AddDate(0, 0, -lookbackDays)
	points, err := d.pointsSince(itemID, side, since)
	if err != nil {
		d.logger.Error().Err(err).
			Uint("item_id", itemID).
			Str("side", side.String()).
			Msg("price history query failed, returning empty result")
		return []types.PricePoint{}
	}

	out := make([]types.PricePoint, len(points))
	for i, p := range points {
		out[i] = types.PricePoint{PriceCents: p.PriceCents, Quantity: p.Quantity, CollectedAt: p.CollectedAt}
	}
	return out
}

// SideAnalytics summarizes one side of an item. Best price is taken over
// the most recent collection instant, excluding synthetic zero-price
// aggregate records; for buys the best price is the highest bid, for sells
// the lowest ask.
func (d *Database) SideAnalytics(itemID uint, side types.Side) (*types.SideAnalytics, error) {
	var a types.SideAnalytics
	var model any
	var best string

	switch side {
	case types.SideBuy:
		model = &types.BuyOrder{}
		best = "MAX(price_cents)"
	case types.SideSell:
		model = &types.SellOrder{}
		best = "MIN(price_cents)"
	default:
		return nil, fmt.Errorf("side analytics: unknown side %q", side)
	}

	if err := d.db.Model(model).Where("item_id = ?", itemID).Count(&a.RecordCount).Error; err != nil {
		return nil, err
	}

	newest, err := d.LatestOrders(itemID, side, 1)
	if err != nil {
		return nil, err
	}
	if len(newest) == 0 {
		return &a, nil
	}
	last := newest[0].CollectedAt
	a.LastCollected = last.UTC()

	var bestPrice sql.NullInt64
	row := d.db.Model(model).Select(best).
		Where("item_id = ? AND collected_at = ? AND price_cents > 0", itemID, last).Row()
	if err := row.Scan(&bestPrice); err != nil {
		return nil, err
	}
	if bestPrice.Valid {
		a.BestPriceCents = bestPrice.Int64
	}

	var total sql.NullInt64
	row = d.db.Model(model).Select("SUM(quantity)").
		Where("item_id = ? AND collected_at = ?", itemID, last).Row()
	if err := row.Scan(&total); err != nil {
		return nil, err
	}
	if total.Valid {
		a.TotalQuantity = total.Int64
	}

	return &a, nil
}
