package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gvakproject/SteamAnaliticWorker/internal/types"
	"github.com/gvakproject/SteamAnaliticWorker/pkg/clock"
)

const (
	// DefaultPace is the pause between items within a run, to avoid
	// hammering the market endpoint into rate limiting.
	DefaultPace = time.Second

	// DefaultRunCeiling bounds an on-demand run. The trigger call itself
	// never waits for the run.
	DefaultRunCeiling = 5 * time.Minute
)

// Store is the persistence surface the orchestrator writes through.
type Store interface {
	ListItems() ([]types.Item, error)
	PersistOrders(side types.Side, records []types.OrderRecord) error
	TouchItem(itemID uint) error
}

// Fetcher retrieves normalized records for one item and side.
type Fetcher interface {
	FetchOrders(ctx context.Context, item types.Item, side types.Side, collectedAt time.Time) ([]types.OrderRecord, error)
}

// Orchestrator drives a collection cycle: sequentially per item, buy side
// then sell side, with pacing between items. Per-item failures are logged
// and isolated; only cancellation aborts a run.
type Orchestrator struct {
	store   Store
	fetcher Fetcher
	clock   clock.Clock
	logger  zerolog.Logger

	pace       time.Duration
	runCeiling time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPace sets the inter-item delay.
func WithPace(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.pace = d
	}
}

// WithRunCeiling sets the on-demand run duration ceiling.
func WithRunCeiling(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.runCeiling = d
	}
}

// New creates an Orchestrator.
func New(store Store, fetcher Fetcher, clk clock.Clock, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:      store,
		fetcher:    fetcher,
		clock:      clk,
		logger:     log.With().Str("component", "collector").Logger(),
		pace:       DefaultPace,
		runCeiling: DefaultRunCeiling,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// CollectAll runs one full collection cycle over all tracked items. An
// empty item list completes immediately as a no-op. The run finishes when
// every item has been attempted; a fired cancellation signal aborts the
// remaining items and is returned to the caller, unlike per-item failures
// which are swallowed after logging.
func (o *Orchestrator) CollectAll(ctx context.Context) error {
	items, err := o.store.ListItems()
	if err != nil {
		return fmt.Errorf("load tracked items: %w", err)
	}
	if len(items) == 0 {
		o.logger.Info().Msg("no tracked items, nothing to collect")
		return nil
	}

	start := o.clock.Now()
	attempted := 0
	failed := 0

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}

		attempted++
		if err := o.collectItem(ctx, item); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			o.logger.Error().Err(err).
				Uint("item_id", item.ID).
				Str("item", item.Name).
				Msg("item collection failed, continuing with next item")
		}

		if i < len(items)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(o.pace):
			}
		}
	}

	o.logger.Info().
		Int("items", attempted).
		Int("failed", failed).
		Dur("duration", o.clock.Now().Sub(start)).
		Msg("collection run complete")
	return nil
}

// collectItem fetches and persists both sides for one item. Non-empty
// batches only: an empty side writes nothing. The item's last-updated
// stamp moves only when at least one side persisted.
func (o *Orchestrator) collectItem(ctx context.Context, item types.Item) error {
	collectedAt := o.clock.Now().UTC()
	persisted := false

	for _, side := range []types.Side{types.SideBuy, types.SideSell} {
		records, err := o.fetcher.FetchOrders(ctx, item, side, collectedAt)
		if err != nil {
			return fmt.Errorf("fetch %s orders: %w", side, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := o.store.PersistOrders(side, records); err != nil {
			return fmt.Errorf("persist %s orders: %w", side, err)
		}
		persisted = true
	}

	if persisted {
		if err := o.store.TouchItem(item.ID); err != nil {
			o.logger.Warn().Err(err).Uint("item_id", item.ID).Msg("failed to update item timestamp")
		}
	}
	return nil
}

// TriggerAsync starts a collection run detached from the caller, bounded
// by the run ceiling. It returns the run id immediately; the run's outcome
// is observable only through logs and subsequent queries. Concurrent runs
// are not mutually excluded: the hour-window write policy makes concurrent
// writers for the same item/side/window converge on last-write-wins.
func (o *Orchestrator) TriggerAsync() string {
	runID := uuid.New().String()
	logger := o.logger.With().Str("run_id", runID).Logger()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.runCeiling)
		defer cancel()

		logger.Info().Msg("on-demand collection run started")
		err := o.CollectAll(ctx)
		switch {
		case err == nil:
			logger.Info().Msg("on-demand collection run complete")
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			logger.Warn().Err(err).Msg("on-demand collection run cancelled")
		default:
			logger.Error().Err(err).Msg("on-demand collection run failed")
		}
	}()

	return runID
}
