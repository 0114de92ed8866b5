package orders

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/gvakproject/SteamAnaliticWorker/internal/types"
	"github.com/gvakproject/SteamAnaliticWorker/pkg/clock"
	"github.com/gvakproject/SteamAnaliticWorker/pkg/response"
)

const (
	defaultOrderLimit   = 100
	defaultLookbackDays = 7
)

// Service exposes the read and item-management API over the order store.
type Service struct {
	db *Database
}

// NewService creates an orders service backed by the given database.
func NewService(gormDB *gorm.DB, clk clock.Clock, opts ...DatabaseOption) *Service {
	return &Service{
		db: NewDatabase(gormDB, clk, opts...),
	}
}

// GetDB exposes the underlying store for wiring the collector.
func (s *Service) GetDB() *Database {
	return s.db
}

// GetSummary returns the store-wide roll-up.
func (s *Service) GetSummary() (*types.Summary, error) {
	return s.db.Summary()
}

// GetItems lists all tracked items.
func (s *Service) GetItems() ([]types.Item, error) {
	return s.db.ListItems()
}

// AddItem registers an item for collection, or updates the display name if
// the listing id is already tracked.
func (s *Service) AddItem(name, marketNameID string) (*types.Item, error) {
	return s.db.UpsertItem(marketNameID, name)
}

// GetItemOrders returns the latest stored records for one side of an item.
func (s *Service) GetItemOrders(itemID uint, side types.Side, limit int) ([]types.OrderRecord, error) {
	return s.db.LatestOrders(itemID, side, limit)
}

// GetItemAnalytics returns the per-item roll-up across both sides.
func (s *Service) GetItemAnalytics(itemID uint) (*types.ItemAnalytics, error) {
	item, err := s.db.GetItem(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, gorm.ErrRecordNotFound
	}

	buy, err := s.db.SideAnalytics(itemID, types.SideBuy)
	if err != nil {
		return nil, err
	}
	sell, err := s.db.SideAnalytics(itemID, types.SideSell)
	if err != nil {
		return nil, err
	}

	return &types.ItemAnalytics{Item: *item, Buy: *buy, Sell: *sell}, nil
}

// GetItemTimeSeries returns bucketed aggregates for one side of an item.
func (s *Service) GetItemTimeSeries(itemID uint, side types.Side, granularity types.Granularity, lookbackDays int) []types.AggregatedBucket {
	return s.db.TimeSeries(itemID, side, granularity, lookbackDays)
}

// GetItemPriceHistory returns raw price points for one side of an item.
func (s *Service) GetItemPriceHistory(itemID uint, side types.Side, lookbackDays int) []types.PricePoint {
	return s.db.PriceHistory(itemID, side, lookbackDays)
}

// GinHandlers contains HTTP handlers for the query and item endpoints.
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates the HTTP handler set for the orders service.
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{service: service}
}

// GetSummaryHandler handles GET requests for the store-wide summary.
func (h *GinHandlers) GetSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := h.service.GetSummary()
		response.Handle(c, summary, err)
	}
}

// GetItemsHandler handles GET requests listing tracked items.
func (h *GinHandlers) GetItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := h.service.GetItems()
		response.Handle(c, items, err)
	}
}

// addItemRequest is the body for item registration.
type addItemRequest struct {
	Name         string `json:"name" binding:"required"`
	MarketNameID string `json:"market_name_id" binding:"required"`
}

// AddItemHandler handles POST requests registering a tracked item.
func (h *GinHandlers) AddItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req addItemRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		item, err := h.service.AddItem(req.Name, req.MarketNameID)
		response.Handle(c, item, err)
	}
}

// GetItemOrdersHandler handles GET requests for an item's latest records.
// Without a side parameter both sides are returned, keyed by side.
func (h *GinHandlers) GetItemOrdersHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := itemIDParam(c)
		if !ok {
			return
		}
		limit := intQuery(c, "limit", defaultOrderLimit)

		if raw, present := c.GetQuery("side"); present {
			side, err := types.ParseSide(raw)
			if err != nil {
				response.BadRequest(c, err.Error())
				return
			}
			records, err := h.service.GetItemOrders(itemID, side, limit)
			response.Handle(c, records, err)
			return
		}

		buy, err := h.service.GetItemOrders(itemID, types.SideBuy, limit)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		sell, err := h.service.GetItemOrders(itemID, types.SideSell, limit)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, gin.H{"buy": buy, "sell": sell})
	}
}

// GetItemAnalyticsHandler handles GET requests for an item's roll-up.
func (h *GinHandlers) GetItemAnalyticsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := itemIDParam(c)
		if !ok {
			return
		}
		analytics, err := h.service.GetItemAnalytics(itemID)
		response.Handle(c, analytics, err)
	}
}

// GetItemTimeSeriesHandler handles GET requests for bucketed series.
func (h *GinHandlers) GetItemTimeSeriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := itemIDParam(c)
		if !ok {
			return
		}
		side, ok := sideQuery(c, types.SideSell)
		if !ok {
			return
		}
		granularity := types.Granularity(c.DefaultQuery("granularity", string(types.GranularityHour)))
		lookback := intQuery(c, "lookback_days", defaultLookbackDays)

		buckets := h.service.GetItemTimeSeries(itemID, side, granularity, lookback)
		response.Success(c, buckets)
	}
}

// GetItemPriceHistoryHandler handles GET requests for raw price history.
func (h *GinHandlers) GetItemPriceHistoryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		itemID, ok := itemIDParam(c)
		if !ok {
			return
		}
		side, ok := sideQuery(c, types.SideSell)
		if !ok {
			return
		}
		lookback := intQuery(c, "lookback_days", defaultLookbackDays)

		points := h.service.GetItemPriceHistory(itemID, side, lookback)
		response.Success(c, points)
	}
}

// itemIDParam parses the item_id path parameter, writing a 400 on failure.
func itemIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("item_id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid item id")
		return 0, false
	}
	return uint(id), true
}

// sideQuery parses the optional side query parameter, falling back to the
// given default. A malformed value writes a 400.
func sideQuery(c *gin.Context, fallback types.Side) (types.Side, bool) {
	raw, present := c.GetQuery("side")
	if !present {
		return fallback, true
	}
	side, err := types.ParseSide(raw)
	if err != nil {
		response.BadRequest(c, err.Error())
		return "", false
	}
	return side, true
}

// intQuery parses a positive integer query parameter with a default.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw, present := c.GetQuery(name)
	if !present {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
