package types

import (
	"fmt"
	"time"
)

// Side identifies which half of the order book a record belongs to.
// It is a closed enumeration: code switching on Side must handle both
// values and reject anything else.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is one of the two known sides.
func (s Side) Valid() bool {
	switch s {
	case SideBuy, SideSell:
		return true
	}
	return false
}

func (s Side) String() string {
	return string(s)
}

// ParseSide converts a request parameter into a Side.
func ParseSide(v string) (Side, error) {
	switch Side(v) {
	case SideBuy:
		return SideBuy, nil
	case SideSell:
		return SideSell, nil
	}
	return "", fmt.Errorf("unknown side %q", v)
}

// Item is a tracked market instrument. MarketNameID is the Steam-side
// listing identifier (the item_nameid the histogram endpoint keys on) and
// is unique; items are created via upsert and never hard-deleted by the
// collector.
type Item struct {
	ID           uint      `gorm:"primaryKey" json:"item_id"`
	Name         string    `json:"name"`
	MarketNameID string    `gorm:"uniqueIndex;not null" json:"market_name_id"`
	LastUpdated  time.Time `json:"last_updated"`
	CreatedAt    time.Time `json:"-"`
	UpdatedAt    time.Time `json:"-"`
}

// BuyOrder is one observed buy-side order-book entry at one collection
// instant. Immutable once written; rows only ever leave via retention or
// dedup-window replacement. There is no soft-delete column: superseded and
// expired rows are removed physically, keeping the store bounded.
type BuyOrder struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	CreatedAt   time.Time `json:"-"`
	ItemID      uint      `gorm:"index;not null" json:"item_id"`
	Item        Item      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PriceCents  int64     `json:"price_cents"`
	Quantity    int64     `json:"quantity"`
	CollectedAt time.Time `gorm:"index" json:"collected_at"`
}

// SellOrder mirrors BuyOrder for the sell side. The two sides share shape
// but are stored, queried and retained independently.
type SellOrder struct {
	ID          uint      `gorm:"primaryKey" json:"-"`
	CreatedAt   time.Time `json:"-"`
	ItemID      uint      `gorm:"index;not null" json:"item_id"`
	Item        Item      `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	PriceCents  int64     `json:"price_cents"`
	Quantity    int64     `json:"quantity"`
	CollectedAt time.Time `gorm:"index" json:"collected_at"`
}

// OrderRecord is the side-neutral record produced by the normalizer before
// it is persisted into the side-specific table.
type OrderRecord struct {
	ItemID      uint      `json:"item_id"`
	Side        Side      `json:"side"`
	PriceCents  int64     `json:"price_cents"`
	Quantity    int64     `json:"quantity"`
	CollectedAt time.Time `json:"collected_at"`
}
