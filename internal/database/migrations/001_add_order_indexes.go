package migrations

import (
	"gorm.io/gorm"
)

// AddOrderIndexes creates the composite indexes the write and read paths
// depend on: the dedup-window delete and all range reads filter on
// (item_id, collected_at).
func AddOrderIndexes(db *gorm.DB) error {
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_buy_orders_item_collected
		 ON buy_orders(item_id, collected_at)`,

		`CREATE INDEX IF NOT EXISTS idx_sell_orders_item_collected
		 ON sell_orders(item_id, collected_at)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
