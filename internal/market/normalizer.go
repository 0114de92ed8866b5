package market

import (
	"time"

	"github.com/gvakproject/SteamAnaliticWorker/internal/types"
)

// Normalize converts one side's cumulative histogram into discrete order
// records. Each level's quantity becomes the delta against the previous
// cumulative value (the first level's delta is its cumulative value);
// levels whose delta is not positive are dropped, never stored as zero.
//
// If the source's reported side total diverges from the sum of on-curve
// deltas, one synthetic zero-price record carrying the reported total is
// appended so consumers can reconcile total depth against the curve. The
// zero price marks it as synthetic, not a real level.
func Normalize(itemID uint, side types.Side, levels []Level, reportedTotal int64, collectedAt time.Time) []types.OrderRecord {
	records := make([]types.OrderRecord, 0, len(levels))

	var prev, curveTotal int64
	for _, lvl := range levels {
		delta := lvl.CumulativeQuantity - prev
		prev = lvl.CumulativeQuantity
		if delta <= 0 {
			continue
		}
		curveTotal += delta
		records = append(records, types.OrderRecord{
			ItemID:      itemID,
			Side:        side,
			PriceCents:  lvl.PriceCents,
			Quantity:    delta,
			CollectedAt: collectedAt,
		})
	}

	if reportedTotal > 0 && reportedTotal != curveTotal {
		records = append(records, types.OrderRecord{
			ItemID:      itemID,
			Side:        side,
			PriceCents:  0,
			Quantity:    reportedTotal,
			CollectedAt: collectedAt,
		})
	}

	return records
}

// NormalizeSide picks the requested side out of a parsed histogram and
// normalizes it. A nil histogram or a side with no parsed levels yields an
// empty slice, never an error.
func NormalizeSide(itemID uint, side types.Side, h *Histogram, collectedAt time.Time) []types.OrderRecord {
	if h == nil {
		return nil
	}
	switch side {
	case types.SideBuy:
		return Normalize(itemID, side, h.BuyLevels, h.BuyOrderCount, collectedAt)
	case types.SideSell:
		return Normalize(itemID, side, h.SellLevels, h.SellOrderCount, collectedAt)
	default:
		return nil
	}
}
