package market

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Level is one parsed histogram entry: the price level and the cumulative
// quantity available at-or-better-than that price. The external source
// reports depth cumulatively, not per level; the normalizer converts to
// discrete quantities.
type Level struct {
	PriceCents         int64
	CumulativeQuantity int64
}

// Histogram is the closed schema extracted from the itemordershistogram
// payload. All payload-shape assumptions live here: the rest of the system
// only ever sees this struct.
type Histogram struct {
	BuyLevels      []Level
	SellLevels     []Level
	BuyOrderCount  int64
	SellOrderCount int64
}

// flexCount decodes Steam's side totals, which arrive either as numbers or
// as comma-grouped strings ("1,234"). Anything unparseable decodes to zero.
type flexCount int64

func (f *flexCount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	s = strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexCount(n)
	return nil
}

type histogramPayload struct {
	Success        json.Number     `json:"success"`
	BuyOrderGraph  json.RawMessage `json:"buy_order_graph"`
	SellOrderGraph json.RawMessage `json:"sell_order_graph"`
	BuyOrderCount  flexCount       `json:"buy_order_count"`
	SellOrderCount flexCount       `json:"sell_order_count"`
}

// ParseHistogram decodes a raw itemordershistogram response. A malformed
// side graph yields an empty side rather than an error; only a payload that
// is not JSON at all fails.
func ParseHistogram(raw []byte) (*Histogram, error) {
	var p histogramPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}

	return &Histogram{
		BuyLevels:      parseLevels(p.BuyOrderGraph),
		SellLevels:     parseLevels(p.SellOrderGraph),
		BuyOrderCount:  int64(p.BuyOrderCount),
		SellOrderCount: int64(p.SellOrderCount),
	}, nil
}

// parseLevels decodes one side's graph. Entries are heterogeneous arrays
// [price, cumulativeQty, label]; any malformed entry discards the whole
// side, since a partial cumulative curve cannot be normalized safely.
func parseLevels(raw json.RawMessage) []Level {
	if len(raw) == 0 {
		return nil
	}

	var entries [][]json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil
	}

	levels := make([]Level, 0, len(entries))
	for _, entry := range entries {
		if len(entry) < 2 {
			return nil
		}
		var price, qty float64
		if err := json.Unmarshal(entry[0], &price); err != nil {
			return nil
		}
		if err := json.Unmarshal(entry[1], &qty); err != nil {
			return nil
		}
		if price < 0 {
			return nil
		}
		levels = append(levels, Level{
			PriceCents:         int64(math.Round(price * 100)),
			CumulativeQuantity: int64(qty),
		})
	}
	return levels
}
