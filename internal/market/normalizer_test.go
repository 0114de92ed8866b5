package market

import (
	"testing"
	"time"

	"github.com/gvakproject/SteamAnaliticWorker/internal/types"
)

var normalizeAt = time.Date(2026, 8, 29, 10, 15, 0, 0, time.UTC)

func TestNormalizeDeltas(t *testing.T) {
	// Cumulative depth 5, 12, 12, 20 → deltas 5, 7, 0 (dropped), 8.
	levels := []Level{
		{PriceCents: 1000, CumulativeQuantity: 5},
		{PriceCents: 900, CumulativeQuantity: 12},
		{PriceCents: 800, CumulativeQuantity: 12},
		{PriceCents: 700, CumulativeQuantity: 20},
	}

	records := Normalize(7, types.SideBuy, levels, 20, normalizeAt)

	want := []struct {
		price int64
		qty   int64
	}{
		{1000, 5},
		{900, 7},
		{700, 8},
	}

	if len(records) != len(want) {
		t.Fatalf("got %d records, want %d", len(records), len(want))
	}
	for i, w := range want {
		r := records[i]
		if r.PriceCents != w.price || r.Quantity != w.qty {
			t.Errorf("record %d: got (%d, %d), want (%d, %d)", i, r.PriceCents, r.Quantity, w.price, w.qty)
		}
		if r.ItemID != 7 || r.Side != types.SideBuy || !r.CollectedAt.Equal(normalizeAt) {
			t.Errorf("record %d: wrong item/side/timestamp: %+v", i, r)
		}
	}
}

func TestNormalizeDecreasingCumulativeDropped(t *testing.T) {
	levels := []Level{
		{PriceCents: 1000, CumulativeQuantity: 10},
		{PriceCents: 900, CumulativeQuantity: 4}, // negative delta, dropped
		{PriceCents: 800, CumulativeQuantity: 9}, // back above previous cumulative
	}

	records := Normalize(1, types.SideSell, levels, 0, normalizeAt)

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Quantity != 10 || records[1].Quantity != 5 {
		t.Errorf("got quantities %d, %d, want 10, 5", records[0].Quantity, records[1].Quantity)
	}
}

func TestNormalizeSyntheticAggregateRecord(t *testing.T) {
	levels := []Level{
		{PriceCents: 1000, CumulativeQuantity: 5},
		{PriceCents: 900, CumulativeQuantity: 12},
	}

	// Reported side total diverges from the curve sum of 12.
	records := Normalize(3, types.SideBuy, levels, 40, normalizeAt)

	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	synthetic := records[2]
	if synthetic.PriceCents != 0 {
		t.Errorf("synthetic record price = %d, want 0", synthetic.PriceCents)
	}
	if synthetic.Quantity != 40 {
		t.Errorf("synthetic record quantity = %d, want 40", synthetic.Quantity)
	}
	if synthetic.Side != types.SideBuy {
		t.Errorf("synthetic record side = %q, want buy", synthetic.Side)
	}
}

func TestNormalizeNoSyntheticWhenTotalsMatch(t *testing.T) {
	levels := []Level{
		{PriceCents: 500, CumulativeQuantity: 3},
		{PriceCents: 400, CumulativeQuantity: 10},
	}

	records := Normalize(3, types.SideSell, levels, 10, normalizeAt)

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	for _, r := range records {
		if r.PriceCents == 0 {
			t.Errorf("unexpected synthetic record: %+v", r)
		}
	}
}

func TestNormalizeEmptyLevels(t *testing.T) {
	if got := Normalize(1, types.SideBuy, nil, 0, normalizeAt); len(got) != 0 {
		t.Errorf("nil levels: got %d records, want 0", len(got))
	}
	if got := Normalize(1, types.SideBuy, []Level{}, 0, normalizeAt); len(got) != 0 {
		t.Errorf("empty levels: got %d records, want 0", len(got))
	}
}

func TestNormalizeSide(t *testing.T) {
	h := &Histogram{
		BuyLevels:      []Level{{PriceCents: 100, CumulativeQuantity: 2}},
		BuyOrderCount:  2,
		SellOrderCount: 0,
	}

	tests := []struct {
		name string
		side types.Side
		h    *Histogram
		want int
	}{
		{"buy side present", types.SideBuy, h, 1},
		{"sell side missing", types.SideSell, h, 0},
		{"nil histogram", types.SideBuy, nil, 0},
		{"unknown side", types.Side("hold"), h, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeSide(1, tt.side, tt.h, normalizeAt)
			if len(got) != tt.want {
				t.Errorf("got %d records, want %d", len(got), tt.want)
			}
		})
	}
}
