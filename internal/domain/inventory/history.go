package inventory

import (
	"slices"

	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/shopspring/decimal"
)

// History расход по закупке по возрастанию даты (при равных датах — порядок журнала)
// с накопленным расходом и остатком после каждой записи.
func History(p purchases.Purchase, us []usage.Record) []HistoryEntry {
	entries := []HistoryEntry{}
	for i, u := range us {
		if u.MaterialID == p.ID {
			entries = append(entries, HistoryEntry{Record: u, UsageIndex: i})
		}
	}
	slices.SortStableFunc(entries, func(a, b HistoryEntry) int {
		return a.UsageDate.Compare(b.UsageDate)
	})

	cumulative := decimal.Zero
	for i := range entries {
		cumulative = cumulative.Add(entries[i].UsedQuantity)
		entries[i].CumulativeUsed = cumulative
		entries[i].RemainingAfter = p.Quantity.Sub(cumulative)
	}
	return entries
}

// LatestFirst порядок для показа: префиксные суммы считаются по возрастанию,
// а выдаются от последней записи к первой.
func LatestFirst(entries []HistoryEntry) []HistoryEntry {
	out := slices.Clone(entries)
	slices.Reverse(out)
	return out
}
