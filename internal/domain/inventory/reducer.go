package inventory

import (
	"strings"

	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ComputeRemaining полный пересчёт остатков: для каждой закупки в порядке журнала
// суммируется расход с её id. Без кэша, O(закупки × расход).
func ComputeRemaining(ps []purchases.Purchase, us []usage.Record) []Row {
	rows := make([]Row, 0, len(ps))
	for i, p := range ps {
		p.ID = i
		used := decimal.Zero
		for _, u := range us {
			if u.MaterialID == i {
				used = used.Add(u.UsedQuantity)
			}
		}
		rows = append(rows, newRow(p, used))
	}
	return rows
}

func newRow(p purchases.Purchase, used decimal.Decimal) Row {
	original := p.Quantity
	remaining := original.Sub(used)

	var usedPct, remainingPct float64
	if original.IsPositive() {
		usedPct = percent(used, original)
		remainingPct = percent(remaining, original)
	}

	status := StatusAvailable
	if !remaining.IsPositive() {
		status = StatusDepleted
	}

	return Row{
		Purchase:            p,
		MaterialID:          p.ID,
		OriginalQuantity:    original,
		UsedQuantity:        used,
		RemainingQuantity:   remaining,
		UsagePercentage:     usedPct,
		RemainingPercentage: remainingPct,
		RemainingValue:      remaining.Mul(p.UnitCost),
		Status:              status,
	}
}

func percent(part, whole decimal.Decimal) float64 {
	return part.Div(whole).Mul(hundred).Round(2).InexactFloat64()
}

// FilterRows фильтр по объекту, материалу и статусу (всё без учёта регистра).
func FilterRows(rows []Row, f RowFilter) []Row {
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Site != "" && !containsFold(r.SiteName, f.Site) {
			continue
		}
		if f.Material != "" && !containsFold(r.MaterialName, f.Material) && !containsFold(r.MaterialType, f.Material) {
			continue
		}
		if f.Status != "" && !strings.EqualFold(string(r.Status), f.Status) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Summarize итоги по строкам остатков.
func Summarize(rows []Row) Summary {
	s := Summary{Items: len(rows), TotalRemainingValue: decimal.Zero}
	for _, r := range rows {
		switch r.Status {
		case StatusAvailable:
			s.Available++
		case StatusDepleted:
			s.Depleted++
		}
		s.TotalRemainingValue = s.TotalRemainingValue.Add(r.RemainingValue)
	}
	return s
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
