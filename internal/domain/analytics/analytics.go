// Package analytics считает агрегаты для графиков и сводок. Рисованием не занимается.
package analytics

import (
	"cmp"
	"slices"

	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/shopspring/decimal"
)

const recentEntries = 5

type Point struct {
	Label string          `json:"label"`
	Value decimal.Decimal `json:"value"`
}

type TimePoint struct {
	Date       values.Date     `json:"date"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// Charts данные для четырёх графиков закупок и двух графиков остатков.
type Charts struct {
	CostBySite           []Point        `json:"cost_by_site"`
	CostOverTime         []TimePoint    `json:"cost_over_time"`
	CostByMaterialType   []Point        `json:"material_distribution"`
	MonthlySpending      []Point        `json:"monthly_spending"`
	StatusCounts         map[string]int `json:"status_counts"`
	RemainingValueBySite []Point        `json:"remaining_value_by_site"`
}

type Summary struct {
	TotalCost         decimal.Decimal `json:"total_cost"`
	AvgCostPerEntry   decimal.Decimal `json:"avg_cost_per_entry"`
	MostExpensiveSite string          `json:"most_expensive_site"`
	MostUsedMaterial  string          `json:"most_used_material"`
	DateRange         string          `json:"date_range"`
}

type Dashboard struct {
	TotalCost     decimal.Decimal      `json:"total_cost"`
	TotalEntries  int                  `json:"total_entries"`
	UniqueSites   int                  `json:"unique_sites"`
	RecentEntries []purchases.Purchase `json:"recent_entries"`
}

// BuildCharts собирает все агрегаты сразу.
func BuildCharts(ps []purchases.Purchase, rows []inventory.Row) Charts {
	return Charts{
		CostBySite:           CostBySite(ps),
		CostOverTime:         CostOverTime(ps),
		CostByMaterialType:   CostByMaterialType(ps),
		MonthlySpending:      MonthlySpending(ps),
		StatusCounts:         StatusCounts(rows),
		RemainingValueBySite: RemainingValueBySite(rows),
	}
}

// CostBySite сумма закупок по объекту, по убыванию суммы.
func CostBySite(ps []purchases.Purchase) []Point {
	points := groupSum(ps, func(p purchases.Purchase) string { return p.SiteName }, func(p purchases.Purchase) decimal.Decimal { return p.TotalCost })
	slices.SortStableFunc(points, func(a, b Point) int { return b.Value.Cmp(a.Value) })
	return points
}

// CostOverTime накопленная сумма закупок по дате.
func CostOverTime(ps []purchases.Purchase) []TimePoint {
	sorted := slices.Clone(ps)
	slices.SortStableFunc(sorted, func(a, b purchases.Purchase) int { return a.Date.Compare(b.Date) })

	out := make([]TimePoint, 0, len(sorted))
	running := decimal.Zero
	for _, p := range sorted {
		running = running.Add(p.TotalCost)
		out = append(out, TimePoint{Date: p.Date, Cumulative: running})
	}
	return out
}

// CostByMaterialType распределение затрат по типу материала.
func CostByMaterialType(ps []purchases.Purchase) []Point {
	return groupSum(ps, func(p purchases.Purchase) string { return p.MaterialType }, func(p purchases.Purchase) decimal.Decimal { return p.TotalCost })
}

// MonthlySpending затраты по месяцам ("2024-01"), по возрастанию.
func MonthlySpending(ps []purchases.Purchase) []Point {
	return groupSum(ps, func(p purchases.Purchase) string { return p.Date.MonthKey() }, func(p purchases.Purchase) decimal.Decimal { return p.TotalCost })
}

func StatusCounts(rows []inventory.Row) map[string]int {
	out := map[string]int{
		string(inventory.StatusAvailable): 0,
		string(inventory.StatusDepleted):  0,
	}
	for _, r := range rows {
		out[string(r.Status)]++
	}
	return out
}

// RemainingValueBySite стоимость остатков по объекту, по убыванию.
func RemainingValueBySite(rows []inventory.Row) []Point {
	sums := map[string]decimal.Decimal{}
	for _, r := range rows {
		sums[r.SiteName] = sums[r.SiteName].Add(r.RemainingValue)
	}
	points := sortedPoints(sums)
	slices.SortStableFunc(points, func(a, b Point) int { return b.Value.Cmp(a.Value) })
	return points
}

// Summarize сводка аналитики; ok=false для пустого журнала.
func Summarize(ps []purchases.Purchase) (Summary, bool) {
	if len(ps) == 0 {
		return Summary{}, false
	}
	total := purchases.SumTotal(ps)

	bySite := groupSum(ps, func(p purchases.Purchase) string { return p.SiteName }, func(p purchases.Purchase) decimal.Decimal { return p.TotalCost })
	top := bySite[0]
	for _, pt := range bySite[1:] {
		if pt.Value.GreaterThan(top.Value) {
			top = pt
		}
	}

	minDate, maxDate := ps[0].Date, ps[0].Date
	for _, p := range ps[1:] {
		if p.Date.Before(minDate.Time) {
			minDate = p.Date
		}
		if p.Date.After(maxDate.Time) {
			maxDate = p.Date
		}
	}

	return Summary{
		TotalCost:         total,
		AvgCostPerEntry:   total.Div(decimal.NewFromInt(int64(len(ps)))),
		MostExpensiveSite: top.Label,
		MostUsedMaterial:  mostFrequentType(ps),
		DateRange:         minDate.String() + " to " + maxDate.String(),
	}, true
}

// BuildDashboard показатели главной страницы.
func BuildDashboard(ps []purchases.Purchase) Dashboard {
	sites := make(map[string]struct{}, len(ps))
	for _, p := range ps {
		sites[p.SiteName] = struct{}{}
	}
	start := max(len(ps)-recentEntries, 0)
	return Dashboard{
		TotalCost:     purchases.SumTotal(ps),
		TotalEntries:  len(ps),
		UniqueSites:   len(sites),
		RecentEntries: append([]purchases.Purchase{}, ps[start:]...),
	}
}

// mostFrequentType мода по типу материала; при равенстве — меньший по алфавиту.
func mostFrequentType(ps []purchases.Purchase) string {
	counts := map[string]int{}
	for _, p := range ps {
		counts[p.MaterialType]++
	}
	best, bestN := "N/A", 0
	for typ, n := range counts {
		if n > bestN || (n == bestN && typ < best) {
			best, bestN = typ, n
		}
	}
	return best
}

// groupSum группировка с ключами по возрастанию.
func groupSum(ps []purchases.Purchase, key func(purchases.Purchase) string, val func(purchases.Purchase) decimal.Decimal) []Point {
	sums := map[string]decimal.Decimal{}
	for _, p := range ps {
		k := key(p)
		sums[k] = sums[k].Add(val(p))
	}
	return sortedPoints(sums)
}

func sortedPoints(sums map[string]decimal.Decimal) []Point {
	out := make([]Point, 0, len(sums))
	for k, v := range sums {
		out = append(out, Point{Label: k, Value: v})
	}
	slices.SortFunc(out, func(a, b Point) int { return cmp.Compare(a.Label, b.Label) })
	return out
}
