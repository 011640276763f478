package analytics

import (
	"testing"

	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func p(date, site, typ string, total int64) purchases.Purchase {
	return purchases.Purchase{
		Date:         values.MustDate(date),
		SiteName:     site,
		MaterialType: typ,
		Quantity:     decimal.NewFromInt(total),
		UnitCost:     decimal.NewFromInt(1),
		TotalCost:    decimal.NewFromInt(total),
	}
}

func labels(pts []Point) []string {
	out := make([]string, 0, len(pts))
	for _, pt := range pts {
		out = append(out, pt.Label)
	}
	return out
}

func sample() []purchases.Purchase {
	return []purchases.Purchase{
		p("2024-02-10", "Tower B", "Steel", 300),
		p("2024-01-05", "Tower A", "Cement", 100),
		p("2024-01-20", "Tower A", "Cement", 50),
		p("2024-03-01", "Depot", "Sand", 10),
	}
}

func TestPurchaseAggregates(t *testing.T) {
	ps := sample()

	bySite := CostBySite(ps)
	assert.Equal(t, []string{"Tower B", "Tower A", "Depot"}, labels(bySite))
	assert.True(t, bySite[1].Value.Equal(decimal.NewFromInt(150)))

	byType := CostByMaterialType(ps)
	assert.Equal(t, []string{"Cement", "Sand", "Steel"}, labels(byType))

	monthly := MonthlySpending(ps)
	assert.Equal(t, []string{"2024-01", "2024-02", "2024-03"}, labels(monthly))
	assert.True(t, monthly[0].Value.Equal(decimal.NewFromInt(150)))

	overTime := CostOverTime(ps)
	require.Len(t, overTime, 4)
	want := []int64{100, 150, 450, 460}
	for i, tp := range overTime {
		assert.True(t, tp.Cumulative.Equal(decimal.NewFromInt(want[i])), "point %d: %s", i, tp.Cumulative)
	}
	assert.Equal(t, "2024-01-05", overTime[0].Date.String())
}

func TestInventoryAggregates(t *testing.T) {
	ps := sample()
	rows := inventory.ComputeRemaining(ps, []usage.Record{
		{MaterialID: 0, UsedQuantity: decimal.NewFromInt(300)},
		{MaterialID: 1, UsedQuantity: decimal.NewFromInt(40)},
	})

	counts := StatusCounts(rows)
	assert.Equal(t, 3, counts["Available"])
	assert.Equal(t, 1, counts["Depleted"])

	byValue := RemainingValueBySite(rows)
	assert.Equal(t, []string{"Tower A", "Depot", "Tower B"}, labels(byValue))
	assert.True(t, byValue[0].Value.Equal(decimal.NewFromInt(110)))

	charts := BuildCharts(ps, rows)
	assert.Len(t, charts.CostBySite, 3)
	assert.Len(t, charts.RemainingValueBySite, 3)
}

func TestSummarize(t *testing.T) {
	_, ok := Summarize(nil)
	assert.False(t, ok)

	s, ok := Summarize(sample())
	require.True(t, ok)
	assert.True(t, s.TotalCost.Equal(decimal.NewFromInt(460)))
	assert.True(t, s.AvgCostPerEntry.Equal(decimal.NewFromInt(115)))
	assert.Equal(t, "Tower B", s.MostExpensiveSite)
	assert.Equal(t, "Cement", s.MostUsedMaterial)
	assert.Equal(t, "2024-01-05 to 2024-03-01", s.DateRange)
}

func TestMostUsedMaterialTieBreak(t *testing.T) {
	ps := []purchases.Purchase{p("2024-01-01", "A", "Steel", 1), p("2024-01-01", "A", "Brick", 1)}
	s, ok := Summarize(ps)
	require.True(t, ok)
	assert.Equal(t, "Brick", s.MostUsedMaterial)
}

func TestBuildDashboard(t *testing.T) {
	ps := append(sample(), sample()...)
	d := BuildDashboard(ps)
	assert.Equal(t, 8, d.TotalEntries)
	assert.Equal(t, 3, d.UniqueSites)
	assert.True(t, d.TotalCost.Equal(decimal.NewFromInt(920)))
	require.Len(t, d.RecentEntries, 5)
	assert.Equal(t, "Depot", d.RecentEntries[4].SiteName)

	empty := BuildDashboard(nil)
	assert.Zero(t, empty.TotalEntries)
	assert.Empty(t, empty.RecentEntries)
}
