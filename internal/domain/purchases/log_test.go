package purchases

import (
	"testing"
	"time"

	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustNew(t *testing.T, day int, site, typ string, qty, cost int64) Purchase {
	t.Helper()
	p, err := New(Input{
		Date:         values.NewDate(2024, time.March, day),
		SiteName:     site,
		MaterialType: typ,
		MaterialName: typ + " item",
		Quantity:     decimal.NewFromInt(qty),
		Unit:         "pcs",
		UnitCost:     decimal.NewFromInt(cost),
	})
	require.NoError(t, err)
	return p
}

func TestNew_Validation(t *testing.T) {
	base := Input{Date: values.NewDate(2024, time.March, 1), Quantity: decimal.NewFromInt(2), UnitCost: decimal.NewFromFloat(2.5)}

	p, err := New(base)
	require.NoError(t, err)
	assert.True(t, p.TotalCost.Equal(decimal.NewFromInt(5)))

	tests := []struct {
		name  string
		mut   func(in *Input)
		field string
	}{
		{"zero quantity", func(in *Input) { in.Quantity = decimal.Zero }, "quantity"},
		{"negative quantity", func(in *Input) { in.Quantity = decimal.NewFromInt(-1) }, "quantity"},
		{"negative cost", func(in *Input) { in.UnitCost = decimal.NewFromInt(-1) }, "unit_cost"},
		{"missing date", func(in *Input) { in.Date = values.Date{} }, "date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := base
			tt.mut(&in)
			_, err := New(in)
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
		})
	}

	free := base
	free.UnitCost = decimal.Zero
	_, err = New(free)
	assert.NoError(t, err)
}

func TestLog_AppendAndDeleteRenumbers(t *testing.T) {
	l := NewLog(nil)
	a := l.Append(mustNew(t, 1, "Tower A", "Cement", 10, 5))
	b := l.Append(mustNew(t, 2, "Tower B", "Steel", 3, 100))
	c := l.Append(mustNew(t, 3, "Tower A", "Sand", 8, 2))
	assert.Equal(t, []int{0, 1, 2}, []int{a.ID, b.ID, c.ID})

	deleted, err := l.Delete(0)
	require.NoError(t, err)
	assert.Equal(t, "Cement", deleted.MaterialType)

	recs := l.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, 0, recs[0].ID)
	assert.Equal(t, "Steel", recs[0].MaterialType)
	assert.Equal(t, 1, recs[1].ID)

	_, err = l.Delete(2)
	assert.True(t, apperr.IsNotFound(err))
	_, err = l.Delete(-1)
	assert.True(t, apperr.IsNotFound(err))
	assert.Equal(t, 2, l.Len())
}

func TestLog_ListFilter(t *testing.T) {
	l := NewLog([]Purchase{
		mustNew(t, 1, "Tower A", "Cement", 10, 5),
		mustNew(t, 5, "Tower B", "Steel", 3, 100),
		mustNew(t, 9, "tower a annex", "Cement", 8, 2),
	})

	got := l.List(Filter{Site: "TOWER A"}, Sort{Field: FieldID})
	require.Len(t, got, 2)
	assert.Equal(t, 0, got[0].ID)
	assert.Equal(t, 2, got[1].ID)

	got = l.List(Filter{Site: "tower", MaterialType: "steel"}, Sort{Field: FieldID})
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)

	got = l.List(Filter{DateFrom: values.NewDate(2024, time.March, 5), DateTo: values.NewDate(2024, time.March, 9)}, Sort{Field: FieldID})
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
}

func TestLog_ListSortIsStable(t *testing.T) {
	l := NewLog([]Purchase{
		mustNew(t, 2, "B", "Cement", 10, 5),
		mustNew(t, 1, "A", "Steel", 3, 100),
		mustNew(t, 2, "C", "Sand", 8, 2),
		mustNew(t, 1, "D", "Brick", 1, 1),
	})

	ids := func(ps []Purchase) []int {
		out := make([]int, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []int{0, 2, 1, 3}, ids(l.List(Filter{}, DefaultSort)))
	assert.Equal(t, []int{1, 3, 0, 2}, ids(l.List(Filter{}, ParseSort("Date", "asc"))))
	assert.Equal(t, []int{1, 0, 2, 3}, ids(l.List(Filter{}, ParseSort("Total_Cost", "desc"))))
	assert.Equal(t, []int{3, 2, 0, 1}, ids(l.List(Filter{}, ParseSort("total_cost", "asc"))))
	assert.Equal(t, []int{0, 1, 2, 3}, ids(l.List(Filter{}, ParseSort("no_such_column", "asc"))))
}

func TestLog_DistinctValues(t *testing.T) {
	l := NewLog([]Purchase{
		mustNew(t, 1, "Tower B", "Steel", 1, 1),
		mustNew(t, 1, "Tower A", "Cement", 1, 1),
		mustNew(t, 1, "Tower B", "Cement", 1, 1),
	})
	assert.Equal(t, []string{"Tower B", "Tower A"}, l.Sites())
	assert.Equal(t, []string{"Steel", "Cement"}, l.MaterialTypes())
	assert.True(t, SumTotal(l.Records()).Equal(decimal.NewFromInt(3)))
}

func TestParseSort(t *testing.T) {
	assert.Equal(t, DefaultSort, ParseSort("", ""))
	assert.Equal(t, Sort{Field: FieldSiteName, Desc: false}, ParseSort("Site_Name", "ASC"))
	assert.Equal(t, Sort{Field: FieldQuantity, Desc: true}, ParseSort("quantity", "whatever"))
}
