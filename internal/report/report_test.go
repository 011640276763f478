package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/Spok95/site-materials/internal/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func snapshot() ledger.Snapshot {
	ps := []purchases.Purchase{
		{ID: 0, Date: values.MustDate("2024-01-01"), SiteName: "Tower A", MaterialType: "Cement", MaterialName: "OPC",
			Quantity: decimal.NewFromInt(100), Unit: "bags", UnitCost: decimal.NewFromInt(10), TotalCost: decimal.NewFromInt(1000)},
		{ID: 1, Date: values.MustDate("2024-02-01"), SiteName: "Depot", MaterialType: "Sand", MaterialName: "River sand",
			Quantity: decimal.NewFromInt(5), Unit: "t", UnitCost: decimal.NewFromInt(40), TotalCost: decimal.NewFromInt(200)},
	}
	us := []usage.Record{{UsageDate: values.MustDate("2024-01-05"), MaterialID: 0, UsedQuantity: decimal.NewFromInt(30)}}
	return ledger.Snapshot{Purchases: ps, Usage: us, Remaining: inventory.ComputeRemaining(ps, us)}
}

func TestFilenames(t *testing.T) {
	now := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "construction_materials_20240309.csv", CSVFilename(now))
	assert.Equal(t, "construction_materials_20240309.xlsx", XLSXFilename(now))
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, snapshot().Purchases))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Date,Site_Name,Material_Type,Material_Name,Quantity,Unit,Unit_Cost,Total_Cost,Supplier,Notes", lines[0])
	assert.Equal(t, "2024-01-01,Tower A,Cement,OPC,100,bags,10,1000,,", lines[1])
}

func TestXLSX(t *testing.T) {
	snap := snapshot()
	charts := analytics.BuildCharts(snap.Purchases, snap.Remaining)

	data, err := XLSX(snap, charts)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, []string{"Purchases", "Usage", "Remaining", "Charts"}, f.GetSheetList())

	rows, err := f.GetRows("Purchases")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "River sand", rows[2][4])

	rows, err = f.GetRows("Remaining")
	require.NoError(t, err)
	assert.Equal(t, "70", rows[1][5])
	assert.Equal(t, "Available", rows[1][10])

	site, err := f.GetCellValue("Charts", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Tower A", site)
	status, err := f.GetCellValue("Charts", "M2")
	require.NoError(t, err)
	assert.Equal(t, "Available", status)
}

func TestXLSXEmpty(t *testing.T) {
	data, err := XLSX(ledger.Snapshot{}, analytics.BuildCharts(nil, nil))
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
