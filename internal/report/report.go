// Package report выгрузки журнала: CSV в формате хранения и книга Excel с графиками.
package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/ledger"
	"github.com/Spok95/site-materials/internal/store/csvstore"
	"github.com/xuri/excelize/v2"
)

const (
	CSVContentType  = "text/csv"
	XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	filePrefix = "construction_materials_"
)

func CSVFilename(now time.Time) string {
	return filePrefix + now.Format("20060102") + ".csv"
}

func XLSXFilename(now time.Time) string {
	return filePrefix + now.Format("20060102") + ".xlsx"
}

// WriteCSV журнал закупок ровно в том виде, в каком он хранится.
func WriteCSV(w io.Writer, ps []purchases.Purchase) error {
	return csvstore.WritePurchases(w, ps)
}

const (
	sheetPurchases = "Purchases"
	sheetUsage     = "Usage"
	sheetRemaining = "Remaining"
	sheetCharts    = "Charts"
)

// XLSX книга с листами журналов, остатков и графиков.
func XLSX(snap ledger.Snapshot, charts analytics.Charts) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), sheetPurchases); err != nil {
		return nil, err
	}
	for _, name := range []string{sheetUsage, sheetRemaining, sheetCharts} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}

	if err := writePurchasesSheet(f, snap); err != nil {
		return nil, fmt.Errorf("purchases sheet: %w", err)
	}
	if err := writeUsageSheet(f, snap); err != nil {
		return nil, fmt.Errorf("usage sheet: %w", err)
	}
	if err := writeRemainingSheet(f, snap); err != nil {
		return nil, fmt.Errorf("remaining sheet: %w", err)
	}
	if err := writeChartsSheet(f, charts); err != nil {
		return nil, fmt.Errorf("charts sheet: %w", err)
	}
	f.SetActiveSheet(0)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writePurchasesSheet(f *excelize.File, snap ledger.Snapshot) error {
	header := []interface{}{"ID", "Date", "Site", "Material type", "Material", "Quantity", "Unit", "Unit cost", "Total cost", "Supplier", "Notes"}
	rows := make([][]interface{}, 0, len(snap.Purchases))
	for _, p := range snap.Purchases {
		rows = append(rows, []interface{}{
			p.ID, p.Date.String(), p.SiteName, p.MaterialType, p.MaterialName,
			p.Quantity.InexactFloat64(), p.Unit, p.UnitCost.InexactFloat64(), p.TotalCost.InexactFloat64(),
			p.Supplier, p.Notes,
		})
	}
	return writeTable(f, sheetPurchases, 1, header, rows)
}

func writeUsageSheet(f *excelize.File, snap ledger.Snapshot) error {
	header := []interface{}{"#", "Date", "Material ID", "Site", "Material", "Used", "Unit", "Purpose", "Used by", "Notes"}
	rows := make([][]interface{}, 0, len(snap.Usage))
	for i, u := range snap.Usage {
		rows = append(rows, []interface{}{
			i, u.UsageDate.String(), u.MaterialID, u.SiteName, u.MaterialName,
			u.UsedQuantity.InexactFloat64(), u.Unit, u.UsagePurpose, u.UsedBy, u.Notes,
		})
	}
	return writeTable(f, sheetUsage, 1, header, rows)
}

func writeRemainingSheet(f *excelize.File, snap ledger.Snapshot) error {
	header := []interface{}{"ID", "Site", "Material", "Original", "Used", "Remaining", "Unit", "Used %", "Remaining %", "Remaining value", "Status"}
	rows := make([][]interface{}, 0, len(snap.Remaining))
	for _, r := range snap.Remaining {
		rows = append(rows, []interface{}{
			r.MaterialID, r.SiteName, r.MaterialName,
			r.OriginalQuantity.InexactFloat64(), r.UsedQuantity.InexactFloat64(), r.RemainingQuantity.InexactFloat64(),
			r.Unit, r.UsagePercentage, r.RemainingPercentage, r.RemainingValue.InexactFloat64(), string(r.Status),
		})
	}
	return writeTable(f, sheetRemaining, 1, header, rows)
}

// chartBlock таблица из двух колонок на листе Charts и график по ней.
type chartBlock struct {
	title  string
	col    int
	kind   excelize.ChartType
	labels []string
	values []float64
}

func writeChartsSheet(f *excelize.File, c analytics.Charts) error {
	blocks := []chartBlock{
		pointsBlock("Cost by site", 1, excelize.Col, c.CostBySite),
		timeBlock("Cumulative cost", 4, c.CostOverTime),
		pointsBlock("Material distribution", 7, excelize.Pie, c.CostByMaterialType),
		pointsBlock("Monthly spending", 10, excelize.Col, c.MonthlySpending),
		statusBlock(13, c.StatusCounts),
		pointsBlock("Remaining value by site", 16, excelize.Bar, c.RemainingValueBySite),
	}

	// графики справа от таблиц, друг под другом
	chartRow := 1
	for _, b := range blocks {
		header := []interface{}{b.title, "Value"}
		rows := make([][]interface{}, 0, len(b.labels))
		for i, l := range b.labels {
			rows = append(rows, []interface{}{l, b.values[i]})
		}
		if err := writeTable(f, sheetCharts, b.col, header, rows); err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		anchor, err := excelize.CoordinatesToCellName(20, chartRow)
		if err != nil {
			return err
		}
		if err := f.AddChart(sheetCharts, anchor, chartFor(b, len(rows))); err != nil {
			return err
		}
		chartRow += 16
	}
	return nil
}

func chartFor(b chartBlock, n int) *excelize.Chart {
	labelCol, _ := excelize.ColumnNumberToName(b.col)
	valueCol, _ := excelize.ColumnNumberToName(b.col + 1)
	ref := func(col string) string {
		return fmt.Sprintf("'%s'!$%s$2:$%s$%d", sheetCharts, col, col, n+1)
	}
	ch := &excelize.Chart{
		Type: b.kind,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("'%s'!$%s$1", sheetCharts, valueCol),
			Categories: ref(labelCol),
			Values:     ref(valueCol),
		}},
		Title:  []excelize.RichTextRun{{Text: b.title}},
		Legend: excelize.ChartLegend{Position: "none"},
	}
	if b.kind == excelize.Pie {
		ch.Legend = excelize.ChartLegend{Position: "right"}
		ch.PlotArea = excelize.ChartPlotArea{ShowPercent: true}
	}
	return ch
}

func pointsBlock(title string, col int, kind excelize.ChartType, pts []analytics.Point) chartBlock {
	b := chartBlock{title: title, col: col, kind: kind}
	for _, p := range pts {
		b.labels = append(b.labels, p.Label)
		b.values = append(b.values, p.Value.InexactFloat64())
	}
	return b
}

func timeBlock(title string, col int, pts []analytics.TimePoint) chartBlock {
	b := chartBlock{title: title, col: col, kind: excelize.Line}
	for _, p := range pts {
		b.labels = append(b.labels, p.Date.String())
		b.values = append(b.values, p.Cumulative.InexactFloat64())
	}
	return b
}

func statusBlock(col int, counts map[string]int) chartBlock {
	b := chartBlock{title: "Inventory status", col: col, kind: excelize.Pie}
	// порядок фиксированный, карта его не держит
	for _, s := range []string{"Available", "Depleted"} {
		if n, ok := counts[s]; ok {
			b.labels = append(b.labels, s)
			b.values = append(b.values, float64(n))
		}
	}
	return b
}

func writeTable(f *excelize.File, sheet string, col int, header []interface{}, rows [][]interface{}) error {
	cell, err := excelize.CoordinatesToCellName(col, 1)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &header); err != nil {
		return err
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(col, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}
