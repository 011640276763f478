package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/shopspring/decimal"
)

var PurchaseHeader = []string{
	"Date", "Site_Name", "Material_Type", "Material_Name",
	"Quantity", "Unit", "Unit_Cost", "Total_Cost", "Supplier", "Notes",
}

var UsageHeader = []string{
	"Usage_Date", "Material_ID", "Site_Name", "Material_Name",
	"Used_Quantity", "Unit", "Usage_Purpose", "Used_By", "Notes",
}

// WritePurchases пишет журнал закупок в формате хранения: заголовок и строка на запись.
func WritePurchases(w io.Writer, ps []purchases.Purchase) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(PurchaseHeader); err != nil {
		return err
	}
	for _, p := range ps {
		if err := cw.Write([]string{
			p.Date.String(),
			p.SiteName,
			p.MaterialType,
			p.MaterialName,
			p.Quantity.String(),
			p.Unit,
			p.UnitCost.String(),
			p.TotalCost.String(),
			p.Supplier,
			p.Notes,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteUsage(w io.Writer, us []usage.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(UsageHeader); err != nil {
		return err
	}
	for _, u := range us {
		if err := cw.Write([]string{
			u.UsageDate.String(),
			strconv.Itoa(u.MaterialID),
			u.SiteName,
			u.MaterialName,
			u.UsedQuantity.String(),
			u.Unit,
			u.UsagePurpose,
			u.UsedBy,
			u.Notes,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadPurchases читает журнал закупок. Пустой вход — пустой журнал.
func ReadPurchases(r io.Reader) ([]purchases.Purchase, error) {
	records, err := readAll(r, PurchaseHeader, "purchases")
	if err != nil {
		return nil, err
	}
	out := make([]purchases.Purchase, 0, len(records))
	for i, rec := range records {
		p, err := parsePurchase(rec)
		if err != nil {
			return nil, fmt.Errorf("purchases CSV row %d: %w", i+2, err)
		}
		p.ID = i
		out = append(out, p)
	}
	return out, nil
}

func ReadUsage(r io.Reader) ([]usage.Record, error) {
	records, err := readAll(r, UsageHeader, "usage")
	if err != nil {
		return nil, err
	}
	out := make([]usage.Record, 0, len(records))
	for i, rec := range records {
		u, err := parseUsage(rec)
		if err != nil {
			return nil, fmt.Errorf("usage CSV row %d: %w", i+2, err)
		}
		out = append(out, u)
	}
	return out, nil
}

func readAll(r io.Reader, expected []string, name string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !slices.Equal(header, expected) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expected, header)
	}
	rows := records[1:]
	for i, rec := range rows {
		if len(rec) != len(expected) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expected), len(rec))
		}
	}
	return rows, nil
}

func parsePurchase(rec []string) (purchases.Purchase, error) {
	date, err := values.ParseDate("Date", rec[0])
	if err != nil {
		return purchases.Purchase{}, err
	}
	qty, err := values.ParseAmount("Quantity", rec[4])
	if err != nil {
		return purchases.Purchase{}, err
	}
	cost, err := values.ParseAmount("Unit_Cost", rec[6])
	if err != nil {
		return purchases.Purchase{}, err
	}
	total := qty.Mul(cost)
	if strings.TrimSpace(rec[7]) != "" {
		if total, err = values.ParseAmount("Total_Cost", rec[7]); err != nil {
			return purchases.Purchase{}, err
		}
	}
	return purchases.Purchase{
		Date:         date,
		SiteName:     rec[1],
		MaterialType: rec[2],
		MaterialName: rec[3],
		Quantity:     qty,
		Unit:         rec[5],
		UnitCost:     cost,
		TotalCost:    total,
		Supplier:     rec[8],
		Notes:        rec[9],
	}, nil
}

func parseUsage(rec []string) (usage.Record, error) {
	date, err := values.ParseDate("Usage_Date", rec[0])
	if err != nil {
		return usage.Record{}, err
	}
	id, err := parseMaterialID(rec[1])
	if err != nil {
		return usage.Record{}, err
	}
	qty, err := values.ParseAmount("Used_Quantity", rec[4])
	if err != nil {
		return usage.Record{}, err
	}
	return usage.Record{
		UsageDate:    date,
		MaterialID:   id,
		SiteName:     rec[2],
		MaterialName: rec[3],
		UsedQuantity: qty,
		Unit:         rec[5],
		UsagePurpose: rec[6],
		UsedBy:       rec[7],
		Notes:        rec[8],
	}, nil
}

// parseMaterialID принимает и "3", и "3.0" (так пишет pandas после NaN в колонке).
func parseMaterialID(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.Atoi(raw); err == nil {
		return id, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsInteger() {
		return 0, fmt.Errorf("invalid Material_ID %q", raw)
	}
	return int(d.IntPart()), nil
}
