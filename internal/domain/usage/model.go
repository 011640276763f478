package usage

import (
	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/shopspring/decimal"
)

// Record расход материала по конкретной закупке.
// MaterialID — текущий позиционный id закупки, держится согласованным с журналом закупок.
type Record struct {
	UsageDate    values.Date     `json:"usage_date"`
	MaterialID   int             `json:"material_id"`
	SiteName     string          `json:"site_name"`
	MaterialName string          `json:"material_name"`
	UsedQuantity decimal.Decimal `json:"used_quantity"`
	Unit         string          `json:"unit"`
	UsagePurpose string          `json:"usage_purpose"`
	UsedBy       string          `json:"used_by"`
	Notes        string          `json:"notes"`
}

// Validate проверяет только сам расход; остаток проверяет сервис, у которого есть оба журнала.
func (r Record) Validate() error {
	if r.UsageDate.IsZero() {
		return apperr.Validation("usage_date", "usage date is required")
	}
	if r.MaterialID < 0 {
		return apperr.Validation("material_id", "material id must not be negative")
	}
	if !r.UsedQuantity.IsPositive() {
		return apperr.Validation("used_quantity", "used quantity must be greater than 0")
	}
	return nil
}

// Sum суммарный расход по списку.
func Sum(rs []Record) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rs {
		total = total.Add(r.UsedQuantity)
	}
	return total
}
