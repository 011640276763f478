package purchases

import (
	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/shopspring/decimal"
)

// Purchase закупка материала на объект.
// ID — позиция записи в журнале (с нуля), пересчитывается при каждом удалении.
type Purchase struct {
	ID           int             `json:"id"`
	Date         values.Date     `json:"date"`
	SiteName     string          `json:"site_name"`
	MaterialType string          `json:"material_type"`
	MaterialName string          `json:"material_name"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	Supplier     string          `json:"supplier"`
	Notes        string          `json:"notes"`
}

type Input struct {
	Date         values.Date
	SiteName     string
	MaterialType string
	MaterialName string
	Quantity     decimal.Decimal
	Unit         string
	UnitCost     decimal.Decimal
	Supplier     string
	Notes        string
}

// New проверяет количество и цену и считает сумму закупки.
func New(in Input) (Purchase, error) {
	if in.Date.IsZero() {
		return Purchase{}, apperr.Validation("date", "date is required")
	}
	if !in.Quantity.IsPositive() {
		return Purchase{}, apperr.Validation("quantity", "quantity must be greater than 0")
	}
	if in.UnitCost.IsNegative() {
		return Purchase{}, apperr.Validation("unit_cost", "unit cost must not be negative")
	}
	return Purchase{
		Date:         in.Date,
		SiteName:     in.SiteName,
		MaterialType: in.MaterialType,
		MaterialName: in.MaterialName,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		UnitCost:     in.UnitCost,
		TotalCost:    in.Quantity.Mul(in.UnitCost),
		Supplier:     in.Supplier,
		Notes:        in.Notes,
	}, nil
}

// Filter условия выборки; пустые поля не ограничивают.
type Filter struct {
	Site         string
	MaterialType string
	DateFrom     values.Date
	DateTo       values.Date
}

// Sort поле и направление сортировки списка закупок.
type Sort struct {
	Field string
	Desc  bool
}

const (
	FieldID           = "id"
	FieldDate         = "date"
	FieldSiteName     = "site_name"
	FieldMaterialType = "material_type"
	FieldMaterialName = "material_name"
	FieldQuantity     = "quantity"
	FieldUnit         = "unit"
	FieldUnitCost     = "unit_cost"
	FieldTotalCost    = "total_cost"
	FieldSupplier     = "supplier"
	FieldNotes        = "notes"
)

var DefaultSort = Sort{Field: FieldDate, Desc: true}

// SumTotal сумма закупок по списку.
func SumTotal(ps []Purchase) decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.TotalCost)
	}
	return total
}
