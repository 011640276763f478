package inventory

import (
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusAvailable Status = "Available"
	StatusDepleted  Status = "Depleted"
)

// Row остаток по одной закупке. Не хранится, пересчитывается на каждом чтении.
type Row struct {
	purchases.Purchase
	MaterialID          int             `json:"material_id"`
	OriginalQuantity    decimal.Decimal `json:"original_quantity"`
	UsedQuantity        decimal.Decimal `json:"used_quantity"`
	RemainingQuantity   decimal.Decimal `json:"remaining_quantity"`
	UsagePercentage     float64         `json:"usage_percentage"`
	RemainingPercentage float64         `json:"remaining_percentage"`
	RemainingValue      decimal.Decimal `json:"remaining_value"`
	Status              Status          `json:"status"`
}

// RowFilter применяется к результату ComputeRemaining, не внутри него.
type RowFilter struct {
	Site     string `json:"site"`
	Material string `json:"material"` // подстрока названия или типа материала
	Status   string `json:"status"`
}

// Summary итоги страницы остатков.
type Summary struct {
	Items               int             `json:"items"`
	Available           int             `json:"available"`
	Depleted            int             `json:"depleted"`
	TotalRemainingValue decimal.Decimal `json:"total_remaining_value"`
}

// HistoryEntry запись расхода с накопленным итогом по закупке.
type HistoryEntry struct {
	usage.Record
	UsageIndex     int             `json:"usage_index"`
	CumulativeUsed decimal.Decimal `json:"cumulative_used"`
	RemainingAfter decimal.Decimal `json:"remaining_after"`
}
