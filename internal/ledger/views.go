package ledger

import (
	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/shopspring/decimal"
)

type PurchaseListing struct {
	Records       []purchases.Purchase `json:"records"`
	Sites         []string             `json:"sites"`
	MaterialTypes []string             `json:"material_types"`
	TotalCost     decimal.Decimal      `json:"total_cost"`
	Count         int                  `json:"count"`
}

type Deleted struct {
	Purchase     purchases.Purchase `json:"purchase"`
	UsageRemoved int                `json:"usage_removed"`
}

// UsageEntry запись расхода с её позицией в журнале (для удаления).
type UsageEntry struct {
	Index int `json:"index"`
	usage.Record
}

type InventoryView struct {
	Rows      []inventory.Row     `json:"rows"`
	Summary   inventory.Summary   `json:"summary"`
	Sites     []string            `json:"sites"`
	Materials []string            `json:"materials"`
	Filter    inventory.RowFilter `json:"filter"`
}

type HistoryView struct {
	Material inventory.Row            `json:"material"`
	Entries  []inventory.HistoryEntry `json:"entries"`
}

type AnalyticsView struct {
	Summary *analytics.Summary `json:"summary"`
	Charts  analytics.Charts   `json:"charts"`
}

type Snapshot struct {
	Purchases []purchases.Purchase `json:"purchases"`
	Usage     []usage.Record       `json:"usage"`
	Remaining []inventory.Row      `json:"remaining"`
}

type ReconcileReport struct {
	Orphans []int `json:"orphans"`
	Dropped int   `json:"dropped"`
}
