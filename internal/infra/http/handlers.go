package http

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/Spok95/site-materials/internal/ledger"
	"github.com/Spok95/site-materials/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Ledger операции журнала, которые нужны API.
type Ledger interface {
	AddPurchase(ctx context.Context, in purchases.Input) (purchases.Purchase, error)
	DeletePurchase(ctx context.Context, id int) (ledger.Deleted, error)
	ListPurchases(ctx context.Context, f purchases.Filter, s purchases.Sort) (ledger.PurchaseListing, error)
	AddUsage(ctx context.Context, r usage.Record) (ledger.UsageEntry, error)
	DeleteUsage(ctx context.Context, index int) (usage.Record, error)
	ListUsage(ctx context.Context, materialID int) ([]ledger.UsageEntry, error)
	Remaining(ctx context.Context, f inventory.RowFilter) (ledger.InventoryView, error)
	History(ctx context.Context, id int) (ledger.HistoryView, error)
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
	Analytics(ctx context.Context) (ledger.AnalyticsView, error)
	Snapshot(ctx context.Context) (ledger.Snapshot, error)
}

var _ Ledger = (*ledger.Service)(nil)

type handlers struct {
	svc Ledger
	log *slog.Logger
	now func() time.Time
}

func (h *handlers) register(r *gin.Engine) {
	api := r.Group("/api")
	api.GET("/dashboard", h.dashboard)

	api.GET("/purchases", h.listPurchases)
	api.POST("/purchases", h.addPurchase)
	api.DELETE("/purchases/:id", h.deletePurchase)

	api.GET("/usage", h.listUsage)
	api.POST("/usage", h.addUsage)
	api.DELETE("/usage/:index", h.deleteUsage)

	api.GET("/inventory", h.inventory)
	api.GET("/inventory/:id/history", h.history)
	api.GET("/analytics", h.analytics)

	// старый путь удаления из веб-формы
	r.POST("/delete_entry/:id", h.deletePurchase)

	r.GET("/export", h.exportCSV)
	r.GET("/export.xlsx", h.exportXLSX)
}

type purchaseRequest struct {
	Date         values.Date     `json:"date" validate:"required"`
	SiteName     string          `json:"site_name" validate:"required,max=200"`
	MaterialType string          `json:"material_type" validate:"required,max=200"`
	MaterialName string          `json:"material_name" validate:"required,max=200"`
	Quantity     decimal.Decimal `json:"quantity" validate:"gt=0"`
	Unit         string          `json:"unit" validate:"required,max=50"`
	UnitCost     decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	Supplier     string          `json:"supplier" validate:"max=200"`
	Notes        string          `json:"notes" validate:"max=2000"`
}

type usageRequest struct {
	UsageDate    values.Date     `json:"usage_date" validate:"required"`
	MaterialID   *int            `json:"material_id" validate:"required,gte=0"`
	SiteName     string          `json:"site_name" validate:"max=200"`
	MaterialName string          `json:"material_name" validate:"max=200"`
	UsedQuantity decimal.Decimal `json:"used_quantity" validate:"gt=0"`
	Unit         string          `json:"unit" validate:"max=50"`
	UsagePurpose string          `json:"usage_purpose" validate:"max=200"`
	UsedBy       string          `json:"used_by" validate:"max=200"`
	Notes        string          `json:"notes" validate:"max=2000"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (h *handlers) dashboard(c *gin.Context) {
	d, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) listPurchases(c *gin.Context) {
	f := purchases.Filter{
		Site:         strings.TrimSpace(c.Query("site")),
		MaterialType: strings.TrimSpace(c.Query("material_type")),
	}
	var err error
	if raw := c.Query("date_from"); raw != "" {
		if f.DateFrom, err = values.ParseDate("date_from", raw); err != nil {
			writeError(c, err)
			return
		}
	}
	if raw := c.Query("date_to"); raw != "" {
		if f.DateTo, err = values.ParseDate("date_to", raw); err != nil {
			writeError(c, err)
			return
		}
	}
	sort := purchases.ParseSort(c.Query("sort_by"), c.Query("sort_order"))

	listing, err := h.svc.ListPurchases(c.Request.Context(), f, sort)
	if err != nil {
		writeError(c, err)
		return
	}
	order := "desc"
	if !sort.Desc {
		order = "asc"
	}
	c.JSON(http.StatusOK, gin.H{
		"records":        listing.Records,
		"sites":          listing.Sites,
		"material_types": listing.MaterialTypes,
		"total_cost":     listing.TotalCost,
		"count":          listing.Count,
		"filters": gin.H{
			"site":          f.Site,
			"material_type": f.MaterialType,
			"date_from":     f.DateFrom,
			"date_to":       f.DateTo,
			"sort_by":       sort.Field,
			"sort_order":    order,
		},
	})
}

func (h *handlers) addPurchase(c *gin.Context) {
	var req purchaseRequest
	if !bindAndValidate(c, &req) {
		return
	}
	p, err := h.svc.AddPurchase(c.Request.Context(), purchases.Input{
		Date:         req.Date,
		SiteName:     strings.TrimSpace(req.SiteName),
		MaterialType: strings.TrimSpace(req.MaterialType),
		MaterialName: strings.TrimSpace(req.MaterialName),
		Quantity:     req.Quantity,
		Unit:         strings.TrimSpace(req.Unit),
		UnitCost:     req.UnitCost,
		Supplier:     strings.TrimSpace(req.Supplier),
		Notes:        strings.TrimSpace(req.Notes),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *handlers) deletePurchase(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, deleteResponse{Success: false, Message: "Entry not found"})
		return
	}
	_, err = h.svc.DeletePurchase(c.Request.Context(), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, deleteResponse{Success: true, Message: "Entry deleted successfully"})
	case apperr.IsNotFound(err):
		c.JSON(http.StatusNotFound, deleteResponse{Success: false, Message: "Entry not found"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, deleteResponse{Success: false, Message: "Error deleting entry"})
	}
}

func (h *handlers) listUsage(c *gin.Context) {
	materialID := -1
	if raw := c.Query("material_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 0 {
			writeError(c, apperr.Validation("material_id", "invalid material id %q", raw))
			return
		}
		materialID = id
	}
	entries, err := h.svc.ListUsage(c.Request.Context(), materialID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": entries, "count": len(entries)})
}

func (h *handlers) addUsage(c *gin.Context) {
	var req usageRequest
	if !bindAndValidate(c, &req) {
		return
	}
	entry, err := h.svc.AddUsage(c.Request.Context(), usage.Record{
		UsageDate:    req.UsageDate,
		MaterialID:   *req.MaterialID,
		SiteName:     strings.TrimSpace(req.SiteName),
		MaterialName: strings.TrimSpace(req.MaterialName),
		UsedQuantity: req.UsedQuantity,
		Unit:         strings.TrimSpace(req.Unit),
		UsagePurpose: strings.TrimSpace(req.UsagePurpose),
		UsedBy:       strings.TrimSpace(req.UsedBy),
		Notes:        strings.TrimSpace(req.Notes),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *handlers) deleteUsage(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeError(c, apperr.NotFound("usage record", -1))
		return
	}
	if _, err := h.svc.DeleteUsage(c.Request.Context(), index); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleteResponse{Success: true, Message: "Usage record deleted successfully"})
}

func (h *handlers) inventory(c *gin.Context) {
	f := inventory.RowFilter{
		Site:     strings.TrimSpace(c.Query("site")),
		Material: strings.TrimSpace(c.Query("material")),
		Status:   strings.TrimSpace(c.Query("status")),
	}
	view, err := h.svc.Remaining(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"rows":      view.Rows,
		"summary":   view.Summary,
		"sites":     view.Sites,
		"materials": view.Materials,
		"filters":   gin.H{"site": f.Site, "material": f.Material, "status": f.Status},
	})
}

func (h *handlers) history(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		writeError(c, apperr.NotFound("purchase", -1))
		return
	}
	view, err := h.svc.History(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *handlers) analytics(c *gin.Context) {
	view, err := h.svc.Analytics(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	// без закупок и сводка, и графики отдаются пустыми объектами
	if view.Summary == nil {
		c.JSON(http.StatusOK, gin.H{"summary": gin.H{}, "charts": gin.H{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": view.Summary, "charts": view.Charts})
}

func (h *handlers) exportCSV(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, snap.Purchases); err != nil {
		writeError(c, err)
		return
	}
	h.log.Info("export generated", "format", "csv", "purchases", len(snap.Purchases))
	attachment(c, report.CSVFilename(h.now()), report.CSVContentType, buf.Bytes())
}

func (h *handlers) exportXLSX(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	data, err := report.XLSX(snap, analytics.BuildCharts(snap.Purchases, snap.Remaining))
	if err != nil {
		writeError(c, err)
		return
	}
	h.log.Info("export generated", "format", "xlsx", "purchases", len(snap.Purchases), "bytes", len(data))
	attachment(c, report.XLSXFilename(h.now()), report.XLSXContentType, data)
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}
