package bot

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/domain/purchases"
	"github.com/Spok95/site-materials/internal/domain/usage"
	"github.com/Spok95/site-materials/internal/domain/values"
	"github.com/Spok95/site-materials/internal/ledger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	updates  chan tgbotapi.Update
}

func (f *fakeAPI) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return f.updates }

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok, "last sent is %T", f.sent[len(f.sent)-1])
	return msg.Text
}

type fakeLedger struct {
	ps []purchases.Purchase
	us []usage.Record
}

func (l fakeLedger) Dashboard(context.Context) (analytics.Dashboard, error) {
	return analytics.BuildDashboard(l.ps), nil
}

func (l fakeLedger) Remaining(_ context.Context, f inventory.RowFilter) (ledger.InventoryView, error) {
	rows := inventory.FilterRows(inventory.ComputeRemaining(l.ps, l.us), f)
	return ledger.InventoryView{Rows: rows, Summary: inventory.Summarize(rows)}, nil
}

func (l fakeLedger) History(_ context.Context, id int) (ledger.HistoryView, error) {
	if id < 0 || id >= len(l.ps) {
		return ledger.HistoryView{}, apperr.NotFound("purchase", id)
	}
	rows := inventory.ComputeRemaining(l.ps, l.us)
	return ledger.HistoryView{Material: rows[id], Entries: inventory.LatestFirst(inventory.History(rows[id].Purchase, l.us))}, nil
}

func (l fakeLedger) Analytics(context.Context) (ledger.AnalyticsView, error) {
	v := ledger.AnalyticsView{Charts: analytics.BuildCharts(l.ps, inventory.ComputeRemaining(l.ps, l.us))}
	if s, ok := analytics.Summarize(l.ps); ok {
		v.Summary = &s
	}
	return v, nil
}

func (l fakeLedger) Snapshot(context.Context) (ledger.Snapshot, error) {
	return ledger.Snapshot{Purchases: l.ps, Usage: l.us, Remaining: inventory.ComputeRemaining(l.ps, l.us)}, nil
}

func sampleLedger() fakeLedger {
	return fakeLedger{
		ps: []purchases.Purchase{{
			ID: 0, Date: values.MustDate("2024-01-01"), SiteName: "Tower A", MaterialType: "Cement", MaterialName: "OPC",
			Quantity: decimal.NewFromInt(100), Unit: "bags", UnitCost: decimal.NewFromInt(10), TotalCost: decimal.NewFromInt(1000),
		}},
		us: []usage.Record{
			{UsageDate: values.MustDate("2024-01-01"), MaterialID: 0, UsedQuantity: decimal.NewFromInt(10)},
			{UsageDate: values.MustDate("2024-01-05"), MaterialID: 0, UsedQuantity: decimal.NewFromInt(5), UsagePurpose: "Slab"},
		},
	}
}

func newTestBot(l Ledger, admin int64) (*Bot, *fakeAPI) {
	api := &fakeAPI{updates: make(chan tgbotapi.Update)}
	return New(api, slog.New(slog.NewTextHandler(io.Discard, nil)), l, admin, nil), api
}

func TestCommands(t *testing.T) {
	ctx := context.Background()
	b, api := newTestBot(sampleLedger(), 0)

	b.handleCommand(ctx, 1, "start", "")
	start := api.sent[0].(tgbotapi.MessageConfig)
	assert.Contains(t, start.Text, "/remaining")
	assert.IsType(t, tgbotapi.ReplyKeyboardMarkup{}, start.ReplyMarkup)

	b.handleCommand(ctx, 1, "summary", "")
	assert.Contains(t, api.lastText(t), "Сумма: 1000.00")

	b.handleCommand(ctx, 1, "remaining", "tower")
	text := api.lastText(t)
	assert.Contains(t, text, "#0 Tower A · OPC: 85 из 100 bags (85.00%)")
	assert.Contains(t, text, "Стоимость остатков: 850.00")

	b.handleCommand(ctx, 1, "history", "0")
	text = api.lastText(t)
	lines := strings.Split(text, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "2024-01-05: −5 (всего 15, остаток 85) · Slab", lines[3])
	assert.Equal(t, "2024-01-01: −10 (всего 10, остаток 90)", lines[4])

	b.handleCommand(ctx, 1, "history", "7")
	assert.Equal(t, "Запись не найдена", api.lastText(t))

	b.handleCommand(ctx, 1, "history", "x")
	assert.Contains(t, api.lastText(t), "/history")
}

func TestExportsSendDocuments(t *testing.T) {
	ctx := context.Background()
	b, api := newTestBot(sampleLedger(), 0)

	b.handleText(ctx, 1, btnExportCSV)
	doc, ok := api.sent[len(api.sent)-1].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	file := doc.File.(tgbotapi.FileBytes)
	assert.True(t, strings.HasPrefix(file.Name, "construction_materials_"))
	assert.True(t, strings.HasSuffix(file.Name, ".csv"))
	assert.True(t, strings.HasPrefix(string(file.Bytes), "Date,Site_Name"))

	b.handleCommand(ctx, 1, "xlsx", "")
	doc, ok = api.sent[len(api.sent)-1].(tgbotapi.DocumentConfig)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(doc.File.(tgbotapi.FileBytes).Name, ".xlsx"))
}

func TestCallbacksAndAccess(t *testing.T) {
	ctx := context.Background()
	b, api := newTestBot(sampleLedger(), 42)

	go func() {
		api.updates <- tgbotapi.Update{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 7}, Text: btnSummary}}
		api.updates <- tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID: "cb", Data: "rem:Depleted", Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 42}},
		}}
		close(api.updates)
	}()
	require.NoError(t, b.Run(ctx, 0))

	require.Len(t, api.sent, 1)
	assert.Equal(t, "Ничего не найдено.", api.lastText(t))
	assert.Len(t, api.requests, 1)
}

func TestFormatAnalyticsEmpty(t *testing.T) {
	assert.Equal(t, "Данных для аналитики пока нет.", formatAnalytics(ledger.AnalyticsView{}))

	v, err := sampleLedger().Analytics(context.Background())
	require.NoError(t, err)
	text := formatAnalytics(v)
	assert.Contains(t, text, "Период: 2024-01-01 to 2024-01-01")
	assert.Contains(t, text, "2024-01: 1000.00")
}

func TestRemainingKeyboard(t *testing.T) {
	_, ok := remainingKeyboard(nil)
	assert.False(t, ok)

	rows := inventory.ComputeRemaining(sampleLedger().ps, nil)
	kb, ok := remainingKeyboard(rows)
	require.True(t, ok)
	require.Len(t, kb.InlineKeyboard, 2)
	assert.Equal(t, "hist:0", *kb.InlineKeyboard[0][0].CallbackData)
}
