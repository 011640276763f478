package bot

import (
	"bytes"
	"context"
	"strconv"
	"strings"

	"github.com/Spok95/site-materials/internal/apperr"
	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/report"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnSummary   = "Сводка"
	btnRemaining = "Остатки"
	btnDepleted  = "Закончились"
	btnAnalytics = "Аналитика"
	btnExportCSV = "Выгрузка CSV"
	btnExportXLS = "Выгрузка Excel"
)

func (b *Bot) handleCommand(ctx context.Context, chatID int64, cmd, args string) {
	switch cmd {
	case "start", "help":
		m := tgbotapi.NewMessage(chatID, helpText)
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)
	case "summary":
		b.sendSummary(ctx, chatID)
	case "remaining":
		b.sendRemaining(ctx, chatID, inventory.RowFilter{Site: strings.TrimSpace(args)})
	case "history":
		id, err := strconv.Atoi(strings.TrimSpace(args))
		if err != nil {
			b.send(tgbotapi.NewMessage(chatID, "Использование: /history <id закупки>"))
			return
		}
		b.sendHistory(ctx, chatID, id)
	case "analytics":
		b.sendAnalytics(ctx, chatID)
	case "export":
		b.sendCSV(ctx, chatID)
	case "xlsx":
		b.sendXLSX(ctx, chatID)
	default:
		b.send(tgbotapi.NewMessage(chatID, "Неизвестная команда. /help — список команд."))
	}
}

func (b *Bot) handleText(ctx context.Context, chatID int64, text string) {
	switch strings.TrimSpace(text) {
	case btnSummary:
		b.sendSummary(ctx, chatID)
	case btnRemaining:
		b.sendRemaining(ctx, chatID, inventory.RowFilter{})
	case btnDepleted:
		b.sendRemaining(ctx, chatID, inventory.RowFilter{Status: string(inventory.StatusDepleted)})
	case btnAnalytics:
		b.sendAnalytics(ctx, chatID)
	case btnExportCSV:
		b.sendCSV(ctx, chatID)
	case btnExportXLS:
		b.sendXLSX(ctx, chatID)
	default:
		m := tgbotapi.NewMessage(chatID, "Выберите действие на клавиатуре или /help.")
		m.ReplyMarkup = mainReplyKeyboard()
		b.send(m)
	}
}

// handleCallback hist:<id> открывает историю закупки, rem:<status> остатки по статусу.
func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	kind, arg, _ := strings.Cut(cb.Data, ":")
	switch kind {
	case "hist":
		id, err := strconv.Atoi(arg)
		if err != nil {
			_ = b.answerCallback(cb, "Некорректная закупка", true)
			return
		}
		_ = b.answerCallback(cb, "", false)
		b.sendHistory(ctx, chatID, id)
	case "rem":
		_ = b.answerCallback(cb, "", false)
		b.sendRemaining(ctx, chatID, inventory.RowFilter{Status: arg})
	default:
		_ = b.answerCallback(cb, "Неизвестное действие", false)
	}
}

func (b *Bot) sendSummary(ctx context.Context, chatID int64) {
	d, err := b.svc.Dashboard(ctx)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, formatDashboard(d)))
}

func (b *Bot) sendRemaining(ctx context.Context, chatID int64, f inventory.RowFilter) {
	view, err := b.svc.Remaining(ctx, f)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	m := tgbotapi.NewMessage(chatID, formatRemaining(view))
	if kb, ok := remainingKeyboard(view.Rows); ok {
		m.ReplyMarkup = kb
	}
	b.send(m)
}

func (b *Bot) sendHistory(ctx context.Context, chatID int64, id int) {
	view, err := b.svc.History(ctx, id)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, formatHistory(view)))
}

func (b *Bot) sendAnalytics(ctx context.Context, chatID int64) {
	view, err := b.svc.Analytics(ctx)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	b.send(tgbotapi.NewMessage(chatID, formatAnalytics(view)))
}

func (b *Bot) sendCSV(ctx context.Context, chatID int64) {
	snap, err := b.svc.Snapshot(ctx)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	buf := &bytes.Buffer{}
	if err := report.WriteCSV(buf, snap.Purchases); err != nil {
		b.log.Error("csv export failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка формирования файла"))
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  report.CSVFilename(b.now()),
		Bytes: buf.Bytes(),
	})
	doc.Caption = "Журнал закупок"
	b.send(doc)
}

func (b *Bot) sendXLSX(ctx context.Context, chatID int64) {
	snap, err := b.svc.Snapshot(ctx)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	data, err := report.XLSX(snap, analytics.BuildCharts(snap.Purchases, snap.Remaining))
	if err != nil {
		b.log.Error("xlsx export failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка формирования файла"))
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  report.XLSXFilename(b.now()),
		Bytes: data,
	})
	doc.Caption = "Закупки, расход, остатки и графики"
	b.send(doc)
}

func (b *Bot) replyError(chatID int64, err error) {
	switch {
	case apperr.IsNotFound(err):
		b.send(tgbotapi.NewMessage(chatID, "Запись не найдена"))
	case apperr.IsValidation(err):
		b.send(tgbotapi.NewMessage(chatID, "Ошибка: "+err.Error()))
	default:
		b.log.Error("ledger request failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Журнал сейчас недоступен, попробуйте позже"))
	}
}

const helpText = `Учёт материалов на объектах.

/summary — сводка по закупкам
/remaining [объект] — остатки
/history <id> — расход по закупке
/analytics — аналитика
/export — журнал закупок (CSV)
/xlsx — книга Excel с графиками`
