package bot

import (
	"context"
	"log/slog"
	"time"

	"github.com/Spok95/site-materials/internal/domain/analytics"
	"github.com/Spok95/site-materials/internal/domain/inventory"
	"github.com/Spok95/site-materials/internal/ledger"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Ledger то, что бот читает из журнала.
type Ledger interface {
	Dashboard(ctx context.Context) (analytics.Dashboard, error)
	Remaining(ctx context.Context, f inventory.RowFilter) (ledger.InventoryView, error)
	History(ctx context.Context, id int) (ledger.HistoryView, error)
	Analytics(ctx context.Context) (ledger.AnalyticsView, error)
	Snapshot(ctx context.Context) (ledger.Snapshot, error)
}

// API часть tgbotapi.BotAPI, которой пользуется бот.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

var _ API = (*tgbotapi.BotAPI)(nil)

type Bot struct {
	api       API
	log       *slog.Logger
	svc       Ledger
	adminChat int64
	now       func() time.Time
}

// New при adminChatID = 0 бот отвечает всем.
func New(api API, log *slog.Logger, svc Ledger, adminChatID int64, loc *time.Location) *Bot {
	if loc == nil {
		loc = time.UTC
	}
	return &Bot{
		api:       api,
		log:       log,
		svc:       svc,
		adminChat: adminChatID,
		now:       func() time.Time { return time.Now().In(loc) },
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			if upd.Message != nil {
				b.onMessage(ctx, upd)
			} else if upd.CallbackQuery != nil {
				b.onCallback(ctx, upd)
			}
		}
	}
}

func (b *Bot) onMessage(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if !b.allowed(msg.Chat.ID) {
		b.log.Warn("message from unknown chat ignored", "chat_id", msg.Chat.ID)
		return
	}
	if msg.IsCommand() {
		b.handleCommand(ctx, msg.Chat.ID, msg.Command(), msg.CommandArguments())
		return
	}
	b.handleText(ctx, msg.Chat.ID, msg.Text)
}

func (b *Bot) onCallback(ctx context.Context, upd tgbotapi.Update) {
	cb := upd.CallbackQuery
	if cb.Message == nil || !b.allowed(cb.Message.Chat.ID) {
		return
	}
	b.handleCallback(ctx, cb)
}

func (b *Bot) allowed(chatID int64) bool {
	return b.adminChat == 0 || chatID == b.adminChat
}
