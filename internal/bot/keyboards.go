package bot

import (
	"fmt"

	"github.com/Spok95/site-materials/internal/domain/inventory"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// кнопок истории не больше, чем помещается в сообщение без прокрутки
const maxHistoryButtons = 10

// mainReplyKeyboard нижняя панель оператора
func mainReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnSummary), tgbotapi.NewKeyboardButton(btnAnalytics)},
			{tgbotapi.NewKeyboardButton(btnRemaining), tgbotapi.NewKeyboardButton(btnDepleted)},
			{tgbotapi.NewKeyboardButton(btnExportCSV), tgbotapi.NewKeyboardButton(btnExportXLS)},
		},
	}
}

// remainingKeyboard кнопки истории по первым строкам и переключатель статуса.
func remainingKeyboard(rows []inventory.Row) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	var kb [][]tgbotapi.InlineKeyboardButton
	for i, r := range rows {
		if i == maxHistoryButtons {
			break
		}
		label := fmt.Sprintf("#%d %s (%s)", r.MaterialID, r.MaterialName, r.SiteName)
		kb = append(kb, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("hist:%d", r.MaterialID)),
		))
	}
	kb = append(kb, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("Доступные", "rem:"+string(inventory.StatusAvailable)),
		tgbotapi.NewInlineKeyboardButtonData("Закончились", "rem:"+string(inventory.StatusDepleted)),
	))
	return tgbotapi.NewInlineKeyboardMarkup(kb...), true
}
