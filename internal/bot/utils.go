package bot

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/derive"
)

/*** HELPERS ***/

func (b *Bot) answerCallback(cb *tgbotapi.CallbackQuery, text string, alert bool) {
	resp := tgbotapi.NewCallback(cb.ID, text)
	resp.ShowAlert = alert
	if _, err := b.tg.Request(resp); err != nil {
		b.log.Error("answer callback failed", "err", err)
	}
}

func (b *Bot) editTextAndClear(chatID int64, messageID int, text string) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		chatID, messageID, text,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	b.send(edit)
}

func formatQty(q float64) string {
	return strconv.FormatFloat(q, 'f', 2, 64)
}

// formatChange: у пополнений знак плюс явный, как в таблице истории.
func formatChange(q float64) string {
	s := strconv.FormatFloat(q, 'f', 2, 64)
	if q > 0 {
		return "+" + s
	}
	return s
}

func txTypeLabel(t api.TransactionType) string {
	switch t {
	case api.TxWriteOff:
		return "Списание"
	case api.TxReplenish:
		return "Пополнение"
	default:
		return "Создание"
	}
}

// fillBar — текстовый индикатор наполнения с цветовой зоной.
func fillBar(current, initial float64) string {
	pct := derive.FillPercentage(current, initial)
	shown := pct
	if shown < 0 {
		shown = 0
	} else if shown > 100 {
		shown = 100
	}
	filled := int(math.Round(shown / 20)) // 5 сегментов
	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", 5-filled)

	mark := "🟢"
	switch derive.FillBand(current, initial) {
	case derive.BandCritical:
		mark = "🔴"
	case derive.BandWarning:
		mark = "🟡"
	}
	return fmt.Sprintf("%s %d%% %s", bar, int(math.Round(shown)), mark)
}

// parsePositiveAmount валидирует ввод количества до любого похода в сеть.
func parsePositiveAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// containerIDFromPayload: идентификатор — хвост после последнего «/».
// Payload вида «scan/42» даёт «42»; строка без «/» берётся целиком.
func containerIDFromPayload(payload string) string {
	s := strings.TrimSpace(payload)
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// sanitizeFileName заменяет небезопасные для имени файла символы.
func sanitizeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '/', '\\':
			return '_'
		}
		return r
	}, name)
}
