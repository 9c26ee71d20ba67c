package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/derive"
	"github.com/antonkh/labstock-bot/internal/dialog"
)

// openScanner переводит чат в режим ожидания скана. Предыдущая
// сканирующая сессия при этом сбрасывается целиком.
func (b *Bot) openScanner(ctx context.Context, chatID int64) {
	_ = b.states.Set(ctx, chatID, dialog.StateScanAwait, dialog.Payload{})
	b.send(tgbotapi.NewMessage(chatID,
		"Отсканируйте QR-код ёмкости и отправьте его содержимое сообщением (вида scan/42)."))
}

// handleScanPayload: удачное распознавание завершает сканирование и
// загружает ёмкость; идентификатор — хвост payload после последнего «/».
func (b *Bot) handleScanPayload(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	contID := containerIDFromPayload(msg.Text)
	if contID == "" {
		b.send(tgbotapi.NewMessage(chatID, "Пустой код. Попробуйте отсканировать ещё раз."))
		return
	}

	c, err := b.clientFor(chatID).GetContainer(ctx, contID)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		if errors.Is(err, api.ErrNotFound) {
			b.send(tgbotapi.NewMessage(chatID, "Ошибка: ёмкость не найдена или нет доступа."))
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить ёмкость.")))
		return
	}

	_ = b.states.Set(ctx, chatID, dialog.StateScanLookedUp, dialog.Payload{"cont_id": c.ID})
	b.sendScannedCard(chatID, c, "")
}

func (b *Bot) sendScannedCard(chatID int64, c *api.Container, note string) {
	var sb strings.Builder
	if note != "" {
		sb.WriteString(note + "\n\n")
	}
	sb.WriteString("Информация о ёмкости\n")
	fmt.Fprintf(&sb, "Материал: %s\n", c.Name)
	fmt.Fprintf(&sb, "Текущий остаток: %s %s\n", formatQty(c.CurrentQuantity), c.Unit)
	fmt.Fprintf(&sb, "Шкаф: %s\n", c.CabinetName)
	if derive.IsLowStock(c.CurrentQuantity, c.LowStockThreshold) {
		sb.WriteString("⚠️ Низкий остаток\n")
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➖ Списать", "scan:wo"),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Сканировать снова", "scan:again"),
		),
	)
	m := tgbotapi.NewMessage(chatID, sb.String())
	m.ReplyMarkup = kb
	b.send(m)
}

func (b *Bot) handleScannerCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	chatID := cb.Message.Chat.ID
	st, _ := b.states.Get(ctx, chatID)

	switch data {
	case "scan:wo":
		if st.State != dialog.StateScanLookedUp {
			b.openScanner(ctx, chatID)
			return
		}
		_ = b.states.Set(ctx, chatID, dialog.StateScanWriteOff, st.Payload)
		m := tgbotapi.NewMessage(chatID, "Количество для списания:")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case "scan:again":
		b.openScanner(ctx, chatID)
	}
}

// handleWriteOffInput проверяет количество до похода в сеть; после
// успеха карточка показывает ровно то состояние, что вернул бэкенд.
func (b *Bot) handleWriteOffInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	amount, ok := parsePositiveAmount(msg.Text)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "Введите корректное количество для списания."))
		return
	}

	contID, _ := dialog.GetInt64(st.Payload, "cont_id")
	updated, err := b.clientFor(chatID).WriteOff(ctx, contID, amount)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		// типично: «недостаточно материала» с остатком в тексте бэкенда
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка списания.")))
		return
	}

	_ = b.states.Set(ctx, chatID, dialog.StateScanLookedUp, dialog.Payload{"cont_id": updated.ID})
	b.sendScannedCard(chatID, updated, fmt.Sprintf("✅ Успешно списано %s!", formatQty(amount)))
}
