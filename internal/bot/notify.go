package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/derive"
	"github.com/antonkh/labstock-bot/internal/dialog"
)

// RunLowStockMonitor — фоновый опрос остатков для администраторов.
// Живёт ровно до отмены ctx; таймер останавливается детерминированно.
func (b *Bot) RunLowStockMonitor(ctx context.Context, interval time.Duration) {
	// первый проход сразу, не дожидаясь тикера
	b.pollLowStock(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			b.log.Info("low-stock monitor stopped")
			return
		case <-ticker.C:
			b.pollLowStock(ctx)
		}
	}
}

func (b *Bot) pollLowStock(ctx context.Context) {
	for _, chatID := range b.sessions.Admins() {
		rep, err := b.clientFor(chatID).SummaryReport(ctx, 0)
		if err != nil {
			if errors.Is(err, api.ErrUnauthorized) {
				// фоновый цикл не начинает диалогов: сессию чистим молча
				_ = b.sessions.Logout(chatID)
				continue
			}
			b.log.Error("low-stock poll failed", "chat", chatID, "err", err)
			continue
		}

		low := derive.LowStockList(rep.FullInventory)
		sig := lowStockSignature(low)

		b.mu.Lock()
		prev, seen := b.lowStockSig[chatID]
		b.lowStockSig[chatID] = sig
		b.mu.Unlock()

		// шлём только при изменении набора, чтобы не спамить
		if seen && prev == sig {
			continue
		}
		if !seen && len(low) == 0 {
			continue
		}
		b.sendLowStockNotice(chatID, low)
	}
}

func lowStockSignature(items []api.Container) string {
	var sb strings.Builder
	for _, it := range items {
		sb.WriteString(strconv.FormatInt(it.ID, 10))
		sb.WriteByte(':')
		sb.WriteString(strconv.FormatFloat(it.CurrentQuantity, 'f', -1, 64))
		sb.WriteByte(';')
	}
	return sb.String()
}

func (b *Bot) sendLowStockNotice(chatID int64, items []api.Container) {
	if len(items) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "✅ Позиций с низким остатком больше нет."))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚠️ Низкий остаток, позиций: %d\n", len(items))
	for _, it := range items {
		fmt.Fprintf(&sb, "— %s в «%s» (%s / %s)\n",
			it.Name, it.CabinetName, formatQty(it.CurrentQuantity), formatQty(it.LowStockThreshold))
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for i, it := range items {
		if i == 10 {
			// кнопки только на первые позиции, остальное в тексте
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ "+it.Name, fmt.Sprintf("ntf:rep:%d", it.ID)),
			tgbotapi.NewInlineKeyboardButtonData("📦 Показать", fmt.Sprintf("ntf:dash:%d", it.CabinetID)),
		))
	}

	m := tgbotapi.NewMessage(chatID, sb.String())
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(m)
}

func (b *Bot) handleNotifyCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(data, "ntf:rep:"):
		contID, _ := strconv.ParseInt(strings.TrimPrefix(data, "ntf:rep:"), 10, 64)
		c, err := b.clientFor(chatID).GetContainer(ctx, strconv.FormatInt(contID, 10))
		if err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, errText(err, "Ёмкость не найдена.")))
			return
		}
		_ = b.states.Set(ctx, chatID, dialog.StateContReplenish, dialog.Payload{
			"cont_id":     c.ID,
			"from_notify": true,
		})
		m := tgbotapi.NewMessage(chatID, fmt.Sprintf(
			"Количество для пополнения «%s» (текущий остаток: %s):", c.Name, formatQty(c.CurrentQuantity)))
		m.ReplyMarkup = navKeyboard(false, true)
		b.send(m)

	case strings.HasPrefix(data, "ntf:dash:"):
		cabID, _ := strconv.ParseInt(strings.TrimPrefix(data, "ntf:dash:"), 10, 64)
		// одноразовый переход: подсветка потребляется при открытии
		b.openDashboard(ctx, chatID, cabID)
	}
}
