package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/dialog"
)

// qrSizes — пиксельные размеры плиток для печати.
var qrSizes = map[string]int{
	"small":  64,
	"medium": 100,
	"large":  150,
}

var qrSizeLabels = map[string]string{
	"small":  "Маленький",
	"medium": "Средний",
	"large":  "Большой",
}

func (b *Bot) openPrint(ctx context.Context, chatID int64) {
	cabinets, err := b.clientFor(chatID).ListCabinets(ctx)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить шкафы.")))
		return
	}
	if len(cabinets) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "Шкафов нет — печатать нечего."))
		return
	}

	st, _ := b.states.Get(ctx, chatID)
	selected, _ := dialog.GetInt64(st.Payload, "prn_cab")
	size, _ := dialog.GetString(st.Payload, "prn_size")
	if size == "" {
		size = "medium"
	}
	found := false
	for _, c := range cabinets {
		if c.ID == selected {
			found = true
		}
	}
	if !found {
		selected = cabinets[0].ID
	}

	_ = b.states.Set(ctx, chatID, dialog.StatePrnView, dialog.Payload{
		"prn_cab":  selected,
		"prn_size": size,
	})

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, c := range cabinets {
		label := c.Name
		if c.ID == selected {
			label = "✅ " + label
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("prn:cab:%d", c.ID)),
		))
	}
	sizeRow := []tgbotapi.InlineKeyboardButton{}
	for _, s := range []string{"small", "medium", "large"} {
		label := qrSizeLabels[s]
		if s == size {
			label = "• " + label
		}
		sizeRow = append(sizeRow, tgbotapi.NewInlineKeyboardButtonData(label, "prn:size:"+s))
	}
	rows = append(rows, sizeRow)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🖨 Сформировать", "prn:go"),
	))

	m := tgbotapi.NewMessage(chatID, "Печать QR-кодов: выберите шкаф и размер.")
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(m)
}

func (b *Bot) handlePrintCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	chatID := cb.Message.Chat.ID
	st, _ := b.states.Get(ctx, chatID)

	switch {
	case strings.HasPrefix(data, "prn:cab:"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "prn:cab:"), 10, 64)
		st.Payload["prn_cab"] = id
		_ = b.states.Set(ctx, chatID, dialog.StatePrnView, st.Payload)
		b.openPrint(ctx, chatID)

	case strings.HasPrefix(data, "prn:size:"):
		size := strings.TrimPrefix(data, "prn:size:")
		if _, ok := qrSizes[size]; !ok {
			size = "medium"
		}
		st.Payload["prn_size"] = size
		_ = b.states.Set(ctx, chatID, dialog.StatePrnView, st.Payload)
		b.openPrint(ctx, chatID)

	case data == "prn:go":
		cabID, _ := dialog.GetInt64(st.Payload, "prn_cab")
		size, _ := dialog.GetString(st.Payload, "prn_size")
		b.sendQRSheets(ctx, chatID, cabID, size)
	}
}

// sendQRSheets шлёт по одному QR на каждую ёмкость выбранного шкафа.
// В код зашивается путь scan/<id> — его же понимает сканер.
func (b *Bot) sendQRSheets(ctx context.Context, chatID int64, cabinetID int64, size string) {
	cabinets, err := b.clientFor(chatID).ListCabinets(ctx)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить шкафы.")))
		return
	}

	var cab *api.Cabinet
	for i := range cabinets {
		if cabinets[i].ID == cabinetID {
			cab = &cabinets[i]
			break
		}
	}
	if cab == nil {
		b.send(tgbotapi.NewMessage(chatID, "Шкаф не найден."))
		return
	}
	if len(cab.Containers) == 0 {
		b.send(tgbotapi.NewMessage(chatID, "В этом шкафу нет ёмкостей."))
		return
	}

	px, ok := qrSizes[size]
	if !ok {
		px = qrSizes["medium"]
	}

	for _, c := range cab.Containers {
		png, err := qrcode.Encode(qrPayload(c.ID), qrcode.Medium, px)
		if err != nil {
			b.log.Error("qr encode failed", "container", c.ID, "err", err)
			continue
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
			Name:  fmt.Sprintf("qr_%d.png", c.ID),
			Bytes: png,
		})
		photo.Caption = c.Name
		b.send(photo)
	}
	b.send(tgbotapi.NewMessage(chatID,
		fmt.Sprintf("Готово: %d QR-кодов для шкафа «%s».", len(cab.Containers), cab.Name)))
}

func qrPayload(containerID int64) string {
	return fmt.Sprintf("scan/%d", containerID)
}
