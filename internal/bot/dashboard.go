package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/derive"
	"github.com/antonkh/labstock-bot/internal/dialog"
)

// openDashboard загружает все шкафы и рисует обзор склада.
// highlightID — одноразовый переход из уведомления: он потребляется здесь
// (становится обычным выбором) и повторно не срабатывает.
func (b *Bot) openDashboard(ctx context.Context, chatID int64, highlightID int64) {
	cabinets, err := b.clientFor(chatID).ListCabinets(ctx)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить шкафы.")))
		return
	}

	st, _ := b.states.Get(ctx, chatID)
	search, _ := dialog.GetString(st.Payload, "search")
	selected, _ := dialog.GetInt64(st.Payload, "selected_cab")
	selected = resolveSelectedCabinet(cabinets, selected, highlightID)

	_ = b.states.Set(ctx, chatID, dialog.StateDashList, dialog.Payload{
		"selected_cab": selected,
		"search":       search,
	})

	text, kb := renderDashboard(cabinets, selected, search)
	m := tgbotapi.NewMessage(chatID, text)
	m.ReplyMarkup = kb
	b.send(m)
}

// resolveSelectedCabinet: приоритет у подсветки из уведомления, затем
// прежний выбор, затем первый шкаф. Подсветка дальше нигде не хранится:
// на следующем открытии её место занимает обычный selected.
func resolveSelectedCabinet(cabinets []api.Cabinet, selected, highlightID int64) int64 {
	exists := func(id int64) bool {
		for _, c := range cabinets {
			if c.ID == id {
				return true
			}
		}
		return false
	}
	switch {
	case highlightID != 0 && exists(highlightID):
		return highlightID
	case exists(selected):
		return selected
	case len(cabinets) > 0:
		return cabinets[0].ID
	}
	return 0
}

func renderDashboard(cabinets []api.Cabinet, selected int64, search string) (string, tgbotapi.InlineKeyboardMarkup) {
	filtered := derive.SearchCabinets(cabinets, search)

	var sb strings.Builder
	sb.WriteString("Шкафы и материалы\n")
	if search != "" {
		fmt.Fprintf(&sb, "Поиск: «%s»\n", search)
	}
	if len(cabinets) == 0 {
		sb.WriteString("\nШкафов пока нет — создайте первый.")
	}

	rows := [][]tgbotapi.InlineKeyboardButton{}
	var selectedCab *api.Cabinet
	for i := range filtered {
		c := &filtered[i]
		label := "📦 " + c.Name
		if c.ID == selected {
			label = "✅ " + c.Name
			selectedCab = c
		}
		if n := len(derive.LowStockList(c.Containers)); n > 0 {
			label += fmt.Sprintf(" ⚠️%d", n)
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("cab:sel:%d", c.ID)),
		))
	}

	actions := []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("➕ Шкаф", "cab:new"),
		tgbotapi.NewInlineKeyboardButtonData("🔍 Поиск", "cab:search"),
	}
	if selectedCab != nil {
		actions = append(actions, tgbotapi.NewInlineKeyboardButtonData("🗑 Шкаф", fmt.Sprintf("cab:del:%d", selectedCab.ID)))
	}
	rows = append(rows, actions)

	if selectedCab != nil {
		fmt.Fprintf(&sb, "\nШкаф: %s\n", selectedCab.Name)
		if selectedCab.Description != "" {
			sb.WriteString(selectedCab.Description + "\n")
		}
		if len(selectedCab.Containers) == 0 {
			sb.WriteString("Ёмкостей нет.\n")
		}
		for _, c := range selectedCab.Containers {
			label := fmt.Sprintf("%s: %s %s", c.Name, formatQty(c.CurrentQuantity), c.Unit)
			if derive.IsLowStock(c.CurrentQuantity, c.LowStockThreshold) {
				label = "⚠️ " + label
			}
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("cont:item:%d", c.ID)),
			))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Ёмкость", "cont:new"),
		))
	} else if len(cabinets) > 0 {
		sb.WriteString("\nШкаф не выбран. Выберите шкаф из списка.")
	}

	return sb.String(), tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// showContainerCard перечитывает ёмкость и рисует её карточку.
func (b *Bot) showContainerCard(ctx context.Context, chatID int64, editMsgID int, contID int64) {
	c, err := b.clientFor(chatID).GetContainer(ctx, strconv.FormatInt(contID, 10))
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.editTextAndClear(chatID, editMsgID, errText(err, "Ёмкость не найдена."))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Материал: %s\n", c.Name)
	fmt.Fprintf(&sb, "Шкаф: %s\n", c.CabinetName)
	fmt.Fprintf(&sb, "Остаток: %s %s из %s\n", formatQty(c.CurrentQuantity), c.Unit, formatQty(c.InitialQuantity))
	fmt.Fprintf(&sb, "Наполнение: %s\n", fillBar(c.CurrentQuantity, c.InitialQuantity))
	fmt.Fprintf(&sb, "Порог: %s %s\n", formatQty(c.LowStockThreshold), c.Unit)
	if derive.IsLowStock(c.CurrentQuantity, c.LowStockThreshold) {
		sb.WriteString("⚠️ Низкий остаток\n")
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Пополнить", fmt.Sprintf("cont:rep:%d", c.ID)),
			tgbotapi.NewInlineKeyboardButtonData("✏️ Остаток", fmt.Sprintf("cont:qty:%d", c.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🖼 QR", fmt.Sprintf("cont:qr:%d", c.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("cont:del:%d", c.ID)),
		),
		navKeyboard(true, true).InlineKeyboard[0],
	)
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, editMsgID, sb.String(), kb))
}

func (b *Bot) handleDashboardCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	chatID := cb.Message.Chat.ID
	parts := strings.Split(data, ":")
	if len(parts) < 2 {
		return
	}

	st, _ := b.states.Get(ctx, chatID)
	id64 := func(i int) int64 {
		if i >= len(parts) {
			return 0
		}
		v, _ := strconv.ParseInt(parts[i], 10, 64)
		return v
	}

	switch parts[0] + ":" + parts[1] {
	case "cab:sel":
		st.Payload["selected_cab"] = id64(2)
		_ = b.states.Set(ctx, chatID, dialog.StateDashList, st.Payload)
		b.openDashboard(ctx, chatID, 0)

	case "cab:new":
		_ = b.states.Set(ctx, chatID, dialog.StateDashNewCabinet, st.Payload)
		m := tgbotapi.NewMessage(chatID, "Название нового шкафа:")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case "cab:search":
		_ = b.states.Set(ctx, chatID, dialog.StateDashSearch, st.Payload)
		m := tgbotapi.NewMessage(chatID, "Введите часть названия шкафа («-» — сбросить поиск):")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case "cab:del":
		m := tgbotapi.NewMessage(chatID, "Удалить шкаф вместе со всеми ёмкостями?")
		m.ReplyMarkup = confirmKeyboard(fmt.Sprintf("cab:delok:%d", id64(2)))
		b.send(m)

	case "cab:delok":
		cabID := id64(2)
		if err := b.clientFor(chatID).DeleteCabinet(ctx, cabID); err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка удаления шкафа.")))
			return
		}
		if sel, _ := dialog.GetInt64(st.Payload, "selected_cab"); sel == cabID {
			st.Payload["selected_cab"] = int64(0)
			_ = b.states.Set(ctx, chatID, dialog.StateDashList, st.Payload)
		}
		b.openDashboard(ctx, chatID, 0)

	case "cont:item":
		b.showContainerCard(ctx, chatID, cb.Message.MessageID, id64(2))

	case "cont:new":
		sel, _ := dialog.GetInt64(st.Payload, "selected_cab")
		if sel == 0 {
			b.send(tgbotapi.NewMessage(chatID, "Сначала выберите шкаф."))
			return
		}
		_ = b.states.Set(ctx, chatID, dialog.StateContNew, dialog.Payload{
			"selected_cab": sel,
			"search":       st.Payload["search"],
			"step":         "name",
		})
		m := tgbotapi.NewMessage(chatID, "Название материала:")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case "cont:rep":
		p := st.Payload
		p["cont_id"] = id64(2)
		_ = b.states.Set(ctx, chatID, dialog.StateContReplenish, p)
		m := tgbotapi.NewMessage(chatID, "Количество для пополнения:")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case "cont:qty":
		p := st.Payload
		p["cont_id"] = id64(2)
		_ = b.states.Set(ctx, chatID, dialog.StateContEditQty, p)
		m := tgbotapi.NewMessage(chatID, "Новое значение остатка:")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case "cont:qr":
		b.sendBackendQR(ctx, chatID, id64(2))

	case "cont:del":
		m := tgbotapi.NewMessage(chatID, "Удалить ёмкость?")
		m.ReplyMarkup = confirmKeyboard(fmt.Sprintf("cont:delok:%d", id64(2)))
		b.send(m)

	case "cont:delok":
		if err := b.clientFor(chatID).DeleteContainer(ctx, id64(2)); err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка удаления ёмкости.")))
			return
		}
		b.openDashboard(ctx, chatID, 0)
	}
}

// sendBackendQR показывает QR-код, отрисованный бэкендом.
func (b *Bot) sendBackendQR(ctx context.Context, chatID int64, contID int64) {
	img, err := b.clientFor(chatID).QRCodeImage(ctx, contID)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить QR-код.")))
		return
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  fmt.Sprintf("qr_%d.png", contID),
		Bytes: img,
	})
	b.send(photo)
}

/*** ВВОД С КЛАВИАТУРЫ ***/

func (b *Bot) handleDashSearchInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	term := strings.TrimSpace(msg.Text)
	if term == "-" {
		term = ""
	}
	st.Payload["search"] = term
	_ = b.states.Set(ctx, chatID, dialog.StateDashList, st.Payload)
	b.openDashboard(ctx, chatID, 0)
}

func (b *Bot) handleNewCabinetInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	name := strings.TrimSpace(msg.Text)
	if name == "" {
		b.send(tgbotapi.NewMessage(chatID, "Название не может быть пустым. Введите название шкафа:"))
		return
	}

	created, err := b.clientFor(chatID).CreateCabinet(ctx, name, "")
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка создания шкафа.")))
		return
	}
	_ = b.states.Set(ctx, chatID, dialog.StateDashList, st.Payload)
	// созданный шкаф становится выбранным
	b.openDashboard(ctx, chatID, created.ID)
}

// handleNewContainerInput — пошаговый ввод полей ёмкости:
// название → единица → начальное количество → текущее → порог.
func (b *Bot) handleNewContainerInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)
	step, _ := dialog.GetString(st.Payload, "step")

	ask := func(prompt, next string) {
		st.Payload["step"] = next
		_ = b.states.Set(ctx, chatID, dialog.StateContNew, st.Payload)
		m := tgbotapi.NewMessage(chatID, prompt)
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)
	}

	switch step {
	case "name":
		if text == "" {
			b.send(tgbotapi.NewMessage(chatID, "Название обязательно. Введите название материала:"))
			return
		}
		st.Payload["name"] = text
		ask("Единица измерения (мл, г):", "unit")

	case "unit":
		if text == "" {
			b.send(tgbotapi.NewMessage(chatID, "Единица обязательна. Введите единицу измерения:"))
			return
		}
		st.Payload["unit"] = text
		ask("Максимальное (начальное) количество:", "initial")

	case "initial":
		v, ok := parsePositiveAmount(text)
		if !ok {
			b.send(tgbotapi.NewMessage(chatID, "Введите корректное положительное число."))
			return
		}
		st.Payload["initial"] = v
		ask("Текущее количество:", "current")

	case "current":
		v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
		if err != nil || v < 0 {
			b.send(tgbotapi.NewMessage(chatID, "Введите корректное неотрицательное число."))
			return
		}
		st.Payload["current"] = v
		ask("Порог низкого остатка («-» — без порога):", "threshold")

	case "threshold":
		var thr float64
		if text != "-" && text != "" {
			v, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64)
			if err != nil || v < 0 {
				b.send(tgbotapi.NewMessage(chatID, "Введите корректное неотрицательное число или «-»."))
				return
			}
			thr = v
		}

		cabID, _ := dialog.GetInt64(st.Payload, "selected_cab")
		name, _ := dialog.GetString(st.Payload, "name")
		unit, _ := dialog.GetString(st.Payload, "unit")
		initial, _ := dialog.GetFloat(st.Payload, "initial")
		current, _ := dialog.GetFloat(st.Payload, "current")

		_, err := b.clientFor(chatID).CreateContainer(ctx, api.NewContainer{
			Name:              name,
			Unit:              unit,
			InitialQuantity:   initial,
			CurrentQuantity:   current,
			LowStockThreshold: thr,
			CabinetID:         cabID,
		})
		if err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка создания ёмкости.")))
			return
		}
		_ = b.states.Set(ctx, chatID, dialog.StateDashList, dialog.Payload{
			"selected_cab": cabID,
			"search":       st.Payload["search"],
		})
		b.openDashboard(ctx, chatID, 0)
	}
}

func (b *Bot) handleContainerQtyInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(msg.Text), ",", "."), 64)
	if err != nil || v < 0 {
		b.send(tgbotapi.NewMessage(chatID, "Введите корректное неотрицательное число."))
		return
	}

	contID, _ := dialog.GetInt64(st.Payload, "cont_id")
	client := b.clientFor(chatID)

	// PUT требует полный набор полей — берём свежий снимок
	c, err2 := client.GetContainer(ctx, strconv.FormatInt(contID, 10))
	if err2 != nil {
		if b.authFailed(ctx, chatID, err2) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err2, "Ёмкость не найдена.")))
		return
	}

	_, err = client.UpdateContainer(ctx, contID, api.NewContainer{
		Name:              c.Name,
		Unit:              c.Unit,
		InitialQuantity:   c.InitialQuantity,
		CurrentQuantity:   v,
		LowStockThreshold: c.LowStockThreshold,
		CabinetID:         c.CabinetID,
	})
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка обновления.")))
		return
	}
	b.openDashboard(ctx, chatID, 0)
}

func (b *Bot) handleReplenishInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	amount, ok := parsePositiveAmount(msg.Text)
	if !ok {
		b.send(tgbotapi.NewMessage(chatID, "Введите корректное положительное число."))
		return
	}

	contID, _ := dialog.GetInt64(st.Payload, "cont_id")
	updated, err := b.clientFor(chatID).Replenish(ctx, contID, amount)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка пополнения.")))
		return
	}

	// показываем остаток из ответа бэкенда, без локальной арифметики
	b.send(tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Пополнено: %s — теперь %s %s.", updated.Name, formatQty(updated.CurrentQuantity), updated.Unit)))

	if dialog.GetBool(st.Payload, "from_notify") {
		_ = b.states.Reset(ctx, chatID)
		return
	}
	b.openDashboard(ctx, chatID, 0)
}
