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

const histPageSize = 10

// openHistory загружает операции и справочник пользователей один раз;
// дальше фильтры и сортировка пересчитываются по загруженному.
func (b *Bot) openHistory(ctx context.Context, chatID int64) {
	client := b.clientFor(chatID)

	txs, err := client.Transactions(ctx)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить данные.")))
		return
	}
	users, err := client.ListUsers(ctx)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить данные.")))
		return
	}

	sort := derive.DefaultSort()
	_ = b.states.Set(ctx, chatID, dialog.StateHistView, dialog.Payload{
		"txs":        txs,
		"users":      users,
		"f_material": "",
		"f_user":     int64(0),
		"sort_key":   string(sort.Key),
		"sort_desc":  sort.Desc,
		"page":       int64(0),
	})
	b.renderHistory(ctx, chatID, 0)
}

func histState(p dialog.Payload) (txs []api.Transaction, users []api.User, material string, userID int64, st derive.SortState, page int) {
	txs, _ = p["txs"].([]api.Transaction)
	users, _ = p["users"].([]api.User)
	material, _ = dialog.GetString(p, "f_material")
	userID, _ = dialog.GetInt64(p, "f_user")
	key, _ := dialog.GetString(p, "sort_key")
	st = derive.SortState{Key: derive.SortKey(key), Desc: dialog.GetBool(p, "sort_desc")}
	pg, _ := dialog.GetInt64(p, "page")
	return txs, users, material, userID, st, int(pg)
}

// renderHistory: фильтр → сортировка → страница.
func (b *Bot) renderHistory(ctx context.Context, chatID int64, editMsgID int) {
	stItem, _ := b.states.Get(ctx, chatID)
	txs, users, material, userID, sortSt, page := histState(stItem.Payload)

	rows := derive.SortTransactions(derive.FilterTransactions(txs, material, userID, users), sortSt)

	pages := (len(rows) + histPageSize - 1) / histPageSize
	if pages == 0 {
		pages = 1
	}
	if page >= pages {
		page = pages - 1
	}
	from := page * histPageSize
	to := from + histPageSize
	if to > len(rows) {
		to = len(rows)
	}

	var sb strings.Builder
	sb.WriteString("История операций\n")
	if material != "" {
		fmt.Fprintf(&sb, "Материал: «%s»\n", material)
	}
	if userID != 0 {
		for _, u := range users {
			if u.ID == userID {
				fmt.Fprintf(&sb, "Пользователь: %s\n", u.Username)
			}
		}
	}
	dir := "по убыванию"
	if !sortSt.Desc {
		dir = "по возрастанию"
	}
	col := "время"
	if sortSt.Key == derive.KeyQuantityChange {
		col = "изменение количества"
	}
	fmt.Fprintf(&sb, "Сортировка: %s, %s\n\n", col, dir)

	if len(rows) == 0 {
		sb.WriteString("Операций не найдено.\n")
	}
	for _, t := range rows[from:to] {
		user := t.User
		if user == "" {
			user = "N/A"
		}
		fmt.Fprintf(&sb, "%s  %s\n%s: %s (%s)\n\n",
			t.Timestamp.Local().Format("02.01.2006 15:04"),
			txTypeLabel(t.Type),
			t.ContainerName,
			formatChange(t.QuantityChange),
			user,
		)
	}
	fmt.Fprintf(&sb, "Стр. %d из %d (всего %d)", page+1, pages, len(rows))

	kbRows := [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("⏱ Время", "hist:sort:timestamp"),
			tgbotapi.NewInlineKeyboardButtonData("🔢 Количество", "hist:sort:quantity_change"),
		},
		{
			tgbotapi.NewInlineKeyboardButtonData("🔍 Материал", "hist:fmat"),
			tgbotapi.NewInlineKeyboardButtonData("👤 Пользователь", "hist:fusr"),
			tgbotapi.NewInlineKeyboardButtonData("♻️ Сброс", "hist:clear"),
		},
	}
	nav := []tgbotapi.InlineKeyboardButton{}
	if page > 0 {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("« Назад", fmt.Sprintf("hist:page:%d", page-1)))
	}
	if page+1 < pages {
		nav = append(nav, tgbotapi.NewInlineKeyboardButtonData("Вперёд »", fmt.Sprintf("hist:page:%d", page+1)))
	}
	if len(nav) > 0 {
		kbRows = append(kbRows, nav)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)

	if editMsgID != 0 {
		b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, editMsgID, sb.String(), kb))
		return
	}
	m := tgbotapi.NewMessage(chatID, sb.String())
	m.ReplyMarkup = kb
	b.send(m)
}

func (b *Bot) handleHistoryCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	chatID := cb.Message.Chat.ID
	st, _ := b.states.Get(ctx, chatID)
	if _, ok := st.Payload["txs"]; !ok {
		// данные ещё не загружены (например, после рестарта)
		b.openHistory(ctx, chatID)
		return
	}

	switch {
	case strings.HasPrefix(data, "hist:sort:"):
		clicked := derive.SortKey(strings.TrimPrefix(data, "hist:sort:"))
		key, _ := dialog.GetString(st.Payload, "sort_key")
		cur := derive.SortState{Key: derive.SortKey(key), Desc: dialog.GetBool(st.Payload, "sort_desc")}
		next := derive.NextSort(cur, clicked)
		st.Payload["sort_key"] = string(next.Key)
		st.Payload["sort_desc"] = next.Desc
		st.Payload["page"] = int64(0)
		_ = b.states.Set(ctx, chatID, dialog.StateHistView, st.Payload)
		b.renderHistory(ctx, chatID, cb.Message.MessageID)

	case data == "hist:fmat":
		_ = b.states.Set(ctx, chatID, dialog.StateHistFilterMaterial, st.Payload)
		m := tgbotapi.NewMessage(chatID, "Введите часть названия материала («-» — сбросить):")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case data == "hist:fusr":
		users, _ := st.Payload["users"].([]api.User)
		rows := [][]tgbotapi.InlineKeyboardButton{
			{tgbotapi.NewInlineKeyboardButtonData("Все пользователи", "hist:fusr:0")},
		}
		for _, u := range users {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(u.Username, fmt.Sprintf("hist:fusr:%d", u.ID)),
			))
		}
		m := tgbotapi.NewMessage(chatID, "Фильтр по пользователю:")
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		b.send(m)

	case strings.HasPrefix(data, "hist:fusr:"):
		id, _ := strconv.ParseInt(strings.TrimPrefix(data, "hist:fusr:"), 10, 64)
		st.Payload["f_user"] = id
		st.Payload["page"] = int64(0)
		_ = b.states.Set(ctx, chatID, dialog.StateHistView, st.Payload)
		b.renderHistory(ctx, chatID, 0)

	case data == "hist:clear":
		st.Payload["f_material"] = ""
		st.Payload["f_user"] = int64(0)
		st.Payload["page"] = int64(0)
		_ = b.states.Set(ctx, chatID, dialog.StateHistView, st.Payload)
		b.renderHistory(ctx, chatID, cb.Message.MessageID)

	case strings.HasPrefix(data, "hist:page:"):
		page, _ := strconv.ParseInt(strings.TrimPrefix(data, "hist:page:"), 10, 64)
		st.Payload["page"] = page
		_ = b.states.Set(ctx, chatID, dialog.StateHistView, st.Payload)
		b.renderHistory(ctx, chatID, cb.Message.MessageID)
	}
}

func (b *Bot) handleHistoryMaterialInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	term := strings.TrimSpace(msg.Text)
	if term == "-" {
		term = ""
	}
	st.Payload["f_material"] = term
	st.Payload["page"] = int64(0)
	_ = b.states.Set(ctx, chatID, dialog.StateHistView, st.Payload)
	b.renderHistory(ctx, chatID, 0)
}
