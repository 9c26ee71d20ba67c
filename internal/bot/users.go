package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/dialog"
)

func (b *Bot) openUsers(ctx context.Context, chatID int64) {
	users, err := b.clientFor(chatID).ListUsers(ctx)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить пользователей.")))
		return
	}

	_ = b.states.Set(ctx, chatID, dialog.StateUsrList, dialog.Payload{})

	rows := [][]tgbotapi.InlineKeyboardButton{}
	for _, u := range users {
		label := fmt.Sprintf("%s — %s", u.Username, roleLabel(u.Role))
		if u.IsStaff {
			label += " ★"
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, fmt.Sprintf("usr:item:%d", u.ID)),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("➕ Создать пользователя", "usr:new"),
	))

	m := tgbotapi.NewMessage(chatID, "Управление пользователями")
	m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	b.send(m)
}

func roleLabel(r api.Role) string {
	if r == api.RoleAdministrator {
		return "Администратор"
	}
	return "Оператор"
}

func (b *Bot) findUser(ctx context.Context, chatID int64, userID int64) (*api.User, error) {
	users, err := b.clientFor(chatID).ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == userID {
			return &users[i], nil
		}
	}
	return nil, api.ErrNotFound
}

func (b *Bot) showUserCard(ctx context.Context, chatID int64, editMsgID int, userID int64) {
	u, err := b.findUser(ctx, chatID, userID)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.editTextAndClear(chatID, editMsgID, "Пользователь не найден.")
		return
	}

	staff := "нет"
	if u.IsStaff {
		staff = "да"
	}
	text := fmt.Sprintf("Логин: %s\nРоль: %s\nПрава администратора (is_staff): %s",
		u.Username, roleLabel(u.Role), staff)

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Роль", fmt.Sprintf("usr:erole:%d", u.ID)),
			tgbotapi.NewInlineKeyboardButtonData("Пароль", fmt.Sprintf("usr:epass:%d", u.ID)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("is_staff вкл/выкл", fmt.Sprintf("usr:estaff:%d", u.ID)),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Удалить", fmt.Sprintf("usr:del:%d", u.ID)),
		),
		navKeyboard(true, true).InlineKeyboard[0],
	)
	b.send(tgbotapi.NewEditMessageTextAndMarkup(chatID, editMsgID, text, kb))
}

func (b *Bot) handleUsersCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	chatID := cb.Message.Chat.ID
	parts := strings.Split(data, ":")
	id64 := func(i int) int64 {
		if i >= len(parts) {
			return 0
		}
		v, _ := strconv.ParseInt(parts[i], 10, 64)
		return v
	}

	switch {
	case data == "usr:new":
		_ = b.states.Set(ctx, chatID, dialog.StateUsrName, dialog.Payload{"mode": "create"})
		m := tgbotapi.NewMessage(chatID, "Логин нового пользователя:")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case strings.HasPrefix(data, "usr:item:"):
		b.showUserCard(ctx, chatID, cb.Message.MessageID, id64(2))

	case strings.HasPrefix(data, "usr:erole:"):
		m := tgbotapi.NewMessage(chatID, "Новая роль:")
		m.ReplyMarkup = roleKeyboard(fmt.Sprintf("usr:setrole:%d", id64(2)))
		b.send(m)

	case strings.HasPrefix(data, "usr:setrole:"):
		userID := id64(2)
		role := api.Role(parts[3])
		u, err := b.findUser(ctx, chatID, userID)
		if err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, "Пользователь не найден."))
			return
		}
		u.Role = role
		b.updateUser(ctx, chatID, *u)

	case strings.HasPrefix(data, "usr:estaff:"):
		u, err := b.findUser(ctx, chatID, id64(2))
		if err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, "Пользователь не найден."))
			return
		}
		u.IsStaff = !u.IsStaff
		b.updateUser(ctx, chatID, *u)

	case strings.HasPrefix(data, "usr:epass:"):
		_ = b.states.Set(ctx, chatID, dialog.StateUsrPassword, dialog.Payload{
			"mode":    "edit",
			"user_id": id64(2),
		})
		m := tgbotapi.NewMessage(chatID, "Новый пароль («-» — не менять):")
		m.ReplyMarkup = navKeyboard(true, true)
		b.send(m)

	case strings.HasPrefix(data, "usr:delok:"):
		if err := b.clientFor(chatID).DeleteUser(ctx, id64(2)); err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка удаления.")))
			return
		}
		b.openUsers(ctx, chatID)

	case strings.HasPrefix(data, "usr:del:"):
		m := tgbotapi.NewMessage(chatID, "Удалить пользователя?")
		m.ReplyMarkup = confirmKeyboard(fmt.Sprintf("usr:delok:%d", id64(2)))
		b.send(m)

	case strings.HasPrefix(data, "usr:role:"):
		// шаг создания: выбрана роль, дальше is_staff
		st, _ := b.states.Get(ctx, chatID)
		st.Payload["role"] = parts[2]
		_ = b.states.Set(ctx, chatID, dialog.StateUsrList, st.Payload)
		kb := tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("is_staff: да", "usr:staff:yes"),
				tgbotapi.NewInlineKeyboardButtonData("is_staff: нет", "usr:staff:no"),
			),
			navKeyboard(false, true).InlineKeyboard[0],
		)
		m := tgbotapi.NewMessage(chatID, "Дать права администратора (is_staff)?")
		m.ReplyMarkup = kb
		b.send(m)

	case strings.HasPrefix(data, "usr:staff:"):
		st, _ := b.states.Get(ctx, chatID)
		u, ok := newUserFromPayload(st.Payload, parts[2] == "yes")
		if !ok {
			b.send(tgbotapi.NewMessage(chatID, "Данные устарели, начните создание заново."))
			b.openUsers(ctx, chatID)
			return
		}
		_, err := b.clientFor(chatID).CreateUser(ctx, u)
		if err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка сохранения. Возможно, такой логин уже существует.")))
		}
		b.openUsers(ctx, chatID)
	}
}

// validCreatePassword: при создании пароль обязателен, «-» не принимается.
func validCreatePassword(pass string) bool {
	return pass != "" && pass != "-"
}

// newUserFromPayload собирает заявку на создание из диалога. Без логина
// или пароля заявка не готова и запрос на бэкенд не уходит.
func newUserFromPayload(p dialog.Payload, isStaff bool) (api.User, bool) {
	username, _ := dialog.GetString(p, "login")
	password, _ := dialog.GetString(p, "password")
	if username == "" || !validCreatePassword(password) {
		return api.User{}, false
	}
	role, _ := dialog.GetString(p, "role")
	return api.User{
		Username: username,
		Password: password,
		Role:     api.Role(role),
		IsStaff:  isStaff,
	}, true
}

func (b *Bot) updateUser(ctx context.Context, chatID int64, u api.User) {
	// пароль в u пуст: прежний пароль никогда не возвращается и не меняется
	if _, err := b.clientFor(chatID).UpdateUser(ctx, u.ID, u); err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка сохранения.")))
		return
	}
	b.openUsers(ctx, chatID)
}

/*** ВВОД С КЛАВИАТУРЫ ***/

func (b *Bot) handleUserNameInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	name := strings.TrimSpace(msg.Text)
	if name == "" {
		b.send(tgbotapi.NewMessage(chatID, "Логин не может быть пустым. Введите логин:"))
		return
	}
	st.Payload["login"] = name
	_ = b.states.Set(ctx, chatID, dialog.StateUsrPassword, st.Payload)
	m := tgbotapi.NewMessage(chatID, "Пароль нового пользователя:")
	m.ReplyMarkup = navKeyboard(true, true)
	b.send(m)
}

func (b *Bot) handleUserPasswordInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	pass := strings.TrimSpace(msg.Text)
	mode, _ := dialog.GetString(st.Payload, "mode")

	if mode == "edit" {
		userID, _ := dialog.GetInt64(st.Payload, "user_id")
		u, err := b.findUser(ctx, chatID, userID)
		if err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, "Пользователь не найден."))
			return
		}
		if pass != "-" && pass != "" {
			u.Password = pass
		}
		// пустой пароль не отправляем — значит «не менять»
		b.updateUser(ctx, chatID, *u)
		return
	}

	// создание: без пароля заявка не уходит на бэкенд
	if !validCreatePassword(pass) {
		b.send(tgbotapi.NewMessage(chatID, "Пароль обязателен для нового пользователя. Введите пароль:"))
		return
	}
	st.Payload["password"] = pass
	_ = b.states.Set(ctx, chatID, dialog.StateUsrList, st.Payload)
	m := tgbotapi.NewMessage(chatID, "Роль пользователя:")
	m.ReplyMarkup = roleKeyboard("usr:role")
	b.send(m)
}
