package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/dialog"
)

func (b *Bot) promptLogin(ctx context.Context, chatID int64) {
	_ = b.states.Set(ctx, chatID, dialog.StateAuthLogin, dialog.Payload{})
	b.send(tgbotapi.NewMessage(chatID, "Введите логин:"))
}

func (b *Bot) handleAuthInput(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item) {
	chatID := msg.Chat.ID
	text := strings.TrimSpace(msg.Text)

	switch st.State {
	case dialog.StateAuthLogin:
		if text == "" {
			b.send(tgbotapi.NewMessage(chatID, "Логин не может быть пустым. Введите логин:"))
			return
		}
		_ = b.states.Set(ctx, chatID, dialog.StateAuthPassword, dialog.Payload{"login": text})
		b.send(tgbotapi.NewMessage(chatID, "Введите пароль:"))

	case dialog.StateAuthPassword:
		login, _ := dialog.GetString(st.Payload, "login")
		if text == "" {
			b.send(tgbotapi.NewMessage(chatID, "Пароль не может быть пустым. Введите пароль:"))
			return
		}

		id, err := b.sessions.Login(ctx, chatID, login, text)
		if err != nil {
			b.send(tgbotapi.NewMessage(chatID, errText(err, "Ошибка входа.")))
			b.promptLogin(ctx, chatID)
			return
		}

		_ = b.states.Reset(ctx, chatID)
		b.sendHomeKeyboard(chatID, id)
		b.goHome(ctx, chatID, id)
	}
}
