package bot

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/dialog"
	"github.com/antonkh/labstock-bot/internal/session"
)

type Bot struct {
	tg        *tgbotapi.BotAPI
	log       *slog.Logger
	backend   *api.Client
	sessions  *session.Manager
	states    *dialog.Repo
	adminChat int64

	// отпечаток последнего разосланного списка низких остатков, по чатам
	mu          sync.Mutex
	lowStockSig map[int64]string
}

func New(tg *tgbotapi.BotAPI, log *slog.Logger, backend *api.Client,
	sessions *session.Manager, states *dialog.Repo, adminChatID int64) *Bot {

	return &Bot{
		tg: tg, log: log, backend: backend,
		sessions: sessions, states: states, adminChat: adminChatID,
		lowStockSig: map[int64]string{},
	}
}

func (b *Bot) Run(ctx context.Context, timeoutSec int) error {
	if b.adminChat != 0 {
		// служебный чат: сюда уходит отметка о запуске
		b.send(tgbotapi.NewMessage(b.adminChat, "Бот учёта запущен."))
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeoutSec
	updates := b.tg.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			if upd.Message != nil {
				b.onMessage(ctx, upd.Message)
			} else if upd.CallbackQuery != nil {
				b.onCallback(ctx, upd.CallbackQuery)
			}
		}
	}
}

func (b *Bot) send(msg tgbotapi.Chattable) {
	if _, err := b.tg.Send(msg); err != nil {
		b.log.Error("send failed", "err", err)
	}
}

// clientFor — API-клиент с токеном конкретного чата.
func (b *Bot) clientFor(chatID int64) *api.Client {
	tok, ok := b.sessions.Token(chatID)
	if !ok {
		return b.backend
	}
	return b.backend.WithToken(tok)
}

// identity возвращает личность чата; при протухшей или отсутствующей
// сессии запускает диалог входа и возвращает nil.
func (b *Bot) identity(ctx context.Context, chatID int64) *session.Identity {
	id, err := b.sessions.Restore(chatID)
	if err == nil {
		return id
	}
	if errors.Is(err, session.ErrExpired) {
		b.send(tgbotapi.NewMessage(chatID, "Сессия истекла, войдите заново."))
	}
	b.promptLogin(ctx, chatID)
	return nil
}

// authFailed перехватывает 401 от бэкенда: чистим сессию и просим войти.
func (b *Bot) authFailed(ctx context.Context, chatID int64, err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	_ = b.sessions.Logout(chatID)
	b.send(tgbotapi.NewMessage(chatID, "Сессия недействительна, войдите заново."))
	b.promptLogin(ctx, chatID)
	return true
}

// errText — текст бэкенда, если он есть, иначе запасной.
func errText(err error, fallback string) string {
	if msg := api.BackendMessage(err); msg != "" {
		return msg
	}
	return fallback
}
