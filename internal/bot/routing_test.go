package bot

import (
	"context"
	"io"
	"log/slog"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/dialog"
)

// У колбэков от старых сообщений Message отсутствует; обработчик должен
// молча выйти, не роняя цикл обновлений.
func TestCallbackWithoutMessage(t *testing.T) {
	b := &Bot{
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		states:      dialog.NewRepo(),
		lowStockSig: map[int64]string{},
	}

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("onCallback паникует на колбэке без Message: %v", r)
		}
	}()
	b.onCallback(context.Background(), &tgbotapi.CallbackQuery{ID: "1", Data: "hist:clear"})
}
