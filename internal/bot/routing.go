package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/antonkh/labstock-bot/internal/dialog"
	"github.com/antonkh/labstock-bot/internal/session"
)

func (b *Bot) onMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	st, _ := b.states.Get(ctx, chatID)

	// диалог входа идёт до проверки сессии
	switch st.State {
	case dialog.StateAuthLogin, dialog.StateAuthPassword:
		b.handleAuthInput(ctx, msg, st)
		return
	}

	id := b.identity(ctx, chatID)
	if id == nil {
		return
	}

	// кнопки нижней панели
	switch msg.Text {
	case btnLogout:
		b.handleLogout(ctx, chatID)
		return
	case btnDashboard, btnHistory, btnUsers, btnReports, btnPrint:
		if !id.IsAdmin() {
			// оператору администраторские разделы недоступны — домой
			b.goHome(ctx, chatID, id)
			return
		}
		switch msg.Text {
		case btnDashboard:
			b.openDashboard(ctx, chatID, 0)
		case btnHistory:
			b.openHistory(ctx, chatID)
		case btnUsers:
			b.openUsers(ctx, chatID)
		case btnReports:
			b.openReports(ctx, chatID, 0)
		case btnPrint:
			b.openPrint(ctx, chatID)
		}
		return
	case btnScan:
		if id.IsAdmin() {
			b.goHome(ctx, chatID, id)
			return
		}
		b.openScanner(ctx, chatID)
		return
	}

	b.handleStateMessage(ctx, msg, st, id)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	switch msg.Command() {
	case "start":
		id := b.identity(ctx, chatID)
		if id == nil {
			return
		}
		b.sendHomeKeyboard(chatID, id)
		b.goHome(ctx, chatID, id)
	case "logout":
		b.handleLogout(ctx, chatID)
	case "help":
		b.send(tgbotapi.NewMessage(chatID,
			"Команды:\n/start — войти и открыть меню\n/logout — выйти\n/help — помощь"))
	default:
		b.send(tgbotapi.NewMessage(chatID, "Не знаю такую команду. Наберите /help"))
	}
}

// sendHomeKeyboard ставит нижнюю панель по роли.
func (b *Bot) sendHomeKeyboard(chatID int64, id *session.Identity) {
	if id.IsAdmin() {
		m := tgbotapi.NewMessage(chatID, "Вы вошли как администратор: "+id.Username)
		m.ReplyMarkup = adminReplyKeyboard()
		b.send(m)
		return
	}
	m := tgbotapi.NewMessage(chatID, "Вы вошли как оператор: "+id.Username)
	m.ReplyMarkup = operatorReplyKeyboard()
	b.send(m)
}

// goHome — «домашняя страница» роли: администратору обзор склада,
// оператору сканер.
func (b *Bot) goHome(ctx context.Context, chatID int64, id *session.Identity) {
	if id.IsAdmin() {
		b.openDashboard(ctx, chatID, 0)
		return
	}
	b.openScanner(ctx, chatID)
}

func (b *Bot) handleStateMessage(ctx context.Context, msg *tgbotapi.Message, st *dialog.Item, id *session.Identity) {
	switch st.State {
	case dialog.StateDashSearch:
		b.handleDashSearchInput(ctx, msg, st)
	case dialog.StateDashNewCabinet:
		b.handleNewCabinetInput(ctx, msg, st)
	case dialog.StateContNew:
		b.handleNewContainerInput(ctx, msg, st)
	case dialog.StateContEditQty:
		b.handleContainerQtyInput(ctx, msg, st)
	case dialog.StateContReplenish:
		b.handleReplenishInput(ctx, msg, st)
	case dialog.StateScanAwait:
		b.handleScanPayload(ctx, msg)
	case dialog.StateScanWriteOff:
		b.handleWriteOffInput(ctx, msg, st)
	case dialog.StateHistFilterMaterial:
		b.handleHistoryMaterialInput(ctx, msg, st)
	case dialog.StateUsrName:
		b.handleUserNameInput(ctx, msg, st)
	case dialog.StateUsrPassword:
		b.handleUserPasswordInput(ctx, msg, st)
	default:
		b.send(tgbotapi.NewMessage(msg.Chat.ID, "Используйте кнопки меню."))
		b.goHome(ctx, msg.Chat.ID, id)
	}
}

func (b *Bot) onCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	// Telegram не присылает Message для сообщений старше 48 часов
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	data := cb.Data
	b.answerCallback(cb, "", false)

	id := b.identity(ctx, chatID)
	if id == nil {
		return
	}

	if data == "nav:cancel" || data == "nav:back" {
		b.handleNav(ctx, chatID, id, data)
		return
	}

	prefix := data
	if i := strings.Index(data, ":"); i > 0 {
		prefix = data[:i]
	}

	// администраторские разделы закрыты для оператора
	switch prefix {
	case "cab", "cont", "hist", "rep", "usr", "prn", "ntf":
		if !id.IsAdmin() {
			b.goHome(ctx, chatID, id)
			return
		}
	}

	switch prefix {
	case "cab", "cont":
		b.handleDashboardCallback(ctx, cb, data)
	case "hist":
		b.handleHistoryCallback(ctx, cb, data)
	case "rep":
		b.handleReportsCallback(ctx, cb, data)
	case "usr":
		b.handleUsersCallback(ctx, cb, data)
	case "prn":
		b.handlePrintCallback(ctx, cb, data)
	case "ntf":
		b.handleNotifyCallback(ctx, cb, data)
	case "scan":
		b.handleScannerCallback(ctx, cb, data)
	default:
		b.log.Debug("unknown callback", "data", data)
	}
}

// handleNav: «назад» ведёт на экран уровнем выше, «отменить» — домой.
func (b *Bot) handleNav(ctx context.Context, chatID int64, id *session.Identity, data string) {
	st, _ := b.states.Get(ctx, chatID)

	if data == "nav:back" {
		switch st.State {
		case dialog.StateScanLookedUp, dialog.StateScanWriteOff:
			b.openScanner(ctx, chatID)
			return
		case dialog.StateContNew, dialog.StateContEditQty, dialog.StateContReplenish,
			dialog.StateDashSearch, dialog.StateDashNewCabinet:
			b.openDashboard(ctx, chatID, 0)
			return
		case dialog.StateUsrName, dialog.StateUsrPassword:
			b.openUsers(ctx, chatID)
			return
		}
	}

	_ = b.states.Reset(ctx, chatID)
	b.goHome(ctx, chatID, id)
}

func (b *Bot) handleLogout(ctx context.Context, chatID int64) {
	_ = b.states.Reset(ctx, chatID)
	if err := b.sessions.Logout(chatID); err != nil {
		b.log.Error("logout failed", "err", err)
	}
	m := tgbotapi.NewMessage(chatID, "Вы вышли из системы.")
	m.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	b.send(m)
	b.promptLogin(ctx, chatID)
}
