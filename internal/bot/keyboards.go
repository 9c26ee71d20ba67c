package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	btnDashboard = "Обзор склада"
	btnHistory   = "История"
	btnUsers     = "Пользователи"
	btnReports   = "Отчёты"
	btnPrint     = "Печать QR"
	btnScan      = "Сканировать"
	btnLogout    = "Выйти"
)

// adminReplyKeyboard Нижняя панель администратора — все разделы учёта.
func adminReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnDashboard)},
			{tgbotapi.NewKeyboardButton(btnHistory), tgbotapi.NewKeyboardButton(btnUsers)},
			{tgbotapi.NewKeyboardButton(btnReports), tgbotapi.NewKeyboardButton(btnPrint)},
			{tgbotapi.NewKeyboardButton(btnLogout)},
		},
	}
}

// operatorReplyKeyboard Оператору доступен только сканер.
func operatorReplyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.ReplyKeyboardMarkup{
		ResizeKeyboard: true,
		Keyboard: [][]tgbotapi.KeyboardButton{
			{tgbotapi.NewKeyboardButton(btnScan)},
			{tgbotapi.NewKeyboardButton(btnLogout)},
		},
	}
}

func navKeyboard(back bool, cancel bool) tgbotapi.InlineKeyboardMarkup {
	row := []tgbotapi.InlineKeyboardButton{}
	if back {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "nav:back"))
	}
	if cancel {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", "nav:cancel"))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func confirmKeyboard(yesData string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Да", yesData),
			tgbotapi.NewInlineKeyboardButtonData("✖️ Отменить", "nav:cancel"),
		),
	)
}

func roleKeyboard(prefix string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Оператор", prefix+":OPERATOR"),
			tgbotapi.NewInlineKeyboardButtonData("Администратор", prefix+":ADMINISTRATOR"),
		),
		navKeyboard(false, true).InlineKeyboard[0],
	)
}
