package bot

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/xuri/excelize/v2"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/dialog"
)

// openReports показывает сводный отчёт; cabinetID == 0 — весь склад.
func (b *Bot) openReports(ctx context.Context, chatID int64, cabinetID int64) {
	rep, err := b.clientFor(chatID).SummaryReport(ctx, cabinetID)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить отчёт.")))
		return
	}

	st, _ := b.states.Get(ctx, chatID)
	cabName, _ := dialog.GetString(st.Payload, "rep_cab_name")
	if cabinetID == 0 {
		cabName = ""
	}
	_ = b.states.Set(ctx, chatID, dialog.StateRepView, dialog.Payload{
		"rep_cab":      cabinetID,
		"rep_cab_name": cabName,
	})

	var sb strings.Builder
	sb.WriteString("Отчёты\n")
	if cabName != "" {
		fmt.Fprintf(&sb, "Шкаф: %s\n", cabName)
	}
	sb.WriteString("\n")
	if rep.TotalCabinets != nil {
		fmt.Fprintf(&sb, "Всего шкафов: %d\n", *rep.TotalCabinets)
	}
	fmt.Fprintf(&sb, "Всего ёмкостей: %d\n", rep.TotalContainers)

	sb.WriteString("\nСводка по материалам:\n")
	if len(rep.MaterialsSummary) == 0 {
		sb.WriteString("— пусто\n")
	}
	for _, m := range rep.MaterialsSummary {
		fmt.Fprintf(&sb, "— %s: %s %s\n", m.Name, formatQty(m.TotalQuantity), m.Unit)
	}

	sb.WriteString("\n⚠️ Позиции с низким остатком:\n")
	if len(rep.LowStockItems) == 0 {
		sb.WriteString("— нет\n")
	}
	for _, it := range rep.LowStockItems {
		fmt.Fprintf(&sb, "— %s в «%s»: %s %s (порог %s)\n",
			it.Name, it.CabinetName, formatQty(it.CurrentQuantity), it.Unit, formatQty(it.LowStockThreshold))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗄 Фильтр по шкафу", "rep:pick"),
			tgbotapi.NewInlineKeyboardButtonData("⬇️ Экспорт в Excel", "rep:export"),
		),
	)
	m := tgbotapi.NewMessage(chatID, sb.String())
	m.ReplyMarkup = kb
	b.send(m)
}

func (b *Bot) handleReportsCallback(ctx context.Context, cb *tgbotapi.CallbackQuery, data string) {
	chatID := cb.Message.Chat.ID
	st, _ := b.states.Get(ctx, chatID)

	switch {
	case data == "rep:pick":
		// список шкафов подтягивается лениво, при первом выборе фильтра
		cabinets, err := b.clientFor(chatID).ListCabinets(ctx)
		if err != nil {
			if b.authFailed(ctx, chatID, err) {
				return
			}
			b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить шкафы.")))
			return
		}
		rows := [][]tgbotapi.InlineKeyboardButton{
			{tgbotapi.NewInlineKeyboardButtonData("Все шкафы", "rep:cab:0:")},
		}
		for _, c := range cabinets {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(c.Name, fmt.Sprintf("rep:cab:%d:%s", c.ID, c.Name)),
			))
		}
		m := tgbotapi.NewMessage(chatID, "Фильтр по шкафу:")
		m.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
		b.send(m)

	case strings.HasPrefix(data, "rep:cab:"):
		rest := strings.TrimPrefix(data, "rep:cab:")
		idStr, name, _ := strings.Cut(rest, ":")
		cabID, _ := strconv.ParseInt(idStr, 10, 64)
		_ = b.states.Set(ctx, chatID, dialog.StateRepView, dialog.Payload{
			"rep_cab":      cabID,
			"rep_cab_name": name,
		})
		b.openReports(ctx, chatID, cabID)

	case data == "rep:export":
		cabID, _ := dialog.GetInt64(st.Payload, "rep_cab")
		cabName, _ := dialog.GetString(st.Payload, "rep_cab_name")
		b.exportReportExcel(ctx, chatID, cabID, cabName)
	}
}

// exportReportExcel выгружает текущий отчёт файлом с тремя листами.
func (b *Bot) exportReportExcel(ctx context.Context, chatID int64, cabinetID int64, cabinetName string) {
	rep, err := b.clientFor(chatID).SummaryReport(ctx, cabinetID)
	if err != nil {
		if b.authFailed(ctx, chatID, err) {
			return
		}
		b.send(tgbotapi.NewMessage(chatID, errText(err, "Не удалось загрузить отчёт.")))
		return
	}

	f, err := buildReportWorkbook(rep)
	if err != nil {
		b.log.Error("report workbook failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка формирования файла."))
		return
	}
	defer func() { _ = f.Close() }()

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		b.log.Error("report write failed", "err", err)
		b.send(tgbotapi.NewMessage(chatID, "Ошибка записи файла."))
		return
	}

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  reportFileName(cabinetName, time.Now()),
		Bytes: buf.Bytes(),
	})
	if cabinetName != "" {
		doc.Caption = fmt.Sprintf("Отчёт по шкафу «%s».", cabinetName)
	} else {
		doc.Caption = "Отчёт по всему складу."
	}
	b.send(doc)
}

const (
	sheetFullInventory = "Полный отчёт"
	sheetSummary       = "Сводка по материалам"
	sheetLowStock      = "Низкий остаток"
)

// buildReportWorkbook группирует строки отчёта в три листа:
// полная инвентаризация, сводка по материалам, низкий остаток.
func buildReportWorkbook(rep *api.SummaryReport) (*excelize.File, error) {
	f := excelize.NewFile()

	// первый лист переименовываем из дефолтного
	def := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(def, sheetFullInventory); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(sheetLowStock); err != nil {
		return nil, err
	}

	writeRows := func(sheet string, header []interface{}, rows [][]interface{}) error {
		if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
			return err
		}
		for i, r := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+2)
			if err != nil {
				return err
			}
			row := r
			if err := f.SetSheetRow(sheet, cell, &row); err != nil {
				return err
			}
		}
		return nil
	}

	full := make([][]interface{}, 0, len(rep.FullInventory))
	for _, it := range rep.FullInventory {
		full = append(full, []interface{}{it.CabinetName, it.Name, it.CurrentQuantity, it.Unit, it.LowStockThreshold})
	}
	if err := writeRows(sheetFullInventory,
		[]interface{}{"Шкаф", "Материал", "Текущее количество", "Единица", "Порог"}, full); err != nil {
		return nil, err
	}

	summary := make([][]interface{}, 0, len(rep.MaterialsSummary))
	for _, m := range rep.MaterialsSummary {
		summary = append(summary, []interface{}{m.Name, m.TotalQuantity, m.Unit})
	}
	if err := writeRows(sheetSummary,
		[]interface{}{"Материал", "Общее количество", "Единица"}, summary); err != nil {
		return nil, err
	}

	low := make([][]interface{}, 0, len(rep.LowStockItems))
	for _, it := range rep.LowStockItems {
		low = append(low, []interface{}{it.Name, it.CabinetName, it.CurrentQuantity, it.LowStockThreshold, it.Unit})
	}
	if err := writeRows(sheetLowStock,
		[]interface{}{"Материал", "Шкаф", "Текущее количество", "Порог", "Единица"}, low); err != nil {
		return nil, err
	}

	return f, nil
}

// reportFileName: имя файла из названия шкафа, небезопасные символы
// заменены; без фильтра — «ves_sklad».
func reportFileName(cabinetName string, now time.Time) string {
	name := cabinetName
	if name == "" {
		name = "ves_sklad"
	}
	return fmt.Sprintf("otchet_%s_%s.xlsx", sanitizeFileName(name), now.Format("20060102_150405"))
}
