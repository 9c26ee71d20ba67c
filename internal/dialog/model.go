package dialog

type State string

const (
	StateIdle State = "idle"

	// Вход
	StateAuthLogin    State = "auth_login"    // ждём логин
	StateAuthPassword State = "auth_password" // ждём пароль

	// Обзор склада
	StateDashList       State = "dash_list"      // список шкафов, выбранный в payload
	StateDashSearch     State = "dash_search"    // ввод строки поиска
	StateDashNewCabinet State = "dash_new_cab"   // ввод названия нового шкафа
	StateContNew        State = "cont_new"       // пошаговый ввод полей новой ёмкости
	StateContEditQty    State = "cont_edit_qty"  // новая текущая величина остатка
	StateContReplenish  State = "cont_replenish" // количество для пополнения

	// Сканер
	StateScanAwait    State = "scan_await"     // ждём payload QR-кода
	StateScanLookedUp State = "scan_looked_up" // ёмкость найдена, ждём действий
	StateScanWriteOff State = "scan_write_off" // ввод количества для списания

	// История
	StateHistView           State = "hist_view"
	StateHistFilterMaterial State = "hist_filter_material" // ввод подстроки материала

	// Отчёты
	StateRepView State = "rep_view"

	// Пользователи
	StateUsrList     State = "usr_list"
	StateUsrName     State = "usr_name"     // ввод логина
	StateUsrPassword State = "usr_password" // ввод пароля («-» при правке = не менять)

	// Печать QR
	StatePrnView State = "prn_view"
)

type Payload map[string]any

type Item struct {
	ChatID  int64
	State   State
	Payload Payload
}
