package derive

import (
	"testing"
	"time"

	"github.com/antonkh/labstock-bot/internal/api"
)

func TestFillPercentage(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		initial  float64
		want     float64
	}{
		{"половина", 50, 100, 50},
		{"полный", 100, 100, 100},
		{"пустой", 0, 100, 0},
		{"нулевая ёмкость", 10, 0, 0},
		{"отрицательная ёмкость", 10, -5, 0},
		{"переполнение не обрезается", 150, 100, 150},
		{"отрицательный остаток не обрезается", -10, 100, -10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FillPercentage(tt.current, tt.initial); got != tt.want {
				t.Errorf("FillPercentage(%v, %v) = %v, want %v", tt.current, tt.initial, got, tt.want)
			}
		})
	}
}

func TestFillBand(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		initial float64
		want    Band
	}{
		{"ровно 20 — критично", 20, 100, BandCritical},
		{"чуть выше 20", 20.5, 100, BandWarning},
		{"ровно 50 — предупреждение", 50, 100, BandWarning},
		{"чуть выше 50", 50.5, 100, BandNormal},
		{"полный", 100, 100, BandNormal},
		{"нулевая ёмкость — критично", 10, 0, BandCritical},
		{"переполнение обрезается до 100", 300, 100, BandNormal},
		{"отрицательный остаток обрезается до 0", -5, 100, BandCritical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FillBand(tt.current, tt.initial); got != tt.want {
				t.Errorf("FillBand(%v, %v) = %v, want %v", tt.current, tt.initial, got, tt.want)
			}
		})
	}
}

func TestIsLowStock(t *testing.T) {
	if !IsLowStock(5, 5) {
		t.Error("остаток на пороге должен считаться низким")
	}
	if IsLowStock(5.01, 5) {
		t.Error("остаток выше порога не должен считаться низким")
	}
	if !IsLowStock(0, 5) {
		t.Error("нулевой остаток должен считаться низким")
	}
}

func TestLowStockList(t *testing.T) {
	containers := []api.Container{
		{ID: 1, Name: "Спирт", CurrentQuantity: 3, LowStockThreshold: 5},
		{ID: 2, Name: "Глицерин", CurrentQuantity: 10, LowStockThreshold: 5},
		{ID: 3, Name: "Ацетон", CurrentQuantity: 5, LowStockThreshold: 5},
	}

	low := LowStockList(containers)
	if len(low) != 2 {
		t.Fatalf("len = %d, want 2", len(low))
	}
	if low[0].ID != 1 || low[1].ID != 3 {
		t.Errorf("ids = %d, %d; want 1, 3", low[0].ID, low[1].ID)
	}

	// повторный проход по уже отфильтрованному списку ничего не меняет
	again := LowStockList(low)
	if len(again) != len(low) {
		t.Errorf("повторная фильтрация изменила длину: %d -> %d", len(low), len(again))
	}

	if got := LowStockList(nil); len(got) != 0 {
		t.Errorf("пустой вход должен давать пустой список, got %v", got)
	}
}

func TestNextSort(t *testing.T) {
	tests := []struct {
		name    string
		cur     SortState
		clicked SortKey
		want    SortState
	}{
		{"повторный клик меняет направление",
			SortState{KeyTimestamp, true}, KeyTimestamp, SortState{KeyTimestamp, false}},
		{"ещё один клик возвращает обратно",
			SortState{KeyTimestamp, false}, KeyTimestamp, SortState{KeyTimestamp, true}},
		{"новая колонка начинает с возрастания",
			SortState{KeyTimestamp, true}, KeyQuantityChange, SortState{KeyQuantityChange, false}},
		{"возврат к прежней колонке тоже с возрастания",
			SortState{KeyQuantityChange, true}, KeyTimestamp, SortState{KeyTimestamp, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextSort(tt.cur, tt.clicked); got != tt.want {
				t.Errorf("NextSort(%+v, %q) = %+v, want %+v", tt.cur, tt.clicked, got, tt.want)
			}
		})
	}
}

func TestDefaultSort(t *testing.T) {
	st := DefaultSort()
	if st.Key != KeyTimestamp || !st.Desc {
		t.Errorf("DefaultSort() = %+v, want timestamp по убыванию", st)
	}
}

func sampleTransactions() []api.Transaction {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []api.Transaction{
		{ID: 1, Timestamp: base.Add(2 * time.Hour), QuantityChange: -3, ContainerName: "Спирт", User: "ivanov"},
		{ID: 2, Timestamp: base, QuantityChange: 10, ContainerName: "Глицерин", User: "petrov"},
		{ID: 3, Timestamp: base.Add(time.Hour), QuantityChange: -3, ContainerName: "Спирт этиловый", User: "ivanov"},
		{ID: 4, Timestamp: base.Add(3 * time.Hour), QuantityChange: 5, ContainerName: "Ацетон", User: ""},
	}
}

func TestSortTransactions(t *testing.T) {
	list := sampleTransactions()

	asc := SortTransactions(list, SortState{Key: KeyTimestamp, Desc: false})
	wantOrder := []int64{2, 3, 1, 4}
	for i, id := range wantOrder {
		if asc[i].ID != id {
			t.Fatalf("timestamp asc: позиция %d: id = %d, want %d", i, asc[i].ID, id)
		}
	}

	desc := SortTransactions(list, SortState{Key: KeyTimestamp, Desc: true})
	for i := range wantOrder {
		if desc[i].ID != wantOrder[len(wantOrder)-1-i] {
			t.Fatalf("timestamp desc не является обращением asc: %v", desc)
		}
	}

	// исходный срез не трогаем
	if list[0].ID != 1 {
		t.Error("SortTransactions изменила исходный срез")
	}
}

func TestSortTransactionsStable(t *testing.T) {
	list := sampleTransactions()

	// у операций 1 и 3 одинаковое изменение: исходный порядок сохраняется
	byQty := SortTransactions(list, SortState{Key: KeyQuantityChange, Desc: false})
	var first, second int64
	for _, tx := range byQty {
		if tx.QuantityChange == -3 {
			if first == 0 {
				first = tx.ID
			} else {
				second = tx.ID
			}
		}
	}
	if first != 1 || second != 3 {
		t.Errorf("равные ключи перемешаны: %d, %d; want 1, 3", first, second)
	}

	// двойная смена направления даёт исходный порядок равных ключей
	twice := SortTransactions(
		SortTransactions(list, SortState{Key: KeyQuantityChange, Desc: true}),
		SortState{Key: KeyQuantityChange, Desc: false})
	for i := range byQty {
		if byQty[i].ID != twice[i].ID {
			t.Errorf("после двойной смены направления порядок иной: позиция %d: %d != %d",
				i, byQty[i].ID, twice[i].ID)
		}
	}
}

func TestFilterTransactions(t *testing.T) {
	list := sampleTransactions()
	users := []api.User{
		{ID: 7, Username: "ivanov"},
		{ID: 8, Username: "petrov"},
	}

	t.Run("пустой фильтр возвращает всё", func(t *testing.T) {
		got := FilterTransactions(list, "", 0, users)
		if len(got) != len(list) {
			t.Errorf("len = %d, want %d", len(got), len(list))
		}
	})

	t.Run("подстрока без учёта регистра", func(t *testing.T) {
		got := FilterTransactions(list, "спИРТ", 0, users)
		if len(got) != 2 {
			t.Fatalf("len = %d, want 2", len(got))
		}
		for _, tx := range got {
			if tx.ContainerName != "Спирт" && tx.ContainerName != "Спирт этиловый" {
				t.Errorf("лишняя запись: %q", tx.ContainerName)
			}
		}
	})

	t.Run("фильтр по пользователю", func(t *testing.T) {
		got := FilterTransactions(list, "", 8, users)
		if len(got) != 1 || got[0].ID != 2 {
			t.Errorf("got %v, want только операцию petrov", got)
		}
	})

	t.Run("оба фильтра вместе", func(t *testing.T) {
		got := FilterTransactions(list, "этиловый", 7, users)
		if len(got) != 1 || got[0].ID != 3 {
			t.Errorf("got %v, want только id=3", got)
		}
	})

	t.Run("неизвестный пользователь в операции", func(t *testing.T) {
		// пустое имя пользователя не совпадает ни с одним id
		got := FilterTransactions(list, "ацетон", 7, users)
		if len(got) != 0 {
			t.Errorf("got %v, want пусто", got)
		}
	})
}

func TestSearchCabinets(t *testing.T) {
	cabinets := []api.Cabinet{
		{ID: 1, Name: "Шкаф реактивов"},
		{ID: 2, Name: "Холодильник"},
		{ID: 3, Name: "шкаф кислот"},
	}

	got := SearchCabinets(cabinets, "ШКАФ")
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("ids = %d, %d; want 1, 3", got[0].ID, got[1].ID)
	}

	if all := SearchCabinets(cabinets, ""); len(all) != 3 {
		t.Errorf("пустой запрос должен вернуть всё, len = %d", len(all))
	}
	if none := SearchCabinets(cabinets, "сейф"); len(none) != 0 {
		t.Errorf("нет совпадений, got %v", none)
	}
}
