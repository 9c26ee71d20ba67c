// Package derive — чистые функции представления: процент наполнения,
// пороги остатка, фильтрация и сортировка. Никакого состояния; одни и те
// же входы всегда дают один и тот же результат.
package derive

import (
	"sort"
	"strings"

	"github.com/antonkh/labstock-bot/internal/api"
)

type Band string

const (
	BandCritical Band = "critical" // <= 20%
	BandWarning  Band = "warning"  // <= 50%
	BandNormal   Band = "normal"
)

// FillPercentage — остаток в процентах от начальной ёмкости.
// Нулевая (или отрицательная) ёмкость не делится: 0.
// Значение не обрезается, обрезка есть только в FillBand.
func FillPercentage(current, initial float64) float64 {
	if initial > 0 {
		return current / initial * 100
	}
	return 0
}

func FillBand(current, initial float64) Band {
	v := FillPercentage(current, initial)
	if v < 0 {
		v = 0
	} else if v > 100 {
		v = 100
	}
	switch {
	case v <= 20:
		return BandCritical
	case v <= 50:
		return BandWarning
	default:
		return BandNormal
	}
}

// IsLowStock: остаток на пороге — уже низкий.
func IsLowStock(current, threshold float64) bool {
	return current <= threshold
}

// LowStockList используется и для счётчика уведомлений, и для отчёта:
// длина списка и есть число на «бейдже».
func LowStockList(containers []api.Container) []api.Container {
	var out []api.Container
	for _, c := range containers {
		if IsLowStock(c.CurrentQuantity, c.LowStockThreshold) {
			out = append(out, c)
		}
	}
	return out
}

type SortKey string

const (
	KeyTimestamp      SortKey = "timestamp"
	KeyQuantityChange SortKey = "quantity_change"
)

type SortState struct {
	Key  SortKey
	Desc bool
}

// DefaultSort — начальное состояние экрана истории.
func DefaultSort() SortState {
	return SortState{Key: KeyTimestamp, Desc: true}
}

// NextSort: повторный клик по активной колонке меняет направление,
// клик по другой колонке начинает с возрастания.
func NextSort(cur SortState, clicked SortKey) SortState {
	if cur.Key == clicked {
		return SortState{Key: clicked, Desc: !cur.Desc}
	}
	return SortState{Key: clicked, Desc: false}
}

// SortTransactions возвращает отсортированную копию. Сортировка
// устойчивая: равные ключи сохраняют исходный порядок.
func SortTransactions(list []api.Transaction, st SortState) []api.Transaction {
	out := make([]api.Transaction, len(list))
	copy(out, list)

	less := func(a, b api.Transaction) bool {
		switch st.Key {
		case KeyQuantityChange:
			return a.QuantityChange < b.QuantityChange
		default:
			return a.Timestamp.Before(b.Timestamp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if st.Desc {
			return less(out[j], out[i])
		}
		return less(out[i], out[j])
	})
	return out
}

// FilterTransactions: подстрока по материалу (без учёта регистра) И фильтр
// по пользователю. userID == 0 — без фильтра. Имя пользователя в операции
// денормализовано, поэтому сопоставляем его с id через справочник.
func FilterTransactions(list []api.Transaction, material string, userID int64, users []api.User) []api.Transaction {
	needle := strings.ToLower(material)

	byName := make(map[string]int64, len(users))
	for _, u := range users {
		byName[u.Username] = u.ID
	}

	var out []api.Transaction
	for _, t := range list {
		if !strings.Contains(strings.ToLower(t.ContainerName), needle) {
			continue
		}
		if userID != 0 {
			id, ok := byName[t.User]
			if !ok || id != userID {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// SearchCabinets — подстрока по названию шкафа без учёта регистра.
func SearchCabinets(cabinets []api.Cabinet, term string) []api.Cabinet {
	needle := strings.ToLower(term)
	var out []api.Cabinet
	for _, c := range cabinets {
		if strings.Contains(strings.ToLower(c.Name), needle) {
			out = append(out, c)
		}
	}
	return out
}
