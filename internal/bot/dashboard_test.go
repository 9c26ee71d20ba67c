package bot

import (
	"testing"

	"github.com/antonkh/labstock-bot/internal/api"
)

func TestResolveSelectedCabinet(t *testing.T) {
	cabinets := []api.Cabinet{{ID: 1}, {ID: 2}, {ID: 3}}

	tests := []struct {
		name      string
		selected  int64
		highlight int64
		want      int64
	}{
		{"подсветка сильнее прежнего выбора", 1, 3, 3},
		{"прежний выбор сохраняется", 2, 0, 2},
		{"нет выбора — первый шкаф", 0, 0, 1},
		{"выбранный шкаф удалён — первый", 99, 0, 1},
		{"подсветка на несуществующий шкаф игнорируется", 2, 99, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveSelectedCabinet(cabinets, tt.selected, tt.highlight); got != tt.want {
				t.Errorf("resolveSelectedCabinet(sel=%d, hl=%d) = %d, want %d",
					tt.selected, tt.highlight, got, tt.want)
			}
		})
	}

	if got := resolveSelectedCabinet(nil, 5, 7); got != 0 {
		t.Errorf("пустой список шкафов: got %d, want 0", got)
	}
}

func TestHighlightConsumedOnce(t *testing.T) {
	cabinets := []api.Cabinet{{ID: 1}, {ID: 2}, {ID: 3}}

	// переход из уведомления выбирает шкаф 3
	first := resolveSelectedCabinet(cabinets, 1, 3)
	if first != 3 {
		t.Fatalf("первое открытие: %d, want 3", first)
	}

	// дальше подсветки нет: выбор живёт как обычный selected и не
	// перетягивает на себя последующие открытия
	second := resolveSelectedCabinet(cabinets, first, 0)
	if second != 3 {
		t.Errorf("второе открытие: %d, want 3 (обычный выбор)", second)
	}

	// пользователь переключился — прежняя подсветка не возвращается
	third := resolveSelectedCabinet(cabinets, 2, 0)
	if third != 2 {
		t.Errorf("после переключения: %d, want 2", third)
	}
}
