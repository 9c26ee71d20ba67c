package bot

import (
	"testing"

	"github.com/antonkh/labstock-bot/internal/api"
	"github.com/antonkh/labstock-bot/internal/dialog"
)

func TestValidCreatePassword(t *testing.T) {
	tests := []struct {
		pass string
		want bool
	}{
		{"secret", true},
		{"", false},
		{"-", false},
	}
	for _, tt := range tests {
		if got := validCreatePassword(tt.pass); got != tt.want {
			t.Errorf("validCreatePassword(%q) = %v, want %v", tt.pass, got, tt.want)
		}
	}
}

func TestNewUserFromPayload(t *testing.T) {
	full := dialog.Payload{"login": "operator1", "password": "secret", "role": "OPERATOR"}

	u, ok := newUserFromPayload(full, true)
	if !ok {
		t.Fatal("полный payload должен собираться в заявку")
	}
	if u.Username != "operator1" || u.Password != "secret" || u.Role != api.RoleOperator || !u.IsStaff {
		t.Errorf("заявка собрана неверно: %+v", u)
	}

	// без пароля (или с «-») заявка не собирается — запрос не уйдёт
	for _, p := range []dialog.Payload{
		{"login": "operator1", "role": "OPERATOR"},
		{"login": "operator1", "password": "", "role": "OPERATOR"},
		{"login": "operator1", "password": "-", "role": "OPERATOR"},
		{"password": "secret", "role": "OPERATOR"},
	} {
		if _, ok := newUserFromPayload(p, false); ok {
			t.Errorf("неполный payload прошёл проверку: %v", p)
		}
	}
}
