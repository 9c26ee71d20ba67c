package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/antonkh/labstock-bot/internal/api"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-key"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return s
}

func adminToken(t *testing.T, ttl time.Duration) string {
	return signedToken(t, jwt.MapClaims{
		"user_id":  float64(1),
		"username": "admin",
		"role":     "ADMINISTRATOR",
		"exp":      time.Now().Add(ttl).Unix(),
	})
}

func newTestManager(t *testing.T, client *api.Client) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	m, err := NewManager(path, client)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m, path
}

func TestRestoreNoSession(t *testing.T) {
	m, _ := newTestManager(t, nil)
	if _, err := m.Restore(100); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestRestoreValid(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.tokens[100] = api.TokenPair{Access: adminToken(t, time.Hour)}

	id, err := m.Restore(100)
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if id.UserID != 1 || id.Username != "admin" || !id.IsAdmin() {
		t.Errorf("identity = %+v", id)
	}
}

func TestRestoreExpiredClearsToken(t *testing.T) {
	m, path := newTestManager(t, nil)
	m.tokens[100] = api.TokenPair{Access: adminToken(t, -time.Minute)}

	if _, err := m.Restore(100); !errors.Is(err, ErrExpired) {
		t.Fatalf("err = %v, want ErrExpired", err)
	}
	// просроченный токен стирается и из памяти, и из файла
	if _, ok := m.tokens[100]; ok {
		t.Error("просроченный токен остался в памяти")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read store: %v", err)
	}
	if string(raw) != "{}" {
		t.Errorf("store = %s, want {}", raw)
	}
}

func TestRestoreGarbageToken(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.tokens[100] = api.TokenPair{Access: "not-a-jwt"}

	if _, err := m.Restore(100); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
	if _, ok := m.tokens[100]; ok {
		t.Error("нечитаемый токен остался в памяти")
	}
}

func TestRestoreMissingExpiry(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.tokens[100] = api.TokenPair{Access: signedToken(t, jwt.MapClaims{
		"user_id": float64(1), "username": "admin", "role": "ADMINISTRATOR",
	})}
	if _, err := m.Restore(100); !errors.Is(err, ErrNoSession) {
		t.Errorf("токен без exp: err = %v, want ErrNoSession", err)
	}
}

func TestLoginPersistsAcrossRestart(t *testing.T) {
	access := adminToken(t, time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token/" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"access":"` + access + `","refresh":"r"}`))
	}))
	defer srv.Close()

	client := api.New(srv.URL)
	m, path := newTestManager(t, client)

	id, err := m.Login(context.Background(), 100, "admin", "pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !id.IsAdmin() {
		t.Errorf("identity = %+v", id)
	}

	// второй менеджер на том же файле видит сессию
	m2, err := NewManager(path, client)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := m2.Restore(100); err != nil {
		t.Errorf("Restore после перезапуска: %v", err)
	}
	tok, ok := m2.Token(100)
	if !ok || tok != access {
		t.Errorf("Token = %q, %v", tok, ok)
	}
}

func TestLoginRejectedByBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"No active account found"}`))
	}))
	defer srv.Close()

	m, _ := newTestManager(t, api.New(srv.URL))
	if _, err := m.Login(context.Background(), 100, "admin", "bad"); !errors.Is(err, api.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
	if _, ok := m.tokens[100]; ok {
		t.Error("неудачный вход не должен сохранять токен")
	}
}

func TestLogout(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.tokens[100] = api.TokenPair{Access: adminToken(t, time.Hour)}

	if err := m.Logout(100); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := m.Restore(100); !errors.Is(err, ErrNoSession) {
		t.Errorf("после выхода err = %v, want ErrNoSession", err)
	}
}

func TestAdmins(t *testing.T) {
	m, _ := newTestManager(t, nil)
	m.tokens[1] = api.TokenPair{Access: adminToken(t, time.Hour)}
	m.tokens[2] = api.TokenPair{Access: signedToken(t, jwt.MapClaims{
		"user_id":  float64(2),
		"username": "op",
		"role":     "OPERATOR",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})}
	m.tokens[3] = api.TokenPair{Access: adminToken(t, -time.Minute)} // просрочен

	admins := m.Admins()
	if len(admins) != 1 || admins[0] != 1 {
		t.Errorf("Admins = %v, want [1]", admins)
	}
}
