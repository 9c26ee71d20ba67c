// Package session хранит токены и личность пользователя по chat_id.
// Подпись токена не проверяется — это работа бэкенда; клиенту нужны
// только claims и срок действия.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/antonkh/labstock-bot/internal/api"
)

var (
	ErrNoSession = errors.New("no session")
	ErrExpired   = errors.New("session expired")
)

type Identity struct {
	UserID   int64
	Username string
	Role     api.Role
}

func (id *Identity) IsAdmin() bool { return id != nil && id.Role == api.RoleAdministrator }

// Manager — файловое хранилище пар access/refresh по chat_id.
type Manager struct {
	mu     sync.Mutex
	path   string
	client *api.Client
	tokens map[int64]api.TokenPair
}

func NewManager(path string, client *api.Client) (*Manager, error) {
	m := &Manager{
		path:   path,
		client: client,
		tokens: map[int64]api.TokenPair{},
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return m, nil
		}
		return nil, fmt.Errorf("session store: %w", err)
	}
	if err := json.Unmarshal(raw, &m.tokens); err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	return m, nil
}

// persist вызывается под mu.
func (m *Manager) persist() error {
	raw, err := json.Marshal(m.tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, raw, 0o600)
}

// Restore возвращает личность по сохранённому токену. Просроченный или
// нечитаемый токен сразу стирается из хранилища.
func (m *Manager) Restore(chatID int64) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pair, ok := m.tokens[chatID]
	if !ok || pair.Access == "" {
		return nil, ErrNoSession
	}
	id, err := decodeIdentity(pair.Access)
	if err != nil {
		delete(m.tokens, chatID)
		_ = m.persist()
		return nil, err
	}
	return id, nil
}

func (m *Manager) Login(ctx context.Context, chatID int64, username, password string) (*Identity, error) {
	pair, err := m.client.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	id, err := decodeIdentity(pair.Access)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[chatID] = pair
	if err := m.persist(); err != nil {
		return nil, fmt.Errorf("persist tokens: %w", err)
	}
	return id, nil
}

func (m *Manager) Logout(chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, chatID)
	return m.persist()
}

// Token отдаёт access-токен чата для подстановки в запросы.
func (m *Manager) Token(chatID int64) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pair, ok := m.tokens[chatID]
	if !ok || pair.Access == "" {
		return "", false
	}
	return pair.Access, true
}

// Admins — чаты с живой администраторской сессией; их опрашивает
// фоновый монитор остатков.
func (m *Manager) Admins() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []int64
	for chatID, pair := range m.tokens {
		id, err := decodeIdentity(pair.Access)
		if err != nil {
			continue
		}
		if id.IsAdmin() {
			out = append(out, chatID)
		}
	}
	return out
}

func decodeIdentity(access string) (*Identity, error) {
	tok, _, err := jwt.NewParser().ParseUnverified(access, jwt.MapClaims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoSession, err)
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrNoSession
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrNoSession
	}
	if exp.Before(time.Now()) {
		return nil, ErrExpired
	}

	id := &Identity{}
	if v, ok := claims["user_id"].(float64); ok {
		id.UserID = int64(v)
	}
	if v, ok := claims["username"].(string); ok {
		id.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		id.Role = api.Role(v)
	}
	if id.Username == "" {
		return nil, ErrNoSession
	}
	return id, nil
}
