package api

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized — токен отклонён бэкендом; сессию нужно сбросить.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound — ресурс не существует (например, отсканирована чужая ёмкость).
	ErrNotFound = errors.New("not found")
)

// Error — ответ бэкенда со статусом вне 2xx. Message берётся из тела
// ответа (поле error либо detail), если его удалось разобрать.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend: %d", e.StatusCode)
}

func (e *Error) Unwrap() error {
	switch e.StatusCode {
	case 401:
		return ErrUnauthorized
	case 404:
		return ErrNotFound
	}
	return nil
}

// BackendMessage достаёт сообщение бэкенда из цепочки ошибок,
// чтобы показать его пользователю как есть.
func BackendMessage(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	return ""
}
