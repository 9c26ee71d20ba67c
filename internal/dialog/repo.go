package dialog

import (
	"context"
	"sync"
)

// Repo — состояния диалогов по chat_id. Хранится в памяти: бэкенд владеет
// всеми данными, а незаконченный диалог после рестарта просто начинается
// заново.
type Repo struct {
	mu    sync.RWMutex
	items map[int64]Item
}

func NewRepo() *Repo { return &Repo{items: map[int64]Item{}} }

func (r *Repo) Get(_ context.Context, chatID int64) (*Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	it, ok := r.items[chatID]
	if !ok {
		// если состояния нет — считаем, что диалог ещё не начат
		return &Item{ChatID: chatID, State: StateIdle, Payload: Payload{}}, nil
	}
	cp := it
	cp.Payload = clonePayload(it.Payload)
	return &cp, nil
}

func (r *Repo) Set(_ context.Context, chatID int64, state State, payload Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if payload == nil {
		payload = Payload{}
	}
	r.items[chatID] = Item{ChatID: chatID, State: state, Payload: clonePayload(payload)}
	return nil
}

func (r *Repo) Reset(_ context.Context, chatID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, chatID)
	return nil
}

func clonePayload(p Payload) Payload {
	cp := make(Payload, len(p))
	for k, v := range p {
		cp[k] = v
	}
	return cp
}

// GetString Helper для безопасного чтения строк из payload
func GetString(p Payload, key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// GetInt64 терпит и int64, и float64: payload у телеграм-колбэков
// иногда проходит через JSON.
func GetInt64(p Payload, key string) (int64, bool) {
	switch v := p[key].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	}
	return 0, false
}

func GetFloat(p Payload, key string) (float64, bool) {
	switch v := p[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func GetBool(p Payload, key string) bool {
	v, ok := p[key].(bool)
	return ok && v
}
