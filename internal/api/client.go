// Package api — клиент REST-бэкенда инвентаризации. Все изменяемые данные
// живут на бэкенде; клиент держит только перезапрашиваемые копии.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{},
	}
}

// WithToken возвращает копию клиента с bearer-токеном конкретной сессии.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// do выполняет один запрос без ретраев и без клиентского таймаута:
// повисший запрос остаётся висеть, пока не отменят ctx.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal: %w", op, err)
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		countRequest(op, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// не-2xx — тоже ошибка с точки зрения метрик
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := decodeError(resp)
		countRequest(op, apiErr)
		return fmt.Errorf("%s: %w", op, apiErr)
	}
	countRequest(op, nil)
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%s: decode: %w", op, err)
		}
	}
	return nil
}

// decodeError вытаскивает сообщение бэкенда: ViewSet'ы отвечают {"error": ...},
// simplejwt — {"detail": ...}.
func decodeError(resp *http.Response) *Error {
	apiErr := &Error{StatusCode: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = payload.Detail
		}
	}
	return apiErr
}

/*** АВТОРИЗАЦИЯ ***/

func (c *Client) Login(ctx context.Context, username, password string) (TokenPair, error) {
	var pair TokenPair
	body := map[string]string{"username": username, "password": password}
	err := c.do(ctx, "login", http.MethodPost, "/token/", body, &pair)
	return pair, err
}

/*** ПОЛЬЗОВАТЕЛИ ***/

func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var list []User
	err := c.do(ctx, "list_users", http.MethodGet, "/users/", nil, &list)
	return list, err
}

func (c *Client) CreateUser(ctx context.Context, u User) (*User, error) {
	var out User
	if err := c.do(ctx, "create_user", http.MethodPost, "/users/", u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, id int64, u User) (*User, error) {
	var out User
	path := fmt.Sprintf("/users/%d/", id)
	if err := c.do(ctx, "update_user", http.MethodPut, path, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_user", http.MethodDelete, fmt.Sprintf("/users/%d/", id), nil, nil)
}

/*** ШКАФЫ ***/

func (c *Client) ListCabinets(ctx context.Context) ([]Cabinet, error) {
	var list []Cabinet
	err := c.do(ctx, "list_cabinets", http.MethodGet, "/cabinets/", nil, &list)
	return list, err
}

func (c *Client) CreateCabinet(ctx context.Context, name, description string) (*Cabinet, error) {
	var out Cabinet
	body := map[string]string{"name": name, "description": description}
	if err := c.do(ctx, "create_cabinet", http.MethodPost, "/cabinets/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCabinet(ctx context.Context, id int64, name, description string) (*Cabinet, error) {
	var out Cabinet
	body := map[string]string{"name": name, "description": description}
	path := fmt.Sprintf("/cabinets/%d/", id)
	if err := c.do(ctx, "update_cabinet", http.MethodPut, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCabinet(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_cabinet", http.MethodDelete, fmt.Sprintf("/cabinets/%d/", id), nil, nil)
}

/*** ЁМКОСТИ ***/

// GetContainer принимает строковый id: идентификатор из QR-кода
// уходит в путь запроса как есть.
func (c *Client) GetContainer(ctx context.Context, id string) (*Container, error) {
	var out Container
	path := "/containers/" + url.PathEscape(id) + "/"
	if err := c.do(ctx, "get_container", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateContainer(ctx context.Context, nc NewContainer) (*Container, error) {
	var out Container
	if err := c.do(ctx, "create_container", http.MethodPost, "/containers/", nc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateContainer(ctx context.Context, id int64, nc NewContainer) (*Container, error) {
	var out Container
	path := fmt.Sprintf("/containers/%d/", id)
	if err := c.do(ctx, "update_container", http.MethodPut, path, nc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteContainer(ctx context.Context, id int64) error {
	return c.do(ctx, "delete_container", http.MethodDelete, fmt.Sprintf("/containers/%d/", id), nil, nil)
}

// Replenish — приход; арифметику делает бэкенд, в ответе итоговое состояние.
func (c *Client) Replenish(ctx context.Context, id int64, quantity float64) (*Container, error) {
	var out Container
	path := fmt.Sprintf("/containers/%d/replenish/", id)
	body := map[string]float64{"quantity": quantity}
	if err := c.do(ctx, "replenish", http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// WriteOff — списание; бэкенд отвечает ошибкой при нехватке остатка.
func (c *Client) WriteOff(ctx context.Context, id int64, quantity float64) (*Container, error) {
	var out Container
	path := fmt.Sprintf("/containers/%d/write_off/", id)
	body := map[string]float64{"quantity": quantity}
	if err := c.do(ctx, "write_off", http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

/*** ИСТОРИЯ И ОТЧЁТЫ ***/

func (c *Client) Transactions(ctx context.Context) ([]Transaction, error) {
	var list []Transaction
	err := c.do(ctx, "transactions", http.MethodGet, "/transactions/", nil, &list)
	return list, err
}

// SummaryReport: cabinetID == 0 — отчёт по всему складу.
func (c *Client) SummaryReport(ctx context.Context, cabinetID int64) (*SummaryReport, error) {
	path := "/reports/summary/"
	if cabinetID != 0 {
		path += "?cabinet_id=" + strconv.FormatInt(cabinetID, 10)
	}
	var out SummaryReport
	if err := c.do(ctx, "summary_report", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// QRCodeImage возвращает PNG, отрисованный бэкендом.
func (c *Client) QRCodeImage(ctx context.Context, id int64) ([]byte, error) {
	const op = "qr_image"
	path := fmt.Sprintf("/qr/%d/", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		countRequest(op, err)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		apiErr := decodeError(resp)
		countRequest(op, apiErr)
		return nil, fmt.Errorf("%s: %w", op, apiErr)
	}
	countRequest(op, nil)
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", op, err)
	}
	return data, nil
}
