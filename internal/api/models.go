package api

import "time"

type Role string

const (
	RoleOperator      Role = "OPERATOR"
	RoleAdministrator Role = "ADMINISTRATOR"
)

type Cabinet struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Containers  []Container `json:"containers"`
}

type Container struct {
	ID                int64   `json:"id"`
	Name              string  `json:"name"`
	Unit              string  `json:"unit"`
	InitialQuantity   float64 `json:"initial_quantity"`
	CurrentQuantity   float64 `json:"current_quantity"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
	CabinetID         int64   `json:"cabinet"`
	CabinetName       string  `json:"cabinet_name,omitempty"`
}

// NewContainer — поля создания/обновления ёмкости.
type NewContainer struct {
	Name              string  `json:"name"`
	Unit              string  `json:"unit"`
	InitialQuantity   float64 `json:"initial_quantity"`
	CurrentQuantity   float64 `json:"current_quantity"`
	LowStockThreshold float64 `json:"low_stock_threshold"`
	CabinetID         int64   `json:"cabinet"`
}

type TransactionType string

const (
	TxCreate    TransactionType = "CREATE"
	TxReplenish TransactionType = "REPLENISH"
	TxWriteOff  TransactionType = "WRITE_OFF"
)

type Transaction struct {
	ID             int64           `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	Type           TransactionType `json:"transaction_type"`
	QuantityChange float64         `json:"quantity_change"`
	ContainerName  string          `json:"container_name"`
	// имя пользователя денормализовано на бэкенде; может быть пустым
	User string `json:"user"`
}

type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
	IsStaff  bool   `json:"is_staff"`
	// write-only: бэкенд никогда не возвращает пароль
	Password string `json:"password,omitempty"`
}

type MaterialSummary struct {
	Name          string  `json:"name"`
	Unit          string  `json:"unit"`
	TotalQuantity float64 `json:"total_quantity"`
}

type SummaryReport struct {
	// TotalCabinets приходит только в отчёте без фильтра по шкафу
	TotalCabinets    *int64            `json:"total_cabinets,omitempty"`
	TotalContainers  int64             `json:"total_containers"`
	MaterialsSummary []MaterialSummary `json:"materials_summary"`
	LowStockItems    []Container       `json:"low_stock_items"`
	FullInventory    []Container       `json:"full_inventory"`
}

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}
