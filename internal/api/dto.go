package api

import (
	"encoding/json"
	"time"

	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/mq"
)

// Ограничения выборки из очереди.
const (
	DefaultFetchLimit = 100
	MaxFetchLimit     = 1000
)

// FetchInvoicesResponse — ответ GET /api/fetch-invoices.
type FetchInvoicesResponse struct {
	Success  bool              `json:"success"`
	Queue    string            `json:"queue"`
	Count    int               `json:"count"`
	Invoices []json.RawMessage `json:"invoices"`
}

// FetchOrdersResponse — ответ GET /api/fetch-production-orders.
type FetchOrdersResponse struct {
	Success bool              `json:"success"`
	Queue   string            `json:"queue"`
	Count   int               `json:"count"`
	Orders  []json.RawMessage `json:"orders"`
}

// PlanRequest — запрос на планирование заказов.
type PlanRequest struct {
	ItemNo   string  `json:"item_no"`
	Quantity float64 `json:"quantity"`
	User     string  `json:"user"`

	// Timestamp — время заказов (default: текущее).
	Timestamp *time.Time `json:"date_time,omitempty"`

	// Publish — опубликовать заказы в production_orders.bc.
	Publish bool `json:"publish"`
}

// PlanResponse — ответ POST /api/production-orders.
type PlanResponse struct {
	Success   bool                     `json:"success"`
	ItemNo    string                   `json:"item_no"`
	Count     int                      `json:"count"`
	Orders    []domain.ProductionOrder `json:"orders"`
	Published *int                     `json:"published,omitempty"`
}

// EnsureQueueResponse — ответ POST /api/queues/{name}/ensure.
type EnsureQueueResponse struct {
	Success         bool   `json:"success"`
	Queue           string `json:"queue"`
	DeadLetterQueue string `json:"dead_letter_queue"`
	ReplyQueue      string `json:"reply_queue"`
	Forced          bool   `json:"forced"`
}

// payloads извлекает тела сообщений.
func payloads(msgs []mq.ParsedMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(msgs))
	for i, m := range msgs {
		out[i] = m.Payload
	}
	return out
}
