package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// InvoicesResponse — выборка инвойсов.
type InvoicesResponse struct {
	Success  bool             `json:"success"`
	Queue    string           `json:"queue"`
	Count    int              `json:"count"`
	Invoices []map[string]any `json:"invoices"`
}

// OrdersResponse — выборка производственных заказов из очереди.
type OrdersResponse struct {
	Success bool              `json:"success"`
	Queue   string            `json:"queue"`
	Count   int               `json:"count"`
	Orders  []ProductionOrder `json:"orders"`
}

// ProductionOrder — производственный заказ из API.
type ProductionOrder struct {
	OrderNo      string        `json:"production_order_no"`
	ItemNo       string        `json:"ItemNo"`
	Quantity     float64       `json:"Quantity"`
	UOM          string        `json:"uom"`
	LocationCode string        `json:"LocationCode"`
	Routing      string        `json:"routing"`
	DateTime     string        `json:"date_time"`
	Lines        []JournalLine `json:"ProductionJournalLines"`
}

// JournalLine — строка производственного журнала из API.
type JournalLine struct {
	ItemNo   string  `json:"ItemNo"`
	Quantity float64 `json:"Quantity"`
	UOM      string  `json:"uom"`
	LineNo   int     `json:"line_no"`
	Type     string  `json:"type"`
}

// PlanResponse — результат планирования.
type PlanResponse struct {
	Success   bool              `json:"success"`
	ItemNo    string            `json:"item_no"`
	Count     int               `json:"count"`
	Orders    []ProductionOrder `json:"orders"`
	Published *int              `json:"published,omitempty"`
}

// EnsureQueueResponse — результат настройки очереди.
type EnsureQueueResponse struct {
	Success         bool   `json:"success"`
	Queue           string `json:"queue"`
	DeadLetterQueue string `json:"dead_letter_queue"`
	ReplyQueue      string `json:"reply_queue"`
	Forced          bool   `json:"forced"`
}

// --- Request types ---

// PlanRequest — запрос на планирование.
type PlanRequest struct {
	ItemNo   string  `json:"item_no"`
	Quantity float64 `json:"quantity"`
	User     string  `json:"user,omitempty"`
	Publish  bool    `json:"publish"`
}

// --- API response wrappers ---

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для OrderBridge API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			// выборка из очереди ждёт до DRAIN_TIMEOUT на стороне API
			Timeout: 60 * time.Second,
		},
	}
}

// --- Queues ---

// FetchInvoices выбирает до limit инвойсов из очереди kind (fcl, cm, rmk).
func (c *Client) FetchInvoices(kind string, limit int) (*InvoicesResponse, error) {
	params := url.Values{}
	if kind != "" {
		params.Set("queue", kind)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp InvoicesResponse
	err := c.get("/api/fetch-invoices", params, &resp)
	return &resp, err
}

// FetchOrders выбирает до limit заказов из production_orders.bc.
func (c *Client) FetchOrders(limit int) (*OrdersResponse, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	var resp OrdersResponse
	err := c.get("/api/fetch-production-orders", params, &resp)
	return &resp, err
}

// EnsureQueue настраивает очередь name.
func (c *Client) EnsureQueue(name string, force bool) (*EnsureQueueResponse, error) {
	path := "/api/queues/" + url.PathEscape(name) + "/ensure?force=" + strconv.FormatBool(force)

	var resp EnsureQueueResponse
	err := c.post(path, nil, &resp)
	return &resp, err
}

// --- Production orders ---

// PlanOrders строит (и при Publish публикует) заказы.
func (c *Client) PlanOrders(req PlanRequest) (*PlanResponse, error) {
	var resp PlanResponse
	err := c.post("/api/production-orders", req, &resp)
	return &resp, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}
	return c.doJSON(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doJSON(http.MethodPost, path, body, result)
}

func (c *Client) doJSON(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil || er.Message == "" {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	if er.Error != "" {
		return fmt.Errorf("%s: %s", er.Message, er.Error)
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode, er.Message)
}
