package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shaiso/OrderBridge/internal/mq"
)

// FetchInvoices выбирает инвойсы из очереди клиента.
// GET /api/fetch-invoices?queue=fcl|cm|rmk&limit=1..1000
func (h *Handler) FetchInvoices(w http.ResponseWriter, r *http.Request) {
	kind := strings.ToLower(r.URL.Query().Get("queue"))
	if kind == "" {
		kind = "fcl"
	}

	queue, ok := mq.InvoiceQueue(kind)
	if !ok {
		BadRequest(w, "Invalid queue type. Must be fcl, cm, or rmk")
		return
	}

	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		BadRequest(w, "Limit must be a number between 1 and 1000")
		return
	}

	msgs, ok := h.drain(w, r, queue, limit, "Failed to fetch invoices")
	if !ok {
		return
	}

	Success(w, FetchInvoicesResponse{
		Success:  true,
		Queue:    kind,
		Count:    len(msgs),
		Invoices: payloads(msgs),
	})
}

// FetchProductionOrders выбирает заказы из production_orders.bc.
// GET /api/fetch-production-orders?limit=1..1000
func (h *Handler) FetchProductionOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseLimit(r.URL.Query().Get("limit"))
	if !ok {
		BadRequest(w, "Limit must be a number between 1 and 1000")
		return
	}

	queue := mq.PrimaryName(mq.QueueProductionOrders)
	msgs, ok := h.drain(w, r, queue, limit, "Failed to fetch production orders")
	if !ok {
		return
	}

	Success(w, FetchOrdersResponse{
		Success: true,
		Queue:   queue,
		Count:   len(msgs),
		Orders:  payloads(msgs),
	})
}

// drain гарантирует очередь и выбирает из неё пачку. При ошибке пишет 500.
func (h *Handler) drain(w http.ResponseWriter, r *http.Request, queue string, limit int, failMsg string) ([]mq.ParsedMessage, bool) {
	if err := h.topology.EnsureQueue(r.Context(), queue, h.exchange, h.deadLetterExchange, false); err != nil {
		InternalError(w, h.logger, failMsg, err)
		return nil, false
	}

	msgs, err := h.drainer.DrainBatch(queue, limit, h.drainTimeout)
	if err != nil {
		InternalError(w, h.logger, failMsg, err)
		return nil, false
	}
	return msgs, true
}

// parseLimit разбирает limit; пустое значение — DefaultFetchLimit.
func parseLimit(s string) (int, bool) {
	if s == "" {
		return DefaultFetchLimit, true
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 || n > MaxFetchLimit {
		return 0, false
	}
	return n, true
}
