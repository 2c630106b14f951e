package api

import (
	"net/http"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Middleware chain
	chain := Chain(
		Recovery(h.logger),
		Logging(h.logger),
	)

	// Очереди: выборка
	mux.Handle("GET /api/fetch-invoices", chain(http.HandlerFunc(h.FetchInvoices)))
	mux.Handle("GET /api/fetch-production-orders", chain(http.HandlerFunc(h.FetchProductionOrders)))

	// Производственные заказы
	mux.Handle("POST /api/production-orders", chain(http.HandlerFunc(h.PlanProductionOrders)))

	// Топология
	mux.Handle("POST /api/queues/{name}/ensure", chain(http.HandlerFunc(h.EnsureQueue)))
}
