// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go         — Handler с DI (consumer, topology, planner, publisher, logger)
//   - routes.go          — регистрация маршрутов
//   - middleware.go      — middleware (logging, recovery)
//   - response.go        — JSON-ответы {success, message, error} и обработка ошибок
//   - dto.go             — Data Transfer Objects (request/response)
//   - invoice_handler.go — выборка инвойсов и заказов из очередей
//   - order_handler.go   — планирование и публикация производственных заказов
//   - queue_handler.go   — настройка очередей
//
// Endpoints:
//
//	GET  /api/fetch-invoices?queue=fcl|cm|rmk&limit=N
//	GET  /api/fetch-production-orders?limit=N
//	POST /api/production-orders
//	POST /api/queues/{name}/ensure?force=true|false
package api
