// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — общее соединение (reconnect, graceful shutdown), канал на операцию
//   - channel.go    — интерфейс Channel поверх *amqp.Channel
//   - names.go      — имена очередей, QueueSpec
//   - topology.go   — EnsureQueue: exchanges, основная/.dl/.reply очереди, bindings
//   - inspector.go  — проверка существующей очереди (AMQP probe или management API)
//   - consumer.go   — DrainBatch: ограниченная выборка с таймаутом
//   - publisher.go  — публикация с publisher confirms
//
// Очереди:
//   - invoices_fcl.bc, invoices_cm.bc, invoices_rmk.bc — инвойсы по клиентам
//   - production_orders.bc — производственные заказы
//
// Exchanges (по умолчанию):
//   - fcl.exchange.direct — основной
//   - fcl.exchange.dlx    — dead letter
package mq
