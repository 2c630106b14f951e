package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// InvoicesPublished — подтверждённые брокером публикации инвойсов.
	InvoicesPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbridge_invoices_published_total",
		Help: "Invoice lines confirmed by the broker, per destination queue",
	}, []string{"queue"})

	// PublishFailures — неподтверждённые или упавшие публикации.
	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbridge_publish_failures_total",
		Help: "Publishes that were not confirmed by the broker",
	}, []string{"queue"})

	// MessagesDrained — сообщения, выданные из очереди и подтверждённые (ack).
	MessagesDrained = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbridge_messages_drained_total",
		Help: "Messages parsed and acknowledged by batch drains",
	}, []string{"queue"})

	// MessagesDeadLettered — сообщения, отклонённые в DLQ при разборе.
	MessagesDeadLettered = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbridge_messages_dead_lettered_total",
		Help: "Malformed messages rejected to the dead-letter queue",
	}, []string{"queue"})

	// QueueRecreations — циклы пересоздания очередей (force или drift).
	QueueRecreations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbridge_queue_recreations_total",
		Help: "Delete-and-recreate cycles performed by the topology manager",
	}, []string{"queue"})

	// ProductionOrders — построенные производственные заказы.
	ProductionOrders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orderbridge_production_orders_total",
		Help: "Production orders built from BOM expansion, per routing",
	}, []string{"routing"})

	// BrokerReconnects — восстановления соединения с RabbitMQ.
	BrokerReconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbridge_broker_reconnects_total",
		Help: "RabbitMQ connection re-establishments after a drop",
	})

	// HTTPRequests — запросы к API.
	HTTPRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orderbridge_api_http_requests_total",
		Help: "Total HTTP requests handled by orderbridge-api",
	})
)
