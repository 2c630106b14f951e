package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/mq"
	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// Drainer выбирает ограниченную пачку сообщений из очереди.
type Drainer interface {
	DrainBatch(queue string, maxCount int, timeout time.Duration) ([]mq.ParsedMessage, error)
}

// QueueEnsurer приводит очередь к ожидаемой конфигурации.
type QueueEnsurer interface {
	EnsureQueue(ctx context.Context, name, exchange, deadLetterExchange string, forceRecreate bool) error
}

// OrderPlanner строит производственные заказы для готового продукта.
type OrderPlanner interface {
	Plan(ctx context.Context, finishedGood string, qty float64, ts time.Time, user string) ([]domain.ProductionOrder, error)
}

// OrderPublisher публикует производственные заказы.
type OrderPublisher interface {
	PublishOrders(ctx context.Context, queue string, orders []domain.ProductionOrder) (int, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	drainer            Drainer
	topology           QueueEnsurer
	planner            OrderPlanner
	orders             OrderPublisher
	exchange           string
	deadLetterExchange string
	drainTimeout       time.Duration
	logger             *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Drainer  Drainer
	Topology QueueEnsurer
	Planner  OrderPlanner
	Orders   OrderPublisher

	Exchange           string
	DeadLetterExchange string

	// DrainTimeout — ожидание одной выборки (default: 5s).
	DrainTimeout time.Duration

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	timeout := cfg.DrainTimeout
	if timeout <= 0 {
		timeout = mq.DefaultDrainTimeout
	}

	return &Handler{
		drainer:            cfg.Drainer,
		topology:           cfg.Topology,
		planner:            cfg.Planner,
		orders:             cfg.Orders,
		exchange:           cfg.Exchange,
		deadLetterExchange: cfg.DeadLetterExchange,
		drainTimeout:       timeout,
		logger:             telemetry.OrDiscard(cfg.Logger),
	}
}
