package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/mq"
	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// InvoiceStore — хранилище строк инвойсов.
type InvoiceStore interface {
	ListUnpublished(ctx context.Context, windowDays int) ([]domain.InvoiceRecord, error)
	MarkPublished(ctx context.Context, extDocNos []string) (int64, error)
}

// SessionOpener открывает сессию публикации с подтверждениями.
type SessionOpener interface {
	WithSession(ctx context.Context, fn func(s mq.Sender) error) error
}

// QueueEnsurer приводит очередь к ожидаемой конфигурации.
type QueueEnsurer interface {
	EnsureQueue(ctx context.Context, name, exchange, deadLetterExchange string, forceRecreate bool) error
}

// DefaultWindowDays — окно выборки неопубликованных инвойсов.
const DefaultWindowDays = 2

// Publisher публикует инвойсы и производственные заказы.
type Publisher struct {
	store              InvoiceStore
	sessions           SessionOpener
	topology           QueueEnsurer
	exchange           string
	deadLetterExchange string
	windowDays         int
	logger             *slog.Logger
}

// Config — конфигурация Publisher.
type Config struct {
	Store    InvoiceStore
	Sessions SessionOpener
	Topology QueueEnsurer

	Exchange           string
	DeadLetterExchange string

	// WindowDays — глубина выборки в днях (default: 2).
	WindowDays int

	Logger *slog.Logger
}

// New создаёт новый Publisher.
func New(cfg Config) *Publisher {
	windowDays := cfg.WindowDays
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}

	return &Publisher{
		store:              cfg.Store,
		sessions:           cfg.Sessions,
		topology:           cfg.Topology,
		exchange:           cfg.Exchange,
		deadLetterExchange: cfg.DeadLetterExchange,
		windowDays:         windowDays,
		logger:             telemetry.OrDiscard(cfg.Logger),
	}
}

// PublishPending публикует неопубликованные инвойсы за окно WindowDays.
// Возвращает число подтверждённых строк.
func (p *Publisher) PublishPending(ctx context.Context) (int, error) {
	rows, err := p.store.ListUnpublished(ctx, p.windowDays)
	if err != nil {
		return 0, fmt.Errorf("list unpublished invoices: %w", err)
	}

	if len(rows) == 0 {
		p.logger.Info("no new invoices found to publish")
		return 0, nil
	}
	p.logger.Info("found invoices to publish", "count", len(rows))

	for _, q := range mq.InvoiceQueues {
		if err := p.topology.EnsureQueue(ctx, q, p.exchange, p.deadLetterExchange, false); err != nil {
			return 0, err
		}
	}

	return p.PublishAndReconcile(ctx, rows, RouteByCustomerPrefix)
}

// PublishAndReconcile публикует rows по правилу rule и помечает
// подтверждённые документы опубликованными.
//
// Невалидная строка или неподтверждённая публикация логируется и
// пропускается; остальные строки публикуются. UPDATE выполняется один раз
// и только если подтверждён хотя бы один документ целиком.
//
// Возвращает число подтверждённых строк.
func (p *Publisher) PublishAndReconcile(ctx context.Context, rows []domain.InvoiceRecord, rule RoutingRule) (int, error) {
	confirmed := 0
	docs := newDocTracker()

	sessionErr := p.sessions.WithSession(ctx, func(s mq.Sender) error {
		for _, rec := range rows {
			if err := ctx.Err(); err != nil {
				return err
			}

			logger := p.logger.With("ext_doc_no", rec.ExtDocNo, "cust_no", rec.CustNo)

			if err := rec.Validate(); err != nil {
				logger.Warn("skipping invalid invoice", "error", err)
				docs.fail(rec.ExtDocNo)
				continue
			}

			queue := rule(rec)
			logger.Debug("routing invoice", "queue", queue)

			if err := p.sendJSON(ctx, s, queue, "", rec); err != nil {
				logger.Error("failed to publish invoice", "queue", queue, "error", err)
				telemetry.PublishFailures.WithLabelValues(queue).Inc()
				docs.fail(rec.ExtDocNo)
				continue
			}

			telemetry.InvoicesPublished.WithLabelValues(queue).Inc()
			docs.ok(rec.ExtDocNo)
			confirmed++
		}
		return nil
	})

	p.logger.Info("published invoice lines", "confirmed", confirmed, "total", len(rows))

	if ids := docs.confirmed(); len(ids) > 0 {
		updated, err := p.store.MarkPublished(ctx, ids)
		if err != nil {
			return confirmed, fmt.Errorf("mark published: %w", err)
		}
		p.logger.Info("updated published status", "documents", len(ids), "rows", updated)
	}

	if sessionErr != nil {
		return confirmed, fmt.Errorf("publish session: %w", sessionErr)
	}
	return confirmed, nil
}

// PublishOrders публикует производственные заказы в queue.
// Возвращает число подтверждённых заказов.
func (p *Publisher) PublishOrders(ctx context.Context, queue string, orders []domain.ProductionOrder) (int, error) {
	if len(orders) == 0 {
		return 0, nil
	}

	if err := p.topology.EnsureQueue(ctx, queue, p.exchange, p.deadLetterExchange, false); err != nil {
		return 0, err
	}
	routingKey := mq.PrimaryName(queue)

	confirmed := 0
	err := p.sessions.WithSession(ctx, func(s mq.Sender) error {
		for _, order := range orders {
			if err := ctx.Err(); err != nil {
				return err
			}

			if err := p.sendJSON(ctx, s, routingKey, order.OrderNo, order); err != nil {
				p.logger.Error("failed to publish production order",
					"order_no", order.OrderNo,
					"queue", routingKey,
					"error", err,
				)
				telemetry.PublishFailures.WithLabelValues(routingKey).Inc()
				continue
			}
			confirmed++
		}
		return nil
	})

	p.logger.Info("published production orders", "queue", routingKey, "confirmed", confirmed, "total", len(orders))

	if err != nil {
		return confirmed, fmt.Errorf("publish session: %w", err)
	}
	return confirmed, nil
}

func (p *Publisher) sendJSON(ctx context.Context, s mq.Sender, routingKey, messageID string, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	return s.Send(ctx, routingKey, amqp.Publishing{
		MessageId:   messageID,
		ContentType: "application/json",
		Body:        body,
	})
}

// docTracker собирает состояние публикации по документам.
// Документ подтверждён, если подтверждены все его строки.
type docTracker struct {
	order  []string
	failed map[string]bool
}

func newDocTracker() *docTracker {
	return &docTracker{failed: make(map[string]bool)}
}

func (t *docTracker) ok(doc string) {
	if _, seen := t.failed[doc]; !seen {
		t.failed[doc] = false
		t.order = append(t.order, doc)
	}
}

func (t *docTracker) fail(doc string) {
	if _, seen := t.failed[doc]; !seen {
		t.order = append(t.order, doc)
	}
	t.failed[doc] = true
}

func (t *docTracker) confirmed() []string {
	var ids []string
	for _, doc := range t.order {
		if doc != "" && !t.failed[doc] {
			ids = append(ids, doc)
		}
	}
	return ids
}
