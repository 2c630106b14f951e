package mq

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// Topology — менеджер exchanges и очередей.
//
// Гарантирует, что для основной очереди существуют dead-letter и reply
// очереди с ожидаемыми аргументами. При расхождении аргументов
// очереди пересоздаются. Пересоздание деструктивно: сообщения в удалённых
// очередях теряются.
type Topology struct {
	opener    ChannelOpener
	inspector QueueInspector
	logger    *slog.Logger
}

// TopologyConfig — конфигурация Topology.
type TopologyConfig struct {
	Opener ChannelOpener

	// Inspector — способ проверки существующей очереди.
	// По умолчанию ProbeInspector поверх Opener.
	Inspector QueueInspector

	Logger *slog.Logger
}

// NewTopology создаёт новый Topology.
func NewTopology(cfg TopologyConfig) *Topology {
	inspector := cfg.Inspector
	if inspector == nil {
		inspector = NewProbeInspector(cfg.Opener)
	}

	return &Topology{
		opener:    cfg.Opener,
		inspector: inspector,
		logger:    telemetry.OrDiscard(cfg.Logger),
	}
}

// EnsureQueue приводит очередь name к ожидаемой конфигурации.
//
//  1. Объявляет exchange и dead-letter exchange (direct, durable)
//  2. forceRecreate — безусловно удаляет и пересоздаёт тройку очередей
//  3. Иначе проверяет очередь: отсутствует или аргументы DLX расходятся —
//     пересоздаёт; совпадают — ничего не делает
func (t *Topology) EnsureQueue(ctx context.Context, name, exchange, deadLetterExchange string, forceRecreate bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	spec := NewQueueSpec(name, exchange, deadLetterExchange)
	logger := telemetry.WithQueue(t.logger, spec.Name)

	if err := t.declareExchanges(spec); err != nil {
		return err
	}

	if forceRecreate {
		logger.Info("force recreating queues")
		return t.recreate(spec)
	}

	state, err := t.inspector.Inspect(ctx, spec)
	if err != nil {
		return &TopologyError{Queue: spec.Name, Op: "inspect", Err: err}
	}

	switch state {
	case QueueInSync:
		logger.Debug("queue already exists with correct configuration")
		return nil
	case QueueDrifted:
		logger.Warn("queue exists with different DLX configuration, recreating")
	default:
		logger.Info("queue does not exist, creating")
	}

	return t.recreate(spec)
}

// EnsureAll вызывает EnsureQueue для каждого имени. Останавливается на первой ошибке.
func (t *Topology) EnsureAll(ctx context.Context, names []string, exchange, deadLetterExchange string, forceRecreate bool) error {
	for _, name := range names {
		if err := t.EnsureQueue(ctx, name, exchange, deadLetterExchange, forceRecreate); err != nil {
			return err
		}
	}
	return nil
}

// RecreateAll безусловно пересоздаёт все очереди инвойсов.
// Сообщения в них теряются.
func (t *Topology) RecreateAll(ctx context.Context, exchange, deadLetterExchange string) error {
	t.logger.Warn("recreating all invoice queues", "queues", InvoiceQueues)
	return t.EnsureAll(ctx, InvoiceQueues, exchange, deadLetterExchange, true)
}

// declareExchanges создаёт основной и dead-letter обменники.
func (t *Topology) declareExchanges(spec QueueSpec) error {
	err := withChannel(t.opener, func(ch Channel) error {
		for _, name := range []string{spec.Exchange, spec.DeadLetterExchange} {
			err := ch.ExchangeDeclare(
				name,               // name
				ExchangeKindDirect, // type
				true,               // durable
				false,              // auto-deleted
				false,              // internal
				false,              // no-wait
				nil,                // arguments
			)
			if err != nil {
				return fmt.Errorf("declare exchange %s: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return &TopologyError{Queue: spec.Name, Op: "declare exchanges", Err: err}
	}
	return nil
}

// recreate удаляет и заново создаёт основную, dead-letter и reply очереди,
// затем привязывает их к обменникам.
func (t *Topology) recreate(spec QueueSpec) error {
	for _, q := range spec.Queues() {
		if err := t.deleteQueue(q); err != nil {
			return &TopologyError{Queue: q, Op: "delete", Err: err}
		}
	}

	err := withChannel(t.opener, func(ch Channel) error {
		// dlq — без аргументов
		if _, err := ch.QueueDeclare(spec.DeadLetterQueue(), spec.Durable, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", spec.DeadLetterQueue(), err)
		}

		if _, err := ch.QueueDeclare(spec.Name, spec.Durable, false, false, false, spec.Arguments); err != nil {
			return fmt.Errorf("declare queue %s: %w", spec.Name, err)
		}

		// reply — auto-delete
		if _, err := ch.QueueDeclare(spec.ReplyQueue(), spec.Durable, true, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", spec.ReplyQueue(), err)
		}

		bindings := []struct {
			queue    string
			exchange string
		}{
			{spec.Name, spec.Exchange},
			{spec.DeadLetterQueue(), spec.DeadLetterExchange},
		}

		for _, b := range bindings {
			// routing key всегда равен основному имени очереди
			if err := ch.QueueBind(b.queue, spec.Name, b.exchange, false, nil); err != nil {
				return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
			}
		}

		return nil
	})
	if err != nil {
		return &TopologyError{Queue: spec.Name, Op: "recreate", Err: err}
	}

	telemetry.QueueRecreations.WithLabelValues(spec.Name).Inc()
	t.logger.Info("recreated queues",
		"queue", spec.Name,
		"dead_letter_queue", spec.DeadLetterQueue(),
		"reply_queue", spec.ReplyQueue(),
	)

	return nil
}

// deleteQueue удаляет очередь. Отсутствие очереди (404) не ошибка.
// Каждое удаление идёт на своём канале: 404 закрывает канал брокером.
func (t *Topology) deleteQueue(name string) error {
	err := withChannel(t.opener, func(ch Channel) error {
		_, err := ch.QueueDelete(
			name,  // name
			false, // ifUnused
			false, // ifEmpty
			false, // noWait
		)
		return err
	})
	if isAMQPCode(err, amqp.NotFound) {
		return nil
	}
	return err
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo(exchange, deadLetterExchange string) string {
	return fmt.Sprintf(`
  OrderBridge RabbitMQ Topology:

    %[1]s (direct)
    ├── invoices_fcl.bc       [routing: invoices_fcl.bc]   customers A*, other
    ├── invoices_cm.bc        [routing: invoices_cm.bc]    customers B*
    ├── invoices_rmk.bc       [routing: invoices_rmk.bc]   customers C*
    └── production_orders.bc  [routing: production_orders.bc]

    %[2]s (direct)
    └── <queue>.bc.dl         [routing: <queue>.bc]

    <queue>.bc.reply          auto-delete
  `, exchange, deadLetterExchange)
}
