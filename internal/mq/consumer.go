package mq

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// DefaultDrainTimeout — предел ожидания одной выборки.
const DefaultDrainTimeout = 5 * time.Second

// ParsedMessage — разобранное и подтверждённое сообщение.
type ParsedMessage struct {
	// MessageID — AMQP message-id (может быть пустым).
	MessageID string

	// RoutingKey — ключ, с которым сообщение было опубликовано.
	RoutingKey string

	// Payload — тело сообщения, валидный JSON.
	Payload json.RawMessage
}

// BatchConsumer выбирает ограниченные пачки сообщений из очередей.
type BatchConsumer struct {
	opener ChannelOpener
	logger *slog.Logger
}

// NewBatchConsumer создаёт новый BatchConsumer.
func NewBatchConsumer(opener ChannelOpener, logger *slog.Logger) *BatchConsumer {
	return &BatchConsumer{
		opener: opener,
		logger: telemetry.OrDiscard(logger),
	}
}

// DrainBatch выбирает до maxCount сообщений из queue, ожидая не дольше timeout.
//
// Подписка работает на отдельном канале с ручным ack и prefetch = maxCount.
// Сообщение с валидным JSON подтверждается (ack) и попадает в результат;
// невалидное отклоняется без requeue (уходит в DLQ) и не учитывается в maxCount.
//
// Выборка завершается, когда набрано maxCount сообщений или истёк timeout.
// Истечение timeout без сообщений — не ошибка. Канал закрывается на любом пути.
//
// Ошибка брокера возвращается как *ConsumerError вместе с уже
// подтверждёнными сообщениями: откат ack не выполняется.
func (c *BatchConsumer) DrainBatch(queue string, maxCount int, timeout time.Duration) ([]ParsedMessage, error) {
	if maxCount <= 0 {
		return nil, &ConsumerError{Queue: queue, Op: "drain", Err: ErrInvalidBatchSize}
	}
	if timeout <= 0 {
		timeout = DefaultDrainTimeout
	}

	logger := telemetry.WithQueue(c.logger, queue)

	if c.opener == nil {
		return nil, &ConsumerError{Queue: queue, Op: "open channel", Err: ErrNoConnection}
	}

	ch, err := c.opener.OpenChannel()
	if err != nil {
		return nil, &ConsumerError{Queue: queue, Op: "open channel", Err: err}
	}
	defer closeChannel(ch)

	closed := ch.NotifyClose(make(chan *amqp.Error, 1))

	// Устанавливаем prefetch
	if err := ch.Qos(maxCount, 0, false); err != nil {
		return nil, &ConsumerError{Queue: queue, Op: "qos", Err: err}
	}

	tag := "drain-" + uuid.NewString()
	deliveries, err := ch.Consume(
		queue, // queue
		tag,   // consumer tag
		false, // auto-ack (мы ack вручную)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return nil, &ConsumerError{Queue: queue, Op: "consume", Err: err}
	}
	defer func() { _ = ch.Cancel(tag, false) }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	messages := make([]ParsedMessage, 0, min(maxCount, 128))

	for len(messages) < maxCount {
		select {
		case raw, ok := <-deliveries:
			if !ok {
				return messages, &ConsumerError{Queue: queue, Op: "consume", Err: ErrDeliveriesClosed}
			}

			msg, err := parseDelivery(queue, raw)
			if err != nil {
				logger.Error("failed to parse message", "error", err)

				// Некорректное сообщение — отправляем в DLQ
				if err := raw.Nack(false, false); err != nil {
					return messages, &ConsumerError{Queue: queue, Op: "nack", Err: err}
				}
				telemetry.MessagesDeadLettered.WithLabelValues(queue).Inc()
				continue
			}

			if err := raw.Ack(false); err != nil {
				return messages, &ConsumerError{Queue: queue, Op: "ack", Err: err}
			}
			telemetry.MessagesDrained.WithLabelValues(queue).Inc()
			messages = append(messages, msg)

		case aerr, ok := <-closed:
			if !ok || aerr == nil {
				return messages, &ConsumerError{Queue: queue, Op: "channel", Err: ErrDeliveriesClosed}
			}
			return messages, &ConsumerError{Queue: queue, Op: "channel", Err: aerr}

		case <-timer.C:
			logger.Info("drain timeout reached", "fetched", len(messages), "timeout", timeout)
			if len(messages) == 0 {
				logger.Info("no messages found in queue")
			}
			return messages, nil
		}
	}

	return messages, nil
}

// parseDelivery проверяет, что тело сообщения — валидный JSON.
func parseDelivery(queue string, raw amqp.Delivery) (ParsedMessage, error) {
	var payload json.RawMessage
	if err := json.Unmarshal(raw.Body, &payload); err != nil {
		return ParsedMessage{}, &MessageParseError{
			Queue:     queue,
			MessageID: raw.MessageId,
			Err:       err,
		}
	}

	return ParsedMessage{
		MessageID:  raw.MessageId,
		RoutingKey: raw.RoutingKey,
		Payload:    payload,
	}, nil
}
