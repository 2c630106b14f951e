package mq

import (
	"errors"
	"fmt"
)

// Общие ошибки пакета.
var (
	// ErrNoConnection — соединение с брокером не установлено или закрыто.
	ErrNoConnection = errors.New("no broker connection available")

	// ErrDeliveriesClosed — брокер закрыл поток доставки во время выборки.
	ErrDeliveriesClosed = errors.New("deliveries channel closed")

	// ErrPublishNacked — брокер ответил nack на публикацию.
	ErrPublishNacked = errors.New("publish not acknowledged by broker")

	// ErrConfirmTimeout — подтверждение публикации не пришло вовремя.
	ErrConfirmTimeout = errors.New("publish confirmation timeout")

	// ErrConfirmsClosed — канал подтверждений закрыт (канал брокера упал).
	ErrConfirmsClosed = errors.New("publish confirmations closed")

	// ErrInvalidBatchSize — maxCount выборки вне допустимого диапазона.
	ErrInvalidBatchSize = errors.New("batch size must be positive")
)

// TopologyError — ошибка настройки exchanges/queues. Фатальна для операции.
type TopologyError struct {
	Queue string
	Op    string
	Err   error
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("topology %s %s: %v", e.Op, e.Queue, e.Err)
}

func (e *TopologyError) Unwrap() error { return e.Err }

// ConsumerError — ошибка брокера во время выборки. Прерывает текущий batch;
// уже подтверждённые сообщения остаются подтверждёнными.
type ConsumerError struct {
	Queue string
	Op    string
	Err   error
}

func (e *ConsumerError) Error() string {
	return fmt.Sprintf("consume %s (%s): %v", e.Queue, e.Op, e.Err)
}

func (e *ConsumerError) Unwrap() error { return e.Err }

// MessageParseError — сообщение не разобрано. Не фатальна: сообщение уходит в DLQ.
type MessageParseError struct {
	Queue     string
	MessageID string
	Err       error
}

func (e *MessageParseError) Error() string {
	return fmt.Sprintf("parse message %q from %s: %v", e.MessageID, e.Queue, e.Err)
}

func (e *MessageParseError) Unwrap() error { return e.Err }

// PublishError — публикация одного сообщения не подтверждена. Не фатальна:
// строка остаётся неопубликованной до следующего запуска.
type PublishError struct {
	Queue     string
	MessageID string
	Err       error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %q to %s: %v", e.MessageID, e.Queue, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }
