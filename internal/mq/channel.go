package mq

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Channel — подмножество методов *amqp.Channel, которое использует сервис.
//
// *amqp.Channel удовлетворяет интерфейсу напрямую; в тестах
// подставляется fake.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueDelete(name string, ifUnused, ifEmpty, noWait bool) (int, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error

	Qos(prefetchCount, prefetchSize int, global bool) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Cancel(consumer string, noWait bool) error

	Confirm(noWait bool) error
	NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error

	NotifyClose(c chan *amqp.Error) chan *amqp.Error
	Close() error
}

// ChannelOpener открывает новый канал на общем соединении.
//
// Каждая логическая операция (выборка, публикация, настройка топологии)
// получает собственный канал и закрывает его сама.
type ChannelOpener interface {
	OpenChannel() (Channel, error)
}

// withChannel открывает канал, выполняет fn и закрывает канал на любом пути выхода.
func withChannel(opener ChannelOpener, fn func(ch Channel) error) error {
	if opener == nil {
		return ErrNoConnection
	}

	ch, err := opener.OpenChannel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer closeChannel(ch)

	return fn(ch)
}

// closeChannel закрывает канал. Канал, закрытый брокером (404/406), не считается ошибкой.
func closeChannel(ch Channel) {
	_ = ch.Close()
}

// isAMQPCode проверяет код ошибки брокера (404 NOT_FOUND, 406 PRECONDITION_FAILED, ...).
func isAMQPCode(err error, code int) bool {
	var aerr *amqp.Error
	if errors.As(err, &aerr) {
		return aerr.Code == code
	}
	return false
}
