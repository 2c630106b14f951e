package mq

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// DefaultConfirmTimeout — ожидание подтверждения одной публикации.
const DefaultConfirmTimeout = 5 * time.Second

// Sender публикует сообщения в рамках одной сессии публикации.
//
// Send возвращает nil только если брокер подтвердил (ack) публикацию.
type Sender interface {
	Send(ctx context.Context, routingKey string, msg amqp.Publishing) error
}

// Publisher публикует сообщения в RabbitMQ с подтверждениями (publisher confirms).
type Publisher struct {
	opener         ChannelOpener
	exchange       string
	confirmTimeout time.Duration
	logger         *slog.Logger
}

// PublisherConfig — конфигурация Publisher.
type PublisherConfig struct {
	Opener ChannelOpener

	// Exchange — обменник для всех публикаций.
	Exchange string

	// ConfirmTimeout — ожидание ack от брокера (default: 5s).
	ConfirmTimeout time.Duration

	Logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(cfg PublisherConfig) *Publisher {
	timeout := cfg.ConfirmTimeout
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}

	return &Publisher{
		opener:         cfg.Opener,
		exchange:       cfg.Exchange,
		confirmTimeout: timeout,
		logger:         telemetry.OrDiscard(cfg.Logger),
	}
}

// Exchange возвращает имя обменника публикаций.
func (p *Publisher) Exchange() string {
	return p.exchange
}

// WithSession открывает канал в режиме confirm, выполняет fn и закрывает канал.
//
// Ошибки открытия канала и включения confirm возвращаются как есть:
// это ошибки уровня соединения, а не отдельной публикации.
func (p *Publisher) WithSession(ctx context.Context, fn func(s Sender) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return withChannel(p.opener, func(ch Channel) error {
		if err := ch.Confirm(false); err != nil {
			return fmt.Errorf("enable confirm mode: %w", err)
		}

		s := &session{
			ch:       ch,
			confirms: ch.NotifyPublish(make(chan amqp.Confirmation, 16)),
			exchange: p.exchange,
			timeout:  p.confirmTimeout,
			logger:   p.logger,
		}

		return fn(s)
	})
}

// session — канал публикации в режиме confirm.
type session struct {
	ch       Channel
	confirms chan amqp.Confirmation
	exchange string
	timeout  time.Duration
	logger   *slog.Logger

	// seq — delivery tag последней публикации на канале (начинается с 1).
	seq uint64
}

// Send публикует сообщение и синхронно ждёт подтверждения.
func (s *session) Send(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	if msg.MessageId == "" {
		msg.MessageId = uuid.NewString()
	}
	if msg.ContentType == "" {
		msg.ContentType = "application/json"
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	msg.DeliveryMode = amqp.Persistent // сообщение переживёт рестарт RabbitMQ

	err := s.ch.PublishWithContext(
		ctx,
		s.exchange, // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		msg,
	)
	if err != nil {
		return &PublishError{Queue: routingKey, MessageID: msg.MessageId, Err: err}
	}
	s.seq++

	if err := s.waitConfirm(ctx, s.seq); err != nil {
		return &PublishError{Queue: routingKey, MessageID: msg.MessageId, Err: err}
	}

	s.logger.Debug("published message",
		"exchange", s.exchange,
		"routing_key", routingKey,
		"message_id", msg.MessageId,
	)

	return nil
}

// waitConfirm ждёт подтверждение с delivery tag = tag.
// Запоздавшие подтверждения предыдущих публикаций пропускаются.
func (s *session) waitConfirm(ctx context.Context, tag uint64) error {
	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		select {
		case c, ok := <-s.confirms:
			if !ok {
				return ErrConfirmsClosed
			}
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return ErrPublishNacked
			}
			return nil
		case <-timer.C:
			return ErrConfirmTimeout
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
