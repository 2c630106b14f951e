package mq

import (
	"context"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func newTestPublisher(b *fakeBroker, timeout time.Duration) *Publisher {
	return NewPublisher(PublisherConfig{
		Opener:         b,
		Exchange:       testExchange,
		ConfirmTimeout: timeout,
	})
}

func TestPublisher_Acked(t *testing.T) {
	b := newFakeBroker()
	p := newTestPublisher(b, time.Second)

	err := p.WithSession(context.Background(), func(s Sender) error {
		for _, body := range []string{`{"n":1}`, `{"n":2}`} {
			if err := s.Send(context.Background(), "invoices_cm.bc", amqp.Publishing{Body: []byte(body)}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !b.confirmMode {
		t.Error("channel should be in confirm mode")
	}
	if len(b.published) != 2 {
		t.Fatalf("expected 2 publishes, got %d", len(b.published))
	}

	pub := b.published[0]
	if pub.exchange != testExchange || pub.key != "invoices_cm.bc" {
		t.Errorf("unexpected target %s/%s", pub.exchange, pub.key)
	}
	if pub.msg.DeliveryMode != amqp.Persistent {
		t.Error("message should be persistent")
	}
	if pub.msg.ContentType != "application/json" {
		t.Errorf("unexpected content type %q", pub.msg.ContentType)
	}
	if pub.msg.MessageId == "" {
		t.Error("message id should be generated")
	}
	if n := b.openChannels(); n != 0 {
		t.Errorf("expected channel closed, %d still open", n)
	}
}

func TestPublisher_Nacked(t *testing.T) {
	b := newFakeBroker()
	b.nackTags[2] = true
	p := newTestPublisher(b, time.Second)

	var results []error
	err := p.WithSession(context.Background(), func(s Sender) error {
		for i := 0; i < 3; i++ {
			results = append(results, s.Send(context.Background(), "invoices_fcl.bc", amqp.Publishing{Body: []byte(`{}`)}))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected session error: %v", err)
	}

	if results[0] != nil || results[2] != nil {
		t.Errorf("expected first and third acked, got %v", results)
	}
	if !errors.Is(results[1], ErrPublishNacked) {
		t.Errorf("expected ErrPublishNacked, got %v", results[1])
	}

	var perr *PublishError
	if !errors.As(results[1], &perr) || perr.Queue != "invoices_fcl.bc" {
		t.Errorf("expected PublishError for invoices_fcl.bc, got %v", results[1])
	}
}

func TestPublisher_PublishError(t *testing.T) {
	b := newFakeBroker()
	b.publishErr = amqp.ErrClosed
	p := newTestPublisher(b, time.Second)

	err := p.WithSession(context.Background(), func(s Sender) error {
		return s.Send(context.Background(), "production_orders.bc", amqp.Publishing{MessageId: "order-1"})
	})

	var perr *PublishError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PublishError, got %v", err)
	}
	if perr.MessageID != "order-1" {
		t.Errorf("expected message id order-1, got %s", perr.MessageID)
	}
	if !errors.Is(err, amqp.ErrClosed) {
		t.Error("error should wrap amqp.ErrClosed")
	}
}

func TestPublisher_ConfirmTimeout(t *testing.T) {
	b := newFakeBroker()
	b.noConfirm = true
	p := newTestPublisher(b, 20*time.Millisecond)

	err := p.WithSession(context.Background(), func(s Sender) error {
		return s.Send(context.Background(), "invoices_fcl.bc", amqp.Publishing{})
	})
	if !errors.Is(err, ErrConfirmTimeout) {
		t.Errorf("expected ErrConfirmTimeout, got %v", err)
	}
}

func TestPublisher_NoConnection(t *testing.T) {
	b := newFakeBroker()
	b.openErr = ErrNoConnection
	p := newTestPublisher(b, time.Second)

	called := false
	err := p.WithSession(context.Background(), func(s Sender) error {
		called = true
		return nil
	})
	if !errors.Is(err, ErrNoConnection) {
		t.Errorf("expected ErrNoConnection, got %v", err)
	}
	if called {
		t.Error("session callback should not run without a channel")
	}
}

func TestPublisher_CancelledContext(t *testing.T) {
	p := newTestPublisher(newFakeBroker(), time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.WithSession(ctx, func(s Sender) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
