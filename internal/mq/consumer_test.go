package mq

import (
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestDrainBatch_StopsAtMaxCount(t *testing.T) {
	b := newFakeBroker()
	b.deliveries = make(chan amqp.Delivery, 10)
	for i := 1; i <= 5; i++ {
		b.deliveries <- b.delivery(uint64(i), `{"ExtDocNo":"D`+string(rune('0'+i))+`"}`)
	}

	c := NewBatchConsumer(b, nil)

	start := time.Now()
	msgs, err := c.DrainBatch("invoices_fcl.bc", 3, 5*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Не должны ждать таймаут, если набрали maxCount
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("drain took %v, expected early return", elapsed)
	}

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if string(msgs[0].Payload) != `{"ExtDocNo":"D1"}` {
		t.Errorf("unexpected payload: %s", msgs[0].Payload)
	}
	if msgs[0].RoutingKey != "invoices_fcl.bc" {
		t.Errorf("unexpected routing key: %s", msgs[0].RoutingKey)
	}

	if len(b.acks) != 3 {
		t.Errorf("expected 3 acks, got %v", b.acks)
	}
	if b.qos != 3 {
		t.Errorf("expected prefetch 3, got %d", b.qos)
	}
	if len(b.cancelled) != 1 {
		t.Errorf("consumer should be cancelled once, got %v", b.cancelled)
	}
	if n := b.openChannels(); n != 0 {
		t.Errorf("expected channel closed, %d still open", n)
	}
}

func TestDrainBatch_MalformedMessageDeadLettered(t *testing.T) {
	b := newFakeBroker()
	b.deliveries = make(chan amqp.Delivery, 10)
	b.deliveries <- b.delivery(1, `{"ok":1}`)
	b.deliveries <- b.delivery(2, `not json`)
	b.deliveries <- b.delivery(3, `{"ok":3}`)

	c := NewBatchConsumer(b, nil)

	msgs, err := c.DrainBatch("invoices_cm.bc", 2, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Невалидное сообщение не учитывается в maxCount
	if len(msgs) != 2 {
		t.Fatalf("expected 2 valid messages, got %d", len(msgs))
	}
	if string(msgs[1].Payload) != `{"ok":3}` {
		t.Errorf("expected third message as second result, got %s", msgs[1].Payload)
	}

	if len(b.nacks) != 1 || b.nacks[0] != 2 {
		t.Errorf("expected nack for tag 2, got %v", b.nacks)
	}
	if b.requeued != 0 {
		t.Error("malformed message must not be requeued")
	}
}

func TestDrainBatch_EmptyQueueTimeout(t *testing.T) {
	b := newFakeBroker()
	b.deliveries = make(chan amqp.Delivery)

	c := NewBatchConsumer(b, nil)

	timeout := 50 * time.Millisecond
	start := time.Now()
	msgs, err := c.DrainBatch("invoices_rmk.bc", 10, timeout)
	if err != nil {
		t.Fatalf("timeout should not be an error, got %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected no messages, got %d", len(msgs))
	}
	if elapsed := time.Since(start); elapsed < timeout {
		t.Errorf("returned after %v, before timeout %v", elapsed, timeout)
	}
}

func TestDrainBatch_PartialOnTimeout(t *testing.T) {
	b := newFakeBroker()
	b.deliveries = make(chan amqp.Delivery, 10)
	b.deliveries <- b.delivery(1, `[1,2]`)
	b.deliveries <- b.delivery(2, `"text"`)

	c := NewBatchConsumer(b, nil)

	msgs, err := c.DrainBatch("invoices_fcl.bc", 10, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Errorf("expected 2 messages, got %d", len(msgs))
	}
}

func TestDrainBatch_DeliveriesClosed(t *testing.T) {
	b := newFakeBroker()
	b.deliveries = make(chan amqp.Delivery, 10)
	b.deliveries <- b.delivery(1, `{}`)
	close(b.deliveries)

	c := NewBatchConsumer(b, nil)

	msgs, err := c.DrainBatch("invoices_fcl.bc", 5, time.Second)

	var cerr *ConsumerError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConsumerError, got %v", err)
	}
	if !errors.Is(err, ErrDeliveriesClosed) {
		t.Errorf("expected ErrDeliveriesClosed, got %v", err)
	}

	// Уже подтверждённое сообщение возвращается
	if len(msgs) != 1 {
		t.Errorf("expected 1 acked message, got %d", len(msgs))
	}
	if n := b.openChannels(); n != 0 {
		t.Errorf("expected channel closed, %d still open", n)
	}
}

func TestDrainBatch_ChannelClosedByBroker(t *testing.T) {
	b := newFakeBroker()
	b.deliveries = make(chan amqp.Delivery)
	b.closeCh = make(chan *amqp.Error, 1)
	b.closeCh <- &amqp.Error{Code: amqp.ChannelError, Reason: "channel closed"}

	c := NewBatchConsumer(b, nil)

	_, err := c.DrainBatch("invoices_fcl.bc", 5, time.Second)

	var cerr *ConsumerError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConsumerError, got %v", err)
	}
	if cerr.Op != "channel" {
		t.Errorf("expected op channel, got %s", cerr.Op)
	}
}

func TestDrainBatch_InvalidMaxCount(t *testing.T) {
	c := NewBatchConsumer(newFakeBroker(), nil)

	for _, n := range []int{0, -1} {
		_, err := c.DrainBatch("invoices_fcl.bc", n, time.Second)
		if !errors.Is(err, ErrInvalidBatchSize) {
			t.Errorf("maxCount=%d: expected ErrInvalidBatchSize, got %v", n, err)
		}
	}
}

func TestDrainBatch_OpenFailure(t *testing.T) {
	b := newFakeBroker()
	b.openErr = ErrNoConnection

	c := NewBatchConsumer(b, nil)

	_, err := c.DrainBatch("invoices_fcl.bc", 5, time.Second)
	if !errors.Is(err, ErrNoConnection) {
		t.Errorf("expected ErrNoConnection, got %v", err)
	}
}

func TestDrainBatch_QosFailure(t *testing.T) {
	b := newFakeBroker()
	b.qosErr = errors.New("qos refused")

	c := NewBatchConsumer(b, nil)

	_, err := c.DrainBatch("invoices_fcl.bc", 5, time.Second)

	var cerr *ConsumerError
	if !errors.As(err, &cerr) || cerr.Op != "qos" {
		t.Fatalf("expected qos ConsumerError, got %v", err)
	}
	if n := b.openChannels(); n != 0 {
		t.Errorf("expected channel closed, %d still open", n)
	}
}
