package mq

import (
	"context"
	"errors"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// --- fakeBroker: in-memory брокер для тестов ---

type fakeQueue struct {
	durable    bool
	autoDelete bool
	args       amqp.Table
}

type fakeBinding struct {
	queue    string
	key      string
	exchange string
}

type fakePublish struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeBroker struct {
	mu sync.Mutex

	exchanges map[string]string
	queues    map[string]*fakeQueue
	bindings  []fakeBinding

	// счётчики
	creates map[string]int
	deletes map[string]int
	opened  int
	closed  int

	// инъекция ошибок
	openErr   error
	deleteErr map[string]error
	qosErr    error

	// consumer
	deliveries chan amqp.Delivery
	qos        int
	cancelled  []string
	acks       []uint64
	nacks      []uint64
	requeued   int
	closeCh    chan *amqp.Error

	// publisher
	confirmMode bool
	published   []fakePublish
	publishErr  error
	nackTags    map[uint64]bool
	noConfirm   bool
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		exchanges: make(map[string]string),
		queues:    make(map[string]*fakeQueue),
		creates:   make(map[string]int),
		deletes:   make(map[string]int),
		deleteErr: make(map[string]error),
		nackTags:  make(map[uint64]bool),
	}
}

// OpenChannel реализует ChannelOpener.
func (b *fakeBroker) OpenChannel() (Channel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.openErr != nil {
		return nil, b.openErr
	}
	b.opened++
	return &fakeChannel{b: b}, nil
}

func (b *fakeBroker) openChannels() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opened - b.closed
}

// addQueue создаёт очередь в обход Topology (для сценариев дрейфа).
func (b *fakeBroker) addQueue(name string, args amqp.Table) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[name] = &fakeQueue{durable: true, args: args}
}

func (b *fakeBroker) hasBinding(queue, key, exchange string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bd := range b.bindings {
		if bd == (fakeBinding{queue, key, exchange}) {
			return true
		}
	}
	return false
}

// --- amqp.Acknowledger ---

func (b *fakeBroker) Ack(tag uint64, multiple bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.acks = append(b.acks, tag)
	return nil
}

func (b *fakeBroker) Nack(tag uint64, multiple, requeue bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nacks = append(b.nacks, tag)
	if requeue {
		b.requeued++
	}
	return nil
}

func (b *fakeBroker) Reject(tag uint64, requeue bool) error {
	return b.Nack(tag, false, requeue)
}

// delivery строит сообщение, подтверждаемое через fakeBroker.
func (b *fakeBroker) delivery(tag uint64, body string) amqp.Delivery {
	return amqp.Delivery{
		Acknowledger: b,
		DeliveryTag:  tag,
		MessageId:    "msg-" + body,
		RoutingKey:   "invoices_fcl.bc",
		Body:         []byte(body),
	}
}

// --- fakeChannel ---

type fakeChannel struct {
	b        *fakeBroker
	confirms chan amqp.Confirmation
	tag      uint64
}

func amqpErr(code int) error {
	return &amqp.Error{Code: code, Reason: amqp.ErrClosed.Reason}
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.exchanges[name] = kind
	return nil
}

func (c *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if q, ok := c.b.queues[name]; ok {
		if q.durable != durable || !tablesEqual(q.args, args) {
			return amqp.Queue{}, amqpErr(amqp.PreconditionFailed)
		}
		return amqp.Queue{Name: name}, nil
	}

	c.b.queues[name] = &fakeQueue{durable: durable, autoDelete: autoDelete, args: args}
	c.b.creates[name]++
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueDeclarePassive(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if _, ok := c.b.queues[name]; !ok {
		return amqp.Queue{}, amqpErr(amqp.NotFound)
	}
	return amqp.Queue{Name: name}, nil
}

func (c *fakeChannel) QueueDelete(name string, ifUnused, ifEmpty, noWait bool) (int, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if err := c.b.deleteErr[name]; err != nil {
		return 0, err
	}
	if _, ok := c.b.queues[name]; !ok {
		return 0, amqpErr(amqp.NotFound)
	}
	delete(c.b.queues, name)
	c.b.deletes[name]++

	kept := c.b.bindings[:0]
	for _, bd := range c.b.bindings {
		if bd.queue != name {
			kept = append(kept, bd)
		}
	}
	c.b.bindings = kept
	return 0, nil
}

func (c *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.bindings = append(c.b.bindings, fakeBinding{name, key, exchange})
	return nil
}

func (c *fakeChannel) Qos(prefetchCount, prefetchSize int, global bool) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.qosErr != nil {
		return c.b.qosErr
	}
	c.b.qos = prefetchCount
	return nil
}

func (c *fakeChannel) Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if autoAck {
		return nil, errors.New("fake: auto-ack not expected")
	}
	return c.b.deliveries, nil
}

func (c *fakeChannel) Cancel(consumer string, noWait bool) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.cancelled = append(c.b.cancelled, consumer)
	return nil
}

func (c *fakeChannel) Confirm(noWait bool) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.confirmMode = true
	return nil
}

func (c *fakeChannel) NotifyPublish(confirm chan amqp.Confirmation) chan amqp.Confirmation {
	c.confirms = confirm
	return confirm
}

func (c *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()

	if c.b.publishErr != nil {
		return c.b.publishErr
	}

	c.b.published = append(c.b.published, fakePublish{exchange: exchange, key: key, msg: msg})
	c.tag++

	if c.confirms != nil && !c.b.noConfirm {
		c.confirms <- amqp.Confirmation{DeliveryTag: c.tag, Ack: !c.b.nackTags[c.tag]}
	}
	return nil
}

func (c *fakeChannel) NotifyClose(ch chan *amqp.Error) chan *amqp.Error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.closeCh != nil {
		return c.b.closeCh
	}
	return ch
}

func (c *fakeChannel) Close() error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	c.b.closed++
	return nil
}

// tablesEqual сравнивает аргументы очередей (nil == пустая таблица).
func tablesEqual(a, b amqp.Table) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
