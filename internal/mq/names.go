package mq

import (
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Суффиксы имён очередей.
//
// Логическое имя (invoices_fcl) отличается от основного (invoices_fcl.bc)
// суффиксом .bc. Для каждой основной очереди существуют dead-letter
// (<primary>.dl) и reply (<primary>.reply) очереди.
const (
	PrimarySuffix    = ".bc"
	DeadLetterSuffix = ".dl"
	ReplySuffix      = ".reply"
)

// Логические имена очередей.
const (
	QueueInvoicesFCL      = "invoices_fcl"
	QueueInvoicesCM       = "invoices_cm"
	QueueInvoicesRMK      = "invoices_rmk"
	QueueProductionOrders = "production_orders"
)

// Аргументы очереди для dead-lettering.
const (
	ArgDeadLetterExchange   = "x-dead-letter-exchange"
	ArgDeadLetterRoutingKey = "x-dead-letter-routing-key"
)

// ExchangeKindDirect — тип всех обменников сервиса.
const ExchangeKindDirect = "direct"

// InvoiceQueues — логические имена всех очередей инвойсов.
var InvoiceQueues = []string{QueueInvoicesFCL, QueueInvoicesCM, QueueInvoicesRMK}

// invoiceKinds — короткие имена очередей, принимаемые API (?queue=fcl).
var invoiceKinds = map[string]string{
	"fcl": QueueInvoicesFCL,
	"cm":  QueueInvoicesCM,
	"rmk": QueueInvoicesRMK,
}

// InvoiceQueue возвращает основное имя очереди инвойсов по короткому имени.
// Регистр не учитывается.
func InvoiceQueue(kind string) (string, bool) {
	name, ok := invoiceKinds[strings.ToLower(strings.TrimSpace(kind))]
	if !ok {
		return "", false
	}
	return PrimaryName(name), true
}

// PrimaryName приводит имя очереди к основной форме (с суффиксом .bc).
func PrimaryName(name string) string {
	if strings.HasSuffix(name, PrimarySuffix) {
		return name
	}
	return name + PrimarySuffix
}

// QueueSpec — ожидаемая конфигурация основной очереди.
//
// Одна QueueSpec соответствует тройке: основная, dead-letter и reply очереди.
type QueueSpec struct {
	// Name — основное имя (всегда с суффиксом .bc).
	Name string

	Exchange           string
	DeadLetterExchange string
	Durable            bool

	// Arguments — x-dead-letter-exchange и x-dead-letter-routing-key.
	// Routing key dead-letter совпадает с именем самой очереди.
	Arguments amqp.Table
}

// NewQueueSpec строит QueueSpec из логического или основного имени.
func NewQueueSpec(name, exchange, deadLetterExchange string) QueueSpec {
	primary := PrimaryName(name)
	return QueueSpec{
		Name:               primary,
		Exchange:           exchange,
		DeadLetterExchange: deadLetterExchange,
		Durable:            true,
		Arguments: amqp.Table{
			ArgDeadLetterExchange:   deadLetterExchange,
			ArgDeadLetterRoutingKey: primary,
		},
	}
}

// DeadLetterQueue возвращает имя dead-letter очереди.
func (s QueueSpec) DeadLetterQueue() string {
	return s.Name + DeadLetterSuffix
}

// ReplyQueue возвращает имя reply очереди.
func (s QueueSpec) ReplyQueue() string {
	return s.Name + ReplySuffix
}

// Queues возвращает все три очереди в порядке удаления.
func (s QueueSpec) Queues() []string {
	return []string{s.Name, s.DeadLetterQueue(), s.ReplyQueue()}
}

// argumentsMatch сравнивает dead-letter аргументы очереди с ожидаемыми.
// Остальные аргументы (x-queue-type и т.п.) не учитываются.
func argumentsMatch(have map[string]any, want amqp.Table) bool {
	for _, key := range []string{ArgDeadLetterExchange, ArgDeadLetterRoutingKey} {
		h, ok := have[key].(string)
		if !ok {
			return false
		}
		w, _ := want[key].(string)
		if h != w {
			return false
		}
	}
	return true
}
