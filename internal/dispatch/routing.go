package dispatch

import (
	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/mq"
)

// RoutingRule возвращает routing key (основное имя очереди) для записи.
type RoutingRule func(rec domain.InvoiceRecord) string

// RouteByCustomerPrefix маршрутизирует по первой букве номера клиента.
func RouteByCustomerPrefix(rec domain.InvoiceRecord) string {
	switch rec.CustomerPrefix() {
	case "B":
		return mq.PrimaryName(mq.QueueInvoicesCM)
	case "C":
		return mq.PrimaryName(mq.QueueInvoicesRMK)
	default:
		return mq.PrimaryName(mq.QueueInvoicesFCL)
	}
}
