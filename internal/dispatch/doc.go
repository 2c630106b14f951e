// Package dispatch публикует записи из БД в очереди RabbitMQ.
//
// Инвойсы маршрутизируются по первой букве номера клиента:
//
//	B*    → invoices_cm.bc
//	C*    → invoices_rmk.bc
//	иначе → invoices_fcl.bc
//
// Запись считается опубликованной только после ack брокера (publisher confirms).
// После публикации все подтверждённые документы помечаются одним UPDATE.
// Документ, у которого хотя бы одна строка не подтверждена, не помечается
// и будет опубликован повторно в следующем цикле (at-least-once).
package dispatch
