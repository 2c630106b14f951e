// Package cli реализует инструмент командной строки OrderBridge.
//
// # Обзор
//
// CLI — клиентская утилита для взаимодействия с OrderBridge API.
// Работает через HTTP, не импортирует внутренние пакеты системы.
// Используется операторами для выборки из очередей, планирования
// производственных заказов и ручной настройки очередей.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для OrderBridge API. Инкапсулирует все HTTP-запросы,
// парсинг ответов и ошибок вида {success, message, error}.
//
//	client := cli.NewClient("http://localhost:3000")
//	resp, err := client.FetchInvoices("fcl", 10)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Это позволяет использовать pipe: orderbridge invoices fetch --json | jq .
//
// ## Commands
//
//   - invoices fetch [--queue fcl|cm|rmk] [--limit N]
//   - orders fetch [--limit N]
//   - orders plan ITEM QUANTITY [--user U] [--publish]
//   - queues ensure NAME [--force]
//
// Каждая группа создаётся через фабричную функцию (NewInvoicesCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
