package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidInvoice — строка инвойса не прошла валидацию на входе.
var ErrInvalidInvoice = errors.New("invalid invoice record")

// InvoiceRecord — строка инвойса из таблицы invoice_data.
//
// Жизненный цикл:
//
//	Published=false → (подтверждённая публикация в RabbitMQ) → Published=true
//
// Кроме флага Published запись этим сервисом не изменяется.
type InvoiceRecord struct {
	// ExtDocNo — внешний номер документа, ключ для сверки публикации.
	ExtDocNo string `json:"ExtDocNo"`

	// LineNo — номер строки внутри документа.
	LineNo int `json:"LineNo"`

	// CustNo — номер клиента. Первый символ определяет очередь.
	CustNo string `json:"CustNo"`

	// Date — дата документа. По ней выбирается окно публикации.
	Date time.Time `json:"Date"`

	SPCode     string `json:"SPCode"`
	ShiptoCode string `json:"ShiptoCode"`
	ItemNo     string `json:"ItemNo"`

	Qty      float64 `json:"Qty"`
	Location string  `json:"Location"`
	SUOM     string  `json:"SUOM"`

	UnitPrice         float64 `json:"UnitPrice"`
	TotalHeaderAmount float64 `json:"TotalHeaderAmount"`
	LineAmount        float64 `json:"LineAmount"`
	TotalHeaderQty    float64 `json:"TotalHeaderQty"`

	Type        string     `json:"Type"`
	CUInvoiceNo string     `json:"CUInvoiceNo"`
	CUNo        string     `json:"CUNo"`
	SigningTime *time.Time `json:"SigningTime,omitempty"`

	Published bool `json:"Published"`
}

// CustomerPrefix возвращает первый символ номера клиента как есть,
// без обрезки пробелов и смены регистра. Для пустого номера возвращает пустую строку.
func (r *InvoiceRecord) CustomerPrefix() string {
	for _, c := range r.CustNo {
		return string(c)
	}
	return ""
}

// Validate проверяет, что запись можно публиковать.
// Флаг Published не проверяется: уже опубликованные строки отсекает выборка.
func (r *InvoiceRecord) Validate() error {
	if strings.TrimSpace(r.ExtDocNo) == "" {
		return fmt.Errorf("%w: empty ExtDocNo", ErrInvalidInvoice)
	}
	return nil
}
