package domain

import "time"

// LineType — тип строки производственного журнала.
type LineType string

const (
	// LineTypeOutput — выпуск продукции.
	LineTypeOutput LineType = "output"

	// LineTypeConsumption — расход сырья.
	LineTypeConsumption LineType = "consumption"
)

// Нумерация строк журнала: выпуск — блок 1000,
// расход — 2000, 3000, ... по индексу строки рецептуры.
const (
	OutputLineNo      = 1000
	ConsumptionLineNo = 2000
	LineNoStep        = 1000
)

// ConsumptionLineNoAt возвращает line_no для i-й строки расхода.
func ConsumptionLineNoAt(i int) int {
	return ConsumptionLineNo + i*LineNoStep
}

// RoutingWaterIce — маршрут специальных заказов на воду/лёд.
const RoutingWaterIce = "water_ice"

// ProductionJournalLine — строка производственного журнала.
type ProductionJournalLine struct {
	ItemNo       string    `json:"ItemNo"`
	Quantity     float64   `json:"Quantity"`
	UOM          string    `json:"uom"`
	LocationCode string    `json:"LocationCode"`
	BIN          string    `json:"BIN"`
	LineNo       int       `json:"line_no"`
	Type         LineType  `json:"type"`
	Timestamp    time.Time `json:"date_time"`
	User         string    `json:"user"`
}

// LineKey — составной ключ строки для дедупликации.
type LineKey struct {
	ItemNo string
	LineNo int
	Type   LineType
}

// Key возвращает составной ключ (ItemNo, LineNo, Type).
func (l ProductionJournalLine) Key() LineKey {
	return LineKey{ItemNo: l.ItemNo, LineNo: l.LineNo, Type: l.Type}
}

// ProductionOrder — производственный заказ для передачи в ERP.
//
// JSON-теги совпадают с форматом, который ожидает потребитель очереди
// production_orders.bc.
type ProductionOrder struct {
	// OrderNo — номер заказа, уникален для пары рецептура+процесс.
	OrderNo string `json:"production_order_no"`

	ItemNo       string    `json:"ItemNo"`
	Quantity     float64   `json:"Quantity"`
	UOM          string    `json:"uom"`
	LocationCode string    `json:"LocationCode"`
	BIN          string    `json:"BIN"`
	User         string    `json:"user"`
	LineNo       int       `json:"line_no"`
	Routing      string    `json:"routing"`
	Timestamp    time.Time `json:"date_time"`

	Lines []ProductionJournalLine `json:"ProductionJournalLines"`
}

// OutputLine возвращает строку выпуска заказа.
func (o *ProductionOrder) OutputLine() (ProductionJournalLine, bool) {
	for _, l := range o.Lines {
		if l.Type == LineTypeOutput {
			return l, true
		}
	}
	return ProductionJournalLine{}, false
}

// Clone возвращает копию заказа с независимым срезом строк.
func (o ProductionOrder) Clone() ProductionOrder {
	lines := make([]ProductionJournalLine, len(o.Lines))
	copy(lines, o.Lines)
	o.Lines = lines
	return o
}
