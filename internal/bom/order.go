package bom

import (
	"fmt"
	"time"

	"github.com/shaiso/OrderBridge/internal/domain"
)

// BuildOrder строит заказ на выпуск outputItem в количестве qty по строкам рецептуры.
//
// Номер заказа {recipe}_{id}. Строка выпуска 1000, строки расхода
// 2000 + i*1000 с количеством inputQtyPer * qty / batchSize.
// Местоположение, единица и маршрут берутся из первой строки рецептуры.
func BuildOrder(lines []domain.RecipeLine, outputItem string, qty float64, id string, ts time.Time, user string) (domain.ProductionOrder, error) {
	if len(lines) == 0 {
		return domain.ProductionOrder{}, &NoRecipeFoundError{Process: id, Item: outputItem}
	}
	head := lines[0]

	outQty, err := domain.Round4(qty)
	if err != nil {
		return domain.ProductionOrder{}, fmt.Errorf("output %s: %w", outputItem, err)
	}

	order := domain.ProductionOrder{
		OrderNo:      head.Recipe + "_" + id,
		ItemNo:       outputItem,
		Quantity:     outQty,
		UOM:          head.OutputUOM,
		LocationCode: head.OutputLocation,
		User:         user,
		LineNo:       domain.OutputLineNo,
		Routing:      head.Process,
		Timestamp:    ts,
		Lines:        make([]domain.ProductionJournalLine, 0, len(lines)+1),
	}

	order.Lines = append(order.Lines, domain.ProductionJournalLine{
		ItemNo:       outputItem,
		Quantity:     outQty,
		UOM:          head.OutputUOM,
		LocationCode: head.OutputLocation,
		LineNo:       domain.OutputLineNo,
		Type:         domain.LineTypeOutput,
		Timestamp:    ts,
		User:         user,
	})

	for i, line := range lines {
		consumed, err := ConsumptionQty(line, qty, head.BatchSize)
		if err != nil {
			return domain.ProductionOrder{}, fmt.Errorf("consumption %s: %w", line.InputItem, err)
		}

		order.Lines = append(order.Lines, domain.ProductionJournalLine{
			ItemNo:       line.InputItem,
			Quantity:     consumed,
			UOM:          line.InputUOM,
			LocationCode: line.InputLocation,
			LineNo:       domain.ConsumptionLineNoAt(i),
			Type:         domain.LineTypeConsumption,
			Timestamp:    ts,
			User:         user,
		})
	}

	return order, nil
}

// ConsumptionQty — расход входной позиции на выпуск qty: round4(inputQtyPer * qty / batchSize).
// Нулевой batchSize даёт InvalidQuantityError.
func ConsumptionQty(line domain.RecipeLine, qty, batchSize float64) (float64, error) {
	return domain.Round4(line.InputQtyPer * qty / batchSize)
}
