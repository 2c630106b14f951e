package bom

import "github.com/shaiso/OrderBridge/internal/domain"

// Dedupe удаляет из каждого заказа строки с повторяющимся ключом
// (ItemNo, LineNo, Type). Остаётся первая строка, порядок сохраняется.
// Входной срез не изменяется.
func Dedupe(orders []domain.ProductionOrder) []domain.ProductionOrder {
	out := make([]domain.ProductionOrder, 0, len(orders))

	for _, order := range orders {
		clean := order.Clone()
		clean.Lines = clean.Lines[:0]

		seen := make(map[domain.LineKey]struct{}, len(order.Lines))
		for _, line := range order.Lines {
			key := line.Key()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			clean.Lines = append(clean.Lines, line)
		}

		out = append(out, clean)
	}

	return out
}
