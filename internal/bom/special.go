package bom

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/OrderBridge/internal/domain"
)

// SpecialOrderPrefix — префикс номера спецзаказа.
const SpecialOrderPrefix = "WP"

// SuffixSource выдаёт суффиксы номеров спецзаказов.
// Два вызова Next в пределах процесса не возвращают одинаковое значение.
type SuffixSource interface {
	Next() string
}

// SequenceSuffix — монотонная последовательность 1, 2, 3, ...
type SequenceSuffix struct {
	n atomic.Uint64
}

// NewSequenceSuffix создаёт последовательность, первый Next вернёт start+1.
func NewSequenceSuffix(start uint64) *SequenceSuffix {
	s := &SequenceSuffix{}
	s.n.Store(start)
	return s
}

// Next реализует SuffixSource.
func (s *SequenceSuffix) Next() string {
	return strconv.FormatUint(s.n.Add(1), 10)
}

// RandomSuffix — короткий хеш случайного UUID (8 hex-символов).
// Уникален между процессами с вероятностью, достаточной для номеров заказов.
type RandomSuffix struct{}

// Next реализует SuffixSource.
func (RandomSuffix) Next() string {
	id := uuid.New()
	h := fnv.New32a()
	h.Write(id[:])
	return fmt.Sprintf("%08x", h.Sum32())
}

// SpecialItem — строка расхода спецпозиции (вода, лёд).
type SpecialItem struct {
	ItemNo       string
	Quantity     float64
	UOM          string
	LocationCode string
}

// MakeSpecialOrder строит спецзаказ на воду/лёд для contextItem.
//
// Номер: WP{item}{context}_{suffix}. Количество: round4(round4(q) / 100).
// Маршрут water_ice, единственная строка выпуска 1000, пользователь пустой.
// nil suffixes — RandomSuffix.
func MakeSpecialOrder(item SpecialItem, ts time.Time, contextItem string, suffixes SuffixSource) (domain.ProductionOrder, error) {
	if suffixes == nil {
		suffixes = RandomSuffix{}
	}

	qty, err := domain.Round4(item.Quantity)
	if err != nil {
		return domain.ProductionOrder{}, err
	}
	// TODO: сверить единицы с ERP: деление на 100 унаследовано от текущего формата заказов.
	qty, err = domain.Round4(qty / 100)
	if err != nil {
		return domain.ProductionOrder{}, err
	}

	return domain.ProductionOrder{
		OrderNo:      SpecialOrderPrefix + item.ItemNo + contextItem + "_" + suffixes.Next(),
		ItemNo:       item.ItemNo,
		Quantity:     qty,
		UOM:          item.UOM,
		LocationCode: item.LocationCode,
		LineNo:       domain.OutputLineNo,
		Routing:      domain.RoutingWaterIce,
		Timestamp:    ts,
		Lines: []domain.ProductionJournalLine{{
			ItemNo:       item.ItemNo,
			Quantity:     qty,
			UOM:          item.UOM,
			LocationCode: item.LocationCode,
			LineNo:       domain.OutputLineNo,
			Type:         domain.LineTypeOutput,
			Timestamp:    ts,
		}},
	}, nil
}
