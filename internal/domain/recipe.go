package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRecipe — строка рецептуры не прошла валидацию.
var ErrInvalidRecipe = errors.New("invalid recipe line")

// RecipeLine — строка BOM (таблица recipe_data).
//
// Все строки одной пары (Process, OutputItem) имеют одинаковые
// BatchSize и OutputUOM.
type RecipeLine struct {
	Process string `json:"process"`
	Recipe  string `json:"recipe"`

	OutputItem     string  `json:"output_item"`
	OutputUOM      string  `json:"output_item_uom"`
	OutputLocation string  `json:"output_item_location"`
	BatchSize      float64 `json:"batch_size"`

	InputItem     string  `json:"input_item"`
	InputQtyPer   float64 `json:"input_item_qt_per"`
	InputUOM      string  `json:"input_item_uom"`
	InputLocation string  `json:"input_item_location"`
}

// Validate проверяет обязательные поля строки.
// Числовые поля проверяются при округлении (см. Round4).
func (l *RecipeLine) Validate() error {
	if strings.TrimSpace(l.OutputItem) == "" {
		return fmt.Errorf("%w: empty output_item", ErrInvalidRecipe)
	}
	if strings.TrimSpace(l.InputItem) == "" {
		return fmt.Errorf("%w: %s has empty input_item", ErrInvalidRecipe, l.OutputItem)
	}
	return nil
}

// ItemSet — множество кодов номенклатуры.
type ItemSet map[string]struct{}

// NewItemSet создаёт множество из списка кодов. Пустые коды пропускаются.
func NewItemSet(items ...string) ItemSet {
	set := make(ItemSet, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		set[item] = struct{}{}
	}
	return set
}

// Has проверяет наличие кода в множестве. Безопасен для nil.
func (s ItemSet) Has(item string) bool {
	_, ok := s[item]
	return ok
}

// ExcludedItemSet — выходные позиции процессов-смесей (рассол, MB-раствор).
// Такие позиции не выбираются как основное сырьё уровня и разворачиваются
// отдельными заказами через ExpandMixtureOrder.
type ExcludedItemSet = ItemSet

// ValidationEntry — строка журнала проверки BOM: какие позиции и нормы
// использованы при планировании готового продукта.
type ValidationEntry struct {
	FinishedGood string
	Process      string
	Item         string
	QtyPer       float64
	Loss         float64
	BatchSize    float64
}
