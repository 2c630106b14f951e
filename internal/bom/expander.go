package bom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// RecipeSource — источник строк рецептуры.
type RecipeSource interface {
	// RecipeLines возвращает строки рецептуры outputItem для процесса process
	// в порядке строк. Пустой результат — не ошибка.
	RecipeLines(ctx context.Context, process, outputItem string) ([]domain.RecipeLine, error)
}

// Expander строит заказы на смеси и каскадные спецзаказы.
type Expander struct {
	recipes      RecipeSource
	specialItems domain.ItemSet
	suffixes     SuffixSource
	logger       *slog.Logger
}

// ExpanderConfig — конфигурация Expander.
type ExpanderConfig struct {
	Recipes RecipeSource

	// SpecialItems — позиции, для которых строятся спецзаказы (вода, лёд).
	SpecialItems domain.ItemSet

	// Suffixes — источник суффиксов номеров спецзаказов (default: RandomSuffix).
	Suffixes SuffixSource

	Logger *slog.Logger
}

// NewExpander создаёт новый Expander.
func NewExpander(cfg ExpanderConfig) *Expander {
	suffixes := cfg.Suffixes
	if suffixes == nil {
		suffixes = RandomSuffix{}
	}

	return &Expander{
		recipes:      cfg.Recipes,
		specialItems: cfg.SpecialItems,
		suffixes:     suffixes,
		logger:       telemetry.OrDiscard(cfg.Logger),
	}
}

// ExpandMixtureOrder дописывает в orders заказ на смесь main.InputItem
// по процессу processType и спецзаказы для её спецпозиций.
//
//  1. Нет строк рецептуры — ошибка логируется, orders возвращается без изменений
//  2. Заказ на смесь: номер {recipe}_{processType}, выпуск qty
//  3. Каждая строка со спецпозицией — спецзаказ на inputQtyPer * qty
//
// Нечисловое количество отбрасывает только строящийся заказ.
// Ошибка возвращается только при сбое источника рецептур.
func (e *Expander) ExpandMixtureOrder(
	ctx context.Context,
	orders []domain.ProductionOrder,
	main domain.RecipeLine,
	processType string,
	ts time.Time,
	user string,
	qty float64,
) ([]domain.ProductionOrder, error) {
	logger := telemetry.WithItem(e.logger, main.InputItem).With("process", processType)

	lines, err := e.recipes.RecipeLines(ctx, processType, main.InputItem)
	if err != nil {
		return orders, fmt.Errorf("load recipe %s/%s: %w", processType, main.InputItem, err)
	}
	if len(lines) == 0 {
		logger.Error("no BOM data found for mixture")
		return orders, nil
	}

	mixture, err := BuildOrder(lines, main.InputItem, qty, processType, ts, user)
	switch {
	case errors.Is(err, domain.ErrInvalidQuantity):
		logger.Error("skipping mixture order", "error", err)
	case err != nil:
		return orders, err
	default:
		orders = append(orders, mixture)
	}

	for _, line := range lines {
		if !e.specialItems.Has(line.InputItem) {
			continue
		}

		special, err := MakeSpecialOrder(SpecialItem{
			ItemNo:       line.InputItem,
			Quantity:     line.InputQtyPer * qty,
			UOM:          line.InputUOM,
			LocationCode: line.InputLocation,
		}, ts, main.InputItem, e.suffixes)
		if err != nil {
			logger.Error("skipping special order", "special_item", line.InputItem, "error", err)
			continue
		}

		logger.Debug("created special order", "order_no", special.OrderNo, "quantity", special.Quantity)
		orders = append(orders, special)
	}

	return orders, nil
}
