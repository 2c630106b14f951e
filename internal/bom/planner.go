package bom

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/repo"
	"github.com/shaiso/OrderBridge/internal/telemetry"
)

// DefaultMaxDepth — предел уровней BOM при спуске от готового продукта.
const DefaultMaxDepth = 10

// MainIntakePrefix — префикс кодов сырья, по которым идёт спуск на следующий уровень.
const MainIntakePrefix = "G"

// RecipeStore — полный источник данных для планирования.
//
// ProcessForOutput возвращает repo.ErrNotFound, если позицию ничто не выпускает.
type RecipeStore interface {
	RecipeSource
	ProcessForOutput(ctx context.Context, outputItem string) (string, error)
	MixtureItems(ctx context.Context, processes []string) (domain.ExcludedItemSet, error)
	LogValidation(ctx context.Context, e domain.ValidationEntry) error
}

// Planner строит полный набор заказов для готового продукта.
type Planner struct {
	store            RecipeStore
	expander         *Expander
	mixtureProcesses []string
	maxDepth         int
	logger           *slog.Logger
}

// PlannerConfig — конфигурация Planner.
type PlannerConfig struct {
	Store    RecipeStore
	Expander *Expander

	// MixtureProcesses — процессы-смеси (MBSolution, Salting).
	MixtureProcesses []string

	// MaxDepth — предел уровней (default: 10).
	MaxDepth int

	Logger *slog.Logger
}

// NewPlanner создаёт новый Planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	maxDepth := cfg.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	return &Planner{
		store:            cfg.Store,
		expander:         cfg.Expander,
		mixtureProcesses: cfg.MixtureProcesses,
		maxDepth:         maxDepth,
		logger:           telemetry.OrDiscard(cfg.Logger),
	}
}

// Plan строит заказы для finishedGood в количестве qty.
//
// На каждом уровне:
//  1. Процесс позиции (ProcessForOutput) и строки рецептуры
//  2. Заказ уровня; строки рецептуры пишутся в журнал проверки BOM
//  3. Входы-смеси разворачиваются через ExpandMixtureOrder
//  4. Спуск к основному сырью (MainIntakeItem) с его расходом как количеством
//
// Спуск заканчивается, когда основного сырья нет или его ничто не выпускает.
// Результат проходит Dedupe.
func (p *Planner) Plan(ctx context.Context, finishedGood string, qty float64, ts time.Time, user string) ([]domain.ProductionOrder, error) {
	logger := telemetry.WithItem(p.logger, finishedGood)

	excluded, err := p.store.MixtureItems(ctx, p.mixtureProcesses)
	if err != nil {
		return nil, fmt.Errorf("load mixture items: %w", err)
	}

	var orders []domain.ProductionOrder
	visited := make(map[string]struct{})
	item := finishedGood

	for depth := 0; ; depth++ {
		if depth >= p.maxDepth {
			return nil, fmt.Errorf("%w: %s at depth %d", ErrMaxDepth, item, depth)
		}
		if _, seen := visited[item]; seen {
			return nil, fmt.Errorf("%w: %s", ErrRecipeCycle, item)
		}
		visited[item] = struct{}{}

		process, err := p.store.ProcessForOutput(ctx, item)
		if errors.Is(err, repo.ErrNotFound) {
			if depth == 0 {
				return nil, &NoRecipeFoundError{Item: item}
			}
			logger.Debug("reached raw material", "item", item, "depth", depth)
			break
		}
		if err != nil {
			return nil, fmt.Errorf("resolve process for %s: %w", item, err)
		}

		lines, err := p.store.RecipeLines(ctx, process, item)
		if err != nil {
			return nil, fmt.Errorf("load recipe %s/%s: %w", process, item, err)
		}
		if len(lines) == 0 {
			if depth == 0 {
				return nil, &NoRecipeFoundError{Process: process, Item: item}
			}
			break
		}

		p.logValidation(ctx, finishedGood, lines)

		order, err := BuildOrder(lines, item, qty, process, ts, user)
		if err != nil {
			// Уровень отбрасывается, соседние заказы остаются
			logger.Error("skipping level order", "item", item, "process", process, "error", err)
		} else {
			orders = append(orders, order)
		}

		batchSize := lines[0].BatchSize

		for _, line := range lines {
			if !excluded.Has(line.InputItem) {
				continue
			}

			mixQty, err := ConsumptionQty(line, qty, batchSize)
			if err != nil {
				logger.Error("skipping mixture", "mixture_item", line.InputItem, "error", err)
				continue
			}

			mixProcess, err := p.store.ProcessForOutput(ctx, line.InputItem)
			if errors.Is(err, repo.ErrNotFound) {
				logger.Error("no process for mixture item", "mixture_item", line.InputItem)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("resolve process for %s: %w", line.InputItem, err)
			}

			orders, err = p.expander.ExpandMixtureOrder(ctx, orders, line, mixProcess, ts, user, mixQty)
			if err != nil {
				return nil, err
			}
		}

		main, ok := MainIntakeItem(lines, excluded)
		if !ok {
			break
		}

		next, err := ConsumptionQty(main, qty, batchSize)
		if err != nil {
			logger.Error("cannot descend to main intake item", "main_item", main.InputItem, "error", err)
			break
		}

		item, qty = main.InputItem, next
	}

	orders = Dedupe(orders)
	for _, o := range orders {
		telemetry.ProductionOrders.WithLabelValues(o.Routing).Inc()
	}

	logger.Info("planned production orders", "orders", len(orders))
	return orders, nil
}

// logValidation пишет строки уровня в журнал проверки BOM. Ошибки только логируются.
func (p *Planner) logValidation(ctx context.Context, finishedGood string, lines []domain.RecipeLine) {
	for _, l := range lines {
		err := p.store.LogValidation(ctx, domain.ValidationEntry{
			FinishedGood: finishedGood,
			Process:      l.Process,
			Item:         l.InputItem,
			QtyPer:       l.InputQtyPer,
			BatchSize:    l.BatchSize,
		})
		if err != nil {
			p.logger.Warn("failed to log BOM validation",
				"item", l.InputItem,
				"process", l.Process,
				"error", err,
			)
		}
	}
}

// MainIntakeItem возвращает первую строку, чьё сырьё начинается с "G"
// и не входит в excluded.
func MainIntakeItem(lines []domain.RecipeLine, excluded domain.ExcludedItemSet) (domain.RecipeLine, bool) {
	for _, l := range lines {
		if strings.HasPrefix(l.InputItem, MainIntakePrefix) && !excluded.Has(l.InputItem) {
			return l, true
		}
	}
	return domain.RecipeLine{}, false
}
