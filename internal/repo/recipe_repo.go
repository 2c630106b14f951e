package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/OrderBridge/internal/domain"
)

// RecipeRepo — репозиторий рецептур (таблица recipe_data).
type RecipeRepo struct {
	pool *pgxpool.Pool
}

// NewRecipeRepo создаёт новый RecipeRepo.
func NewRecipeRepo(pool *pgxpool.Pool) *RecipeRepo {
	return &RecipeRepo{pool: pool}
}

// ProcessForOutput возвращает процесс, выпускающий outputItem.
// Если процессов несколько, берётся первый по порядку строк.
func (r *RecipeRepo) ProcessForOutput(ctx context.Context, outputItem string) (string, error) {
	var process string
	err := r.pool.QueryRow(ctx, `
		SELECT process FROM recipe_data WHERE output_item = $1 ORDER BY id LIMIT 1
	`, outputItem).Scan(&process)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get process for %s: %w", outputItem, err)
	}
	return process, nil
}

// RecipeLines возвращает строки рецептуры для outputItem в порядке строк.
// Пустой process — строки любого процесса.
//
// Строка без output_item/input_item отклоняется с ErrInvalidRow:
// по неполной рецептуре заказ не строится.
func (r *RecipeRepo) RecipeLines(ctx context.Context, process, outputItem string) ([]domain.RecipeLine, error) {
	query := `
		SELECT process, COALESCE(recipe, ''),
		       output_item, COALESCE(output_item_uom, ''), COALESCE(output_item_location, ''), batch_size,
		       COALESCE(input_item, ''), input_item_qt_per,
		       COALESCE(input_item_uom, ''), COALESCE(input_item_location, '')
		FROM recipe_data
		WHERE output_item = $1
		  AND ($2 = '' OR process = $2)
		ORDER BY id
	`
	rows, err := r.pool.Query(ctx, query, outputItem, process)
	if err != nil {
		return nil, fmt.Errorf("list recipe lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.RecipeLine
	for rows.Next() {
		var l domain.RecipeLine
		err := rows.Scan(
			&l.Process,
			&l.Recipe,
			&l.OutputItem,
			&l.OutputUOM,
			&l.OutputLocation,
			&l.BatchSize,
			&l.InputItem,
			&l.InputQtyPer,
			&l.InputUOM,
			&l.InputLocation,
		)
		if err != nil {
			return nil, fmt.Errorf("scan recipe line: %w", err)
		}
		if err := l.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRow, err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// MixtureItems возвращает выходные позиции процессов processes.
func (r *RecipeRepo) MixtureItems(ctx context.Context, processes []string) (domain.ExcludedItemSet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT output_item FROM recipe_data WHERE process = ANY($1)
	`, processes)
	if err != nil {
		return nil, fmt.Errorf("list mixture items: %w", err)
	}
	defer rows.Close()

	items, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan mixture items: %w", err)
	}
	return domain.NewItemSet(items...), nil
}

// LogValidation записывает строку журнала проверки BOM.
func (r *RecipeRepo) LogValidation(ctx context.Context, e domain.ValidationEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bom_validation (fg, process, item, qty_per, loss, batch_size, logged_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, e.FinishedGood, e.Process, e.Item, e.QtyPer, e.Loss, e.BatchSize)
	if err != nil {
		return fmt.Errorf("insert bom validation: %w", err)
	}
	return nil
}
