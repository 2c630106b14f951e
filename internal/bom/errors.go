package bom

import (
	"errors"
	"fmt"
)

var (
	// ErrNoRecipe — для позиции нет строк рецептуры.
	ErrNoRecipe = errors.New("no recipe found")

	// ErrRecipeCycle — рецептура ссылается сама на себя через цепочку уровней.
	ErrRecipeCycle = errors.New("recipe cycle detected")

	// ErrMaxDepth — превышена глубина спуска по уровням.
	ErrMaxDepth = errors.New("max bom depth exceeded")
)

// NoRecipeFoundError — рецептура не найдена для пары (процесс, позиция).
type NoRecipeFoundError struct {
	Process string
	Item    string
}

func (e *NoRecipeFoundError) Error() string {
	if e.Process == "" {
		return fmt.Sprintf("no recipe found for %s", e.Item)
	}
	return fmt.Sprintf("no recipe found for %s: %s", e.Process, e.Item)
}

// Is позволяет сравнивать через errors.Is(err, ErrNoRecipe).
func (e *NoRecipeFoundError) Is(target error) bool {
	return target == ErrNoRecipe
}
