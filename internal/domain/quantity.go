package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// QuantityPlaces — количество знаков после запятой для всех сохраняемых количеств.
const QuantityPlaces = 4

// ErrInvalidQuantity — количество не является конечным числом.
var ErrInvalidQuantity = errors.New("invalid quantity")

// InvalidQuantityError — ошибка округления нечислового значения.
type InvalidQuantityError struct {
	// Value — исходное значение в текстовом виде.
	Value string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity: %q", e.Value)
}

// Is позволяет сравнивать через errors.Is(err, ErrInvalidQuantity).
func (e *InvalidQuantityError) Is(target error) bool {
	return target == ErrInvalidQuantity
}

// Round4 округляет количество до 4 знаков (half away from zero).
// NaN и ±Inf считаются нечисловыми значениями.
func Round4(x float64) (float64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, &InvalidQuantityError{Value: fmt.Sprint(x)}
	}
	return decimal.NewFromFloat(x).Round(QuantityPlaces).InexactFloat64(), nil
}

// ParseQuantity разбирает количество из строки и округляет его до 4 знаков.
func ParseQuantity(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, &InvalidQuantityError{Value: s}
	}
	return d.Round(QuantityPlaces).InexactFloat64(), nil
}
