package bom

import (
	"context"
	"errors"

	"github.com/shaiso/OrderBridge/internal/domain"
	"github.com/shaiso/OrderBridge/internal/repo"
)

// fakeStore — in-memory рецептуры: ключ "process/item".
type fakeStore struct {
	lines     map[string][]domain.RecipeLine
	processes map[string]string
	mixtures  domain.ExcludedItemSet

	linesErr error
	logErr   error
	logged   []domain.ValidationEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		lines:     make(map[string][]domain.RecipeLine),
		processes: make(map[string]string),
		mixtures:  domain.NewItemSet(),
	}
}

// add регистрирует рецептуру и процесс, который выпускает позицию.
func (s *fakeStore) add(lines ...domain.RecipeLine) {
	for _, l := range lines {
		key := l.Process + "/" + l.OutputItem
		s.lines[key] = append(s.lines[key], l)
		if _, ok := s.processes[l.OutputItem]; !ok {
			s.processes[l.OutputItem] = l.Process
		}
	}
}

func (s *fakeStore) RecipeLines(ctx context.Context, process, outputItem string) ([]domain.RecipeLine, error) {
	if s.linesErr != nil {
		return nil, s.linesErr
	}
	return s.lines[process+"/"+outputItem], nil
}

func (s *fakeStore) ProcessForOutput(ctx context.Context, outputItem string) (string, error) {
	p, ok := s.processes[outputItem]
	if !ok {
		return "", repo.ErrNotFound
	}
	return p, nil
}

func (s *fakeStore) MixtureItems(ctx context.Context, processes []string) (domain.ExcludedItemSet, error) {
	return s.mixtures, nil
}

func (s *fakeStore) LogValidation(ctx context.Context, e domain.ValidationEntry) error {
	if s.logErr != nil {
		return s.logErr
	}
	s.logged = append(s.logged, e)
	return nil
}

var errStoreDown = errors.New("store down")

// line — короткий конструктор строки рецептуры.
func line(process, recipe, output string, batch float64, input string, qtyPer float64) domain.RecipeLine {
	return domain.RecipeLine{
		Process:        process,
		Recipe:         recipe,
		OutputItem:     output,
		OutputUOM:      "KG",
		OutputLocation: "PLANT",
		BatchSize:      batch,
		InputItem:      input,
		InputQtyPer:    qtyPer,
		InputUOM:       "KG",
		InputLocation:  "RAW",
	}
}
