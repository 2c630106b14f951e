package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrInvalidRow — строка из БД не прошла валидацию при разборе.
	ErrInvalidRow = errors.New("invalid row")
)
