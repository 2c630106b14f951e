package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/shaiso/OrderBridge/internal/bom"
	"github.com/shaiso/OrderBridge/internal/domain"
)

// ErrorResponse — структура ответа с ошибкой.
//
// Error заполняется только для 500: текст исходной ошибки.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// JSON отправляет JSON ответ.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Success отправляет успешный ответ.
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// BadRequest отправляет ошибку 400.
func BadRequest(w http.ResponseWriter, message string) {
	JSON(w, http.StatusBadRequest, ErrorResponse{Message: message})
}

// NotFound отправляет ошибку 404.
func NotFound(w http.ResponseWriter, message string) {
	JSON(w, http.StatusNotFound, ErrorResponse{Message: message})
}

// InternalError отправляет ошибку 500 с текстом исходной ошибки.
func InternalError(w http.ResponseWriter, logger *slog.Logger, message string, err error) {
	logger.Error("API error", "message", message, "error", err)

	resp := ErrorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	JSON(w, http.StatusInternalServerError, resp)
}

// MethodNotAllowed отправляет ошибку 405.
func MethodNotAllowed(w http.ResponseWriter) {
	JSON(w, http.StatusMethodNotAllowed, ErrorResponse{Message: "method not allowed"})
}

// HandlePlanError преобразует ошибку планирования в HTTP ответ.
func HandlePlanError(w http.ResponseWriter, logger *slog.Logger, err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, bom.ErrNoRecipe):
		NotFound(w, err.Error())
	case errors.Is(err, domain.ErrInvalidQuantity):
		BadRequest(w, err.Error())
	default:
		InternalError(w, logger, "Failed to plan production orders", err)
	}
	return true
}
