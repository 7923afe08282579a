package domain

import (
	"errors"
	"sort"
	"strings"
)

// Определение бизнес-ошибок
var (
	ErrSubdivisionNotFound   = errors.New("subdivision not found")
	ErrWorkerNotFound        = errors.New("worker not found")
	ErrConflict              = errors.New("record was modified concurrently")
	ErrSubdivisionLiquidated = errors.New("subdivision is liquidated")
	ErrIDMismatch            = errors.New("id in body does not match id in path")
	ErrInvalidPicture        = errors.New("picture must be an image")
)

// ValidationError описывает ошибки отдельных полей
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError создаёт ошибку для одного поля
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
