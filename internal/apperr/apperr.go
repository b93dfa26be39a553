package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Четыре класса ошибок ядра. Обработчики на границе HTTP переводят их
// в статус через HTTPStatus, внутрь ядра ничего HTTP-специфичного не протекает.

type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

type PermissionError struct {
	Msg string
}

func (e *PermissionError) Error() string { return e.Msg }

func Permission(format string, args ...any) error {
	return &PermissionError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError — недопустимый переход состояния; всегда называет
// ожидаемое и фактическое состояние.
type ConflictError struct {
	Op       string
	Expected string
	Actual   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: expected state %q, actual %q", e.Op, e.Expected, e.Actual)
}

func Conflict(op, expected, actual string) error {
	return &ConflictError{Op: op, Expected: expected, Actual: actual}
}

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func NotFound(entity, id string) error {
	return &NotFoundError{Entity: entity, ID: id}
}

func IsValidation(err error) bool { var t *ValidationError; return errors.As(err, &t) }
func IsPermission(err error) bool { var t *PermissionError; return errors.As(err, &t) }
func IsConflict(err error) bool   { var t *ConflictError; return errors.As(err, &t) }
func IsNotFound(err error) bool   { var t *NotFoundError; return errors.As(err, &t) }

func HTTPStatus(err error) int {
	switch {
	case IsValidation(err):
		return http.StatusBadRequest
	case IsPermission(err):
		return http.StatusForbidden
	case IsConflict(err):
		return http.StatusConflict
	case IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
