package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind kategori kegagalan yang bisa di-translate langsung
// jadi response ke caller.
type Kind int

const (
	KindUnknown Kind = iota
	KindBusy
	KindNotFound
	KindUnauthorized
	KindInvalidTransition
	KindValidation
	KindPersistence
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Busy - lock tidak bisa diambil setelah retry habis. Retryable,
// bukan kegagalan permanen.
func Busy(format string, args ...interface{}) *Error {
	return &Error{Kind: KindBusy, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Unauthorized(format string, args ...interface{}) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func InvalidTransition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func Persistence(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...)}
}

func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindUnknown
}

// StatusCode mapping Kind -> HTTP status, dipakai layer handler.
func StatusCode(err error) int {
	switch KindOf(err) {
	case KindBusy:
		return fiber.StatusConflict
	case KindNotFound:
		return fiber.StatusNotFound
	case KindUnauthorized:
		return fiber.StatusForbidden
	case KindInvalidTransition:
		return fiber.StatusUnprocessableEntity
	case KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
