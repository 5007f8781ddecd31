package service

import (
	"errors"
	"fmt"

	"github.com/mmynk/pantry/internal/storage"
)

// Code classifies a service failure. The HTTP layer maps codes to statuses.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUnauthorized       Code = "UNAUTHORIZED"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeNotFound           Code = "NOT_FOUND"
	CodeEmailExists        Code = "EMAIL_EXISTS"
	CodeProductExists      Code = "PRODUCT_EXISTS"
	CodeNoItemsToAdd       Code = "NO_ITEMS_TO_ADD"
	CodeDatabase           Code = "DATABASE_ERROR"
	CodeInternal           Code = "INTERNAL_SERVER_ERROR"
)

// ErrCompensationFailed marks a generation whose compensating delete also
// failed, leaving an orphaned shopping list behind.
var ErrCompensationFailed = errors.New("compensating delete of shopping list failed")

// Error is a typed service failure carrying a code and optional details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or
// CodeInternal for anything else.
func CodeOf(err error) Code {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Code
	}
	return CodeInternal
}

func newError(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

// fieldError is a validation failure attributed to one request field.
func fieldError(field, message string, err error) *Error {
	return &Error{
		Code:    CodeValidation,
		Message: "Invalid request body",
		Details: map[string]any{field: []string{message}},
		Err:     err,
	}
}

func dbError(message string, err error) *Error {
	return newError(CodeDatabase, message, err)
}

// storeError maps storage sentinels to service codes.
func storeError(message string, err error) *Error {
	if errors.Is(err, storage.ErrNotFound) {
		return newError(CodeNotFound, message, err)
	}
	return dbError(message, err)
}
