package cli

import (
	"errors"

	"Inventario/internal/auth"
	"Inventario/internal/catalog"
	"Inventario/internal/kv"
	"Inventario/pkg/kit"
)

const (
	CodeInvalidInput       = "invalid_input"
	CodeNotFound           = "not_found"
	CodeInsufficientStock  = "insufficient_stock"
	CodeStorageFull        = "storage_full"
	CodeUserExists         = "user_exists"
	CodeInvalidCredentials = "invalid_credentials"
	CodeGeneric            = "error"
)

// report writes err through f and returns the matching *ExitError.
func report(f *OutputFormatter, err error) error {
	code, msg, exit := classify(err)
	_ = f.Error(code, msg)
	return &ExitError{Code: exit, Message: code + ": " + msg, Err: err}
}

func classify(err error) (code, msg string, exit int) {
	var verr *kit.ValidationError
	switch {
	case errors.As(err, &verr):
		return CodeInvalidInput, verr.Message, ExitFailure
	case errors.Is(err, catalog.ErrNotFound):
		return CodeNotFound, err.Error(), ExitFailure
	case errors.Is(err, catalog.ErrInsufficientStock):
		return CodeInsufficientStock, err.Error(), ExitFailure
	case errors.Is(err, auth.ErrUserExists):
		return CodeUserExists, err.Error(), ExitFailure
	case errors.Is(err, auth.ErrInvalidCredentials):
		return CodeInvalidCredentials, err.Error(), ExitFailure
	case errors.Is(err, kv.ErrQuotaExceeded):
		return CodeStorageFull, err.Error(), ExitCommandError
	default:
		return CodeGeneric, err.Error(), ExitCommandError
	}
}
