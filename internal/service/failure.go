package service

import (
	"errors"

	"github.com/rs/zerolog"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/pkg/metrics"
	"go-inventory-ledger/pkg/validator"
)

// recordFailure logs and counts a failed operation and returns err unchanged.
// Caller mistakes log at warn; store and internal faults at error.
func recordFailure(log zerolog.Logger, m *metrics.Metrics, component, op string, err error) error {
	if err == nil {
		return nil
	}
	kind := ErrorKind(err)
	m.OperationError(component, op, kind)
	ev := log.Warn()
	if kind == "internal" || kind == "unavailable" {
		ev = log.Error()
	}
	ev.Err(err).Str("op", op).Str("kind", kind).Msg(component + " operation failed")
	return err
}

// ErrorKind classifies err for logs and metrics.
func ErrorKind(err error) string {
	var vErr *validator.ValidationError
	var stockErr *model.InsufficientStockError
	var storeErr *model.StoreUnavailableError
	switch {
	case errors.As(err, &vErr):
		return "validation"
	case errors.As(err, &stockErr):
		return "insufficient_stock"
	case errors.As(err, &storeErr):
		return "unavailable"
	case errors.Is(err, model.ErrNotFound):
		return "not_found"
	case errors.Is(err, model.ErrDuplicate):
		return "duplicate"
	default:
		return "internal"
	}
}
