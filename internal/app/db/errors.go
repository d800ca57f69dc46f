package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"ticketdesk/internal/pkg/errs"
	"ticketdesk/internal/pkg/logx"
)

// IsUniqueViolation checks if the error is a PostgreSQL unique constraint violation (code 23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// storeError maps a driver error onto the application taxonomy. Missing rows become
// ErrTicketNotFound, application errors pass through, everything else is logged and
// reported as ErrStoreUnavailable.
func storeError(err error, op string) error {
	if err == nil {
		return nil
	}

	var customErr *errs.CustomError
	if errors.As(err, &customErr) {
		return customErr
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return errs.NewError(errs.ErrTicketNotFound)
	}

	if errors.Is(err, context.Canceled) {
		logx.Warn("Ticket store operation canceled", "op", op)
	} else {
		logx.Error(err, "Ticket store operation failed", "op", op)
	}

	return errs.NewError(errs.ErrStoreUnavailable)
}
