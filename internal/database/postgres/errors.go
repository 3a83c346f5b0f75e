package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/koustreak/JoinPilot/internal/errs"
)

// mapError translates pgx / pgconn native errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	// Context cancellation / deadline exceeded
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	// No rows
	if errors.Is(err, pgx.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	// Postgres server-side error (SQLSTATE codes)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		kind := errs.ErrKindQueryFailed
		switch {
		// Class 08 — connection errors
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08":
			kind = errs.ErrKindConnectionFailed
		// Class 28 — invalid authorization, 42501 — insufficient privilege
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == "28",
			pgErr.Code == "42501":
			kind = errs.ErrKindPermissionDenied
		// 42P01 undefined_table, 42703 undefined_column
		case pgErr.Code == "42P01", pgErr.Code == "42703":
			kind = errs.ErrKindNotFound
		}
		return &errs.Error{
			Kind:    kind,
			Message: fmt.Sprintf("%s: %s", msg, pgErr.Message),
			Cause:   err,
		}
	}

	// Fallthrough: connection-level errors (TLS, network, auth)
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
