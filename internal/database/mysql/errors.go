package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	gomysql "github.com/go-sql-driver/mysql"

	"github.com/koustreak/JoinPilot/internal/errs"
)

// MySQL error numbers (read-relevant only)
// Full list: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	errBadFieldError   = 1054
	errSyntaxError     = 1064
	errNoSuchTable     = 1146
	errAccessDenied    = 1045
	errDBAccessDenied  = 1044
	errUnknownDatabase = 1049
	errTooManyConns    = 1040
	errConnRefused     = 2003
)

// mapError converts a MySQL driver error into an *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var mysqlErr *gomysql.MySQLError
	if errors.As(err, &mysqlErr) {
		kind := errs.ErrKindQueryFailed
		switch mysqlErr.Number {
		case errAccessDenied, errDBAccessDenied:
			kind = errs.ErrKindPermissionDenied
		case errUnknownDatabase, errTooManyConns, errConnRefused:
			kind = errs.ErrKindConnectionFailed
		case errNoSuchTable:
			kind = errs.ErrKindNotFound
		case errBadFieldError, errSyntaxError:
			kind = errs.ErrKindQueryFailed
		}
		return &errs.Error{
			Kind:    kind,
			Message: fmt.Sprintf("%s: %s", msg, mysqlErr.Message),
			Cause:   err,
		}
	}

	// Anything else — network-level failure before the server answered
	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}
