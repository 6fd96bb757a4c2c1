package ledger

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	apperrors "chowvest/internal/errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// classify turns a storage error into an AppError. AppErrors pass through
// untouched so business failures raised inside a unit keep their code.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if unavailable(err) {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
	}
	if malformedInput(err) {
		return apperrors.Wrap(apperrors.WithMessage(apperrors.ErrInvalidInput, "Malformed identifier or value"), err)
	}
	return apperrors.Wrap(apperrors.ErrInternalServer, err)
}

// malformedInput reports a value Postgres could not cast to the column type,
// such as a non-UUID id.
func malformedInput(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.InvalidTextRepresentation || pgErr.Code == pgerrcode.InvalidParameterValue
}

// notFoundOr maps gorm.ErrRecordNotFound to sentinel and classifies the rest.
func notFoundOr(err error, sentinel *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return classify(err)
}

func unavailable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgerrcode.IsConnectionException(pgErr.Code) ||
			pgerrcode.IsOperatorIntervention(pgErr.Code) ||
			pgerrcode.IsInsufficientResources(pgErr.Code)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	switch {
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, sql.ErrConnDone),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}

// retryable reports whether a unit of work lost a concurrency race and can
// simply be run again.
func retryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected
}
