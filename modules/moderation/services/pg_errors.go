package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/brightacademy/backoffice/modules/moderation/infrastructure/persistence"
	"github.com/brightacademy/backoffice/pkg/serrors"
)

func newServiceError(status int, code, message string, cause error) *serrors.ServiceError {
	return serrors.NewServiceError(status, code, message, cause)
}

func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var svcErr *serrors.ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return newServiceError(http.StatusNotFound, "NOT_FOUND", "not found", err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case "23505": // unique_violation
		if pgErr.ConstraintName == persistence.PendingUniqueIndex {
			return newServiceError(http.StatusConflict, "DUPLICATE_REQUEST", "a pending request already exists for this target", err)
		}
		return newServiceError(http.StatusConflict, "CONFLICT", "unique constraint violated", err)
	case "23503": // foreign_key_violation
		return newServiceError(http.StatusUnprocessableEntity, "INVALID_REFERENCE", "referenced row does not exist", err)
	case "23514": // check_violation
		return newServiceError(http.StatusBadRequest, "VALIDATION_ERROR", "constraint check failed", err)
	default:
		return newServiceError(http.StatusInternalServerError, "INTERNAL", fmt.Sprintf("database error (%s)", pgErr.Code), err)
	}
}

// isRetryable reports whether the error is a transient serialization conflict
// worth retrying in a fresh transaction.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

const maxTxAttempts = 3
