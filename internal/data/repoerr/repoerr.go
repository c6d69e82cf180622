// Package repoerr maps driver errors onto the service-level sentinels.
package repoerr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
)

const pgUniqueViolation = "23505"

// Map wraps err with ErrNotFound or ErrConflict when it is one of those
// conditions, and returns it unchanged otherwise.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, pkgerrors.ErrNotFound)
	case IsUniqueViolation(err):
		return fmt.Errorf("%s: %w: %v", op, pkgerrors.ErrConflict, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
