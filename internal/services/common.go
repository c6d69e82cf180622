package services

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/data/repos/community"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/platform/ctxutil"
)

// ValidationError carries every problem ValidatePost found.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error { return pkgerrors.ErrInvalidArgument }

// Problems lists the individual messages for API responses.
func (e *ValidationError) Problems() []string { return e.Errors }

// actingUser loads the user named by the request's actor id.
func actingUser(ctx context.Context, users community.UserRepo) (*domain.User, error) {
	id, ok := ctxutil.GetActor(ctx)
	if !ok {
		return nil, fmt.Errorf("no acting user: %w", pkgerrors.ErrForbidden)
	}
	u, err := users.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, fmt.Errorf("load acting user: %w", err)
	}
	return u, nil
}

func inTx(ctx context.Context, db *gorm.DB, fn func(dbc dbctx.Context) error) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(dbctx.Context{Ctx: ctx, Tx: tx})
	})
}
