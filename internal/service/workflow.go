package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/tuition-match-api/internal/repository"
	appErrors "github.com/noah-isme/tuition-match-api/pkg/errors"
	"github.com/noah-isme/tuition-match-api/pkg/models"
)

// userDirectory resolves active accounts.
type userDirectory interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// lookupTutor loads id and checks it is an active tutor account.
func lookupTutor(ctx context.Context, users userDirectory, id string) (*models.User, error) {
	user, err := users.FindByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
	}
	if err != nil {
		return nil, appErrors.Internal(err, "failed to load tutor")
	}
	if user.Role != models.RoleTutor {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user "+id+" is not a tutor")
	}
	return user, nil
}

func requireActor(actor *models.JWTClaims) error {
	if actor == nil || actor.UserID == "" {
		return appErrors.ErrUnauthorized
	}
	return nil
}

func requireStaff(actor *models.JWTClaims) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if !actor.IsStaff() {
		return appErrors.ErrForbidden
	}
	return nil
}

// lookupError maps repository read failures to typed errors.
func lookupError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	}
	return appErrors.Internal(err, "failed to load "+entity)
}

// writeError maps repository write failures to typed errors.
func writeError(err error, entity string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.Is(err, repository.ErrMissingReference):
		return appErrors.Clone(appErrors.ErrValidation, entity+" refers to an unknown user")
	case errors.Is(err, repository.ErrStatusChanged):
		return appErrors.Clone(appErrors.ErrConflict, entity+" was modified concurrently, reload and retry")
	default:
		return appErrors.Internal(err, "failed to save "+entity)
	}
}
