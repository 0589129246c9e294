package service

import (
	"context"
	"errors"
	"fmt"

	"writerid-portal/internal/models"
	"writerid-portal/internal/repository"

	"github.com/google/uuid"
)

// Errors returned by the services. Handlers map them to HTTP statuses.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("not authorized")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidStatus      = errors.New("invalid status transition")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

func notFound(kind string, id uuid.UUID) error {
	return fmt.Errorf("%w: %s %s", ErrNotFound, kind, id)
}

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func parseID(kind, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, validationError("invalid %s id %q", kind, raw)
	}
	return id, nil
}

// loadOwned fetches an active record and checks that owner holds it.
func loadOwned[T any, PT interface {
	*T
	models.Owned
}](ctx context.Context, repo *repository.Repository[T], kind string, id, owner uuid.UUID) (PT, error) {
	entity, err := loadActive(ctx, repo, kind, id)
	if err != nil {
		return nil, err
	}
	p := PT(entity)
	if p.OwnerID() != owner {
		return nil, fmt.Errorf("%w: %s %s belongs to another user", ErrUnauthorized, kind, id)
	}
	return p, nil
}

// loadActive fetches an active record regardless of owner.
func loadActive[T any](ctx context.Context, repo *repository.Repository[T], kind string, id uuid.UUID) (*T, error) {
	entity, err := repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound(kind, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s %s: %w", kind, id, err)
	}
	return entity, nil
}

// save writes entity back. A record deactivated since it was loaded is reported as not found.
func save[T any](ctx context.Context, repo *repository.Repository[T], kind string, id uuid.UUID, entity *T) error {
	err := repo.Update(ctx, entity)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound(kind, id)
	}
	if err != nil {
		return fmt.Errorf("update %s %s: %w", kind, id, err)
	}
	return nil
}

func checkTransition(kind string, id uuid.UUID, from, to models.ProcessingStatus) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s %s is %s and cannot become %s", ErrInvalidStatus, kind, id, from, to)
	}
	return nil
}

// requireStatus guards user-triggered lifecycle actions.
func requireStatus(kind string, id uuid.UUID, current, want models.ProcessingStatus) error {
	if current != want {
		return fmt.Errorf("%w: %s %s is %s, expected %s", ErrInvalidStatus, kind, id, current, want)
	}
	return nil
}
