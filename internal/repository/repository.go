package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrNotFound is returned when no active record matches.
var ErrNotFound = errors.New("record not found")

// Scope narrows a query.
type Scope func(*gorm.DB) *gorm.DB

// Repository is a generic store for one entity type.
// Every read is restricted to active records.
type Repository[T any] struct {
	db *gorm.DB
}

// NewRepository creates a repository bound to db.
func NewRepository[T any](db *gorm.DB) *Repository[T] {
	return &Repository[T]{db: db}
}

func (r *Repository[T]) query(ctx context.Context, scopes ...Scope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(new(T)).Scopes(active)
	for _, s := range scopes {
		q = q.Scopes(s)
	}
	return q
}

func active(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// Create inserts a record.
func (r *Repository[T]) Create(ctx context.Context, entity *T) error {
	return r.db.WithContext(ctx).Create(entity).Error
}

// GetByID loads an active record.
func (r *Repository[T]) GetByID(ctx context.Context, id uuid.UUID) (*T, error) {
	return r.First(ctx, ByID(id))
}

// First loads the first active record matching scopes.
func (r *Repository[T]) First(ctx context.Context, scopes ...Scope) (*T, error) {
	var entity T
	err := r.query(ctx, scopes...).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

// Find lists active records matching scopes.
func (r *Repository[T]) Find(ctx context.Context, scopes ...Scope) ([]T, error) {
	var entities []T
	if err := r.query(ctx, scopes...).Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// Count counts active records matching scopes.
func (r *Repository[T]) Count(ctx context.Context, scopes ...Scope) (int64, error) {
	var total int64
	err := r.query(ctx, scopes...).Count(&total).Error
	return total, err
}

// Update writes every column of entity except the active flag and creation time.
// It returns ErrNotFound when the record is no longer active, so a deactivated
// record is never brought back.
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	res := r.db.WithContext(ctx).Model(entity).Scopes(active).
		Select("*").Omit("is_active", "created_at").Updates(entity)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate clears the active flag. It reports whether an active record was changed.
func (r *Repository[T]) Deactivate(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.query(ctx, ByID(id)).Update("is_active", false)
	if res.Error != nil {
		return false, fmt.Errorf("deactivate %s: %w", id, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// GetIncludingInactive loads a record whatever its active flag.
func (r *Repository[T]) GetIncludingInactive(ctx context.Context, id uuid.UUID) (*T, error) {
	var entity T
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}
