package repository

import (
	"context"

	"writerid-portal/internal/models"

	"gorm.io/gorm"
)

// UnitOfWork groups the repositories that share one connection or transaction.
type UnitOfWork struct {
	db       *gorm.DB
	Users    *Repository[models.User]
	Datasets *Repository[models.Dataset]
	Models   *Repository[models.WriterModel]
	Tasks    *Repository[models.Task]
}

// NewUnitOfWork binds all repositories to db.
func NewUnitOfWork(db *gorm.DB) *UnitOfWork {
	return &UnitOfWork{
		db:       db,
		Users:    NewRepository[models.User](db),
		Datasets: NewRepository[models.Dataset](db),
		Models:   NewRepository[models.WriterModel](db),
		Tasks:    NewRepository[models.Task](db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (u *UnitOfWork) Transaction(ctx context.Context, fn func(tx *UnitOfWork) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnitOfWork(tx))
	})
}
