package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"writerid-portal/internal/models"
)

// ByID matches a primary key.
func ByID(id uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

// ByIDs matches any of ids.
func ByIDs(ids []uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id IN ?", ids)
	}
}

// OwnedBy matches records of one user.
func OwnedBy(userID uuid.UUID) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("user_id = ?", userID)
	}
}

// WithStatus matches a lifecycle status.
func WithStatus(status models.ProcessingStatus) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", status)
	}
}

// ByEmail matches a user email.
func ByEmail(email string) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", email)
	}
}

// NewestFirst orders by creation time descending.
func NewestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("created_at DESC")
}

// Paginate applies 1-based page/perPage.
func Paginate(page, perPage int) Scope {
	return func(db *gorm.DB) *gorm.DB {
		if page < 1 {
			page = 1
		}
		if perPage < 1 {
			perPage = 20
		}
		return db.Offset((page - 1) * perPage).Limit(perPage)
	}
}
