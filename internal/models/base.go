package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entity holds the columns shared by every table.
type Entity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	IsActive  bool      `gorm:"not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an id when the caller did not.
func (e *Entity) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// Owned is implemented by records that belong to a user.
type Owned interface {
	OwnerID() uuid.UUID
}
