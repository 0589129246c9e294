package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WriterModel is a writer-identification model trained on one dataset.
type WriterModel struct {
	Entity
	Name              string           `gorm:"size:200;not null" json:"name"`
	ContainerName     string           `gorm:"size:100;index" json:"container_name"`
	Status            ProcessingStatus `gorm:"size:20;not null;default:'Created'" json:"status"`
	StatusMessage     string           `gorm:"type:text" json:"status_message,omitempty"`
	TrainingDatasetID uuid.UUID        `gorm:"type:uuid;not null;index" json:"training_dataset_id"`
	TrainingResult    datatypes.JSON   `json:"training_result,omitempty"`
	UserID            uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
}

// TableName sets the table name.
func (WriterModel) TableName() string {
	return "models"
}

// OwnerID returns the owning user.
func (m *WriterModel) OwnerID() uuid.UUID {
	return m.UserID
}

// ModelContainerName derives the blob container of a model.
func ModelContainerName(id uuid.UUID) string {
	return "model-" + id.String()
}
