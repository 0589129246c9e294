package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Dataset is a named collection of handwriting samples stored in its own container.
type Dataset struct {
	Entity
	Name           string           `gorm:"size:200;not null" json:"name"`
	ContainerName  string           `gorm:"size:100;index" json:"container_name"`
	Status         ProcessingStatus `gorm:"size:20;not null;default:'Created'" json:"status"`
	StatusMessage  string           `gorm:"type:text" json:"status_message,omitempty"`
	AnalysisResult datatypes.JSON   `json:"analysis_result,omitempty"`
	UserID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"user_id"`
}

// TableName sets the table name.
func (Dataset) TableName() string {
	return "datasets"
}

// OwnerID returns the owning user.
func (d *Dataset) OwnerID() uuid.UUID {
	return d.UserID
}

// DatasetContainerName derives the blob container of a dataset.
func DatasetContainerName(id uuid.UUID) string {
	return "dataset-" + id.String()
}
