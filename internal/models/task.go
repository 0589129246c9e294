package models

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QueryImageFileName is the object name of a task's query image.
const QueryImageFileName = "query.png"

// Task is a single prediction request against a set of writers.
type Task struct {
	Entity
	Name            string                      `gorm:"size:200;not null" json:"name"`
	UseDefaultModel bool                        `gorm:"not null;default:false" json:"use_default_model"`
	ModelID         *uuid.UUID                  `gorm:"type:uuid;index" json:"model_id,omitempty"`
	DatasetID       uuid.UUID                   `gorm:"type:uuid;not null;index" json:"dataset_id"`
	SelectedWriters datatypes.JSONSlice[string] `json:"selected_writers"`
	QueryImagePath  string                      `gorm:"size:300" json:"query_image_path"`
	ContainerName   string                      `gorm:"size:100" json:"container_name"`
	Status          ProcessingStatus            `gorm:"size:20;not null;default:'Created'" json:"status"`
	ResultsJSON     datatypes.JSON              `json:"results,omitempty"`
	ErrorMessage    string                      `gorm:"type:text" json:"error_message,omitempty"`
	UserID          uuid.UUID                   `gorm:"type:uuid;not null;index" json:"user_id"`
}

// TableName sets the table name.
func (Task) TableName() string {
	return "tasks"
}

// OwnerID returns the owning user.
func (t *Task) OwnerID() uuid.UUID {
	return t.UserID
}

// TaskContainerName derives the blob container of a task.
func TaskContainerName(id uuid.UUID) string {
	return "task-" + id.String()
}
