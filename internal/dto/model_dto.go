package dto

import (
	"encoding/json"
	"time"

	"writerid-portal/internal/models"
	"writerid-portal/internal/payload"

	"github.com/google/uuid"
)

// CreateModelRequest requests training of a new model.
type CreateModelRequest struct {
	Name              string `json:"name" binding:"required,max=200"`
	TrainingDatasetID string `json:"training_dataset_id" binding:"required,uuid"`
}

// ModelResponse is the public view of a model.
type ModelResponse struct {
	ID                  uuid.UUID               `json:"id"`
	Name                string                  `json:"name"`
	ContainerName       string                  `json:"container_name"`
	Status              models.ProcessingStatus `json:"status"`
	StatusMessage       string                  `json:"status_message,omitempty"`
	TrainingDatasetID   uuid.UUID               `json:"training_dataset_id"`
	TrainingDatasetName string                  `json:"training_dataset_name"`
	TrainingResult      json.RawMessage         `json:"training_result,omitempty"`
	CreatedAt           time.Time               `json:"created_at"`
	UpdatedAt           time.Time               `json:"updated_at"`
}

// NewModelResponse converts a model row joined with its dataset name.
func NewModelResponse(m *models.WriterModel, datasetName string) ModelResponse {
	return ModelResponse{
		ID:                  m.ID,
		Name:                m.Name,
		ContainerName:       m.ContainerName,
		Status:              m.Status,
		StatusMessage:       m.StatusMessage,
		TrainingDatasetID:   m.TrainingDatasetID,
		TrainingDatasetName: datasetName,
		TrainingResult:      json.RawMessage(m.TrainingResult),
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

// TrainingResultsResponse wraps possibly pending training results.
type TrainingResultsResponse struct {
	Available bool                    `json:"available"`
	Status    models.ProcessingStatus `json:"status"`
	Results   *payload.TrainingResult `json:"results,omitempty"`
}
