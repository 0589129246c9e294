package dto

import (
	"encoding/json"
	"time"

	"writerid-portal/internal/models"
	"writerid-portal/internal/payload"
	"writerid-portal/internal/storage"

	"github.com/google/uuid"
)

// CreateDatasetRequest starts a dataset upload.
type CreateDatasetRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// DatasetResponse is the public view of a dataset.
type DatasetResponse struct {
	ID             uuid.UUID               `json:"id"`
	Name           string                  `json:"name"`
	ContainerName  string                  `json:"container_name"`
	Status         models.ProcessingStatus `json:"status"`
	StatusMessage  string                  `json:"status_message,omitempty"`
	AnalysisResult json.RawMessage         `json:"analysis_result,omitempty"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

// NewDatasetResponse converts a dataset row.
func NewDatasetResponse(d *models.Dataset) DatasetResponse {
	return DatasetResponse{
		ID:             d.ID,
		Name:           d.Name,
		ContainerName:  d.ContainerName,
		Status:         d.Status,
		StatusMessage:  d.StatusMessage,
		AnalysisResult: json.RawMessage(d.AnalysisResult),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

// DatasetCreatedResponse returns the new dataset and where to upload its samples.
type DatasetCreatedResponse struct {
	Dataset DatasetResponse      `json:"dataset"`
	Access  *storage.AccessGrant `json:"access"`
}

// AnalysisResultsResponse wraps possibly pending analysis results.
type AnalysisResultsResponse struct {
	Available bool                    `json:"available"`
	Status    models.ProcessingStatus `json:"status"`
	Results   *payload.AnalysisResult `json:"results,omitempty"`
}
