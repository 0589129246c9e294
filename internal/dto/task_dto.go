package dto

import (
	"encoding/json"
	"time"

	"writerid-portal/internal/models"
	"writerid-portal/internal/payload"

	"github.com/google/uuid"
)

// CreateTaskRequest submits a writer identification request.
type CreateTaskRequest struct {
	Name            string   `json:"name" binding:"required,max=200"`
	DatasetID       string   `json:"dataset_id" binding:"required,uuid"`
	UseDefaultModel bool     `json:"use_default_model"`
	ModelID         string   `json:"model_id" binding:"omitempty,uuid"`
	SelectedWriters []string `json:"selected_writers" binding:"required,min=1,dive,required"`
	QueryImage      string   `json:"query_image" binding:"required"`
	DeferExecution  bool     `json:"defer_execution"`
}

// TaskResponse is the public view of a task.
type TaskResponse struct {
	ID              uuid.UUID               `json:"id"`
	Name            string                  `json:"name"`
	UseDefaultModel bool                    `json:"use_default_model"`
	ModelID         *uuid.UUID              `json:"model_id,omitempty"`
	DatasetID       uuid.UUID               `json:"dataset_id"`
	SelectedWriters []string                `json:"selected_writers"`
	QueryImagePath  string                  `json:"query_image_path"`
	Status          models.ProcessingStatus `json:"status"`
	Results         json.RawMessage         `json:"results,omitempty"`
	ErrorMessage    string                  `json:"error_message,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

// NewTaskResponse converts a task row.
func NewTaskResponse(t *models.Task) TaskResponse {
	writers := []string(t.SelectedWriters)
	if writers == nil {
		writers = []string{}
	}
	return TaskResponse{
		ID:              t.ID,
		Name:            t.Name,
		UseDefaultModel: t.UseDefaultModel,
		ModelID:         t.ModelID,
		DatasetID:       t.DatasetID,
		SelectedWriters: writers,
		QueryImagePath:  t.QueryImagePath,
		Status:          t.Status,
		Results:         json.RawMessage(t.ResultsJSON),
		ErrorMessage:    t.ErrorMessage,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// TaskCreatedResponse reports the outcome of a synchronous task run.
type TaskCreatedResponse struct {
	Task    TaskResponse `json:"task"`
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
}

// DatasetAnalysisResponse lists the writers a task can be compared against.
type DatasetAnalysisResponse struct {
	DatasetID uuid.UUID        `json:"dataset_id"`
	Writers   []payload.Writer `json:"writers"`
}

// PredictionResultsResponse wraps possibly pending prediction results.
type PredictionResultsResponse struct {
	Available bool                      `json:"available"`
	Status    models.ProcessingStatus   `json:"status"`
	Results   *payload.PredictionResult `json:"results,omitempty"`
}

// TaskExecutionInfo is everything the executor needs to run a task.
type TaskExecutionInfo struct {
	TaskID               uuid.UUID               `json:"task_id"`
	TaskContainerName    string                  `json:"task_container_name"`
	DatasetContainerName string                  `json:"dataset_container_name"`
	ModelContainerName   string                  `json:"model_container_name,omitempty"`
	UseDefaultModel      bool                    `json:"use_default_model"`
	SelectedWriters      []string                `json:"selected_writers"`
	QueryImageFileName   string                  `json:"query_image_file_name"`
	QueryImageURL        string                  `json:"query_image_url,omitempty"`
	Status               models.ProcessingStatus `json:"status"`
}
