package handler

import (
	"writerid-portal/internal/dto"
	"writerid-portal/internal/payload"
	"writerid-portal/internal/service"
	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ExternalHandler serves the callback API used by the executor.
type ExternalHandler struct {
	datasetService *service.DatasetService
	modelService   *service.ModelService
	taskService    *service.TaskService
	logger         *logrus.Logger
}

// NewExternalHandler creates an ExternalHandler.
func NewExternalHandler(datasetService *service.DatasetService, modelService *service.ModelService, taskService *service.TaskService, logger *logrus.Logger) *ExternalHandler {
	return &ExternalHandler{
		datasetService: datasetService,
		modelService:   modelService,
		taskService:    taskService,
		logger:         logger,
	}
}

func statusOf(id, status, message string) dto.StatusResponse {
	return dto.StatusResponse{ID: id, Status: status, Message: message}
}

// UpdateDatasetStatus records analysis progress.
// @Summary Update dataset status
// @Tags external
// @Security ApiKey
// @Param request body dto.StatusUpdateRequest true "status"
// @Router /api/external/datasets/status [put]
func (h *ExternalHandler) UpdateDatasetStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	ds, err := h.datasetService.UpdateDatasetStatus(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "status updated", statusOf(ds.ID.String(), string(ds.Status), ds.StatusMessage))
}

// DatasetStatus reports a dataset's status.
func (h *ExternalHandler) DatasetStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.datasetService.GetDatasetStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// UpdateModelStatus records training progress.
// @Summary Update model status
// @Tags external
// @Security ApiKey
// @Param request body dto.StatusUpdateRequest true "status"
// @Router /api/external/models/status [put]
func (h *ExternalHandler) UpdateModelStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.modelService.UpdateModelStatus(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "status updated", statusOf(m.ID.String(), string(m.Status), m.StatusMessage))
}

// ModelStatus reports a model's status.
func (h *ExternalHandler) ModelStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.modelService.GetModelStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// UpdateTaskStatus records a task's final status and results.
// @Summary Update task status
// @Tags external
// @Security ApiKey
// @Param request body dto.StatusUpdateRequest true "status"
// @Router /api/external/tasks/status [put]
func (h *ExternalHandler) UpdateTaskStatus(c *gin.Context) {
	var req dto.StatusUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	task, err := h.taskService.UpdateTaskResults(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "status updated", statusOf(task.ID.String(), string(task.Status), task.ErrorMessage))
}

// TaskStatus reports a task's status.
func (h *ExternalHandler) TaskStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	status, err := h.taskService.GetTaskStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// TaskExecutionInfo returns what the executor needs to run a task.
// @Summary Task execution info
// @Tags external
// @Security ApiKey
// @Success 200 {object} utils.Response{data=dto.TaskExecutionInfo}
// @Router /api/external/tasks/{id}/execution-info [get]
func (h *ExternalHandler) TaskExecutionInfo(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	info, err := h.taskService.GetTaskExecutionInfo(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, info)
}

// SubmitPrediction completes a task with the executor's prediction.
// @Summary Submit prediction
// @Tags external
// @Security ApiKey
// @Param request body payload.PredictionResult true "prediction"
// @Router /api/external/tasks/{id}/prediction [post]
func (h *ExternalHandler) SubmitPrediction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		utils.BadRequest(c, "unreadable body")
		return
	}
	result, err := payload.ParsePredictionResult(body)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	task, err := h.taskService.SubmitTaskPrediction(c.Request.Context(), id, result)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "prediction recorded", statusOf(task.ID.String(), string(task.Status), ""))
}
