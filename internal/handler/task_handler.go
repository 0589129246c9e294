package handler

import (
	"net/http"

	"writerid-portal/internal/dto"
	"writerid-portal/internal/service"
	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// TaskHandler serves the user-facing task endpoints.
type TaskHandler struct {
	taskService *service.TaskService
	logger      *logrus.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(taskService *service.TaskService, logger *logrus.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// DatasetAnalysis lists the writers available in an analyzed dataset.
// @Summary Writers of a dataset
// @Tags tasks
// @Security Bearer
// @Router /api/v1/tasks/dataset/{datasetId}/analysis [get]
func (h *TaskHandler) DatasetAnalysis(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	datasetID, ok := pathID(c, "datasetId")
	if !ok {
		return
	}

	res, err := h.taskService.GetDatasetAnalysis(c.Request.Context(), userID, datasetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, res)
}

// Create records a task and runs it. A run that fails is reported as 400 with the recorded task.
// @Summary Create task
// @Tags tasks
// @Security Bearer
// @Param request body dto.CreateTaskRequest true "task"
// @Success 201 {object} utils.Response{data=dto.TaskCreatedResponse}
// @Failure 400 {object} utils.Response{data=dto.TaskCreatedResponse}
// @Router /api/v1/tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	out, err := h.taskService.CreateTask(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	body := dto.TaskCreatedResponse{
		Task:    dto.NewTaskResponse(out.Task),
		Success: out.Success,
		Message: out.Message,
	}
	if !out.Success {
		utils.ErrorWithData(c, http.StatusBadRequest, out.Message, body)
		return
	}
	utils.CreatedResponse(c, out.Message, body)
}

// List returns the caller's tasks.
func (h *TaskHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	items, total, err := h.taskService.List(c.Request.Context(), userID, page.Page, page.PerPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := make([]dto.TaskResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.NewTaskResponse(&items[i]))
	}
	utils.PaginatedResponse(c, resp, total, page.Page, page.PerPage)
}

// Get returns one task.
func (h *TaskHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, dto.NewTaskResponse(task))
}

// Execute dispatches a deferred task through the queue.
func (h *TaskHandler) Execute(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.StartTask(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "task dispatched", dto.NewTaskResponse(task))
}

// Results returns the prediction once available.
func (h *TaskHandler) Results(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.taskService.GetTaskPredictionResults(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, res)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "task deleted", nil)
}
