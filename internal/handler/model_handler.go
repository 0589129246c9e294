package handler

import (
	"writerid-portal/internal/dto"
	"writerid-portal/internal/service"
	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// ModelHandler serves the user-facing model endpoints.
type ModelHandler struct {
	modelService *service.ModelService
	logger       *logrus.Logger
}

// NewModelHandler creates a ModelHandler.
func NewModelHandler(modelService *service.ModelService, logger *logrus.Logger) *ModelHandler {
	return &ModelHandler{
		modelService: modelService,
		logger:       logger,
	}
}

// Create registers a model and requests its training.
// @Summary Create model
// @Tags models
// @Security Bearer
// @Param request body dto.CreateModelRequest true "model"
// @Success 201 {object} utils.Response{data=dto.ModelResponse}
// @Router /api/v1/models [post]
func (h *ModelHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateModelRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := h.modelService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "model created", m)
}

// List returns the caller's models.
func (h *ModelHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	items, total, err := h.modelService.List(c.Request.Context(), userID, page.Page, page.PerPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, items, total, page.Page, page.PerPage)
}

// Get returns one model.
func (h *ModelHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	m, err := h.modelService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, m)
}

// Train restarts training of a model still in Created.
func (h *ModelHandler) Train(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	m, err := h.modelService.StartTraining(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "training requested", m)
}

// TrainingResults returns the training metrics once available.
func (h *ModelHandler) TrainingResults(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.modelService.GetTrainingResults(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, res)
}

// Delete removes a model.
func (h *ModelHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.modelService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "model deleted", nil)
}
