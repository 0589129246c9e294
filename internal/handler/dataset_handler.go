package handler

import (
	"writerid-portal/internal/dto"
	"writerid-portal/internal/service"
	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DatasetHandler serves the user-facing dataset endpoints.
type DatasetHandler struct {
	datasetService *service.DatasetService
	logger         *logrus.Logger
}

// NewDatasetHandler creates a DatasetHandler.
func NewDatasetHandler(datasetService *service.DatasetService, logger *logrus.Logger) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
		logger:         logger,
	}
}

// Create starts a dataset and returns an upload grant for its container.
// @Summary Create dataset
// @Tags datasets
// @Security Bearer
// @Param request body dto.CreateDatasetRequest true "dataset"
// @Success 201 {object} utils.Response{data=dto.DatasetCreatedResponse}
// @Router /api/v1/datasets [post]
func (h *DatasetHandler) Create(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CreateDatasetRequest
	if !bindJSON(c, &req) {
		return
	}

	ds, grant, err := h.datasetService.Create(c.Request.Context(), userID, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "dataset created", dto.DatasetCreatedResponse{
		Dataset: dto.NewDatasetResponse(ds),
		Access:  grant,
	})
}

// List returns the caller's datasets.
// @Summary List datasets
// @Tags datasets
// @Security Bearer
// @Param page query int false "page"
// @Param per_page query int false "page size"
// @Router /api/v1/datasets [get]
func (h *DatasetHandler) List(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	page, ok := bindPage(c)
	if !ok {
		return
	}

	items, total, err := h.datasetService.List(c.Request.Context(), userID, page.Page, page.PerPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := make([]dto.DatasetResponse, 0, len(items))
	for i := range items {
		resp = append(resp, dto.NewDatasetResponse(&items[i]))
	}
	utils.PaginatedResponse(c, resp, total, page.Page, page.PerPage)
}

// Get returns one dataset.
func (h *DatasetHandler) Get(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ds, err := h.datasetService.Get(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, dto.NewDatasetResponse(ds))
}

// RefreshUploadAccess issues a fresh upload grant.
func (h *DatasetHandler) RefreshUploadAccess(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	grant, err := h.datasetService.RefreshUploadAccess(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, grant)
}

// Analyze requests analysis of the uploaded samples.
// @Summary Analyze dataset
// @Tags datasets
// @Security Bearer
// @Router /api/v1/datasets/{id}/analyze [post]
func (h *DatasetHandler) Analyze(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ds, err := h.datasetService.Analyze(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "analysis requested", dto.NewDatasetResponse(ds))
}

// AnalysisResults returns the analysis once available.
func (h *DatasetHandler) AnalysisResults(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.datasetService.GetAnalysisResults(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, res)
}

// Delete removes a dataset.
func (h *DatasetHandler) Delete(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.datasetService.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessWithMessage(c, "dataset deleted", nil)
}
