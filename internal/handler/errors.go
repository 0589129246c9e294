package handler

import (
	"errors"

	"writerid-portal/internal/dto"
	"writerid-portal/internal/middleware"
	"writerid-portal/internal/payload"
	"writerid-portal/internal/service"
	"writerid-portal/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// respondError maps service errors onto HTTP statuses. Unexpected errors are logged
// and reported without detail.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		utils.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, payload.ErrInvalidPayload),
		errors.Is(err, utils.ErrInvalidImage):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, service.ErrInvalidStatus), errors.Is(err, service.ErrConflict):
		utils.Conflict(c, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		utils.Unauthorized(c, err.Error())
	default:
		_ = c.Error(err)
		logger.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("request failed")
		utils.InternalError(c, "internal server error")
	}
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.BadRequest(c, utils.FormatValidationError(err).Error())
		return false
	}
	return true
}

func bindPage(c *gin.Context) (dto.PageQuery, bool) {
	var q dto.PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		utils.BadRequest(c, utils.FormatValidationError(err).Error())
		return q, false
	}
	q.Normalize()
	return q, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.BadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func currentUser(c *gin.Context) (uuid.UUID, bool) {
	id, ok := middleware.GetUserID(c)
	if !ok {
		utils.Unauthorized(c, "not authenticated")
	}
	return id, ok
}
