package export

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/export/model"
	"github.com/fittrack/privacy-rights-api/internal/system/constants"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

type exportHandler struct {
	service ExportService
}

func newExportHandler(service ExportService) *exportHandler {
	return &exportHandler{
		service: service,
	}
}

// createExport handles POST /exports
func (h *exportHandler) createExport(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	var req model.ExportCreateAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	request, serviceErr := h.service.Create(ctx, userID, req.Format)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusAccepted, request)
}

// listExports handles GET /exports
func (h *exportHandler) listExports(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	response, serviceErr := h.service.List(ctx, userID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, response)
}

// getExport handles GET /exports/:requestId
func (h *exportHandler) getExport(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)
	requestID := c.Param("requestId")

	request, serviceErr := h.service.Get(ctx, userID, requestID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, request)
}

// downloadExport handles GET /exports/:requestId/download
func (h *exportHandler) downloadExport(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)
	requestID := c.Param("requestId")

	payload, request, serviceErr := h.service.Download(ctx, userID, requestID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	filename := fmt.Sprintf("data-export-%s.%s", request.RequestID, request.Format.Extension())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, request.Format.ContentType(), payload)
}
