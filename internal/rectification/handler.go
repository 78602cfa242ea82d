package rectification

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/rectification/model"
	"github.com/fittrack/privacy-rights-api/internal/system/constants"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

type rectificationHandler struct {
	service RectificationService
}

func newRectificationHandler(service RectificationService) *rectificationHandler {
	return &rectificationHandler{
		service: service,
	}
}

// createRectification handles POST /rectifications
func (h *rectificationHandler) createRectification(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	var req model.RectificationCreateAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	request, serviceErr := h.service.Create(ctx, userID, req)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusCreated, request)
}

// listRectifications handles GET /rectifications
func (h *rectificationHandler) listRectifications(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	response, serviceErr := h.service.List(ctx, userID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, response)
}

// getRectification handles GET /rectifications/:requestId
func (h *rectificationHandler) getRectification(c *gin.Context) {
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

// listPendingRectifications handles GET /admin/rectifications/pending
func (h *rectificationHandler) listPendingRectifications(c *gin.Context) {
	ctx := c.Request.Context()

	requests, serviceErr := h.service.ListPending(ctx)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": requests})
}

// reviewRectification handles POST /admin/rectifications/:requestId/review
func (h *rectificationHandler) reviewRectification(c *gin.Context) {
	ctx := c.Request.Context()

	reviewedBy := c.GetHeader(constants.AdminUserIDHeaderName)
	requestID := c.Param("requestId")

	var decision model.RectificationReviewAPIRequest
	if err := c.ShouldBindJSON(&decision); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	request, serviceErr := h.service.Review(ctx, requestID, reviewedBy, decision)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, request)
}
