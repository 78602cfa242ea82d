package deletion

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/deletion/model"
	"github.com/fittrack/privacy-rights-api/internal/system/constants"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

type deletionHandler struct {
	service DeletionService
}

func newDeletionHandler(service DeletionService) *deletionHandler {
	return &deletionHandler{
		service: service,
	}
}

// createDeletion handles POST /deletions
func (h *deletionHandler) createDeletion(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	var req model.DeletionCreateAPIRequest
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

// confirmDeletion handles POST /deletions/confirm
func (h *deletionHandler) confirmDeletion(c *gin.Context) {
	ctx := c.Request.Context()

	var req model.DeletionConfirmAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	request, serviceErr := h.service.Confirm(ctx, req.Token)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, request)
}

// recoverDeletion handles POST /deletions/recover
func (h *deletionHandler) recoverDeletion(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	request, serviceErr := h.service.Recover(ctx, userID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, request)
}

// getActiveDeletion handles GET /deletions/active
func (h *deletionHandler) getActiveDeletion(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	request, serviceErr := h.service.GetActive(ctx, userID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, request)
}

// getDeletion handles GET /deletions/:requestId
func (h *deletionHandler) getDeletion(c *gin.Context) {
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

// executeDeletion handles POST /admin/deletions/:requestId/execute
func (h *deletionHandler) executeDeletion(c *gin.Context) {
	ctx := c.Request.Context()

	processedBy := c.GetHeader(constants.AdminUserIDHeaderName)
	if processedBy == "" {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.ValidationError, "admin identity is required"))
		return
	}
	requestID := c.Param("requestId")

	request, serviceErr := h.service.Execute(ctx, requestID, processedBy)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, request)
}
