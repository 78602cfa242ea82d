package retention

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/retention/model"
	"github.com/fittrack/privacy-rights-api/internal/system/constants"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

type retentionHandler struct {
	service RetentionService
}

func newRetentionHandler(service RetentionService) *retentionHandler {
	return &retentionHandler{
		service: service,
	}
}

// createPolicy handles POST /admin/retention/policies
func (h *retentionHandler) createPolicy(c *gin.Context) {
	ctx := c.Request.Context()

	adminUserID := c.GetHeader(constants.AdminUserIDHeaderName)

	var req model.PolicyAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	policy, serviceErr := h.service.CreatePolicy(ctx, adminUserID, req)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusCreated, policy)
}

// listPolicies handles GET /admin/retention/policies
func (h *retentionHandler) listPolicies(c *gin.Context) {
	ctx := c.Request.Context()

	policies, serviceErr := h.service.ListPolicies(ctx)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": policies})
}

// getPolicy handles GET /admin/retention/policies/:dataType
func (h *retentionHandler) getPolicy(c *gin.Context) {
	ctx := c.Request.Context()

	policy, serviceErr := h.service.GetPolicy(ctx, c.Param("dataType"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, policy)
}

// updatePolicy handles PUT /admin/retention/policies/:dataType
func (h *retentionHandler) updatePolicy(c *gin.Context) {
	ctx := c.Request.Context()

	adminUserID := c.GetHeader(constants.AdminUserIDHeaderName)

	var req model.PolicyAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	policy, serviceErr := h.service.UpdatePolicy(ctx, adminUserID, c.Param("dataType"), req)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, policy)
}

// deletePolicy handles DELETE /admin/retention/policies/:dataType
func (h *retentionHandler) deletePolicy(c *gin.Context) {
	ctx := c.Request.Context()

	adminUserID := c.GetHeader(constants.AdminUserIDHeaderName)

	if serviceErr := h.service.DeletePolicy(ctx, adminUserID, c.Param("dataType")); serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.Status(http.StatusNoContent)
}

// createJob handles POST /admin/retention/jobs
func (h *retentionHandler) createJob(c *gin.Context) {
	ctx := c.Request.Context()

	adminUserID := c.GetHeader(constants.AdminUserIDHeaderName)

	var req model.JobAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	job, serviceErr := h.service.CreateJob(ctx, adminUserID, req)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusCreated, job)
}

// listJobs handles GET /admin/retention/jobs
func (h *retentionHandler) listJobs(c *gin.Context) {
	ctx := c.Request.Context()

	jobs, serviceErr := h.service.ListJobs(ctx)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": jobs})
}

// listJobExecutions handles GET /admin/retention/jobs/:jobId/executions
func (h *retentionHandler) listJobExecutions(c *gin.Context) {
	ctx := c.Request.Context()

	executions, serviceErr := h.service.ListExecutions(ctx, c.Param("jobId"))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": executions})
}
