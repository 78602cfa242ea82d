package consent

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/consent/model"
	"github.com/fittrack/privacy-rights-api/internal/system/constants"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

type consentHandler struct {
	service ConsentService
}

func newConsentHandler(service ConsentService) *consentHandler {
	return &consentHandler{
		service: service,
	}
}

// grantConsent handles POST /consents
func (h *consentHandler) grantConsent(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	var req model.ConsentGrantAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	record, serviceErr := h.service.Grant(ctx, userID, req, h.provenance(c))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusCreated, record)
}

// withdrawConsent handles POST /consents/withdraw
func (h *consentHandler) withdrawConsent(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	var req model.ConsentWithdrawAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	withdrawn, serviceErr := h.service.Withdraw(ctx, userID, model.ConsentType(req.ConsentType), h.provenance(c))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"consentType": req.ConsentType,
		"withdrawn":   withdrawn,
	})
}

// bulkWithdrawConsent handles POST /consents/bulk-withdraw
func (h *consentHandler) bulkWithdrawConsent(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	var req model.ConsentBulkWithdrawAPIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, serviceerror.CustomServiceError(serviceerror.InvalidRequestError, err.Error()))
		return
	}

	consentTypes := make([]model.ConsentType, 0, len(req.ConsentTypes))
	for _, t := range req.ConsentTypes {
		consentTypes = append(consentTypes, model.ConsentType(t))
	}

	results, serviceErr := h.service.BulkWithdraw(ctx, userID, consentTypes, h.provenance(c))
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}

// getConsentStatus handles GET /consents/:consentType
func (h *consentHandler) getConsentStatus(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)
	consentType := model.ConsentType(c.Param("consentType"))

	status, serviceErr := h.service.CurrentStatus(ctx, userID, consentType)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, status)
}

// getConsentHistory handles GET /consents
func (h *consentHandler) getConsentHistory(c *gin.Context) {
	ctx := c.Request.Context()

	userID := c.GetHeader(constants.UserIDHeaderName)

	history, serviceErr := h.service.History(ctx, userID)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, history)
}

func (h *consentHandler) provenance(c *gin.Context) model.Provenance {
	return model.Provenance{
		IPAddress: utils.ClientIP(c),
		UserAgent: utils.UserAgent(c),
	}
}
