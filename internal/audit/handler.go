package audit

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

type auditHandler struct {
	service AuditService
}

func newAuditHandler(service AuditService) *auditHandler {
	return &auditHandler{
		service: service,
	}
}

// searchAuditLogs handles GET /audit-logs
func (h *auditHandler) searchAuditLogs(c *gin.Context) {
	ctx := c.Request.Context()

	filters := model.AuditSearchFilters{
		EntityType: c.Query("entityType"),
		EntityID:   c.Query("entityId"),
		UserID:     c.Query("userId"),
		Action:     c.Query("action"),
		Limit:      30,
		Offset:     0,
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			filters.Limit = l
		}
	}
	if offsetStr := c.Query("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil {
			filters.Offset = o
		}
	}

	entries, total, serviceErr := h.service.Search(ctx, filters)
	if serviceErr != nil {
		utils.SendError(c, serviceErr)
		return
	}

	c.JSON(http.StatusOK, model.AuditListResponse{
		Data:  entries,
		Total: total,
	})
}
