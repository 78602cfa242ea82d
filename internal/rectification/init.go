package rectification

import (
	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/audit"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
)

// NewStore creates and returns a new rectification store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newRectificationStore(dbClient)
}

// Initialize sets up the rectification module and registers routes
func Initialize(rg *gin.RouterGroup, registry *stores.StoreRegistry, auditor audit.AuditService,
	userData userdata.UserDataStore) RectificationService {
	service := newRectificationService(registry, auditor, userData)
	handler := newRectificationHandler(service)

	rg.POST("/rectifications", handler.createRectification)
	rg.GET("/rectifications", handler.listRectifications)
	rg.GET("/rectifications/:requestId", handler.getRectification)
	rg.GET("/admin/rectifications/pending", handler.listPendingRectifications)
	rg.POST("/admin/rectifications/:requestId/review", handler.reviewRectification)

	return service
}
