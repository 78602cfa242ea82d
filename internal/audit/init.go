package audit

import (
	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
)

// NewStore creates and returns a new audit store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newAuditStore(dbClient)
}

// Initialize sets up the audit module and registers routes
func Initialize(rg *gin.RouterGroup, registry *stores.StoreRegistry) AuditService {
	service := newAuditService(registry)
	handler := newAuditHandler(service)

	rg.GET("/audit-logs", handler.searchAuditLogs)

	return service
}
