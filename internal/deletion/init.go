package deletion

import (
	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/audit"
	"github.com/fittrack/privacy-rights-api/internal/notification"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
)

// NewStore creates and returns a new deletion store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newDeletionStore(dbClient)
}

// Initialize sets up the deletion module and registers routes
func Initialize(rg *gin.RouterGroup, registry *stores.StoreRegistry, auditor audit.AuditService,
	notifier notification.Sender, userData userdata.UserDataStore) DeletionService {
	service := newDeletionService(registry, auditor, notifier, userData)
	handler := newDeletionHandler(service)

	rg.POST("/deletions", handler.createDeletion)
	rg.POST("/deletions/confirm", handler.confirmDeletion)
	rg.POST("/deletions/recover", handler.recoverDeletion)
	rg.GET("/deletions/active", handler.getActiveDeletion)
	rg.GET("/deletions/:requestId", handler.getDeletion)
	rg.POST("/admin/deletions/:requestId/execute", handler.executeDeletion)

	return service
}
