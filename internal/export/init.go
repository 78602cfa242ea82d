package export

import (
	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/artifact"
	"github.com/fittrack/privacy-rights-api/internal/audit"
	"github.com/fittrack/privacy-rights-api/internal/notification"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
)

// NewStore creates and returns a new export store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newExportStore(dbClient)
}

// Initialize sets up the export module and registers routes
func Initialize(rg *gin.RouterGroup, registry *stores.StoreRegistry, auditor audit.AuditService,
	notifier notification.Sender, artifacts artifact.Store, userData userdata.UserDataStore) ExportService {
	service := newExportService(registry, auditor, notifier, artifacts, userData)
	handler := newExportHandler(service)

	rg.POST("/exports", handler.createExport)
	rg.GET("/exports", handler.listExports)
	rg.GET("/exports/:requestId", handler.getExport)
	rg.GET("/exports/:requestId/download", handler.downloadExport)

	return service
}
