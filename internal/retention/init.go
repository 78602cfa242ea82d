package retention

import (
	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/audit"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
)

// NewStore creates and returns a new retention store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newRetentionStore(dbClient)
}

// Initialize sets up the retention module and registers routes
func Initialize(rg *gin.RouterGroup, registry *stores.StoreRegistry, auditor audit.AuditService,
	userData userdata.UserDataStore) RetentionService {
	service := newRetentionService(registry, auditor, userData)
	handler := newRetentionHandler(service)

	rg.POST("/admin/retention/policies", handler.createPolicy)
	rg.GET("/admin/retention/policies", handler.listPolicies)
	rg.GET("/admin/retention/policies/:dataType", handler.getPolicy)
	rg.PUT("/admin/retention/policies/:dataType", handler.updatePolicy)
	rg.DELETE("/admin/retention/policies/:dataType", handler.deletePolicy)
	rg.POST("/admin/retention/jobs", handler.createJob)
	rg.GET("/admin/retention/jobs", handler.listJobs)
	rg.GET("/admin/retention/jobs/:jobId/executions", handler.listJobExecutions)

	return service
}
