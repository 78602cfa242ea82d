package consent

import (
	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/audit"
	"github.com/fittrack/privacy-rights-api/internal/notification"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
)

// NewStore creates and returns a new consent store (exported for registry)
func NewStore(dbClient provider.DBClientInterface) interface{} {
	return newConsentStore(dbClient)
}

// Initialize sets up the consent module and registers routes
func Initialize(rg *gin.RouterGroup, registry *stores.StoreRegistry, auditor audit.AuditService, notifier notification.Sender) ConsentService {
	service := newConsentService(registry, auditor, notifier)
	handler := newConsentHandler(service)

	rg.POST("/consents", handler.grantConsent)
	rg.POST("/consents/withdraw", handler.withdrawConsent)
	rg.POST("/consents/bulk-withdraw", handler.bulkWithdrawConsent)
	rg.GET("/consents", handler.getConsentHistory)
	rg.GET("/consents/:consentType", handler.getConsentStatus)

	return service
}
