package audit

import (
	"context"

	"github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/log"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

// AuditService defines the exported service interface
type AuditService interface {
	// Record appends an audit entry. It never fails the caller: a store
	// failure is logged and swallowed so the main business transition is
	// not rolled back.
	Record(ctx context.Context, entry model.AuditLogEntry)
	Search(ctx context.Context, filters model.AuditSearchFilters) ([]model.AuditLogEntry, int, *serviceerror.ServiceError)
}

// auditService implements the AuditService interface
type auditService struct {
	stores *stores.StoreRegistry
}

// newAuditService creates a new audit service
func newAuditService(registry *stores.StoreRegistry) AuditService {
	return &auditService{
		stores: registry,
	}
}

// Record appends an audit entry, best-effort.
func (auditService *auditService) Record(ctx context.Context, entry model.AuditLogEntry) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "AuditService"))

	if entry.AuditID == "" {
		entry.AuditID = utils.GenerateUUID()
	}
	if entry.ActionTime == 0 {
		entry.ActionTime = utils.GetCurrentTimeMillis()
	}

	store := auditService.stores.Audit.(AuditStore)
	if err := store.Create(ctx, &entry); err != nil {
		// Audit is best-effort: log and continue so the primary
		// operation is never failed by an audit write.
		logger.Error("Failed to write audit entry",
			log.Error(err),
			log.String("action", entry.Action),
			log.String("entity_type", entry.EntityType),
		)
	}
}

// Search retrieves audit entries for the admin surface.
func (auditService *auditService) Search(ctx context.Context, filters model.AuditSearchFilters) ([]model.AuditLogEntry, int, *serviceerror.ServiceError) {
	if filters.Limit <= 0 {
		filters.Limit = 30
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	store := auditService.stores.Audit.(AuditStore)
	entries, total, err := store.Search(ctx, filters)
	if err != nil {
		return nil, 0, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	return entries, total, nil
}
