package audit

import (
	"context"
	"strings"

	"github.com/fittrack/privacy-rights-api/internal/audit/model"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
)

// DBQuery objects for audit operations
var (
	QueryCreateAuditEntry = dbmodel.DBQuery{
		ID:    "CREATE_AUDIT_ENTRY",
		Query: "INSERT INTO AUDIT_LOG (AUDIT_ID, ACTION, ENTITY_TYPE, ENTITY_ID, USER_ID, ADMIN_USER_ID, ACTION_TIME, IP_ADDRESS, USER_AGENT, DETAILS, IS_SUCCESSFUL, OLD_VALUES, NEW_VALUES) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryPurgeAuditEntriesOlderThan = dbmodel.DBQuery{
		ID:    "PURGE_AUDIT_ENTRIES_OLDER_THAN",
		Query: "DELETE FROM AUDIT_LOG WHERE ACTION_TIME < ?",
	}
)

// AuditStore defines the interface for audit log persistence. It is
// exported so the retention module can purge aged entries through the
// registry.
type AuditStore interface {
	Create(ctx context.Context, entry *model.AuditLogEntry) error
	Search(ctx context.Context, filters model.AuditSearchFilters) ([]model.AuditLogEntry, int, error)
	PurgeOlderThan(ctx context.Context, cutoff int64) (int64, error)
}

// store implements the AuditStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// newAuditStore creates a new audit store
func newAuditStore(dbClient provider.DBClientInterface) AuditStore {
	return &store{
		dbClient: dbClient,
	}
}

// Create appends a single audit entry.
func (s *store) Create(ctx context.Context, entry *model.AuditLogEntry) error {
	_, err := s.dbClient.Execute(QueryCreateAuditEntry,
		entry.AuditID, entry.Action, entry.EntityType, entry.EntityID,
		entry.UserID, entry.AdminUserID, entry.ActionTime, entry.IPAddress,
		entry.UserAgent, entry.Details, entry.IsSuccessful,
		entry.OldValues, entry.NewValues)
	return err
}

// Search retrieves audit entries matching the filters, newest first.
// The WHERE clause is assembled from the populated filters only.
func (s *store) Search(ctx context.Context, filters model.AuditSearchFilters) ([]model.AuditLogEntry, int, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}

	if filters.EntityType != "" {
		conditions = append(conditions, "ENTITY_TYPE = ?")
		args = append(args, filters.EntityType)
	}
	if filters.EntityID != "" {
		conditions = append(conditions, "ENTITY_ID = ?")
		args = append(args, filters.EntityID)
	}
	if filters.UserID != "" {
		conditions = append(conditions, "USER_ID = ?")
		args = append(args, filters.UserID)
	}
	if filters.Action != "" {
		conditions = append(conditions, "ACTION = ?")
		args = append(args, filters.Action)
	}

	where := strings.Join(conditions, " AND ")

	countQuery := dbmodel.DBQuery{
		ID:    "COUNT_AUDIT_ENTRIES",
		Query: "SELECT COUNT(*) as count FROM AUDIT_LOG WHERE " + where,
	}
	countRows, err := s.dbClient.Query(&countQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	total := 0
	if len(countRows) > 0 {
		if count, ok := countRows[0]["count"].(int64); ok {
			total = int(count)
		}
	}

	listQuery := dbmodel.DBQuery{
		ID:    "SEARCH_AUDIT_ENTRIES",
		Query: "SELECT AUDIT_ID, ACTION, ENTITY_TYPE, ENTITY_ID, USER_ID, ADMIN_USER_ID, ACTION_TIME, IP_ADDRESS, USER_AGENT, DETAILS, IS_SUCCESSFUL, OLD_VALUES, NEW_VALUES FROM AUDIT_LOG WHERE " + where + " ORDER BY ACTION_TIME DESC LIMIT ? OFFSET ?",
	}
	args = append(args, filters.Limit, filters.Offset)
	rows, err := s.dbClient.Query(&listQuery, args...)
	if err != nil {
		return nil, 0, err
	}

	entries := make([]model.AuditLogEntry, 0, len(rows))
	for _, row := range rows {
		entry := mapToAuditEntry(row)
		if entry != nil {
			entries = append(entries, *entry)
		}
	}

	return entries, total, nil
}

// PurgeOlderThan removes entries older than the cutoff and returns how
// many were removed. Only the retention sweep calls this.
func (s *store) PurgeOlderThan(ctx context.Context, cutoff int64) (int64, error) {
	return s.dbClient.Execute(QueryPurgeAuditEntriesOlderThan, cutoff)
}

// Mapper functions

func mapToAuditEntry(row map[string]interface{}) *model.AuditLogEntry {
	if row == nil {
		return nil
	}

	entry := &model.AuditLogEntry{}

	if id, ok := row["AUDIT_ID"].(string); ok {
		entry.AuditID = id
	}
	if action, ok := row["ACTION"].(string); ok {
		entry.Action = action
	}
	if entityType, ok := row["ENTITY_TYPE"].(string); ok {
		entry.EntityType = entityType
	}
	if entityID, ok := row["ENTITY_ID"].(string); ok {
		entry.EntityID = &entityID
	}
	if userID, ok := row["USER_ID"].(string); ok {
		entry.UserID = &userID
	}
	if adminID, ok := row["ADMIN_USER_ID"].(string); ok {
		entry.AdminUserID = &adminID
	}
	if actionTime, ok := row["ACTION_TIME"].(int64); ok {
		entry.ActionTime = actionTime
	}
	if ip, ok := row["IP_ADDRESS"].(string); ok {
		entry.IPAddress = &ip
	}
	if ua, ok := row["USER_AGENT"].(string); ok {
		entry.UserAgent = &ua
	}
	if details, ok := row["DETAILS"].(string); ok {
		entry.Details = details
	}
	if success, ok := row["IS_SUCCESSFUL"].(int64); ok {
		entry.IsSuccessful = success != 0
	} else if success, ok := row["IS_SUCCESSFUL"].(bool); ok {
		entry.IsSuccessful = success
	}
	if oldValues, ok := row["OLD_VALUES"].(string); ok {
		entry.OldValues = &oldValues
	}
	if newValues, ok := row["NEW_VALUES"].(string); ok {
		entry.NewValues = &newValues
	}

	return entry
}
