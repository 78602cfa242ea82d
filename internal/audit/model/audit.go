package model

// AuditLogEntry represents one row of the append-only AUDIT_LOG table.
// Entries are never mutated or deleted by the engine; only the retention
// sweep may purge them under their own policy.
type AuditLogEntry struct {
	AuditID      string  `db:"AUDIT_ID" json:"auditId"`
	Action       string  `db:"ACTION" json:"action"`
	EntityType   string  `db:"ENTITY_TYPE" json:"entityType"`
	EntityID     *string `db:"ENTITY_ID" json:"entityId,omitempty"`
	UserID       *string `db:"USER_ID" json:"userId,omitempty"`
	AdminUserID  *string `db:"ADMIN_USER_ID" json:"adminUserId,omitempty"`
	ActionTime   int64   `db:"ACTION_TIME" json:"actionTime"`
	IPAddress    *string `db:"IP_ADDRESS" json:"ipAddress,omitempty"`
	UserAgent    *string `db:"USER_AGENT" json:"userAgent,omitempty"`
	Details      string  `db:"DETAILS" json:"details"`
	IsSuccessful bool    `db:"IS_SUCCESSFUL" json:"isSuccessful"`
	OldValues    *string `db:"OLD_VALUES" json:"oldValues,omitempty"`
	NewValues    *string `db:"NEW_VALUES" json:"newValues,omitempty"`
}

// Entity types recorded on audit entries.
const (
	EntityTypeConsent       = "CONSENT_RECORD"
	EntityTypeExport        = "DATA_EXPORT_REQUEST"
	EntityTypeRectification = "DATA_RECTIFICATION_REQUEST"
	EntityTypeDeletion      = "ACCOUNT_DELETION_REQUEST"
	EntityTypeRetentionJob  = "RETENTION_JOB"
	EntityTypePolicy        = "RETENTION_POLICY"
)

// AuditSearchFilters narrows audit listing for the admin surface.
type AuditSearchFilters struct {
	EntityType string
	EntityID   string
	UserID     string
	Action     string
	Limit      int
	Offset     int
}

// AuditListResponse is the admin listing payload.
type AuditListResponse struct {
	Data  []AuditLogEntry `json:"data"`
	Total int             `json:"total"`
}
