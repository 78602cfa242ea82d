package model

// Data type keys used by rectification dispatch and retention policies.
const (
	DataTypeUserProfile    = "USER_PROFILE"
	DataTypeWorkoutData    = "WORKOUT_DATA"
	DataTypeHealthMetrics  = "HEALTH_METRICS"
	DataTypeNutritionLogs  = "NUTRITION_LOGS"
	DataTypeConsentRecords = "CONSENT_RECORDS"
	DataTypeAuditLogs      = "AUDIT_LOGS"
)

// ExportBundle is the complete set of personal data collected for a
// subject-access export. Sections are generic row maps so the
// serializers stay independent of the application schema.
type ExportBundle struct {
	UserID        string                   `json:"userId"`
	Profile       map[string]interface{}   `json:"profile"`
	Workouts      []map[string]interface{} `json:"workouts"`
	HealthMetrics []map[string]interface{} `json:"healthMetrics"`
	NutritionLogs []map[string]interface{} `json:"nutritionLogs"`
	CollectedTime int64                    `json:"collectedTime"`
}

// PurgeResult tallies a retention purge pass over one data type.
type PurgeResult struct {
	Processed int64
	Failed    int64
}
