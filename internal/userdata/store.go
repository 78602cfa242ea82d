// Package userdata adapts the primary application data store (fitness
// profile and activity tables) for the privacy workflows: export
// collection, rectification field updates, deletion execution and
// retention purges.
package userdata

import (
	"context"
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/log"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
	udmodel "github.com/fittrack/privacy-rights-api/internal/userdata/model"
)

// DBQuery objects for user data operations
var (
	QueryGetUserProfile = model.DBQuery{
		ID:    "GET_USER_PROFILE",
		Query: "SELECT USER_ID, EMAIL, PHONE_NUMBER, FIRST_NAME, LAST_NAME, BIRTH_DATE, EMERGENCY_CONTACT, HEIGHT_CM, WEIGHT_KG, IS_DELETED, CREATED_TIME, UPDATED_TIME FROM USER_PROFILE WHERE USER_ID = ?",
	}

	QueryGetWorkoutsByUser = model.DBQuery{
		ID:    "GET_WORKOUTS_BY_USER",
		Query: "SELECT SESSION_ID, USER_ID, ACTIVITY_TYPE, START_TIME, DURATION_SECONDS, DISTANCE_METERS, CALORIES, AVG_HEART_RATE, NOTES, CREATED_TIME FROM WORKOUT_SESSION WHERE USER_ID = ? ORDER BY START_TIME DESC",
	}

	QueryGetHealthMetricsByUser = model.DBQuery{
		ID:    "GET_HEALTH_METRICS_BY_USER",
		Query: "SELECT METRIC_ID, USER_ID, METRIC_TYPE, METRIC_VALUE, UNIT, RECORDED_TIME FROM HEALTH_METRIC WHERE USER_ID = ? ORDER BY RECORDED_TIME DESC",
	}

	QueryGetNutritionLogsByUser = model.DBQuery{
		ID:    "GET_NUTRITION_LOGS_BY_USER",
		Query: "SELECT LOG_ID, USER_ID, MEAL_TYPE, DESCRIPTION, CALORIES, LOGGED_TIME FROM NUTRITION_LOG WHERE USER_ID = ? ORDER BY LOGGED_TIME DESC",
	}

	QuerySetDeletionFlag = model.DBQuery{
		ID:    "SET_USER_DELETION_FLAG",
		Query: "UPDATE USER_PROFILE SET IS_DELETED = 1, DELETED_TIME = ?, UPDATED_TIME = ? WHERE USER_ID = ?",
	}

	QueryClearDeletionFlag = model.DBQuery{
		ID:    "CLEAR_USER_DELETION_FLAG",
		Query: "UPDATE USER_PROFILE SET IS_DELETED = 0, DELETED_TIME = NULL, UPDATED_TIME = ? WHERE USER_ID = ?",
	}

	QueryDeleteUserProfile = model.DBQuery{
		ID:    "DELETE_USER_PROFILE",
		Query: "DELETE FROM USER_PROFILE WHERE USER_ID = ?",
	}

	QueryDeleteWorkoutsByUser = model.DBQuery{
		ID:    "DELETE_WORKOUTS_BY_USER",
		Query: "DELETE FROM WORKOUT_SESSION WHERE USER_ID = ?",
	}

	QueryDeleteHealthMetricsByUser = model.DBQuery{
		ID:    "DELETE_HEALTH_METRICS_BY_USER",
		Query: "DELETE FROM HEALTH_METRIC WHERE USER_ID = ?",
	}

	QueryDeleteNutritionLogsByUser = model.DBQuery{
		ID:    "DELETE_NUTRITION_LOGS_BY_USER",
		Query: "DELETE FROM NUTRITION_LOG WHERE USER_ID = ?",
	}

	QueryAnonymizeUserProfile = model.DBQuery{
		ID:    "ANONYMIZE_USER_PROFILE",
		Query: "UPDATE USER_PROFILE SET EMAIL = ?, PHONE_NUMBER = ?, FIRST_NAME = ?, LAST_NAME = ?, BIRTH_DATE = NULL, EMERGENCY_CONTACT = ?, UPDATED_TIME = ? WHERE USER_ID = ?",
	}

	QueryPurgeWorkoutsOlderThan = model.DBQuery{
		ID:    "PURGE_WORKOUTS_OLDER_THAN",
		Query: "DELETE FROM WORKOUT_SESSION WHERE CREATED_TIME < ?",
	}

	QueryPurgeHealthMetricsOlderThan = model.DBQuery{
		ID:    "PURGE_HEALTH_METRICS_OLDER_THAN",
		Query: "DELETE FROM HEALTH_METRIC WHERE RECORDED_TIME < ?",
	}

	QueryPurgeNutritionLogsOlderThan = model.DBQuery{
		ID:    "PURGE_NUTRITION_LOGS_OLDER_THAN",
		Query: "DELETE FROM NUTRITION_LOG WHERE LOGGED_TIME < ?",
	}
)

// rectifiableColumns whitelists the columns a rectification request may
// update, keyed by data type and API field name. Anything outside the
// map is rejected before a query is built.
var rectifiableColumns = map[string]map[string]string{
	udmodel.DataTypeUserProfile: {
		"email":            "EMAIL",
		"phone":            "PHONE_NUMBER",
		"firstName":        "FIRST_NAME",
		"lastName":         "LAST_NAME",
		"birthdate":        "BIRTH_DATE",
		"emergencyContact": "EMERGENCY_CONTACT",
	},
	udmodel.DataTypeHealthMetrics: {
		"height": "HEIGHT_CM",
		"weight": "WEIGHT_KG",
	},
}

// UserDataStore is the collaborator interface the privacy workflows
// consume for touching real application data.
type UserDataStore interface {
	Collect(ctx context.Context, userID string) (*udmodel.ExportBundle, error)
	UpdateField(ctx context.Context, userID, dataType, fieldName, value string) error
	SetDeletionFlag(ctx context.Context, userID string, deletedTime int64) error
	ClearDeletionFlag(ctx context.Context, userID string) error
	HardDelete(ctx context.Context, userID string) error
	Anonymize(ctx context.Context, userID string) error
	PurgeOlderThan(ctx context.Context, dataType string, cutoff int64) (udmodel.PurgeResult, error)
}

// store implements the UserDataStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// NewStore creates a new user data store.
func NewStore(dbClient provider.DBClientInterface) UserDataStore {
	return &store{
		dbClient: dbClient,
	}
}

// Collect gathers every personal-data section for an export payload.
func (s *store) Collect(ctx context.Context, userID string) (*udmodel.ExportBundle, error) {
	profileRows, err := s.dbClient.Query(&QueryGetUserProfile, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to read user profile: %w", err)
	}
	if len(profileRows) == 0 {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	bundle := &udmodel.ExportBundle{
		UserID:        userID,
		Profile:       profileRows[0],
		CollectedTime: utils.GetCurrentTimeMillis(),
	}

	if bundle.Workouts, err = s.dbClient.Query(&QueryGetWorkoutsByUser, userID); err != nil {
		return nil, fmt.Errorf("failed to read workouts: %w", err)
	}
	if bundle.HealthMetrics, err = s.dbClient.Query(&QueryGetHealthMetricsByUser, userID); err != nil {
		return nil, fmt.Errorf("failed to read health metrics: %w", err)
	}
	if bundle.NutritionLogs, err = s.dbClient.Query(&QueryGetNutritionLogsByUser, userID); err != nil {
		return nil, fmt.Errorf("failed to read nutrition logs: %w", err)
	}

	return bundle, nil
}

// UpdateField applies an approved rectification to a whitelisted column.
func (s *store) UpdateField(ctx context.Context, userID, dataType, fieldName, value string) error {
	fields, ok := rectifiableColumns[dataType]
	if !ok {
		return fmt.Errorf("data type %s has no rectifiable fields", dataType)
	}
	column, ok := fields[fieldName]
	if !ok {
		return fmt.Errorf("field %s of %s is not rectifiable", fieldName, dataType)
	}

	table := "USER_PROFILE"
	query := model.DBQuery{
		ID:    "RECTIFY_" + dataType + "_" + column,
		Query: fmt.Sprintf("UPDATE %s SET %s = ?, UPDATED_TIME = ? WHERE USER_ID = ?", table, column),
	}

	rows, err := s.dbClient.Execute(query, value, utils.GetCurrentTimeMillis(), userID)
	if err != nil {
		return fmt.Errorf("failed to rectify %s.%s: %w", dataType, fieldName, err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// SetDeletionFlag marks the account deleted without removing data.
func (s *store) SetDeletionFlag(ctx context.Context, userID string, deletedTime int64) error {
	rows, err := s.dbClient.Execute(QuerySetDeletionFlag, deletedTime, utils.GetCurrentTimeMillis(), userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// ClearDeletionFlag reinstates a soft-deleted account during recovery.
func (s *store) ClearDeletionFlag(ctx context.Context, userID string) error {
	rows, err := s.dbClient.Execute(QueryClearDeletionFlag, utils.GetCurrentTimeMillis(), userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// HardDelete removes the account and every dependent activity row.
func (s *store) HardDelete(ctx context.Context, userID string) error {
	for _, query := range []model.DBQuery{
		QueryDeleteWorkoutsByUser,
		QueryDeleteHealthMetricsByUser,
		QueryDeleteNutritionLogsByUser,
		QueryDeleteUserProfile,
	} {
		if _, err := s.dbClient.Execute(query, userID); err != nil {
			return fmt.Errorf("hard delete failed at %s: %w", query.ID, err)
		}
	}
	return nil
}

// Anonymize overwrites identifying profile fields with randomized
// placeholders. Activity history stays intact.
func (s *store) Anonymize(ctx context.Context, userID string) error {
	rows, err := s.dbClient.Execute(QueryAnonymizeUserProfile,
		utils.AnonymizedPlaceholder("email"),
		utils.AnonymizedPlaceholder("phone"),
		utils.AnonymizedPlaceholder("firstName"),
		utils.AnonymizedPlaceholder("lastName"),
		utils.AnonymizedPlaceholder("emergencyContact"),
		utils.GetCurrentTimeMillis(),
		userID)
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// PurgeOlderThan removes aged rows of one data type for the retention
// sweep and tallies the outcome.
func (s *store) PurgeOlderThan(ctx context.Context, dataType string, cutoff int64) (udmodel.PurgeResult, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "UserDataStore"))

	var query model.DBQuery
	switch dataType {
	case udmodel.DataTypeWorkoutData:
		query = QueryPurgeWorkoutsOlderThan
	case udmodel.DataTypeHealthMetrics:
		query = QueryPurgeHealthMetricsOlderThan
	case udmodel.DataTypeNutritionLogs:
		query = QueryPurgeNutritionLogsOlderThan
	default:
		return udmodel.PurgeResult{}, fmt.Errorf("data type %s is not purgeable here", dataType)
	}

	rows, err := s.dbClient.Execute(query, cutoff)
	if err != nil {
		logger.Error("Retention purge failed", log.Error(err), log.String("data_type", dataType))
		return udmodel.PurgeResult{Failed: 1}, err
	}
	return udmodel.PurgeResult{Processed: rows}, nil
}
