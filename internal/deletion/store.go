package deletion

import (
	"context"

	"github.com/fittrack/privacy-rights-api/internal/deletion/model"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
)

const deletionColumns = "REQUEST_ID, USER_ID, REASON, DELETION_TYPE, STATUS, CONFIRMATION_TOKEN, TOKEN_EXPIRATION_DATE, CONFIRMATION_DATE, SCHEDULED_DELETION_DATE, RECOVERY_PERIOD_DAYS, RECOVERY_DEADLINE, IS_RECOVERY_ACTIVE, PROCESSED_BY, CREATED_TIME, UPDATED_TIME"

// DBQuery objects for account deletion workflow operations
var (
	// QueryCreateDeletionIfNoneActive inserts only when the user has no
	// active request: Pending, or Processing with the recovery period
	// still open. Zero rows affected means a conflict.
	QueryCreateDeletionIfNoneActive = dbmodel.DBQuery{
		ID: "CREATE_DELETION_IF_NONE_ACTIVE",
		Query: "INSERT INTO ACCOUNT_DELETION_REQUEST (REQUEST_ID, USER_ID, REASON, DELETION_TYPE, STATUS, CONFIRMATION_TOKEN, TOKEN_EXPIRATION_DATE, RECOVERY_PERIOD_DAYS, IS_RECOVERY_ACTIVE, CREATED_TIME, UPDATED_TIME) " +
			"SELECT ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ? FROM DUAL " +
			"WHERE NOT EXISTS (SELECT 1 FROM ACCOUNT_DELETION_REQUEST WHERE USER_ID = ? AND (STATUS = 'PENDING' OR (STATUS = 'PROCESSING' AND IS_RECOVERY_ACTIVE = 1)))",
	}

	QueryGetDeletionByID = dbmodel.DBQuery{
		ID:    "GET_DELETION_BY_ID",
		Query: "SELECT " + deletionColumns + " FROM ACCOUNT_DELETION_REQUEST WHERE REQUEST_ID = ?",
	}

	QueryGetDeletionByToken = dbmodel.DBQuery{
		ID:    "GET_DELETION_BY_TOKEN",
		Query: "SELECT " + deletionColumns + " FROM ACCOUNT_DELETION_REQUEST WHERE CONFIRMATION_TOKEN = ?",
	}

	QueryGetActiveDeletionByUser = dbmodel.DBQuery{
		ID:    "GET_ACTIVE_DELETION_BY_USER",
		Query: "SELECT " + deletionColumns + " FROM ACCOUNT_DELETION_REQUEST WHERE USER_ID = ? AND (STATUS = 'PENDING' OR (STATUS = 'PROCESSING' AND IS_RECOVERY_ACTIVE = 1)) LIMIT 1",
	}

	QueryListDeletionsByUser = dbmodel.DBQuery{
		ID:    "LIST_DELETIONS_BY_USER",
		Query: "SELECT " + deletionColumns + " FROM ACCOUNT_DELETION_REQUEST WHERE USER_ID = ? ORDER BY CREATED_TIME DESC",
	}

	// QueryConfirmDeletionByToken is the single-use confirmation: the
	// row must still be Pending and the token unexpired, and the status
	// change burns the token for any replay.
	QueryConfirmDeletionByToken = dbmodel.DBQuery{
		ID: "CONFIRM_DELETION_BY_TOKEN",
		Query: "UPDATE ACCOUNT_DELETION_REQUEST SET STATUS = ?, CONFIRMATION_DATE = ?, SCHEDULED_DELETION_DATE = ?, RECOVERY_DEADLINE = ?, IS_RECOVERY_ACTIVE = 1, UPDATED_TIME = ? " +
			"WHERE CONFIRMATION_TOKEN = ? AND STATUS = ? AND TOKEN_EXPIRATION_DATE > ?",
	}

	// QueryCancelDeletion cancels a confirmed request while the recovery
	// window is still open.
	QueryCancelDeletion = dbmodel.DBQuery{
		ID: "CANCEL_DELETION",
		Query: "UPDATE ACCOUNT_DELETION_REQUEST SET STATUS = ?, IS_RECOVERY_ACTIVE = 0, UPDATED_TIME = ? " +
			"WHERE REQUEST_ID = ? AND STATUS = ? AND IS_RECOVERY_ACTIVE = 1 AND RECOVERY_DEADLINE > ?",
	}

	// QueryClaimDeletionForExecution marks the request as being executed
	// by one actor. PROCESSED_BY doubles as the claim marker, so two
	// executors racing on the same due request resolve to one winner.
	QueryClaimDeletionForExecution = dbmodel.DBQuery{
		ID: "CLAIM_DELETION_FOR_EXECUTION",
		Query: "UPDATE ACCOUNT_DELETION_REQUEST SET PROCESSED_BY = ?, UPDATED_TIME = ? " +
			"WHERE REQUEST_ID = ? AND STATUS = ? AND PROCESSED_BY IS NULL " +
			"AND SCHEDULED_DELETION_DATE <= ? AND (IS_RECOVERY_ACTIVE = 0 OR RECOVERY_DEADLINE <= ?)",
	}

	QueryFinishDeletion = dbmodel.DBQuery{
		ID: "FINISH_DELETION",
		Query: "UPDATE ACCOUNT_DELETION_REQUEST SET STATUS = ?, PROCESSED_BY = ?, IS_RECOVERY_ACTIVE = 0, UPDATED_TIME = ? " +
			"WHERE REQUEST_ID = ? AND STATUS = ?",
	}

	QueryExpireDeletion = dbmodel.DBQuery{
		ID:    "EXPIRE_DELETION",
		Query: "UPDATE ACCOUNT_DELETION_REQUEST SET STATUS = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = ? AND TOKEN_EXPIRATION_DATE <= ?",
	}

	QueryListPendingExpiredTokens = dbmodel.DBQuery{
		ID:    "LIST_PENDING_EXPIRED_TOKENS",
		Query: "SELECT " + deletionColumns + " FROM ACCOUNT_DELETION_REQUEST WHERE STATUS = 'PENDING' AND TOKEN_EXPIRATION_DATE <= ?",
	}

	// QueryListDueForExecution finds confirmed requests whose scheduled
	// date has arrived and whose recovery window is over.
	QueryListDueForExecution = dbmodel.DBQuery{
		ID: "LIST_DELETIONS_DUE_FOR_EXECUTION",
		Query: "SELECT " + deletionColumns + " FROM ACCOUNT_DELETION_REQUEST " +
			"WHERE STATUS = 'PROCESSING' AND SCHEDULED_DELETION_DATE <= ? AND (IS_RECOVERY_ACTIVE = 0 OR RECOVERY_DEADLINE <= ?)",
	}
)

// DeletionStore defines the interface for account deletion persistence.
type DeletionStore interface {
	// CreateIfNoneActive inserts the request unless the user already has
	// an active one. Returns false on a conflict.
	CreateIfNoneActive(ctx context.Context, request *model.AccountDeletionRequest) (bool, error)
	GetByID(ctx context.Context, requestID string) (*model.AccountDeletionRequest, error)
	GetByToken(ctx context.Context, token string) (*model.AccountDeletionRequest, error)
	GetActiveByUser(ctx context.Context, userID string) (*model.AccountDeletionRequest, error)
	ListByUser(ctx context.Context, userID string) ([]model.AccountDeletionRequest, error)

	// ConfirmByToken applies the single-use confirmation. Returns false
	// when the token is unknown, already used or expired.
	ConfirmByToken(ctx context.Context, token string, confirmationDate, scheduledDate, recoveryDeadline, now int64) (bool, error)
	// Cancel closes a Processing request whose recovery window is open.
	Cancel(ctx context.Context, requestID string, now int64) (bool, error)
	// ClaimForExecution marks a due, unrecoverable Processing request as
	// being executed. Returns false when another executor holds it, the
	// schedule has not arrived, or the recovery window is still open.
	ClaimForExecution(ctx context.Context, requestID, processedBy string, now int64) (bool, error)
	// Finish records the execution outcome for a Processing request.
	Finish(ctx context.Context, requestID string, status model.DeletionStatus, processedBy string, now int64) (bool, error)
	// Expire closes a Pending request whose token has lapsed.
	Expire(ctx context.Context, requestID string, now int64) (bool, error)

	ListPendingExpiredTokens(ctx context.Context, now int64) ([]model.AccountDeletionRequest, error)
	ListDueForExecution(ctx context.Context, now int64) ([]model.AccountDeletionRequest, error)
}

// store implements the DeletionStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// newDeletionStore creates a new deletion store
func newDeletionStore(dbClient provider.DBClientInterface) DeletionStore {
	return &store{
		dbClient: dbClient,
	}
}

// CreateIfNoneActive inserts the request behind the single-active guard.
func (s *store) CreateIfNoneActive(ctx context.Context, request *model.AccountDeletionRequest) (bool, error) {
	rows, err := s.dbClient.Execute(QueryCreateDeletionIfNoneActive,
		request.RequestID, request.UserID, request.Reason, string(request.DeletionType),
		string(request.Status), request.ConfirmationToken, request.TokenExpirationDate,
		request.RecoveryPeriodDays, request.CreatedTime, request.UpdatedTime,
		request.UserID)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetByID retrieves one deletion request.
func (s *store) GetByID(ctx context.Context, requestID string) (*model.AccountDeletionRequest, error) {
	return s.getOne(QueryGetDeletionByID, requestID)
}

// GetByToken retrieves the request holding a confirmation token.
func (s *store) GetByToken(ctx context.Context, token string) (*model.AccountDeletionRequest, error) {
	return s.getOne(QueryGetDeletionByToken, token)
}

// GetActiveByUser retrieves the user's active request, if any.
func (s *store) GetActiveByUser(ctx context.Context, userID string) (*model.AccountDeletionRequest, error) {
	return s.getOne(QueryGetActiveDeletionByUser, userID)
}

func (s *store) getOne(query dbmodel.DBQuery, arg interface{}) (*model.AccountDeletionRequest, error) {
	rows, err := s.dbClient.Query(query, arg)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToDeletionRequest(rows[0]), nil
}

// ListByUser retrieves a user's requests, newest first.
func (s *store) ListByUser(ctx context.Context, userID string) ([]model.AccountDeletionRequest, error) {
	rows, err := s.dbClient.Query(QueryListDeletionsByUser, userID)
	if err != nil {
		return nil, err
	}
	return mapToDeletionRequests(rows), nil
}

// ConfirmByToken applies the single-use confirmation.
func (s *store) ConfirmByToken(ctx context.Context, token string, confirmationDate, scheduledDate, recoveryDeadline, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryConfirmDeletionByToken,
		string(model.DeletionStatusProcessing), confirmationDate, scheduledDate, recoveryDeadline, now,
		token, string(model.DeletionStatusPending), now)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Cancel closes a Processing request inside its recovery window.
func (s *store) Cancel(ctx context.Context, requestID string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryCancelDeletion,
		string(model.DeletionStatusCancelled), now,
		requestID, string(model.DeletionStatusProcessing), now)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ClaimForExecution marks the request as held by one executor.
func (s *store) ClaimForExecution(ctx context.Context, requestID, processedBy string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryClaimDeletionForExecution,
		processedBy, now,
		requestID, string(model.DeletionStatusProcessing), now, now)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Finish records the terminal execution outcome.
func (s *store) Finish(ctx context.Context, requestID string, status model.DeletionStatus, processedBy string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryFinishDeletion,
		string(status), processedBy, now,
		requestID, string(model.DeletionStatusProcessing))
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Expire closes a Pending request whose token lapsed.
func (s *store) Expire(ctx context.Context, requestID string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryExpireDeletion,
		string(model.DeletionStatusExpired), now,
		requestID, string(model.DeletionStatusPending), now)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ListPendingExpiredTokens finds unconfirmed requests with lapsed tokens.
func (s *store) ListPendingExpiredTokens(ctx context.Context, now int64) ([]model.AccountDeletionRequest, error) {
	rows, err := s.dbClient.Query(QueryListPendingExpiredTokens, now)
	if err != nil {
		return nil, err
	}
	return mapToDeletionRequests(rows), nil
}

// ListDueForExecution finds confirmed requests ready to execute.
func (s *store) ListDueForExecution(ctx context.Context, now int64) ([]model.AccountDeletionRequest, error) {
	rows, err := s.dbClient.Query(QueryListDueForExecution, now, now)
	if err != nil {
		return nil, err
	}
	return mapToDeletionRequests(rows), nil
}

// Mapper functions

func mapToDeletionRequests(rows []map[string]interface{}) []model.AccountDeletionRequest {
	requests := make([]model.AccountDeletionRequest, 0, len(rows))
	for _, row := range rows {
		request := mapToDeletionRequest(row)
		if request != nil {
			requests = append(requests, *request)
		}
	}
	return requests
}

func mapToDeletionRequest(row map[string]interface{}) *model.AccountDeletionRequest {
	if row == nil {
		return nil
	}

	request := &model.AccountDeletionRequest{}

	if id, ok := row["REQUEST_ID"].(string); ok {
		request.RequestID = id
	}
	if userID, ok := row["USER_ID"].(string); ok {
		request.UserID = userID
	}
	if reason, ok := row["REASON"].(string); ok {
		request.Reason = reason
	}
	if deletionType, ok := row["DELETION_TYPE"].(string); ok {
		request.DeletionType = model.DeletionType(deletionType)
	}
	if status, ok := row["STATUS"].(string); ok {
		request.Status = model.DeletionStatus(status)
	}
	if token, ok := row["CONFIRMATION_TOKEN"].(string); ok {
		request.ConfirmationToken = token
	}
	if expiration, ok := row["TOKEN_EXPIRATION_DATE"].(int64); ok {
		request.TokenExpirationDate = expiration
	}
	if confirmation, ok := row["CONFIRMATION_DATE"].(int64); ok {
		request.ConfirmationDate = &confirmation
	}
	if scheduled, ok := row["SCHEDULED_DELETION_DATE"].(int64); ok {
		request.ScheduledDeletionDate = &scheduled
	}
	if days, ok := row["RECOVERY_PERIOD_DAYS"].(int64); ok {
		request.RecoveryPeriodDays = int(days)
	}
	if deadline, ok := row["RECOVERY_DEADLINE"].(int64); ok {
		request.RecoveryDeadline = &deadline
	}
	if active, ok := row["IS_RECOVERY_ACTIVE"].(int64); ok {
		request.IsRecoveryActive = active != 0
	} else if active, ok := row["IS_RECOVERY_ACTIVE"].(bool); ok {
		request.IsRecoveryActive = active
	}
	if processedBy, ok := row["PROCESSED_BY"].(string); ok {
		request.ProcessedBy = &processedBy
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		request.CreatedTime = created
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		request.UpdatedTime = updated
	}

	return request
}
