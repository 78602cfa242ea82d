package rectification

import (
	"context"

	"github.com/fittrack/privacy-rights-api/internal/rectification/model"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
)

const rectificationColumns = "REQUEST_ID, USER_ID, DATA_TYPE, FIELD_NAME, CURRENT_VALUE, REQUESTED_VALUE, REASON, STATUS, PRIORITY, REQUEST_DATE, REVIEW_DATE, REVIEWED_BY, REVIEW_NOTES, REJECTION_REASON, PROCESSED_DATE, CREATED_TIME, UPDATED_TIME"

// DBQuery objects for rectification workflow operations
var (
	// QueryCreateRectificationIfNoOpen inserts only when no open (Pending
	// or Processing) request exists for the same user, data type and
	// field. Zero rows affected means a duplicate.
	QueryCreateRectificationIfNoOpen = dbmodel.DBQuery{
		ID: "CREATE_RECTIFICATION_IF_NO_OPEN",
		Query: "INSERT INTO DATA_RECTIFICATION_REQUEST (REQUEST_ID, USER_ID, DATA_TYPE, FIELD_NAME, CURRENT_VALUE, REQUESTED_VALUE, REASON, STATUS, PRIORITY, REQUEST_DATE, CREATED_TIME, UPDATED_TIME) " +
			"SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ? FROM DUAL " +
			"WHERE NOT EXISTS (SELECT 1 FROM DATA_RECTIFICATION_REQUEST WHERE USER_ID = ? AND DATA_TYPE = ? AND FIELD_NAME = ? AND STATUS IN ('PENDING', 'PROCESSING'))",
	}

	QueryGetRectificationByID = dbmodel.DBQuery{
		ID:    "GET_RECTIFICATION_BY_ID",
		Query: "SELECT " + rectificationColumns + " FROM DATA_RECTIFICATION_REQUEST WHERE REQUEST_ID = ?",
	}

	QueryListRectificationsByUser = dbmodel.DBQuery{
		ID:    "LIST_RECTIFICATIONS_BY_USER",
		Query: "SELECT " + rectificationColumns + " FROM DATA_RECTIFICATION_REQUEST WHERE USER_ID = ? ORDER BY REQUEST_DATE DESC",
	}

	// QueryListPendingRectifications orders the review queue by urgency
	// first, then age.
	QueryListPendingRectifications = dbmodel.DBQuery{
		ID:    "LIST_PENDING_RECTIFICATIONS",
		Query: "SELECT " + rectificationColumns + " FROM DATA_RECTIFICATION_REQUEST WHERE STATUS = 'PENDING' ORDER BY PRIORITY ASC, REQUEST_DATE ASC",
	}

	QueryApproveRectification = dbmodel.DBQuery{
		ID:    "APPROVE_RECTIFICATION",
		Query: "UPDATE DATA_RECTIFICATION_REQUEST SET STATUS = ?, REVIEW_DATE = ?, REVIEWED_BY = ?, REVIEW_NOTES = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = ?",
	}

	QueryRejectRectification = dbmodel.DBQuery{
		ID:    "REJECT_RECTIFICATION",
		Query: "UPDATE DATA_RECTIFICATION_REQUEST SET STATUS = ?, REVIEW_DATE = ?, REVIEWED_BY = ?, REVIEW_NOTES = ?, REJECTION_REASON = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = ?",
	}

	QueryCompleteRectification = dbmodel.DBQuery{
		ID:    "COMPLETE_RECTIFICATION",
		Query: "UPDATE DATA_RECTIFICATION_REQUEST SET STATUS = ?, PROCESSED_DATE = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = ?",
	}

	QueryFailRectification = dbmodel.DBQuery{
		ID:    "FAIL_RECTIFICATION",
		Query: "UPDATE DATA_RECTIFICATION_REQUEST SET STATUS = ?, REJECTION_REASON = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = ?",
	}

	QueryDeleteRectificationsByUser = dbmodel.DBQuery{
		ID:    "DELETE_RECTIFICATIONS_BY_USER",
		Query: "DELETE FROM DATA_RECTIFICATION_REQUEST WHERE USER_ID = ?",
	}
)

// RectificationStore defines the interface for rectification persistence.
// Exported so the deletion module can remove a user's requests through
// the registry.
type RectificationStore interface {
	// CreateIfNoOpen inserts the request unless an open request already
	// exists for the same (user, dataType, field). Returns false on a
	// duplicate.
	CreateIfNoOpen(ctx context.Context, request *model.DataRectificationRequest) (bool, error)
	GetByID(ctx context.Context, requestID string) (*model.DataRectificationRequest, error)
	ListByUser(ctx context.Context, userID string) ([]model.DataRectificationRequest, error)
	ListPending(ctx context.Context) ([]model.DataRectificationRequest, error)

	// Approve and Reject are check-and-set moves out of Pending; Complete
	// and Fail are check-and-set moves out of Processing. Each returns
	// false when the row was not in the expected status.
	Approve(ctx context.Context, requestID, reviewedBy, reviewNotes string, now int64) (bool, error)
	Reject(ctx context.Context, requestID, reviewedBy, reviewNotes, rejectionReason string, now int64) (bool, error)
	Complete(ctx context.Context, requestID string, now int64) (bool, error)
	Fail(ctx context.Context, requestID, reason string, now int64) (bool, error)

	DeleteByUser(ctx context.Context, userID string) error
}

// store implements the RectificationStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// newRectificationStore creates a new rectification store
func newRectificationStore(dbClient provider.DBClientInterface) RectificationStore {
	return &store{
		dbClient: dbClient,
	}
}

// CreateIfNoOpen inserts the request behind the duplicate guard.
func (s *store) CreateIfNoOpen(ctx context.Context, request *model.DataRectificationRequest) (bool, error) {
	rows, err := s.dbClient.Execute(QueryCreateRectificationIfNoOpen,
		request.RequestID, request.UserID, request.DataType, request.FieldName,
		request.CurrentValue, request.RequestedValue, request.Reason,
		string(request.Status), request.Priority, request.RequestDate,
		request.CreatedTime, request.UpdatedTime,
		request.UserID, request.DataType, request.FieldName)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetByID retrieves one rectification request.
func (s *store) GetByID(ctx context.Context, requestID string) (*model.DataRectificationRequest, error) {
	rows, err := s.dbClient.Query(QueryGetRectificationByID, requestID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToRectificationRequest(rows[0]), nil
}

// ListByUser retrieves a user's requests, newest first.
func (s *store) ListByUser(ctx context.Context, userID string) ([]model.DataRectificationRequest, error) {
	rows, err := s.dbClient.Query(QueryListRectificationsByUser, userID)
	if err != nil {
		return nil, err
	}
	return mapToRectificationRequests(rows), nil
}

// ListPending retrieves the review queue, most urgent and oldest first.
func (s *store) ListPending(ctx context.Context) ([]model.DataRectificationRequest, error) {
	rows, err := s.dbClient.Query(QueryListPendingRectifications)
	if err != nil {
		return nil, err
	}
	return mapToRectificationRequests(rows), nil
}

// Approve moves Pending to Processing with the reviewer decision.
func (s *store) Approve(ctx context.Context, requestID, reviewedBy, reviewNotes string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryApproveRectification,
		string(model.RectificationStatusProcessing), now, reviewedBy, reviewNotes, now,
		requestID, string(model.RectificationStatusPending))
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Reject moves Pending to Failed with the rejection reason.
func (s *store) Reject(ctx context.Context, requestID, reviewedBy, reviewNotes, rejectionReason string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryRejectRectification,
		string(model.RectificationStatusFailed), now, reviewedBy, reviewNotes, rejectionReason, now,
		requestID, string(model.RectificationStatusPending))
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Complete moves Processing to Completed with the processed date.
func (s *store) Complete(ctx context.Context, requestID string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryCompleteRectification,
		string(model.RectificationStatusCompleted), now, now,
		requestID, string(model.RectificationStatusProcessing))
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Fail moves Processing to Failed with the failure reason.
func (s *store) Fail(ctx context.Context, requestID, reason string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryFailRectification,
		string(model.RectificationStatusFailed), reason, now,
		requestID, string(model.RectificationStatusProcessing))
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// DeleteByUser removes every rectification request of one user.
func (s *store) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.dbClient.Execute(QueryDeleteRectificationsByUser, userID)
	return err
}

// Mapper functions

func mapToRectificationRequests(rows []map[string]interface{}) []model.DataRectificationRequest {
	requests := make([]model.DataRectificationRequest, 0, len(rows))
	for _, row := range rows {
		request := mapToRectificationRequest(row)
		if request != nil {
			requests = append(requests, *request)
		}
	}
	return requests
}

func mapToRectificationRequest(row map[string]interface{}) *model.DataRectificationRequest {
	if row == nil {
		return nil
	}

	request := &model.DataRectificationRequest{}

	if id, ok := row["REQUEST_ID"].(string); ok {
		request.RequestID = id
	}
	if userID, ok := row["USER_ID"].(string); ok {
		request.UserID = userID
	}
	if dataType, ok := row["DATA_TYPE"].(string); ok {
		request.DataType = dataType
	}
	if field, ok := row["FIELD_NAME"].(string); ok {
		request.FieldName = field
	}
	if current, ok := row["CURRENT_VALUE"].(string); ok {
		request.CurrentValue = current
	}
	if requested, ok := row["REQUESTED_VALUE"].(string); ok {
		request.RequestedValue = requested
	}
	if reason, ok := row["REASON"].(string); ok {
		request.Reason = reason
	}
	if status, ok := row["STATUS"].(string); ok {
		request.Status = model.RectificationStatus(status)
	}
	if priority, ok := row["PRIORITY"].(int64); ok {
		request.Priority = int(priority)
	}
	if requestDate, ok := row["REQUEST_DATE"].(int64); ok {
		request.RequestDate = requestDate
	}
	if reviewDate, ok := row["REVIEW_DATE"].(int64); ok {
		request.ReviewDate = &reviewDate
	}
	if reviewedBy, ok := row["REVIEWED_BY"].(string); ok {
		request.ReviewedBy = &reviewedBy
	}
	if notes, ok := row["REVIEW_NOTES"].(string); ok {
		request.ReviewNotes = &notes
	}
	if rejection, ok := row["REJECTION_REASON"].(string); ok {
		request.RejectionReason = &rejection
	}
	if processed, ok := row["PROCESSED_DATE"].(int64); ok {
		request.ProcessedDate = &processed
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		request.CreatedTime = created
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		request.UpdatedTime = updated
	}

	return request
}
