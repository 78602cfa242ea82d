package export

import (
	"context"

	"github.com/fittrack/privacy-rights-api/internal/export/model"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
)

const exportColumns = "REQUEST_ID, USER_ID, STATUS, FORMAT, REQUEST_DATE, EXPIRATION_DATE, COMPLETED_DATE, ARTIFACT_REF, FILE_SIZE_BYTES, ERROR_MESSAGE, DOWNLOAD_COUNT, LAST_DOWNLOAD_DATE, CREATED_TIME, UPDATED_TIME"

// DBQuery objects for export workflow operations
var (
	// QueryCreateExportIfAllowed inserts only when the user has no export
	// request newer than the rate-limit window start. Zero rows affected
	// means the rate limit applies.
	QueryCreateExportIfAllowed = dbmodel.DBQuery{
		ID: "CREATE_EXPORT_IF_ALLOWED",
		Query: "INSERT INTO DATA_EXPORT_REQUEST (REQUEST_ID, USER_ID, STATUS, FORMAT, REQUEST_DATE, EXPIRATION_DATE, DOWNLOAD_COUNT, CREATED_TIME, UPDATED_TIME) " +
			"SELECT ?, ?, ?, ?, ?, ?, 0, ?, ? FROM DUAL " +
			"WHERE NOT EXISTS (SELECT 1 FROM DATA_EXPORT_REQUEST WHERE USER_ID = ? AND REQUEST_DATE > ?)",
	}

	QueryGetExportByID = dbmodel.DBQuery{
		ID:    "GET_EXPORT_BY_ID",
		Query: "SELECT " + exportColumns + " FROM DATA_EXPORT_REQUEST WHERE REQUEST_ID = ?",
	}

	QueryListExportsByUser = dbmodel.DBQuery{
		ID:    "LIST_EXPORTS_BY_USER",
		Query: "SELECT " + exportColumns + " FROM DATA_EXPORT_REQUEST WHERE USER_ID = ? ORDER BY REQUEST_DATE DESC",
	}

	// QueryTransitionExportStatus is the check-and-set transition: the
	// update applies only when the row still holds the expected status.
	QueryTransitionExportStatus = dbmodel.DBQuery{
		ID:    "TRANSITION_EXPORT_STATUS",
		Query: "UPDATE DATA_EXPORT_REQUEST SET STATUS = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = ?",
	}

	QueryCompleteExport = dbmodel.DBQuery{
		ID:    "COMPLETE_EXPORT",
		Query: "UPDATE DATA_EXPORT_REQUEST SET STATUS = ?, COMPLETED_DATE = ?, ARTIFACT_REF = ?, FILE_SIZE_BYTES = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = ?",
	}

	QueryFailExport = dbmodel.DBQuery{
		ID:    "FAIL_EXPORT",
		Query: "UPDATE DATA_EXPORT_REQUEST SET STATUS = ?, ERROR_MESSAGE = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ? AND STATUS = ?",
	}

	QueryRecordDownload = dbmodel.DBQuery{
		ID:    "RECORD_EXPORT_DOWNLOAD",
		Query: "UPDATE DATA_EXPORT_REQUEST SET DOWNLOAD_COUNT = DOWNLOAD_COUNT + 1, LAST_DOWNLOAD_DATE = ?, UPDATED_TIME = ? WHERE REQUEST_ID = ?",
	}

	QueryListExpiredCompleted = dbmodel.DBQuery{
		ID:    "LIST_EXPIRED_COMPLETED_EXPORTS",
		Query: "SELECT " + exportColumns + " FROM DATA_EXPORT_REQUEST WHERE STATUS = ? AND EXPIRATION_DATE <= ?",
	}

	// QueryListStaleProcessing finds rows whose worker died between the
	// Processing claim and the terminal write.
	QueryListStaleProcessing = dbmodel.DBQuery{
		ID:    "LIST_STALE_PROCESSING_EXPORTS",
		Query: "SELECT " + exportColumns + " FROM DATA_EXPORT_REQUEST WHERE STATUS = ? AND UPDATED_TIME <= ?",
	}

	QueryDeleteExportsByUser = dbmodel.DBQuery{
		ID:    "DELETE_EXPORTS_BY_USER",
		Query: "DELETE FROM DATA_EXPORT_REQUEST WHERE USER_ID = ?",
	}
)

// ExportStore defines the interface for export request persistence.
// Exported so the deletion module can remove a user's requests through
// the registry.
type ExportStore interface {
	// CreateIfAllowed inserts the request unless the user already has a
	// request newer than windowStart. Returns false when rate-limited.
	CreateIfAllowed(ctx context.Context, request *model.DataExportRequest, windowStart int64) (bool, error)
	GetByID(ctx context.Context, requestID string) (*model.DataExportRequest, error)
	ListByUser(ctx context.Context, userID string) ([]model.DataExportRequest, error)

	// TransitionStatus applies a check-and-set status change. Returns
	// false when the row was not in the expected status.
	TransitionStatus(ctx context.Context, requestID string, from, to model.ExportStatus, now int64) (bool, error)
	Complete(ctx context.Context, requestID, artifactRef string, sizeBytes, now int64) (bool, error)
	Fail(ctx context.Context, requestID, errorMessage string, now int64) (bool, error)

	// RecordDownload bumps the download counter and stamps the download
	// time.
	RecordDownload(ctx context.Context, requestID string, now int64) error
	// ListExpiredCompleted retrieves Completed requests whose stored
	// expiration date has passed.
	ListExpiredCompleted(ctx context.Context, now int64) ([]model.DataExportRequest, error)
	// ListStaleProcessing retrieves Processing requests untouched since
	// the cutoff.
	ListStaleProcessing(ctx context.Context, cutoff int64) ([]model.DataExportRequest, error)
	DeleteByUser(ctx context.Context, userID string) error
}

// store implements the ExportStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// newExportStore creates a new export store
func newExportStore(dbClient provider.DBClientInterface) ExportStore {
	return &store{
		dbClient: dbClient,
	}
}

// CreateIfAllowed inserts the request behind the rate-limit guard.
func (s *store) CreateIfAllowed(ctx context.Context, request *model.DataExportRequest, windowStart int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryCreateExportIfAllowed,
		request.RequestID, request.UserID, string(request.Status), string(request.Format),
		request.RequestDate, request.ExpirationDate, request.CreatedTime, request.UpdatedTime,
		request.UserID, windowStart)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// GetByID retrieves one export request.
func (s *store) GetByID(ctx context.Context, requestID string) (*model.DataExportRequest, error) {
	rows, err := s.dbClient.Query(QueryGetExportByID, requestID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToExportRequest(rows[0]), nil
}

// ListByUser retrieves a user's export requests, newest first.
func (s *store) ListByUser(ctx context.Context, userID string) ([]model.DataExportRequest, error) {
	rows, err := s.dbClient.Query(QueryListExportsByUser, userID)
	if err != nil {
		return nil, err
	}
	return mapToExportRequests(rows), nil
}

// TransitionStatus applies a CAS status change.
func (s *store) TransitionStatus(ctx context.Context, requestID string, from, to model.ExportStatus, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryTransitionExportStatus, string(to), now, requestID, string(from))
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Complete moves Processing to Completed with the artifact metadata.
func (s *store) Complete(ctx context.Context, requestID, artifactRef string, sizeBytes, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryCompleteExport,
		string(model.ExportStatusCompleted), now, artifactRef, sizeBytes, now,
		requestID, string(model.ExportStatusProcessing))
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// Fail moves Processing to Failed with the error message.
func (s *store) Fail(ctx context.Context, requestID, errorMessage string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryFailExport,
		string(model.ExportStatusFailed), errorMessage, now,
		requestID, string(model.ExportStatusProcessing))
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// RecordDownload bumps the download counter and stamps the time.
func (s *store) RecordDownload(ctx context.Context, requestID string, now int64) error {
	_, err := s.dbClient.Execute(QueryRecordDownload, now, now, requestID)
	return err
}

// ListExpiredCompleted retrieves completed requests past their expiration.
func (s *store) ListExpiredCompleted(ctx context.Context, now int64) ([]model.DataExportRequest, error) {
	rows, err := s.dbClient.Query(QueryListExpiredCompleted, string(model.ExportStatusCompleted), now)
	if err != nil {
		return nil, err
	}
	return mapToExportRequests(rows), nil
}

// ListStaleProcessing retrieves requests stuck in Processing since the
// cutoff.
func (s *store) ListStaleProcessing(ctx context.Context, cutoff int64) ([]model.DataExportRequest, error) {
	rows, err := s.dbClient.Query(QueryListStaleProcessing, string(model.ExportStatusProcessing), cutoff)
	if err != nil {
		return nil, err
	}
	return mapToExportRequests(rows), nil
}

// DeleteByUser removes every export request of one user.
func (s *store) DeleteByUser(ctx context.Context, userID string) error {
	_, err := s.dbClient.Execute(QueryDeleteExportsByUser, userID)
	return err
}

// Mapper functions

func mapToExportRequests(rows []map[string]interface{}) []model.DataExportRequest {
	requests := make([]model.DataExportRequest, 0, len(rows))
	for _, row := range rows {
		request := mapToExportRequest(row)
		if request != nil {
			requests = append(requests, *request)
		}
	}
	return requests
}

func mapToExportRequest(row map[string]interface{}) *model.DataExportRequest {
	if row == nil {
		return nil
	}

	request := &model.DataExportRequest{}

	if id, ok := row["REQUEST_ID"].(string); ok {
		request.RequestID = id
	}
	if userID, ok := row["USER_ID"].(string); ok {
		request.UserID = userID
	}
	if status, ok := row["STATUS"].(string); ok {
		request.Status = model.ExportStatus(status)
	}
	if format, ok := row["FORMAT"].(string); ok {
		request.Format = model.ExportFormat(format)
	}
	if requestDate, ok := row["REQUEST_DATE"].(int64); ok {
		request.RequestDate = requestDate
	}
	if expiration, ok := row["EXPIRATION_DATE"].(int64); ok {
		request.ExpirationDate = expiration
	}
	if completed, ok := row["COMPLETED_DATE"].(int64); ok {
		request.CompletedDate = &completed
	}
	if ref, ok := row["ARTIFACT_REF"].(string); ok {
		request.ArtifactRef = &ref
	}
	if size, ok := row["FILE_SIZE_BYTES"].(int64); ok {
		request.FileSizeBytes = &size
	}
	if msg, ok := row["ERROR_MESSAGE"].(string); ok {
		request.ErrorMessage = &msg
	}
	if count, ok := row["DOWNLOAD_COUNT"].(int64); ok {
		request.DownloadCount = count
	}
	if lastDownload, ok := row["LAST_DOWNLOAD_DATE"].(int64); ok {
		request.LastDownloadDate = &lastDownload
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		request.CreatedTime = created
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		request.UpdatedTime = updated
	}

	return request
}
