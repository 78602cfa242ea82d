package rectification

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditmodel "github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/rectification/model"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	udmodel "github.com/fittrack/privacy-rights-api/internal/userdata/model"
)

// Test doubles

type fakeTx struct{}

func (t *fakeTx) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (t *fakeTx) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }
func (t *fakeTx) Commit() error                                              { return nil }
func (t *fakeTx) Rollback() error                                            { return nil }

type fakeDB struct{}

func (f *fakeDB) Query(query dbmodel.DBQueryInterface, args ...interface{}) ([]map[string]interface{}, error) {
	return nil, nil
}
func (f *fakeDB) Execute(query dbmodel.DBQueryInterface, args ...interface{}) (int64, error) {
	return 0, nil
}
func (f *fakeDB) BeginTx() (dbmodel.TxInterface, error) { return &fakeTx{}, nil }
func (f *fakeDB) DBType() string                        { return "mysql" }

type fakeRectificationStore struct {
	requests map[string]*model.DataRectificationRequest
}

func newFakeRectificationStore() *fakeRectificationStore {
	return &fakeRectificationStore{requests: make(map[string]*model.DataRectificationRequest)}
}

func (s *fakeRectificationStore) CreateIfNoOpen(ctx context.Context, request *model.DataRectificationRequest) (bool, error) {
	for _, existing := range s.requests {
		if existing.UserID == request.UserID && existing.DataType == request.DataType &&
			existing.FieldName == request.FieldName &&
			(existing.Status == model.RectificationStatusPending || existing.Status == model.RectificationStatusProcessing) {
			return false, nil
		}
	}
	copied := *request
	s.requests[request.RequestID] = &copied
	return true, nil
}

func (s *fakeRectificationStore) GetByID(ctx context.Context, requestID string) (*model.DataRectificationRequest, error) {
	request, ok := s.requests[requestID]
	if !ok {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (s *fakeRectificationStore) ListByUser(ctx context.Context, userID string) ([]model.DataRectificationRequest, error) {
	requests := make([]model.DataRectificationRequest, 0)
	for _, request := range s.requests {
		if request.UserID == userID {
			requests = append(requests, *request)
		}
	}
	return requests, nil
}

func (s *fakeRectificationStore) ListPending(ctx context.Context) ([]model.DataRectificationRequest, error) {
	requests := make([]model.DataRectificationRequest, 0)
	for _, request := range s.requests {
		if request.Status == model.RectificationStatusPending {
			requests = append(requests, *request)
		}
	}
	sort.Slice(requests, func(i, j int) bool {
		if requests[i].Priority != requests[j].Priority {
			return requests[i].Priority < requests[j].Priority
		}
		return requests[i].RequestDate < requests[j].RequestDate
	})
	return requests, nil
}

func (s *fakeRectificationStore) Approve(ctx context.Context, requestID, reviewedBy, reviewNotes string, now int64) (bool, error) {
	request, ok := s.requests[requestID]
	if !ok || request.Status != model.RectificationStatusPending {
		return false, nil
	}
	request.Status = model.RectificationStatusProcessing
	request.ReviewDate = &now
	request.ReviewedBy = &reviewedBy
	request.ReviewNotes = &reviewNotes
	request.UpdatedTime = now
	return true, nil
}

func (s *fakeRectificationStore) Reject(ctx context.Context, requestID, reviewedBy, reviewNotes, rejectionReason string, now int64) (bool, error) {
	request, ok := s.requests[requestID]
	if !ok || request.Status != model.RectificationStatusPending {
		return false, nil
	}
	request.Status = model.RectificationStatusFailed
	request.ReviewDate = &now
	request.ReviewedBy = &reviewedBy
	request.ReviewNotes = &reviewNotes
	request.RejectionReason = &rejectionReason
	request.UpdatedTime = now
	return true, nil
}

func (s *fakeRectificationStore) Complete(ctx context.Context, requestID string, now int64) (bool, error) {
	request, ok := s.requests[requestID]
	if !ok || request.Status != model.RectificationStatusProcessing {
		return false, nil
	}
	request.Status = model.RectificationStatusCompleted
	request.ProcessedDate = &now
	request.UpdatedTime = now
	return true, nil
}

func (s *fakeRectificationStore) Fail(ctx context.Context, requestID, reason string, now int64) (bool, error) {
	request, ok := s.requests[requestID]
	if !ok || request.Status != model.RectificationStatusProcessing {
		return false, nil
	}
	request.Status = model.RectificationStatusFailed
	request.RejectionReason = &reason
	request.UpdatedTime = now
	return true, nil
}

func (s *fakeRectificationStore) DeleteByUser(ctx context.Context, userID string) error { return nil }

type fakeUserData struct {
	updates   []string // "userID/dataType/field=value"
	updateErr error
}

func (u *fakeUserData) Collect(ctx context.Context, userID string) (*udmodel.ExportBundle, error) {
	return nil, nil
}
func (u *fakeUserData) UpdateField(ctx context.Context, userID, dataType, fieldName, value string) error {
	if u.updateErr != nil {
		return u.updateErr
	}
	u.updates = append(u.updates, userID+"/"+dataType+"/"+fieldName+"="+value)
	return nil
}
func (u *fakeUserData) SetDeletionFlag(ctx context.Context, userID string, deletedTime int64) error {
	return nil
}
func (u *fakeUserData) ClearDeletionFlag(ctx context.Context, userID string) error { return nil }
func (u *fakeUserData) HardDelete(ctx context.Context, userID string) error        { return nil }
func (u *fakeUserData) Anonymize(ctx context.Context, userID string) error         { return nil }
func (u *fakeUserData) PurgeOlderThan(ctx context.Context, dataType string, cutoff int64) (udmodel.PurgeResult, error) {
	return udmodel.PurgeResult{}, nil
}

type fakeAuditService struct {
	entries []auditmodel.AuditLogEntry
}

func (a *fakeAuditService) Record(ctx context.Context, entry auditmodel.AuditLogEntry) {
	a.entries = append(a.entries, entry)
}

func (a *fakeAuditService) Search(ctx context.Context, filters auditmodel.AuditSearchFilters) ([]auditmodel.AuditLogEntry, int, *serviceerror.ServiceError) {
	return nil, 0, nil
}

func (a *fakeAuditService) actions() []string {
	actions := make([]string, 0, len(a.entries))
	for _, entry := range a.entries {
		actions = append(actions, entry.Action)
	}
	return actions
}

func newTestService(t *testing.T) (*rectificationService, *fakeRectificationStore, *fakeUserData, *fakeAuditService) {
	t.Helper()
	store := newFakeRectificationStore()
	userData := &fakeUserData{}
	auditor := &fakeAuditService{}
	registry := stores.NewStoreRegistry(&fakeDB{}, nil, nil, nil, store, nil, nil)
	service := newRectificationService(registry, auditor, userData).(*rectificationService)
	return service, store, userData, auditor
}

func createRequest(field, requested string) model.RectificationCreateAPIRequest {
	return model.RectificationCreateAPIRequest{
		DataType:       udmodel.DataTypeUserProfile,
		FieldName:      field,
		CurrentValue:   "old-" + field,
		RequestedValue: requested,
		Reason:         "typo during signup",
	}
}

// Tests

func TestCreateAssignsPriority(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	request, svcErr := service.Create(ctx, "user-1", createRequest("email", "new@example.com"))
	require.Nil(t, svcErr)
	assert.Equal(t, model.RectificationStatusPending, request.Status)
	assert.Equal(t, 1, request.Priority)
}

func TestCreateRejectsUnchangedValue(t *testing.T) {
	service, _, _, _ := newTestService(t)

	req := createRequest("email", "same@example.com")
	req.CurrentValue = req.RequestedValue
	_, svcErr := service.Create(context.Background(), "user-1", req)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ValidationError.Code, svcErr.Code)
}

func TestCreateDuplicateOpenRequestConflicts(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, svcErr := service.Create(ctx, "user-1", createRequest("email", "first@example.com"))
	require.Nil(t, svcErr)

	_, svcErr = service.Create(ctx, "user-1", createRequest("email", "second@example.com"))
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.StateConflictError.Code, svcErr.Code)

	// A different field for the same user is fine.
	_, svcErr = service.Create(ctx, "user-1", createRequest("phone", "+4915112345678"))
	assert.Nil(t, svcErr)
}

func TestPendingQueueOrderedByPriorityThenAge(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	// Created in reverse urgency order on purpose.
	base := int64(1700000000000)
	service.now = func() int64 { return base }
	_, svcErr := service.Create(ctx, "user-1", createRequest("emergencyContact", "Jo 112"))
	require.Nil(t, svcErr)

	service.now = func() int64 { return base + 1000 }
	_, svcErr = service.Create(ctx, "user-2", createRequest("phone", "+4915112345678"))
	require.Nil(t, svcErr)

	service.now = func() int64 { return base + 2000 }
	_, svcErr = service.Create(ctx, "user-3", createRequest("email", "late@example.com"))
	require.Nil(t, svcErr)

	queue, svcErr := service.ListPending(ctx)
	require.Nil(t, svcErr)
	require.Len(t, queue, 3)
	assert.Equal(t, "email", queue[0].FieldName)
	assert.Equal(t, "phone", queue[1].FieldName)
	assert.Equal(t, "emergencyContact", queue[2].FieldName)
}

func TestApprovalAppliesFieldUpdate(t *testing.T) {
	service, _, userData, auditor := newTestService(t)
	ctx := context.Background()

	created, _ := service.Create(ctx, "user-1", createRequest("email", "new@example.com"))

	reviewed, svcErr := service.Review(ctx, created.RequestID, "admin-1",
		model.RectificationReviewAPIRequest{Approve: true, ReviewNotes: "verified against support ticket"})
	require.Nil(t, svcErr)

	assert.Equal(t, model.RectificationStatusCompleted, reviewed.Status)
	require.NotNil(t, reviewed.ReviewedBy)
	assert.Equal(t, "admin-1", *reviewed.ReviewedBy)
	require.NotNil(t, reviewed.ProcessedDate)

	require.Len(t, userData.updates, 1)
	assert.Equal(t, "user-1/USER_PROFILE/email=new@example.com", userData.updates[0])

	assert.Contains(t, auditor.actions(), "rectification.approved")
	assert.Contains(t, auditor.actions(), "rectification.completed")
}

func TestRejectionRequiresReason(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, _ := service.Create(ctx, "user-1", createRequest("email", "new@example.com"))

	_, svcErr := service.Review(ctx, created.RequestID, "admin-1",
		model.RectificationReviewAPIRequest{Approve: false})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ValidationError.Code, svcErr.Code)
}

func TestRejectionClosesWithoutTouchingData(t *testing.T) {
	service, _, userData, _ := newTestService(t)
	ctx := context.Background()

	created, _ := service.Create(ctx, "user-1", createRequest("email", "new@example.com"))

	reviewed, svcErr := service.Review(ctx, created.RequestID, "admin-1",
		model.RectificationReviewAPIRequest{Approve: false, RejectionReason: "no proof of identity"})
	require.Nil(t, svcErr)

	assert.Equal(t, model.RectificationStatusFailed, reviewed.Status)
	require.NotNil(t, reviewed.RejectionReason)
	assert.Equal(t, "no proof of identity", *reviewed.RejectionReason)
	assert.Empty(t, userData.updates)
}

func TestReviewTwiceIsStateConflict(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, _ := service.Create(ctx, "user-1", createRequest("email", "new@example.com"))
	_, svcErr := service.Review(ctx, created.RequestID, "admin-1",
		model.RectificationReviewAPIRequest{Approve: true})
	require.Nil(t, svcErr)

	_, svcErr = service.Review(ctx, created.RequestID, "admin-2",
		model.RectificationReviewAPIRequest{Approve: true})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.StateConflictError.Code, svcErr.Code)
}

func TestApplyFailureMarksRequestFailed(t *testing.T) {
	service, store, userData, _ := newTestService(t)
	ctx := context.Background()

	created, _ := service.Create(ctx, "user-1", createRequest("email", "new@example.com"))
	userData.updateErr = errors.New("user profile locked")

	reviewed, svcErr := service.Review(ctx, created.RequestID, "admin-1",
		model.RectificationReviewAPIRequest{Approve: true})
	require.Nil(t, svcErr)
	assert.Equal(t, model.RectificationStatusFailed, reviewed.Status)

	stored, _ := store.GetByID(ctx, created.RequestID)
	require.NotNil(t, stored.RejectionReason)
	assert.Contains(t, *stored.RejectionReason, "user profile locked")
}

func TestGetEnforcesOwnership(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	created, _ := service.Create(ctx, "user-1", createRequest("email", "new@example.com"))

	_, svcErr := service.Get(ctx, "user-2", created.RequestID)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ResourceNotFoundError.Code, svcErr.Code)

	request, svcErr := service.Get(ctx, "user-1", created.RequestID)
	require.Nil(t, svcErr)
	assert.Equal(t, created.RequestID, request.RequestID)
}
