package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fittrack/privacy-rights-api/internal/artifact"
	auditmodel "github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/export/model"
	"github.com/fittrack/privacy-rights-api/internal/system/config"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
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

type fakeExportStore struct {
	mu       sync.Mutex
	requests map[string]*model.DataExportRequest
}

func newFakeExportStore() *fakeExportStore {
	return &fakeExportStore{requests: make(map[string]*model.DataExportRequest)}
}

func (s *fakeExportStore) CreateIfAllowed(ctx context.Context, request *model.DataExportRequest, windowStart int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.requests {
		if existing.UserID == request.UserID && existing.RequestDate > windowStart {
			return false, nil
		}
	}
	copied := *request
	s.requests[request.RequestID] = &copied
	return true, nil
}

func (s *fakeExportStore) GetByID(ctx context.Context, requestID string) (*model.DataExportRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok {
		return nil, nil
	}
	copied := *request
	return &copied, nil
}

func (s *fakeExportStore) ListByUser(ctx context.Context, userID string) ([]model.DataExportRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := make([]model.DataExportRequest, 0)
	for _, request := range s.requests {
		if request.UserID == userID {
			requests = append(requests, *request)
		}
	}
	return requests, nil
}

func (s *fakeExportStore) TransitionStatus(ctx context.Context, requestID string, from, to model.ExportStatus, now int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok || request.Status != from {
		return false, nil
	}
	request.Status = to
	request.UpdatedTime = now
	return true, nil
}

func (s *fakeExportStore) Complete(ctx context.Context, requestID, artifactRef string, sizeBytes, now int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok || request.Status != model.ExportStatusProcessing {
		return false, nil
	}
	request.Status = model.ExportStatusCompleted
	request.ArtifactRef = &artifactRef
	request.FileSizeBytes = &sizeBytes
	request.CompletedDate = &now
	request.UpdatedTime = now
	return true, nil
}

func (s *fakeExportStore) Fail(ctx context.Context, requestID, errorMessage string, now int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	request, ok := s.requests[requestID]
	if !ok || request.Status != model.ExportStatusProcessing {
		return false, nil
	}
	request.Status = model.ExportStatusFailed
	request.ErrorMessage = &errorMessage
	request.UpdatedTime = now
	return true, nil
}

func (s *fakeExportStore) RecordDownload(ctx context.Context, requestID string, now int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if request, ok := s.requests[requestID]; ok {
		request.DownloadCount++
		request.LastDownloadDate = &now
		request.UpdatedTime = now
	}
	return nil
}

func (s *fakeExportStore) ListExpiredCompleted(ctx context.Context, now int64) ([]model.DataExportRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := make([]model.DataExportRequest, 0)
	for _, request := range s.requests {
		if request.Status == model.ExportStatusCompleted && request.ExpirationDate <= now {
			requests = append(requests, *request)
		}
	}
	return requests, nil
}

func (s *fakeExportStore) ListStaleProcessing(ctx context.Context, cutoff int64) ([]model.DataExportRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	requests := make([]model.DataExportRequest, 0)
	for _, request := range s.requests {
		if request.Status == model.ExportStatusProcessing && request.UpdatedTime <= cutoff {
			requests = append(requests, *request)
		}
	}
	return requests, nil
}

func (s *fakeExportStore) DeleteByUser(ctx context.Context, userID string) error { return nil }

var _ ExportStore = (*fakeExportStore)(nil)

type fakeUserData struct {
	collectErr error
}

func (u *fakeUserData) Collect(ctx context.Context, userID string) (*udmodel.ExportBundle, error) {
	if u.collectErr != nil {
		return nil, u.collectErr
	}
	return &udmodel.ExportBundle{
		UserID:  userID,
		Profile: map[string]interface{}{"USER_ID": userID, "EMAIL": "runner@example.com"},
		Workouts: []map[string]interface{}{
			{"SESSION_ID": "w-1", "ACTIVITY_TYPE": "RUN", "DURATION_SECONDS": int64(1800)},
		},
		HealthMetrics: []map[string]interface{}{},
		NutritionLogs: []map[string]interface{}{},
		CollectedTime: utils.GetCurrentTimeMillis(),
	}, nil
}

func (u *fakeUserData) UpdateField(ctx context.Context, userID, dataType, fieldName, value string) error {
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

type fakeSender struct {
	sent []string
}

func (s *fakeSender) Send(ctx context.Context, userID, template string, params map[string]string) error {
	s.sent = append(s.sent, userID+"/"+template)
	return nil
}

// flakyArtifacts wraps a real store and fails deletes on demand.
type flakyArtifacts struct {
	artifact.Store
	deleteErr error
}

func (f *flakyArtifacts) Delete(ctx context.Context, ref string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, ref)
}

type exportFixture struct {
	service    *exportService
	store      *fakeExportStore
	userData   *fakeUserData
	auditor    *fakeAuditService
	sender     *fakeSender
	artifacts  *flakyArtifacts
	dispatched []string
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	config.SetGlobal(&config.Config{
		Export: config.ExportConfig{
			RateLimitWindow:   24 * time.Hour,
			ArtifactTTLDays:   30,
			ProcessingTimeout: 15 * time.Minute,
		},
	})

	fixture := &exportFixture{
		store:    newFakeExportStore(),
		userData: &fakeUserData{},
		auditor:  &fakeAuditService{},
		sender:   &fakeSender{},
		artifacts: &flakyArtifacts{
			Store: artifact.NewStoreWithBase(fmt.Sprintf("mem://exports/%s", t.Name())),
		},
	}

	registry := stores.NewStoreRegistry(&fakeDB{}, nil, nil, fixture.store, nil, nil, nil)
	fixture.service = newExportService(registry, fixture.auditor, fixture.sender, fixture.artifacts, fixture.userData).(*exportService)

	// Process synchronously is the caller's choice in tests; by default
	// just record the dispatch.
	fixture.service.dispatch = func(requestID string) {
		fixture.dispatched = append(fixture.dispatched, requestID)
	}

	return fixture
}

// Tests

func TestCreateRegistersPendingAndDispatches(t *testing.T) {
	fixture := newExportFixture(t)

	request, svcErr := fixture.service.Create(context.Background(), "user-1", "JSON")
	require.Nil(t, svcErr)
	require.NotNil(t, request)

	assert.Equal(t, model.ExportStatusPending, request.Status)
	assert.Equal(t, model.ExportFormatJSON, request.Format)
	assert.Equal(t, request.RequestDate+utils.DaysToMillis(30), request.ExpirationDate)
	require.Len(t, fixture.dispatched, 1)
	assert.Equal(t, request.RequestID, fixture.dispatched[0])

	require.Len(t, fixture.auditor.entries, 1)
	assert.Equal(t, "export.created", fixture.auditor.entries[0].Action)
}

func TestCreateRejectsUnknownFormat(t *testing.T) {
	fixture := newExportFixture(t)

	_, svcErr := fixture.service.Create(context.Background(), "user-1", "XML")
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ValidationError.Code, svcErr.Code)
	assert.Empty(t, fixture.dispatched)
}

func TestCreateRateLimitedWithinWindow(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	_, svcErr := fixture.service.Create(ctx, "user-1", "JSON")
	require.Nil(t, svcErr)

	_, svcErr = fixture.service.Create(ctx, "user-1", "CSV")
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.RateLimitError.Code, svcErr.Code)

	// A different user is not affected.
	_, svcErr = fixture.service.Create(ctx, "user-2", "JSON")
	assert.Nil(t, svcErr)
}

func TestCreateAllowedAfterWindowPasses(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	base := utils.GetCurrentTimeMillis()
	fixture.service.now = func() int64 { return base }
	_, svcErr := fixture.service.Create(ctx, "user-1", "JSON")
	require.Nil(t, svcErr)

	fixture.service.now = func() int64 { return base + (25 * time.Hour).Milliseconds() }
	_, svcErr = fixture.service.Create(ctx, "user-1", "JSON")
	assert.Nil(t, svcErr)
}

func TestProcessCompletesAndNotifies(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	request, svcErr := fixture.service.Create(ctx, "user-1", "JSON")
	require.Nil(t, svcErr)

	require.NoError(t, fixture.service.Process(ctx, request.RequestID))

	stored, _ := fixture.store.GetByID(ctx, request.RequestID)
	require.NotNil(t, stored)
	assert.Equal(t, model.ExportStatusCompleted, stored.Status)
	require.NotNil(t, stored.ArtifactRef)
	require.NotNil(t, stored.FileSizeBytes)
	assert.Positive(t, *stored.FileSizeBytes)

	payload, err := fixture.artifacts.Get(ctx, *stored.ArtifactRef)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "runner@example.com")

	require.Len(t, fixture.sender.sent, 1)
	assert.Equal(t, "user-1/data-export-ready", fixture.sender.sent[0])
}

func TestProcessIsNoopWhenNotPending(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	request, _ := fixture.service.Create(ctx, "user-1", "CSV")
	require.NoError(t, fixture.service.Process(ctx, request.RequestID))

	sentBefore := len(fixture.sender.sent)
	require.NoError(t, fixture.service.Process(ctx, request.RequestID))
	assert.Equal(t, sentBefore, len(fixture.sender.sent))
}

func TestProcessCollectionFailureMarksFailed(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	request, _ := fixture.service.Create(ctx, "user-1", "JSON")
	fixture.userData.collectErr = errors.New("profile table unreachable")

	require.NoError(t, fixture.service.Process(ctx, request.RequestID))

	stored, _ := fixture.store.GetByID(ctx, request.RequestID)
	assert.Equal(t, model.ExportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "profile table unreachable")
	assert.Empty(t, fixture.sender.sent)
}

func TestDownloadServesOwnerAndCounts(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	request, _ := fixture.service.Create(ctx, "user-1", "JSON")
	require.NoError(t, fixture.service.Process(ctx, request.RequestID))

	payload, downloaded, svcErr := fixture.service.Download(ctx, "user-1", request.RequestID)
	require.Nil(t, svcErr)
	assert.NotEmpty(t, payload)
	assert.Equal(t, request.RequestID, downloaded.RequestID)

	stored, _ := fixture.store.GetByID(ctx, request.RequestID)
	assert.Equal(t, int64(1), stored.DownloadCount)
	require.NotNil(t, stored.LastDownloadDate)

	// A second download moves the stamp forward.
	firstDownload := *stored.LastDownloadDate
	fixture.service.now = func() int64 { return firstDownload + 1000 }
	_, _, svcErr = fixture.service.Download(ctx, "user-1", request.RequestID)
	require.Nil(t, svcErr)

	stored, _ = fixture.store.GetByID(ctx, request.RequestID)
	assert.Equal(t, int64(2), stored.DownloadCount)
	assert.Equal(t, firstDownload+1000, *stored.LastDownloadDate)
}

func TestDownloadByNonOwnerReadsAsNotFound(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	request, _ := fixture.service.Create(ctx, "user-1", "JSON")
	require.NoError(t, fixture.service.Process(ctx, request.RequestID))

	_, _, svcErr := fixture.service.Download(ctx, "user-2", request.RequestID)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ResourceNotFoundError.Code, svcErr.Code)
}

func TestDownloadPendingIsStateConflict(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	request, _ := fixture.service.Create(ctx, "user-1", "JSON")

	_, _, svcErr := fixture.service.Download(ctx, "user-1", request.RequestID)
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.StateConflictError.Code, svcErr.Code)
}

func TestSweepExpiresAgedArtifacts(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	base := utils.GetCurrentTimeMillis()
	fixture.service.now = func() int64 { return base }

	request, _ := fixture.service.Create(ctx, "user-1", "JSON")
	require.NoError(t, fixture.service.Process(ctx, request.RequestID))

	stored, _ := fixture.store.GetByID(ctx, request.RequestID)
	ref := *stored.ArtifactRef

	// 31 days later the 30-day TTL has lapsed.
	fixture.service.now = func() int64 { return base + utils.DaysToMillis(31) }
	expired, err := fixture.service.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)

	stored, _ = fixture.store.GetByID(ctx, request.RequestID)
	assert.Equal(t, model.ExportStatusExpired, stored.Status)

	exists, err := fixture.artifacts.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, exists)

	// Re-running finds nothing left to touch.
	expired, err = fixture.service.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestSweepFailsAbandonedProcessingRows(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	base := utils.GetCurrentTimeMillis()
	fixture.service.now = func() int64 { return base }

	request, svcErr := fixture.service.Create(ctx, "user-1", "JSON")
	require.Nil(t, svcErr)

	// The worker claimed the row and died before the terminal write.
	claimed, err := fixture.store.TransitionStatus(ctx, request.RequestID,
		model.ExportStatusPending, model.ExportStatusProcessing, base)
	require.NoError(t, err)
	require.True(t, claimed)

	// Within the timeout the row is left alone.
	fixture.service.now = func() int64 { return base + (5 * time.Minute).Milliseconds() }
	touched, err := fixture.service.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, touched)

	fixture.service.now = func() int64 { return base + time.Hour.Milliseconds() }
	touched, err = fixture.service.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, touched)

	stored, _ := fixture.store.GetByID(ctx, request.RequestID)
	assert.Equal(t, model.ExportStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "did not finish")

	// Re-running finds nothing left in Processing.
	touched, err = fixture.service.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, touched)
}

func TestSweepRetriesAfterArtifactDeleteFailure(t *testing.T) {
	fixture := newExportFixture(t)
	ctx := context.Background()

	base := utils.GetCurrentTimeMillis()
	fixture.service.now = func() int64 { return base }

	request, _ := fixture.service.Create(ctx, "user-1", "JSON")
	require.NoError(t, fixture.service.Process(ctx, request.RequestID))

	fixture.service.now = func() int64 { return base + utils.DaysToMillis(31) }

	fixture.artifacts.deleteErr = errors.New("backend unavailable")
	expired, err := fixture.service.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, expired)

	// The row stays Completed so the next sweep retries the deletion.
	stored, _ := fixture.store.GetByID(ctx, request.RequestID)
	assert.Equal(t, model.ExportStatusCompleted, stored.Status)

	fixture.artifacts.deleteErr = nil
	expired, err = fixture.service.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
}
