package consent

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	auditmodel "github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/consent/model"
	"github.com/fittrack/privacy-rights-api/internal/system/config"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
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

type fakeConsentStore struct {
	records []model.ConsentRecord
	flags   map[string]model.CurrentFlag
	failTx  bool
}

func newFakeConsentStore() *fakeConsentStore {
	return &fakeConsentStore{flags: make(map[string]model.CurrentFlag)}
}

func flagKey(userID string, consentType model.ConsentType) string {
	return userID + "/" + string(consentType)
}

func (s *fakeConsentStore) CreateRecordWithTx(tx dbmodel.TxInterface, record *model.ConsentRecord) error {
	if s.failTx {
		return errors.New("insert failed")
	}
	s.records = append(s.records, *record)
	return nil
}

func (s *fakeConsentStore) UpsertCurrentFlagWithTx(tx dbmodel.TxInterface, flag *model.CurrentFlag) error {
	s.flags[flagKey(flag.UserID, flag.ConsentType)] = *flag
	return nil
}

func (s *fakeConsentStore) ClearCurrentFlagWithTx(tx dbmodel.TxInterface, userID string, consentType model.ConsentType, now int64) (bool, error) {
	key := flagKey(userID, consentType)
	flag, ok := s.flags[key]
	if !ok || !flag.IsGranted {
		return false, nil
	}
	flag.IsGranted = false
	flag.UpdatedTime = now
	s.flags[key] = flag
	return true, nil
}

var _ ConsentStore = (*fakeConsentStore)(nil)

func (s *fakeConsentStore) GetLatestRecord(ctx context.Context, userID string, consentType model.ConsentType) (*model.ConsentRecord, error) {
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == userID && s.records[i].ConsentType == consentType {
			record := s.records[i]
			return &record, nil
		}
	}
	return nil, nil
}

func (s *fakeConsentStore) GetHistoryByUser(ctx context.Context, userID string) ([]model.ConsentRecord, error) {
	history := make([]model.ConsentRecord, 0)
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].UserID == userID {
			history = append(history, s.records[i])
		}
	}
	return history, nil
}

func (s *fakeConsentStore) ListGrantedFlags(ctx context.Context) ([]model.CurrentFlag, error) {
	flags := make([]model.CurrentFlag, 0)
	for _, flag := range s.flags {
		if flag.IsGranted {
			flags = append(flags, flag)
		}
	}
	return flags, nil
}

func (s *fakeConsentStore) PurgeForDeletedAccounts(ctx context.Context, cutoff int64) (int64, error) {
	return 0, nil
}

func (s *fakeConsentStore) DeleteByUser(ctx context.Context, userID string) error { return nil }

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
	sent []string // "userID/template"
}

func (s *fakeSender) Send(ctx context.Context, userID, template string, params map[string]string) error {
	s.sent = append(s.sent, userID+"/"+template)
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		Consent: config.ConsentConfig{
			DefaultExpiryMonths: 24,
			ExpiryWindows: map[string]int{
				"MARKETING":       24,
				"ANALYTICS":       12,
				"DATA_PROCESSING": 36,
				"ESSENTIAL":       0,
			},
		},
	}
}

func newTestService(t *testing.T) (*consentService, *fakeConsentStore, *fakeAuditService, *fakeSender) {
	t.Helper()
	config.SetGlobal(testConfig())

	store := newFakeConsentStore()
	auditor := &fakeAuditService{}
	sender := &fakeSender{}
	registry := stores.NewStoreRegistry(&fakeDB{}, nil, store, nil, nil, nil, nil)

	service := newConsentService(registry, auditor, sender).(*consentService)
	return service, store, auditor, sender
}

func grantRequest(consentType string) model.ConsentGrantAPIRequest {
	return model.ConsentGrantAPIRequest{
		ConsentType:    consentType,
		Purpose:        "weekly training digest",
		LegalBasis:     "consent",
		ConsentVersion: "2.1",
	}
}

// Tests

func TestGrantAppendsLedgerRecord(t *testing.T) {
	service, store, auditor, _ := newTestService(t)

	record, svcErr := service.Grant(context.Background(), "user-1", grantRequest("MARKETING"), model.Provenance{IPAddress: "10.0.0.1"})
	require.Nil(t, svcErr)
	require.NotNil(t, record)

	require.Len(t, store.records, 1)
	assert.True(t, store.records[0].IsGranted)
	assert.Nil(t, store.records[0].WithdrawnTime)
	assert.Equal(t, model.ConsentTypeMarketing, store.records[0].ConsentType)

	flag, ok := store.flags[flagKey("user-1", model.ConsentTypeMarketing)]
	require.True(t, ok)
	assert.True(t, flag.IsGranted)

	require.Len(t, auditor.entries, 1)
	assert.Equal(t, "consent.granted", auditor.entries[0].Action)
	assert.True(t, auditor.entries[0].IsSuccessful)
}

func TestGrantRejectsUnknownType(t *testing.T) {
	service, store, auditor, _ := newTestService(t)

	_, svcErr := service.Grant(context.Background(), "user-1", grantRequest("TELEPATHY"), model.Provenance{})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.ValidationError.Code, svcErr.Code)
	assert.Empty(t, store.records)

	// A rejected operation still leaves an audit trace.
	require.Len(t, auditor.entries, 1)
	assert.False(t, auditor.entries[0].IsSuccessful)
}

func TestWithdrawAppendsWithoutMutating(t *testing.T) {
	service, store, _, _ := newTestService(t)
	ctx := context.Background()

	_, svcErr := service.Grant(ctx, "user-1", grantRequest("MARKETING"), model.Provenance{})
	require.Nil(t, svcErr)
	grantedCopy := store.records[0]

	withdrawn, svcErr := service.Withdraw(ctx, "user-1", model.ConsentTypeMarketing, model.Provenance{})
	require.Nil(t, svcErr)
	assert.True(t, withdrawn)

	// The ledger grew; the original grant row is untouched.
	require.Len(t, store.records, 2)
	assert.Equal(t, grantedCopy, store.records[0])

	withdrawal := store.records[1]
	assert.False(t, withdrawal.IsGranted)
	require.NotNil(t, withdrawal.WithdrawnTime)
	assert.Equal(t, grantedCopy.Purpose, withdrawal.Purpose)
	assert.Equal(t, grantedCopy.ConsentVersion, withdrawal.ConsentVersion)

	flag := store.flags[flagKey("user-1", model.ConsentTypeMarketing)]
	assert.False(t, flag.IsGranted)
}

func TestWithdrawWithoutGrantReturnsFalse(t *testing.T) {
	service, store, _, _ := newTestService(t)

	withdrawn, svcErr := service.Withdraw(context.Background(), "user-1", model.ConsentTypeAnalytics, model.Provenance{})
	require.Nil(t, svcErr)
	assert.False(t, withdrawn)
	assert.Empty(t, store.records)
}

func TestWithdrawTwiceSecondIsNoop(t *testing.T) {
	service, store, _, _ := newTestService(t)
	ctx := context.Background()

	_, _ = service.Grant(ctx, "user-1", grantRequest("MARKETING"), model.Provenance{})
	first, _ := service.Withdraw(ctx, "user-1", model.ConsentTypeMarketing, model.Provenance{})
	second, _ := service.Withdraw(ctx, "user-1", model.ConsentTypeMarketing, model.Provenance{})

	assert.True(t, first)
	assert.False(t, second)
	assert.Len(t, store.records, 2)
}

func TestWithdrawAfterFlagAlreadyClearedAppendsNothing(t *testing.T) {
	service, store, _, _ := newTestService(t)
	ctx := context.Background()

	_, svcErr := service.Grant(ctx, "user-1", grantRequest("MARKETING"), model.Provenance{})
	require.Nil(t, svcErr)

	// A concurrent withdrawal cleared the flag between this call's read
	// and its write; the conditional clear must refuse a second append.
	key := flagKey("user-1", model.ConsentTypeMarketing)
	flag := store.flags[key]
	flag.IsGranted = false
	store.flags[key] = flag

	withdrawn, svcErr := service.Withdraw(ctx, "user-1", model.ConsentTypeMarketing, model.Provenance{})
	require.Nil(t, svcErr)
	assert.False(t, withdrawn)
	assert.Len(t, store.records, 1)
}

func TestBulkWithdrawReportsPerType(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, _ = service.Grant(ctx, "user-1", grantRequest("MARKETING"), model.Provenance{})

	results, svcErr := service.BulkWithdraw(ctx, "user-1",
		[]model.ConsentType{model.ConsentTypeMarketing, model.ConsentTypeAnalytics}, model.Provenance{})
	require.Nil(t, svcErr)
	require.Len(t, results, 2)

	assert.True(t, results[0].Withdrawn)
	assert.Empty(t, results[0].Error)
	assert.False(t, results[1].Withdrawn)
	assert.NotEmpty(t, results[1].Error)
}

func TestCurrentStatusHonorsExpiryWindow(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	base := utils.GetCurrentTimeMillis()
	service.now = func() int64 { return base }

	_, svcErr := service.Grant(ctx, "user-1", grantRequest("ANALYTICS"), model.Provenance{})
	require.Nil(t, svcErr)

	status, svcErr := service.CurrentStatus(ctx, "user-1", model.ConsentTypeAnalytics)
	require.Nil(t, svcErr)
	assert.True(t, status.IsGranted)
	require.NotNil(t, status.ExpiresTime)

	// 13 months later the 12-month analytics window has lapsed.
	service.now = func() int64 { return base + utils.MonthsToMillis(13) }
	status, svcErr = service.CurrentStatus(ctx, "user-1", model.ConsentTypeAnalytics)
	require.Nil(t, svcErr)
	assert.False(t, status.IsGranted)
}

func TestEssentialConsentNeverExpires(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	base := utils.GetCurrentTimeMillis()
	service.now = func() int64 { return base }

	_, svcErr := service.Grant(ctx, "user-1", grantRequest("ESSENTIAL"), model.Provenance{})
	require.Nil(t, svcErr)

	service.now = func() int64 { return base + utils.MonthsToMillis(120) }
	status, svcErr := service.CurrentStatus(ctx, "user-1", model.ConsentTypeEssential)
	require.Nil(t, svcErr)
	assert.True(t, status.IsGranted)
	assert.Nil(t, status.ExpiresTime)
}

func TestSweepExpiringSendsReminders(t *testing.T) {
	service, _, _, sender := newTestService(t)
	ctx := context.Background()

	base := utils.GetCurrentTimeMillis()
	service.now = func() int64 { return base }

	_, _ = service.Grant(ctx, "user-1", grantRequest("ANALYTICS"), model.Provenance{})
	_, _ = service.Grant(ctx, "user-2", grantRequest("ESSENTIAL"), model.Provenance{})

	service.now = func() int64 { return base + utils.MonthsToMillis(13) }
	notified, err := service.SweepExpiring(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, notified)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "user-1/consent-renewal-reminder", sender.sent[0])
}

func TestHistoryReturnsNewestFirst(t *testing.T) {
	service, _, _, _ := newTestService(t)
	ctx := context.Background()

	_, _ = service.Grant(ctx, "user-1", grantRequest("MARKETING"), model.Provenance{})
	_, _ = service.Withdraw(ctx, "user-1", model.ConsentTypeMarketing, model.Provenance{})

	history, svcErr := service.History(ctx, "user-1")
	require.Nil(t, svcErr)
	require.Len(t, history.Data, 2)
	assert.False(t, history.Data[0].IsGranted)
	assert.True(t, history.Data[1].IsGranted)
}

func TestGrantStoreFailureSurfacesDatabaseError(t *testing.T) {
	service, store, auditor, _ := newTestService(t)
	store.failTx = true

	_, svcErr := service.Grant(context.Background(), "user-1", grantRequest("MARKETING"), model.Provenance{})
	require.NotNil(t, svcErr)
	assert.Equal(t, serviceerror.DatabaseError.Code, svcErr.Code)

	require.Len(t, auditor.entries, 1)
	assert.False(t, auditor.entries[0].IsSuccessful)
}
