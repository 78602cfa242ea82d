package consent

import (
	"context"

	"github.com/fittrack/privacy-rights-api/internal/consent/model"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
)

// DBQuery objects for consent ledger operations
var (
	QueryCreateConsentRecord = dbmodel.DBQuery{
		ID:    "CREATE_CONSENT_RECORD",
		Query: "INSERT INTO CONSENT_RECORD (RECORD_ID, USER_ID, CONSENT_TYPE, IS_GRANTED, CONSENT_TIME, WITHDRAWN_TIME, PURPOSE, LEGAL_BASIS, CONSENT_VERSION, IP_ADDRESS, USER_AGENT, CREATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetLatestRecord = dbmodel.DBQuery{
		ID:    "GET_LATEST_CONSENT_RECORD",
		Query: "SELECT RECORD_ID, USER_ID, CONSENT_TYPE, IS_GRANTED, CONSENT_TIME, WITHDRAWN_TIME, PURPOSE, LEGAL_BASIS, CONSENT_VERSION, IP_ADDRESS, USER_AGENT, CREATED_TIME FROM CONSENT_RECORD WHERE USER_ID = ? AND CONSENT_TYPE = ? ORDER BY CONSENT_TIME DESC, CREATED_TIME DESC LIMIT 1",
	}

	QueryGetHistoryByUser = dbmodel.DBQuery{
		ID:    "GET_CONSENT_HISTORY_BY_USER",
		Query: "SELECT RECORD_ID, USER_ID, CONSENT_TYPE, IS_GRANTED, CONSENT_TIME, WITHDRAWN_TIME, PURPOSE, LEGAL_BASIS, CONSENT_VERSION, IP_ADDRESS, USER_AGENT, CREATED_TIME FROM CONSENT_RECORD WHERE USER_ID = ? ORDER BY CONSENT_TIME DESC",
	}

	QueryUpsertCurrentFlag = dbmodel.DBQuery{
		ID:    "UPSERT_CONSENT_CURRENT_FLAG",
		Query: "INSERT INTO CONSENT_CURRENT_FLAG (USER_ID, CONSENT_TYPE, IS_GRANTED, GRANT_TIME, UPDATED_TIME) VALUES (?, ?, ?, ?, ?) ON DUPLICATE KEY UPDATE IS_GRANTED = VALUES(IS_GRANTED), GRANT_TIME = VALUES(GRANT_TIME), UPDATED_TIME = VALUES(UPDATED_TIME)",
	}

	// QueryClearCurrentFlagIfGranted clears the denormalized flag only
	// while it is still granted. Zero rows affected means another
	// withdrawal already claimed the grant.
	QueryClearCurrentFlagIfGranted = dbmodel.DBQuery{
		ID:    "CLEAR_CONSENT_CURRENT_FLAG_IF_GRANTED",
		Query: "UPDATE CONSENT_CURRENT_FLAG SET IS_GRANTED = 0, UPDATED_TIME = ? WHERE USER_ID = ? AND CONSENT_TYPE = ? AND IS_GRANTED = 1",
	}

	QueryListGrantedFlags = dbmodel.DBQuery{
		ID:    "LIST_GRANTED_CONSENT_FLAGS",
		Query: "SELECT USER_ID, CONSENT_TYPE, IS_GRANTED, GRANT_TIME, UPDATED_TIME FROM CONSENT_CURRENT_FLAG WHERE IS_GRANTED = 1",
	}

	QueryPurgeLedgerForDeletedAccounts = dbmodel.DBQuery{
		ID:    "PURGE_CONSENT_LEDGER_FOR_DELETED_ACCOUNTS",
		Query: "DELETE FROM CONSENT_RECORD WHERE CREATED_TIME < ? AND USER_ID IN (SELECT USER_ID FROM USER_PROFILE WHERE IS_DELETED = 1)",
	}

	QueryDeleteLedgerByUser = dbmodel.DBQuery{
		ID:    "DELETE_CONSENT_LEDGER_BY_USER",
		Query: "DELETE FROM CONSENT_RECORD WHERE USER_ID = ?",
	}

	QueryDeleteFlagsByUser = dbmodel.DBQuery{
		ID:    "DELETE_CONSENT_FLAGS_BY_USER",
		Query: "DELETE FROM CONSENT_CURRENT_FLAG WHERE USER_ID = ?",
	}
)

// ConsentStore defines the interface for consent ledger persistence.
// Exported so the deletion and retention modules can reach the ledger
// through the registry.
type ConsentStore interface {
	// Ledger appends run inside a transaction together with the
	// denormalized flag update.
	CreateRecordWithTx(tx dbmodel.TxInterface, record *model.ConsentRecord) error
	UpsertCurrentFlagWithTx(tx dbmodel.TxInterface, flag *model.CurrentFlag) error
	// ClearCurrentFlagWithTx conditionally clears a granted flag. Returns
	// false when the flag was not granted, so concurrent withdrawals
	// resolve to a single ledger append.
	ClearCurrentFlagWithTx(tx dbmodel.TxInterface, userID string, consentType model.ConsentType, now int64) (bool, error)

	GetLatestRecord(ctx context.Context, userID string, consentType model.ConsentType) (*model.ConsentRecord, error)
	GetHistoryByUser(ctx context.Context, userID string) ([]model.ConsentRecord, error)
	ListGrantedFlags(ctx context.Context) ([]model.CurrentFlag, error)

	// PurgeForDeletedAccounts removes ledger rows older than the cutoff
	// belonging to deleted accounts. Used by the retention sweep only.
	PurgeForDeletedAccounts(ctx context.Context, cutoff int64) (int64, error)
	// DeleteByUser removes the whole ledger for one user. Used by the
	// hard-delete execution path only.
	DeleteByUser(ctx context.Context, userID string) error
}

// store implements the ConsentStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// newConsentStore creates a new consent store
func newConsentStore(dbClient provider.DBClientInterface) ConsentStore {
	return &store{
		dbClient: dbClient,
	}
}

// CreateRecordWithTx appends a ledger record within a transaction
func (s *store) CreateRecordWithTx(tx dbmodel.TxInterface, record *model.ConsentRecord) error {
	_, err := tx.Exec(QueryCreateConsentRecord.Query,
		record.RecordID, record.UserID, string(record.ConsentType), record.IsGranted,
		record.ConsentTime, record.WithdrawnTime, record.Purpose, record.LegalBasis,
		record.ConsentVersion, record.IPAddress, record.UserAgent, record.CreatedTime)
	return err
}

// UpsertCurrentFlagWithTx updates the denormalized flag within a transaction
func (s *store) UpsertCurrentFlagWithTx(tx dbmodel.TxInterface, flag *model.CurrentFlag) error {
	_, err := tx.Exec(QueryUpsertCurrentFlag.Query,
		flag.UserID, string(flag.ConsentType), flag.IsGranted, flag.GrantTime, flag.UpdatedTime)
	return err
}

// ClearCurrentFlagWithTx conditionally clears a granted flag within a transaction
func (s *store) ClearCurrentFlagWithTx(tx dbmodel.TxInterface, userID string, consentType model.ConsentType, now int64) (bool, error) {
	result, err := tx.Exec(QueryClearCurrentFlagIfGranted.Query, now, userID, string(consentType))
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetLatestRecord retrieves the most recent ledger row for a pair
func (s *store) GetLatestRecord(ctx context.Context, userID string, consentType model.ConsentType) (*model.ConsentRecord, error) {
	rows, err := s.dbClient.Query(&QueryGetLatestRecord, userID, string(consentType))
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToConsentRecord(rows[0]), nil
}

// GetHistoryByUser retrieves all ledger rows for a user, newest first
func (s *store) GetHistoryByUser(ctx context.Context, userID string) ([]model.ConsentRecord, error) {
	rows, err := s.dbClient.Query(&QueryGetHistoryByUser, userID)
	if err != nil {
		return nil, err
	}

	records := make([]model.ConsentRecord, 0, len(rows))
	for _, row := range rows {
		record := mapToConsentRecord(row)
		if record != nil {
			records = append(records, *record)
		}
	}

	return records, nil
}

// ListGrantedFlags retrieves every denormalized flag currently granted
func (s *store) ListGrantedFlags(ctx context.Context) ([]model.CurrentFlag, error) {
	rows, err := s.dbClient.Query(&QueryListGrantedFlags)
	if err != nil {
		return nil, err
	}

	flags := make([]model.CurrentFlag, 0, len(rows))
	for _, row := range rows {
		flag := mapToCurrentFlag(row)
		if flag != nil {
			flags = append(flags, *flag)
		}
	}

	return flags, nil
}

// PurgeForDeletedAccounts removes aged ledger rows for deleted accounts
func (s *store) PurgeForDeletedAccounts(ctx context.Context, cutoff int64) (int64, error) {
	return s.dbClient.Execute(&QueryPurgeLedgerForDeletedAccounts, cutoff)
}

// DeleteByUser removes the whole ledger and flags for one user
func (s *store) DeleteByUser(ctx context.Context, userID string) error {
	if _, err := s.dbClient.Execute(&QueryDeleteLedgerByUser, userID); err != nil {
		return err
	}
	_, err := s.dbClient.Execute(&QueryDeleteFlagsByUser, userID)
	return err
}

// Mapper functions

func mapToConsentRecord(row map[string]interface{}) *model.ConsentRecord {
	if row == nil {
		return nil
	}

	record := &model.ConsentRecord{}

	if id, ok := row["RECORD_ID"].(string); ok {
		record.RecordID = id
	}
	if userID, ok := row["USER_ID"].(string); ok {
		record.UserID = userID
	}
	if cType, ok := row["CONSENT_TYPE"].(string); ok {
		record.ConsentType = model.ConsentType(cType)
	}
	if granted, ok := row["IS_GRANTED"].(int64); ok {
		record.IsGranted = granted != 0
	} else if granted, ok := row["IS_GRANTED"].(bool); ok {
		record.IsGranted = granted
	}
	if consentTime, ok := row["CONSENT_TIME"].(int64); ok {
		record.ConsentTime = consentTime
	}
	if withdrawn, ok := row["WITHDRAWN_TIME"].(int64); ok {
		record.WithdrawnTime = &withdrawn
	}
	if purpose, ok := row["PURPOSE"].(string); ok {
		record.Purpose = purpose
	}
	if basis, ok := row["LEGAL_BASIS"].(string); ok {
		record.LegalBasis = basis
	}
	if version, ok := row["CONSENT_VERSION"].(string); ok {
		record.ConsentVersion = version
	}
	if ip, ok := row["IP_ADDRESS"].(string); ok {
		record.IPAddress = &ip
	}
	if ua, ok := row["USER_AGENT"].(string); ok {
		record.UserAgent = &ua
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		record.CreatedTime = created
	}

	return record
}

func mapToCurrentFlag(row map[string]interface{}) *model.CurrentFlag {
	if row == nil {
		return nil
	}

	flag := &model.CurrentFlag{}

	if userID, ok := row["USER_ID"].(string); ok {
		flag.UserID = userID
	}
	if cType, ok := row["CONSENT_TYPE"].(string); ok {
		flag.ConsentType = model.ConsentType(cType)
	}
	if granted, ok := row["IS_GRANTED"].(int64); ok {
		flag.IsGranted = granted != 0
	} else if granted, ok := row["IS_GRANTED"].(bool); ok {
		flag.IsGranted = granted
	}
	if grantTime, ok := row["GRANT_TIME"].(int64); ok {
		flag.GrantTime = grantTime
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		flag.UpdatedTime = updated
	}

	return flag
}
