package consent

import (
	"context"
	"errors"
	"fmt"

	auditmodel "github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/audit"
	"github.com/fittrack/privacy-rights-api/internal/consent/model"
	"github.com/fittrack/privacy-rights-api/internal/consent/validator"
	"github.com/fittrack/privacy-rights-api/internal/notification"
	"github.com/fittrack/privacy-rights-api/internal/system/config"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/log"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

// ConsentService defines the exported service interface
type ConsentService interface {
	Grant(ctx context.Context, userID string, req model.ConsentGrantAPIRequest, prov model.Provenance) (*model.ConsentRecord, *serviceerror.ServiceError)
	Withdraw(ctx context.Context, userID string, consentType model.ConsentType, prov model.Provenance) (bool, *serviceerror.ServiceError)
	BulkWithdraw(ctx context.Context, userID string, consentTypes []model.ConsentType, prov model.Provenance) ([]model.BulkWithdrawResult, *serviceerror.ServiceError)
	CurrentStatus(ctx context.Context, userID string, consentType model.ConsentType) (*model.ConsentStatusResponse, *serviceerror.ServiceError)
	History(ctx context.Context, userID string) (*model.ConsentHistoryResponse, *serviceerror.ServiceError)
	// SweepExpiring notifies users whose granted consent has passed its
	// re-consent window. The ledger itself is never mutated by the sweep.
	SweepExpiring(ctx context.Context) (int, error)
}

// errNoActiveGrant aborts a withdrawal transaction when the grant was
// already withdrawn by a concurrent call.
var errNoActiveGrant = errors.New("no currently-granted record")

// consentService implements the ConsentService interface
type consentService struct {
	stores   *stores.StoreRegistry
	auditor  audit.AuditService
	notifier notification.Sender
	now      func() int64
}

// newConsentService creates a new consent service
func newConsentService(registry *stores.StoreRegistry, auditor audit.AuditService, notifier notification.Sender) ConsentService {
	return &consentService{
		stores:   registry,
		auditor:  auditor,
		notifier: notifier,
		now:      utils.GetCurrentTimeMillis,
	}
}

// Grant appends a granted ledger record and refreshes the denormalized
// current flag in the same transaction.
func (consentService *consentService) Grant(ctx context.Context, userID string, req model.ConsentGrantAPIRequest, prov model.Provenance) (*model.ConsentRecord, *serviceerror.ServiceError) {
	if err := validator.ValidateGrantRequest(req, userID); err != nil {
		consentService.auditFailure(ctx, "consent.grant", userID, prov, err.Error())
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	currentTime := consentService.now()
	consentType := model.ConsentType(req.ConsentType)

	record := &model.ConsentRecord{
		RecordID:       utils.GenerateUUID(),
		UserID:         userID,
		ConsentType:    consentType,
		IsGranted:      true,
		ConsentTime:    currentTime,
		Purpose:        req.Purpose,
		LegalBasis:     req.LegalBasis,
		ConsentVersion: req.ConsentVersion,
		CreatedTime:    currentTime,
	}
	if prov.IPAddress != "" {
		record.IPAddress = &prov.IPAddress
	}
	if prov.UserAgent != "" {
		record.UserAgent = &prov.UserAgent
	}

	flag := &model.CurrentFlag{
		UserID:      userID,
		ConsentType: consentType,
		IsGranted:   true,
		GrantTime:   currentTime,
		UpdatedTime: currentTime,
	}

	consentStore := consentService.stores.Consent.(ConsentStore)
	err := consentService.stores.ExecuteTransaction([]func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			return consentStore.CreateRecordWithTx(tx, record)
		},
		func(tx dbmodel.TxInterface) error {
			return consentStore.UpsertCurrentFlagWithTx(tx, flag)
		},
	})
	if err != nil {
		consentService.auditFailure(ctx, "consent.grant", userID, prov, err.Error())
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to append consent record: %v", err))
	}

	consentService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "consent.granted",
		EntityType:   auditmodel.EntityTypeConsent,
		EntityID:     &record.RecordID,
		UserID:       &userID,
		IPAddress:    record.IPAddress,
		UserAgent:    record.UserAgent,
		Details:      fmt.Sprintf("type=%s purpose=%s legalBasis=%s version=%s", consentType, req.Purpose, req.LegalBasis, req.ConsentVersion),
		IsSuccessful: true,
	})

	return record, nil
}

// Withdraw appends a withdrawal record referencing the grant being
// withdrawn. Returns false when no currently-granted record exists.
func (consentService *consentService) Withdraw(ctx context.Context, userID string, consentType model.ConsentType, prov model.Provenance) (bool, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return false, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if !consentType.IsValid() {
		return false, serviceerror.CustomServiceError(serviceerror.ValidationError, fmt.Sprintf("unknown consent type: %s", consentType))
	}

	consentStore := consentService.stores.Consent.(ConsentStore)

	latest, err := consentStore.GetLatestRecord(ctx, userID, consentType)
	if err != nil {
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if latest == nil || !latest.IsGranted || latest.WithdrawnTime != nil {
		consentService.auditFailure(ctx, "consent.withdraw", userID, prov,
			fmt.Sprintf("no currently-granted record for type %s", consentType))
		return false, nil
	}

	currentTime := consentService.now()

	// The withdrawal row carries the purpose, legal basis and version of
	// the grant being withdrawn.
	record := &model.ConsentRecord{
		RecordID:       utils.GenerateUUID(),
		UserID:         userID,
		ConsentType:    consentType,
		IsGranted:      false,
		ConsentTime:    currentTime,
		WithdrawnTime:  &currentTime,
		Purpose:        latest.Purpose,
		LegalBasis:     latest.LegalBasis,
		ConsentVersion: latest.ConsentVersion,
		CreatedTime:    currentTime,
	}
	if prov.IPAddress != "" {
		record.IPAddress = &prov.IPAddress
	}
	if prov.UserAgent != "" {
		record.UserAgent = &prov.UserAgent
	}

	// The conditional flag clear runs first: it serializes concurrent
	// withdrawals of the same pair, so the ledger gains exactly one
	// withdrawal row per grant.
	err = consentService.stores.ExecuteTransaction([]func(tx dbmodel.TxInterface) error{
		func(tx dbmodel.TxInterface) error {
			cleared, clearErr := consentStore.ClearCurrentFlagWithTx(tx, userID, consentType, currentTime)
			if clearErr != nil {
				return clearErr
			}
			if !cleared {
				return errNoActiveGrant
			}
			return nil
		},
		func(tx dbmodel.TxInterface) error {
			return consentStore.CreateRecordWithTx(tx, record)
		},
	})
	if errors.Is(err, errNoActiveGrant) {
		consentService.auditFailure(ctx, "consent.withdraw", userID, prov,
			fmt.Sprintf("no currently-granted record for type %s", consentType))
		return false, nil
	}
	if err != nil {
		consentService.auditFailure(ctx, "consent.withdraw", userID, prov, err.Error())
		return false, serviceerror.CustomServiceError(serviceerror.DatabaseError, fmt.Sprintf("failed to append withdrawal record: %v", err))
	}

	consentService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "consent.withdrawn",
		EntityType:   auditmodel.EntityTypeConsent,
		EntityID:     &record.RecordID,
		UserID:       &userID,
		IPAddress:    record.IPAddress,
		UserAgent:    record.UserAgent,
		Details:      fmt.Sprintf("type=%s purpose=%s legalBasis=%s", consentType, record.Purpose, record.LegalBasis),
		IsSuccessful: true,
	})

	return true, nil
}

// BulkWithdraw withdraws a set of types. Each type's ledger entry is
// independent; partial failure is reported per type.
func (consentService *consentService) BulkWithdraw(ctx context.Context, userID string, consentTypes []model.ConsentType, prov model.Provenance) ([]model.BulkWithdrawResult, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if len(consentTypes) == 0 {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "at least one consent type is required")
	}

	results := make([]model.BulkWithdrawResult, 0, len(consentTypes))
	for _, consentType := range consentTypes {
		withdrawn, svcErr := consentService.Withdraw(ctx, userID, consentType, prov)
		result := model.BulkWithdrawResult{
			ConsentType: consentType,
			Withdrawn:   withdrawn,
		}
		if svcErr != nil {
			result.Error = svcErr.ErrorDescription
		} else if !withdrawn {
			result.Error = "no currently-granted record"
		}
		results = append(results, result)
	}

	return results, nil
}

// CurrentStatus derives the effective status for a (user, type) pair:
// the most recent record must be granted, not withdrawn, and within the
// per-type re-consent window.
func (consentService *consentService) CurrentStatus(ctx context.Context, userID string, consentType model.ConsentType) (*model.ConsentStatusResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	if !consentType.IsValid() {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, fmt.Sprintf("unknown consent type: %s", consentType))
	}

	consentStore := consentService.stores.Consent.(ConsentStore)
	latest, err := consentStore.GetLatestRecord(ctx, userID, consentType)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	response := &model.ConsentStatusResponse{
		UserID:      userID,
		ConsentType: consentType,
		IsGranted:   false,
	}

	if latest == nil || !latest.IsGranted || latest.WithdrawnTime != nil {
		return response, nil
	}

	expiresTime, expired := consentService.expiry(consentType, latest.ConsentTime)
	if expired {
		// Past the re-consent window the grant is treated as not
		// current even though no explicit withdrawal exists.
		return response, nil
	}

	response.IsGranted = true
	response.ExpiresTime = expiresTime
	return response, nil
}

// History lists the full ledger for a user, newest first.
func (consentService *consentService) History(ctx context.Context, userID string) (*model.ConsentHistoryResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	consentStore := consentService.stores.Consent.(ConsentStore)
	records, err := consentStore.GetHistoryByUser(ctx, userID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	return &model.ConsentHistoryResponse{
		UserID: userID,
		Data:   records,
	}, nil
}

// SweepExpiring sends a re-consent reminder for every granted flag past
// its window.
func (consentService *consentService) SweepExpiring(ctx context.Context) (int, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ConsentService"))

	consentStore := consentService.stores.Consent.(ConsentStore)
	flags, err := consentStore.ListGrantedFlags(ctx)
	if err != nil {
		return 0, err
	}

	notified := 0
	for _, flag := range flags {
		_, expired := consentService.expiry(flag.ConsentType, flag.GrantTime)
		if !expired {
			continue
		}
		params := map[string]string{
			"consentType": string(flag.ConsentType),
		}
		if err := consentService.notifier.Send(ctx, flag.UserID, notification.TemplateReconsentReminder, params); err != nil {
			logger.Warn("Re-consent reminder failed",
				log.Error(err),
				log.String("user_id", flag.UserID),
				log.String("consent_type", string(flag.ConsentType)),
			)
			continue
		}
		notified++
	}

	return notified, nil
}

// expiry returns the expiration time for a grant (nil when the type
// never expires) and whether it has already passed.
func (consentService *consentService) expiry(consentType model.ConsentType, grantTime int64) (*int64, bool) {
	months := config.Get().Consent.ExpiryWindowMonths(string(consentType))
	if months <= 0 {
		return nil, false
	}
	expiresTime := grantTime + utils.MonthsToMillis(months)
	return &expiresTime, consentService.now() >= expiresTime
}

func (consentService *consentService) auditFailure(ctx context.Context, action, userID string, prov model.Provenance, details string) {
	entry := auditmodel.AuditLogEntry{
		Action:       action,
		EntityType:   auditmodel.EntityTypeConsent,
		UserID:       &userID,
		Details:      details,
		IsSuccessful: false,
	}
	if prov.IPAddress != "" {
		entry.IPAddress = &prov.IPAddress
	}
	if prov.UserAgent != "" {
		entry.UserAgent = &prov.UserAgent
	}
	consentService.auditor.Record(ctx, entry)
}
