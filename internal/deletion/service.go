package deletion

import (
	"context"
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/audit"
	auditmodel "github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/consent"
	"github.com/fittrack/privacy-rights-api/internal/deletion/model"
	"github.com/fittrack/privacy-rights-api/internal/export"
	"github.com/fittrack/privacy-rights-api/internal/notification"
	"github.com/fittrack/privacy-rights-api/internal/rectification"
	"github.com/fittrack/privacy-rights-api/internal/system/config"
	"github.com/fittrack/privacy-rights-api/internal/system/constants"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/log"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
)

// DeletionService defines the exported service interface
type DeletionService interface {
	// Create registers a Pending request with a single-use confirmation
	// token and sends the confirmation notification. At most one active
	// request per user.
	Create(ctx context.Context, userID string, req model.DeletionCreateAPIRequest) (*model.AccountDeletionRequest, *serviceerror.ServiceError)
	// Confirm burns the token: Pending becomes Processing with the
	// deletion scheduled and the recovery window opened.
	Confirm(ctx context.Context, token string) (*model.AccountDeletionRequest, *serviceerror.ServiceError)
	// Recover cancels a confirmed request while its recovery window is
	// open and reinstates the account flags.
	Recover(ctx context.Context, userID string) (*model.AccountDeletionRequest, *serviceerror.ServiceError)
	// Execute performs the deletion for a Processing request whose
	// schedule has arrived and whose recovery window is over.
	Execute(ctx context.Context, requestID, processedBy string) (*model.AccountDeletionRequest, *serviceerror.ServiceError)
	Get(ctx context.Context, userID, requestID string) (*model.AccountDeletionRequest, *serviceerror.ServiceError)
	GetActive(ctx context.Context, userID string) (*model.AccountDeletionRequest, *serviceerror.ServiceError)
	// SweepExpired closes Pending requests whose confirmation token has
	// lapsed. Safe to run repeatedly.
	SweepExpired(ctx context.Context) (int, error)
	// ExecuteDue runs every confirmed request that is past its schedule
	// and recovery window.
	ExecuteDue(ctx context.Context) (int, error)
}

// deletionService implements the DeletionService interface
type deletionService struct {
	stores   *stores.StoreRegistry
	auditor  audit.AuditService
	notifier notification.Sender
	userData userdata.UserDataStore
	now      func() int64
}

// newDeletionService creates a new deletion service
func newDeletionService(registry *stores.StoreRegistry, auditor audit.AuditService,
	notifier notification.Sender, userData userdata.UserDataStore) DeletionService {
	return &deletionService{
		stores:   registry,
		auditor:  auditor,
		notifier: notifier,
		userData: userData,
		now:      utils.GetCurrentTimeMillis,
	}
}

// Create registers a Pending deletion request behind the single-active
// guard.
func (deletionService *deletionService) Create(ctx context.Context, userID string, req model.DeletionCreateAPIRequest) (*model.AccountDeletionRequest, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}
	deletionType := model.DeletionType(req.DeletionType)
	if !deletionType.IsValid() {
		deletionService.auditFailure(ctx, "deletion.create", &userID, nil,
			fmt.Sprintf("unknown deletion type: %s", req.DeletionType))
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
			fmt.Sprintf("unknown deletion type: %s", req.DeletionType))
	}

	token, err := utils.GenerateConfirmationToken()
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.InternalServerError, err.Error())
	}

	cfg := config.Get().Deletion
	currentTime := deletionService.now()

	request := &model.AccountDeletionRequest{
		RequestID:           utils.GenerateUUID(),
		UserID:              userID,
		Reason:              req.Reason,
		DeletionType:        deletionType,
		Status:              model.DeletionStatusPending,
		ConfirmationToken:   token,
		TokenExpirationDate: currentTime + utils.DaysToMillis(cfg.TokenTTLDays),
		RecoveryPeriodDays:  cfg.RecoveryPeriodDays,
		CreatedTime:         currentTime,
		UpdatedTime:         currentTime,
	}

	deletionStore := deletionService.stores.Deletion.(DeletionStore)
	inserted, err := deletionStore.CreateIfNoneActive(ctx, request)
	if err != nil {
		deletionService.auditFailure(ctx, "deletion.create", &userID, nil, err.Error())
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !inserted {
		deletionService.auditFailure(ctx, "deletion.create", &userID, nil, "an active deletion request already exists")
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			"an active deletion request already exists for this user")
	}

	deletionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "deletion.created",
		EntityType:   auditmodel.EntityTypeDeletion,
		EntityID:     &request.RequestID,
		UserID:       &userID,
		Details:      fmt.Sprintf("type=%s", deletionType),
		IsSuccessful: true,
	})

	params := map[string]string{
		"requestId": request.RequestID,
		"token":     token,
	}
	if err := deletionService.notifier.Send(ctx, userID, notification.TemplateDeletionConfirmation, params); err != nil {
		logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DeletionService"))
		logger.Warn("Deletion confirmation notification failed", log.Error(err), log.String("request_id", request.RequestID))
	}

	return request, nil
}

// Confirm burns the single-use token and opens the recovery window.
func (deletionService *deletionService) Confirm(ctx context.Context, token string) (*model.AccountDeletionRequest, *serviceerror.ServiceError) {
	if token == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "confirmation token is required")
	}

	cfg := config.Get().Deletion
	currentTime := deletionService.now()
	scheduledDate := currentTime + utils.DaysToMillis(cfg.ScheduleDelayDays)
	recoveryDeadline := currentTime + utils.DaysToMillis(cfg.RecoveryPeriodDays)

	deletionStore := deletionService.stores.Deletion.(DeletionStore)
	confirmed, err := deletionStore.ConfirmByToken(ctx, token, currentTime, scheduledDate, recoveryDeadline, currentTime)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !confirmed {
		// Distinguish an unknown token from a used or expired one for the
		// caller; the guard query treats them all the same.
		request, lookupErr := deletionStore.GetByToken(ctx, token)
		if lookupErr == nil && request != nil {
			deletionService.auditFailure(ctx, "deletion.confirm", &request.UserID, &request.RequestID,
				fmt.Sprintf("token rejected in status %s", request.Status))
			return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
				"confirmation token already used or expired")
		}
		deletionService.auditFailure(ctx, "deletion.confirm", nil, nil, "unknown confirmation token")
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError, "unknown confirmation token")
	}

	request, err := deletionStore.GetByToken(ctx, token)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	deletionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "deletion.confirmed",
		EntityType:   auditmodel.EntityTypeDeletion,
		EntityID:     &request.RequestID,
		UserID:       &request.UserID,
		Details:      fmt.Sprintf("scheduled=%d recoveryDeadline=%d", scheduledDate, recoveryDeadline),
		IsSuccessful: true,
	})

	return request, nil
}

// Recover cancels the user's confirmed request inside the recovery
// window and reinstates the account.
func (deletionService *deletionService) Recover(ctx context.Context, userID string) (*model.AccountDeletionRequest, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	deletionStore := deletionService.stores.Deletion.(DeletionStore)

	request, err := deletionStore.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if request == nil || request.Status != model.DeletionStatusProcessing {
		deletionService.auditFailure(ctx, "deletion.recover", &userID, nil, "no recoverable deletion request")
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			"no recoverable deletion request for this user")
	}

	currentTime := deletionService.now()
	cancelled, err := deletionStore.Cancel(ctx, request.RequestID, currentTime)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !cancelled {
		deletionService.auditFailure(ctx, "deletion.recover", &userID, &request.RequestID, "recovery window closed")
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			"the recovery window for this request has closed")
	}

	// Soft-deletion flags may already be set once execution ran; clear
	// them so the account is usable again.
	if err := deletionService.userData.ClearDeletionFlag(ctx, userID); err != nil {
		logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DeletionService"))
		logger.Warn("Account flag reinstatement failed", log.Error(err), log.String("user_id", userID))
	}

	deletionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "deletion.recovered",
		EntityType:   auditmodel.EntityTypeDeletion,
		EntityID:     &request.RequestID,
		UserID:       &userID,
		IsSuccessful: true,
	})

	if err := deletionService.notifier.Send(ctx, userID, notification.TemplateDeletionCancelled, map[string]string{
		"requestId": request.RequestID,
	}); err != nil {
		logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DeletionService"))
		logger.Warn("Deletion cancelled notification failed", log.Error(err), log.String("request_id", request.RequestID))
	}

	return deletionService.reload(ctx, request.RequestID)
}

// Execute runs the deletion for one Processing request.
func (deletionService *deletionService) Execute(ctx context.Context, requestID, processedBy string) (*model.AccountDeletionRequest, *serviceerror.ServiceError) {
	deletionStore := deletionService.stores.Deletion.(DeletionStore)

	request, err := deletionStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if request == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("deletion request %s not found", requestID))
	}
	if request.Status != model.DeletionStatusProcessing {
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			fmt.Sprintf("deletion request is %s, not executable", request.Status))
	}

	currentTime := deletionService.now()
	if request.ScheduledDeletionDate != nil && currentTime < *request.ScheduledDeletionDate {
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			"deletion request is not yet due")
	}
	if request.IsRecoveryActive && request.RecoveryDeadline != nil && currentTime < *request.RecoveryDeadline {
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			"recovery window is still open")
	}

	// The claim is the authoritative guard: the destructive work below
	// must run at most once per request, no matter how many executors
	// read the row as due.
	claimed, err := deletionStore.ClaimForExecution(ctx, requestID, processedBy, currentTime)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !claimed {
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			"deletion request is already being executed")
	}

	execErr := deletionService.executeByType(ctx, request)

	status := model.DeletionStatusCompleted
	details := fmt.Sprintf("type=%s", request.DeletionType)
	if execErr != nil {
		status = model.DeletionStatusFailed
		details = execErr.Error()
	}

	finished, err := deletionStore.Finish(ctx, requestID, status, processedBy, deletionService.now())
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !finished {
		deletionService.auditFailure(ctx, "deletion.executed", &request.UserID, &requestID,
			"request left Processing before the outcome was recorded")
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			"deletion request left Processing before the outcome was recorded")
	}

	deletionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "deletion.executed",
		EntityType:   auditmodel.EntityTypeDeletion,
		EntityID:     &requestID,
		UserID:       &request.UserID,
		AdminUserID:  &processedBy,
		Details:      details,
		IsSuccessful: execErr == nil,
	})

	return deletionService.reload(ctx, requestID)
}

// reload re-reads a request after a transition.
func (deletionService *deletionService) reload(ctx context.Context, requestID string) (*model.AccountDeletionRequest, *serviceerror.ServiceError) {
	deletionStore := deletionService.stores.Deletion.(DeletionStore)
	request, err := deletionStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return request, nil
}

// executeByType applies the deletion method.
func (deletionService *deletionService) executeByType(ctx context.Context, request *model.AccountDeletionRequest) error {
	switch request.DeletionType {
	case model.DeletionTypeSoft:
		return deletionService.userData.SetDeletionFlag(ctx, request.UserID, deletionService.now())

	case model.DeletionTypeAnonymize:
		return deletionService.userData.Anonymize(ctx, request.UserID)

	case model.DeletionTypeHard:
		if err := deletionService.userData.HardDelete(ctx, request.UserID); err != nil {
			return err
		}
		// Dependent privacy records go with the account.
		consentStore := deletionService.stores.Consent.(consent.ConsentStore)
		if err := consentStore.DeleteByUser(ctx, request.UserID); err != nil {
			return fmt.Errorf("consent ledger removal failed: %w", err)
		}
		exportStore := deletionService.stores.Export.(export.ExportStore)
		if err := exportStore.DeleteByUser(ctx, request.UserID); err != nil {
			return fmt.Errorf("export request removal failed: %w", err)
		}
		rectificationStore := deletionService.stores.Rectification.(rectification.RectificationStore)
		if err := rectificationStore.DeleteByUser(ctx, request.UserID); err != nil {
			return fmt.Errorf("rectification request removal failed: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown deletion type: %s", request.DeletionType)
	}
}

// Get retrieves one request and enforces ownership.
func (deletionService *deletionService) Get(ctx context.Context, userID, requestID string) (*model.AccountDeletionRequest, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	deletionStore := deletionService.stores.Deletion.(DeletionStore)
	request, err := deletionStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if request == nil || request.UserID != userID {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("deletion request %s not found", requestID))
	}

	return request, nil
}

// GetActive retrieves the user's active request.
func (deletionService *deletionService) GetActive(ctx context.Context, userID string) (*model.AccountDeletionRequest, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	deletionStore := deletionService.stores.Deletion.(DeletionStore)
	request, err := deletionStore.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if request == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			"no active deletion request for this user")
	}

	return request, nil
}

// SweepExpired closes Pending requests with lapsed tokens.
func (deletionService *deletionService) SweepExpired(ctx context.Context) (int, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DeletionService"))

	deletionStore := deletionService.stores.Deletion.(DeletionStore)
	currentTime := deletionService.now()

	requests, err := deletionStore.ListPendingExpiredTokens(ctx, currentTime)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, request := range requests {
		moved, err := deletionStore.Expire(ctx, request.RequestID, currentTime)
		if err != nil {
			logger.Warn("Expire transition failed", log.Error(err), log.String("request_id", request.RequestID))
			continue
		}
		if moved {
			expired++
			deletionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
				Action:       "deletion.expired",
				EntityType:   auditmodel.EntityTypeDeletion,
				EntityID:     &request.RequestID,
				UserID:       &request.UserID,
				IsSuccessful: true,
			})
		}
	}

	return expired, nil
}

// ExecuteDue runs every confirmed request past its schedule and
// recovery window, as the system actor.
func (deletionService *deletionService) ExecuteDue(ctx context.Context) (int, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "DeletionService"))

	deletionStore := deletionService.stores.Deletion.(DeletionStore)
	requests, err := deletionStore.ListDueForExecution(ctx, deletionService.now())
	if err != nil {
		return 0, err
	}

	executed := 0
	for _, request := range requests {
		if _, svcErr := deletionService.Execute(ctx, request.RequestID, constants.SystemActor); svcErr != nil {
			logger.Warn("Scheduled deletion execution failed",
				log.String("request_id", request.RequestID),
				log.String("error", svcErr.ErrorDescription),
			)
			continue
		}
		executed++
	}

	return executed, nil
}

func (deletionService *deletionService) auditFailure(ctx context.Context, action string, userID, entityID *string, details string) {
	deletionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       action,
		EntityType:   auditmodel.EntityTypeDeletion,
		EntityID:     entityID,
		UserID:       userID,
		Details:      details,
		IsSuccessful: false,
	})
}
