package export

import (
	"context"
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/artifact"
	"github.com/fittrack/privacy-rights-api/internal/audit"
	auditmodel "github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/export/model"
	"github.com/fittrack/privacy-rights-api/internal/export/validator"
	"github.com/fittrack/privacy-rights-api/internal/notification"
	"github.com/fittrack/privacy-rights-api/internal/system/config"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/log"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
)

// ExportService defines the exported service interface
type ExportService interface {
	// Create registers a Pending request and dispatches processing
	// asynchronously. At most one request per user per rate-limit window.
	Create(ctx context.Context, userID, format string) (*model.DataExportRequest, *serviceerror.ServiceError)
	// Process drives one request Pending→Processing→Completed|Failed.
	// A request that is not Pending is left alone.
	Process(ctx context.Context, requestID string) error
	Download(ctx context.Context, userID, requestID string) ([]byte, *model.DataExportRequest, *serviceerror.ServiceError)
	Get(ctx context.Context, userID, requestID string) (*model.DataExportRequest, *serviceerror.ServiceError)
	List(ctx context.Context, userID string) (*model.ExportListResponse, *serviceerror.ServiceError)
	// SweepExpired expires completed requests past the artifact TTL and
	// deletes their artifacts. Safe to run repeatedly.
	SweepExpired(ctx context.Context) (int, error)
}

// exportService implements the ExportService interface
type exportService struct {
	stores    *stores.StoreRegistry
	auditor   audit.AuditService
	notifier  notification.Sender
	artifacts artifact.Store
	userData  userdata.UserDataStore
	now       func() int64
	// dispatch hands a created request to the processing worker.
	dispatch func(requestID string)
}

// newExportService creates a new export service
func newExportService(registry *stores.StoreRegistry, auditor audit.AuditService,
	notifier notification.Sender, artifacts artifact.Store, userData userdata.UserDataStore) ExportService {
	service := &exportService{
		stores:    registry,
		auditor:   auditor,
		notifier:  notifier,
		artifacts: artifacts,
		userData:  userData,
		now:       utils.GetCurrentTimeMillis,
	}
	service.dispatch = func(requestID string) {
		go func() {
			if err := service.Process(context.Background(), requestID); err != nil {
				logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ExportService"))
				logger.Error("Export processing failed", log.Error(err), log.String("request_id", requestID))
			}
		}()
	}
	return service
}

// Create registers a Pending export request behind the per-user rate
// limit and returns it immediately.
func (exportService *exportService) Create(ctx context.Context, userID, format string) (*model.DataExportRequest, *serviceerror.ServiceError) {
	req := model.ExportCreateAPIRequest{Format: format}
	if err := validator.ValidateCreateRequest(req, userID); err != nil {
		exportService.auditFailure(ctx, "export.create", userID, nil, err.Error())
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	cfg := config.Get().Export
	currentTime := exportService.now()
	request := &model.DataExportRequest{
		RequestID:      utils.GenerateUUID(),
		UserID:         userID,
		Status:         model.ExportStatusPending,
		Format:         model.ExportFormat(format),
		RequestDate:    currentTime,
		ExpirationDate: currentTime + utils.DaysToMillis(cfg.ArtifactTTLDays),
		CreatedTime:    currentTime,
		UpdatedTime:    currentTime,
	}

	windowStart := currentTime - cfg.RateLimitWindow.Milliseconds()

	exportStore := exportService.stores.Export.(ExportStore)
	inserted, err := exportStore.CreateIfAllowed(ctx, request, windowStart)
	if err != nil {
		exportService.auditFailure(ctx, "export.create", userID, nil, err.Error())
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !inserted {
		exportService.auditFailure(ctx, "export.create", userID, nil, "rate limit: a request exists within the window")
		return nil, serviceerror.CustomServiceError(serviceerror.RateLimitError,
			"an export request was already made within the rate-limit window")
	}

	exportService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "export.created",
		EntityType:   auditmodel.EntityTypeExport,
		EntityID:     &request.RequestID,
		UserID:       &userID,
		Details:      fmt.Sprintf("format=%s", request.Format),
		IsSuccessful: true,
	})

	exportService.dispatch(request.RequestID)

	return request, nil
}

// Process collects, serializes and stores the payload for one request.
func (exportService *exportService) Process(ctx context.Context, requestID string) error {
	exportStore := exportService.stores.Export.(ExportStore)

	claimed, err := exportStore.TransitionStatus(ctx, requestID,
		model.ExportStatusPending, model.ExportStatusProcessing, exportService.now())
	if err != nil {
		return err
	}
	if !claimed {
		// Another worker holds it, or it already finished.
		return nil
	}

	request, err := exportStore.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if request == nil {
		return fmt.Errorf("export request %s vanished after claim", requestID)
	}

	bundle, err := exportService.userData.Collect(ctx, request.UserID)
	if err != nil {
		return exportService.fail(ctx, request, fmt.Sprintf("data collection failed: %v", err))
	}

	payload, err := serializeBundle(bundle, request.Format)
	if err != nil {
		return exportService.fail(ctx, request, fmt.Sprintf("serialization failed: %v", err))
	}

	ref, err := exportService.artifacts.Put(ctx, request.RequestID, request.Format.Extension(), payload)
	if err != nil {
		return exportService.fail(ctx, request, fmt.Sprintf("artifact store failed: %v", err))
	}

	completed, err := exportStore.Complete(ctx, requestID, ref, int64(len(payload)), exportService.now())
	if err != nil {
		return err
	}
	if !completed {
		return fmt.Errorf("export request %s left Processing before completion", requestID)
	}

	exportService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "export.completed",
		EntityType:   auditmodel.EntityTypeExport,
		EntityID:     &request.RequestID,
		UserID:       &request.UserID,
		Details:      fmt.Sprintf("format=%s sizeBytes=%d", request.Format, len(payload)),
		IsSuccessful: true,
	})

	params := map[string]string{"requestId": request.RequestID}
	if err := exportService.notifier.Send(ctx, request.UserID, notification.TemplateExportReady, params); err != nil {
		logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ExportService"))
		logger.Warn("Export-ready notification failed", log.Error(err), log.String("request_id", requestID))
	}

	return nil
}

// fail records the terminal failure. There is no automatic retry.
func (exportService *exportService) fail(ctx context.Context, request *model.DataExportRequest, message string) error {
	exportStore := exportService.stores.Export.(ExportStore)
	if _, err := exportStore.Fail(ctx, request.RequestID, message, exportService.now()); err != nil {
		return err
	}
	exportService.auditFailure(ctx, "export.process", request.UserID, &request.RequestID, message)
	return nil
}

// Download serves the artifact bytes to the owner of a completed request.
func (exportService *exportService) Download(ctx context.Context, userID, requestID string) ([]byte, *model.DataExportRequest, *serviceerror.ServiceError) {
	request, svcErr := exportService.Get(ctx, userID, requestID)
	if svcErr != nil {
		return nil, nil, svcErr
	}

	if request.Status != model.ExportStatusCompleted || request.ArtifactRef == nil {
		return nil, nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			fmt.Sprintf("export request is %s, not downloadable", request.Status))
	}

	payload, err := exportService.artifacts.Get(ctx, *request.ArtifactRef)
	if err != nil {
		return nil, nil, serviceerror.CustomServiceError(serviceerror.DependencyFailureError, err.Error())
	}

	exportStore := exportService.stores.Export.(ExportStore)
	if err := exportStore.RecordDownload(ctx, requestID, exportService.now()); err != nil {
		logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ExportService"))
		logger.Warn("Download bookkeeping update failed", log.Error(err), log.String("request_id", requestID))
	}

	exportService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "export.downloaded",
		EntityType:   auditmodel.EntityTypeExport,
		EntityID:     &requestID,
		UserID:       &userID,
		IsSuccessful: true,
	})

	return payload, request, nil
}

// Get retrieves one request and enforces ownership.
func (exportService *exportService) Get(ctx context.Context, userID, requestID string) (*model.DataExportRequest, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	exportStore := exportService.stores.Export.(ExportStore)
	request, err := exportStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if request == nil || request.UserID != userID {
		// Ownership failures read as not-found so request IDs leak nothing.
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("export request %s not found", requestID))
	}

	return request, nil
}

// List retrieves a user's requests, newest first.
func (exportService *exportService) List(ctx context.Context, userID string) (*model.ExportListResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	exportStore := exportService.stores.Export.(ExportStore)
	requests, err := exportStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	return &model.ExportListResponse{UserID: userID, Data: requests}, nil
}

// SweepExpired deletes artifacts of completed requests past their
// expiration date and marks the requests Expired, then fails requests
// stranded in Processing by a dead worker. Re-running after a partial
// failure only touches rows still in the swept status, so the sweep is
// idempotent.
func (exportService *exportService) SweepExpired(ctx context.Context) (int, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ExportService"))

	currentTime := exportService.now()

	exportStore := exportService.stores.Export.(ExportStore)
	requests, err := exportStore.ListExpiredCompleted(ctx, currentTime)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, request := range requests {
		if request.ArtifactRef != nil {
			if err := exportService.artifacts.Delete(ctx, *request.ArtifactRef); err != nil {
				// Keep the row Completed so the next sweep retries the
				// artifact deletion.
				logger.Warn("Artifact deletion failed, will retry next sweep",
					log.Error(err), log.String("request_id", request.RequestID))
				continue
			}
		}

		moved, err := exportStore.TransitionStatus(ctx, request.RequestID,
			model.ExportStatusCompleted, model.ExportStatusExpired, exportService.now())
		if err != nil {
			logger.Warn("Expire transition failed", log.Error(err), log.String("request_id", request.RequestID))
			continue
		}
		if moved {
			expired++
			exportService.auditor.Record(ctx, auditmodel.AuditLogEntry{
				Action:       "export.expired",
				EntityType:   auditmodel.EntityTypeExport,
				EntityID:     &request.RequestID,
				UserID:       &request.UserID,
				IsSuccessful: true,
			})
		}
	}

	failed, err := exportService.failStaleProcessing(ctx, currentTime)
	if err != nil {
		logger.Warn("Stale-processing recovery failed", log.Error(err))
	}

	return expired + failed, nil
}

// failStaleProcessing closes out requests whose worker died between the
// Processing claim and the terminal write, so the row never blocks the
// user's next export forever.
func (exportService *exportService) failStaleProcessing(ctx context.Context, now int64) (int, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "ExportService"))

	timeout := config.Get().Export.ProcessingTimeout
	if timeout <= 0 {
		return 0, nil
	}

	exportStore := exportService.stores.Export.(ExportStore)
	stale, err := exportStore.ListStaleProcessing(ctx, now-timeout.Milliseconds())
	if err != nil {
		return 0, err
	}

	failed := 0
	for _, request := range stale {
		moved, err := exportStore.Fail(ctx, request.RequestID,
			"processing did not finish within the allowed time", exportService.now())
		if err != nil {
			logger.Warn("Stale-processing fail transition errored",
				log.Error(err), log.String("request_id", request.RequestID))
			continue
		}
		if moved {
			failed++
			exportService.auditFailure(ctx, "export.process", request.UserID, &request.RequestID,
				"processing did not finish within the allowed time")
		}
	}

	return failed, nil
}

func (exportService *exportService) auditFailure(ctx context.Context, action, userID string, entityID *string, details string) {
	exportService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       action,
		EntityType:   auditmodel.EntityTypeExport,
		EntityID:     entityID,
		UserID:       &userID,
		Details:      details,
		IsSuccessful: false,
	})
}
