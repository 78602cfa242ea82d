package rectification

import (
	"context"
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/audit"
	auditmodel "github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/rectification/model"
	"github.com/fittrack/privacy-rights-api/internal/rectification/validator"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
)

// RectificationService defines the exported service interface
type RectificationService interface {
	Create(ctx context.Context, userID string, req model.RectificationCreateAPIRequest) (*model.DataRectificationRequest, *serviceerror.ServiceError)
	// Review applies the reviewer decision to a Pending request. Approval
	// moves it to Processing and applies the change; rejection closes it
	// as Failed with the rejection reason.
	Review(ctx context.Context, requestID, reviewedBy string, decision model.RectificationReviewAPIRequest) (*model.DataRectificationRequest, *serviceerror.ServiceError)
	// ApplyApproved performs the actual field update for a Processing
	// request.
	ApplyApproved(ctx context.Context, requestID string) (*model.DataRectificationRequest, *serviceerror.ServiceError)
	ListPending(ctx context.Context) ([]model.DataRectificationRequest, *serviceerror.ServiceError)
	Get(ctx context.Context, userID, requestID string) (*model.DataRectificationRequest, *serviceerror.ServiceError)
	List(ctx context.Context, userID string) (*model.RectificationListResponse, *serviceerror.ServiceError)
}

// rectificationService implements the RectificationService interface
type rectificationService struct {
	stores   *stores.StoreRegistry
	auditor  audit.AuditService
	userData userdata.UserDataStore
	now      func() int64
}

// newRectificationService creates a new rectification service
func newRectificationService(registry *stores.StoreRegistry, auditor audit.AuditService,
	userData userdata.UserDataStore) RectificationService {
	return &rectificationService{
		stores:   registry,
		auditor:  auditor,
		userData: userData,
		now:      utils.GetCurrentTimeMillis,
	}
}

// Create registers a Pending rectification behind the duplicate guard.
func (rectificationService *rectificationService) Create(ctx context.Context, userID string, req model.RectificationCreateAPIRequest) (*model.DataRectificationRequest, *serviceerror.ServiceError) {
	if err := validator.ValidateCreateRequest(req, userID); err != nil {
		rectificationService.auditFailure(ctx, "rectification.create", &userID, nil, err.Error())
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	currentTime := rectificationService.now()
	request := &model.DataRectificationRequest{
		RequestID:      utils.GenerateUUID(),
		UserID:         userID,
		DataType:       req.DataType,
		FieldName:      req.FieldName,
		CurrentValue:   req.CurrentValue,
		RequestedValue: req.RequestedValue,
		Reason:         req.Reason,
		Status:         model.RectificationStatusPending,
		Priority:       model.PriorityFor(req.FieldName),
		RequestDate:    currentTime,
		CreatedTime:    currentTime,
		UpdatedTime:    currentTime,
	}

	rectificationStore := rectificationService.stores.Rectification.(RectificationStore)
	inserted, err := rectificationStore.CreateIfNoOpen(ctx, request)
	if err != nil {
		rectificationService.auditFailure(ctx, "rectification.create", &userID, nil, err.Error())
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !inserted {
		rectificationService.auditFailure(ctx, "rectification.create", &userID, nil,
			fmt.Sprintf("open request exists for %s.%s", req.DataType, req.FieldName))
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			fmt.Sprintf("an open rectification request already exists for %s.%s", req.DataType, req.FieldName))
	}

	rectificationService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "rectification.created",
		EntityType:   auditmodel.EntityTypeRectification,
		EntityID:     &request.RequestID,
		UserID:       &userID,
		Details:      fmt.Sprintf("dataType=%s field=%s priority=%d", req.DataType, req.FieldName, request.Priority),
		OldValues:    &req.CurrentValue,
		NewValues:    &req.RequestedValue,
		IsSuccessful: true,
	})

	return request, nil
}

// Review applies the reviewer decision.
func (rectificationService *rectificationService) Review(ctx context.Context, requestID, reviewedBy string, decision model.RectificationReviewAPIRequest) (*model.DataRectificationRequest, *serviceerror.ServiceError) {
	if reviewedBy == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "reviewer identity is required")
	}
	if !decision.Approve && decision.RejectionReason == "" {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, "a rejection requires a rejection reason")
	}

	rectificationStore := rectificationService.stores.Rectification.(RectificationStore)

	request, err := rectificationStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if request == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("rectification request %s not found", requestID))
	}

	currentTime := rectificationService.now()

	if decision.Approve {
		moved, err := rectificationStore.Approve(ctx, requestID, reviewedBy, decision.ReviewNotes, currentTime)
		if err != nil {
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
		}
		if !moved {
			return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
				fmt.Sprintf("rectification request is %s, not reviewable", request.Status))
		}

		rectificationService.auditor.Record(ctx, auditmodel.AuditLogEntry{
			Action:       "rectification.approved",
			EntityType:   auditmodel.EntityTypeRectification,
			EntityID:     &requestID,
			UserID:       &request.UserID,
			AdminUserID:  &reviewedBy,
			IsSuccessful: true,
		})

		return rectificationService.ApplyApproved(ctx, requestID)
	}

	moved, err := rectificationStore.Reject(ctx, requestID, reviewedBy, decision.ReviewNotes, decision.RejectionReason, currentTime)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !moved {
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			fmt.Sprintf("rectification request is %s, not reviewable", request.Status))
	}

	rectificationService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "rectification.rejected",
		EntityType:   auditmodel.EntityTypeRectification,
		EntityID:     &requestID,
		UserID:       &request.UserID,
		AdminUserID:  &reviewedBy,
		Details:      decision.RejectionReason,
		IsSuccessful: true,
	})

	return rectificationService.reload(ctx, requestID)
}

// ApplyApproved dispatches the field update for a Processing request.
func (rectificationService *rectificationService) ApplyApproved(ctx context.Context, requestID string) (*model.DataRectificationRequest, *serviceerror.ServiceError) {
	rectificationStore := rectificationService.stores.Rectification.(RectificationStore)

	request, err := rectificationStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if request == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("rectification request %s not found", requestID))
	}
	if request.Status != model.RectificationStatusProcessing {
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			fmt.Sprintf("rectification request is %s, not applicable", request.Status))
	}

	currentTime := rectificationService.now()

	if err := rectificationService.userData.UpdateField(ctx, request.UserID, request.DataType, request.FieldName, request.RequestedValue); err != nil {
		if _, failErr := rectificationStore.Fail(ctx, requestID, err.Error(), currentTime); failErr != nil {
			return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, failErr.Error())
		}
		rectificationService.auditFailure(ctx, "rectification.apply", &request.UserID, &requestID, err.Error())
		return rectificationService.reload(ctx, requestID)
	}

	if _, err := rectificationStore.Complete(ctx, requestID, currentTime); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	rectificationService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "rectification.completed",
		EntityType:   auditmodel.EntityTypeRectification,
		EntityID:     &requestID,
		UserID:       &request.UserID,
		Details:      fmt.Sprintf("dataType=%s field=%s", request.DataType, request.FieldName),
		OldValues:    &request.CurrentValue,
		NewValues:    &request.RequestedValue,
		IsSuccessful: true,
	})

	return rectificationService.reload(ctx, requestID)
}

// ListPending returns the review queue, most urgent and oldest first.
func (rectificationService *rectificationService) ListPending(ctx context.Context) ([]model.DataRectificationRequest, *serviceerror.ServiceError) {
	rectificationStore := rectificationService.stores.Rectification.(RectificationStore)
	requests, err := rectificationStore.ListPending(ctx)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return requests, nil
}

// Get retrieves one request and enforces ownership.
func (rectificationService *rectificationService) Get(ctx context.Context, userID, requestID string) (*model.DataRectificationRequest, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	rectificationStore := rectificationService.stores.Rectification.(RectificationStore)
	request, err := rectificationStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if request == nil || request.UserID != userID {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("rectification request %s not found", requestID))
	}

	return request, nil
}

// List retrieves a user's requests, newest first.
func (rectificationService *rectificationService) List(ctx context.Context, userID string) (*model.RectificationListResponse, *serviceerror.ServiceError) {
	if err := utils.ValidateUserID(userID); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	rectificationStore := rectificationService.stores.Rectification.(RectificationStore)
	requests, err := rectificationStore.ListByUser(ctx, userID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	return &model.RectificationListResponse{UserID: userID, Data: requests}, nil
}

// reload re-reads a request after a transition.
func (rectificationService *rectificationService) reload(ctx context.Context, requestID string) (*model.DataRectificationRequest, *serviceerror.ServiceError) {
	rectificationStore := rectificationService.stores.Rectification.(RectificationStore)
	request, err := rectificationStore.GetByID(ctx, requestID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return request, nil
}

func (rectificationService *rectificationService) auditFailure(ctx context.Context, action string, userID, entityID *string, details string) {
	rectificationService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       action,
		EntityType:   auditmodel.EntityTypeRectification,
		EntityID:     entityID,
		UserID:       userID,
		Details:      details,
		IsSuccessful: false,
	})
}
