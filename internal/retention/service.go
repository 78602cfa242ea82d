package retention

import (
	"context"
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/audit"
	auditmodel "github.com/fittrack/privacy-rights-api/internal/audit/model"
	"github.com/fittrack/privacy-rights-api/internal/consent"
	"github.com/fittrack/privacy-rights-api/internal/retention/model"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
	"github.com/fittrack/privacy-rights-api/internal/system/log"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
	udmodel "github.com/fittrack/privacy-rights-api/internal/userdata/model"
)

// RetentionService defines the exported service interface
type RetentionService interface {
	CreatePolicy(ctx context.Context, adminUserID string, req model.PolicyAPIRequest) (*model.RetentionPolicy, *serviceerror.ServiceError)
	GetPolicy(ctx context.Context, dataType string) (*model.RetentionPolicy, *serviceerror.ServiceError)
	ListPolicies(ctx context.Context) ([]model.RetentionPolicy, *serviceerror.ServiceError)
	UpdatePolicy(ctx context.Context, adminUserID, dataType string, req model.PolicyAPIRequest) (*model.RetentionPolicy, *serviceerror.ServiceError)
	DeletePolicy(ctx context.Context, adminUserID, dataType string) *serviceerror.ServiceError

	CreateJob(ctx context.Context, adminUserID string, req model.JobAPIRequest) (*model.RetentionJob, *serviceerror.ServiceError)
	ListJobs(ctx context.Context) ([]model.RetentionJob, *serviceerror.ServiceError)
	ListExecutions(ctx context.Context, jobID string) ([]model.RetentionJobExecution, *serviceerror.ServiceError)

	// DueJobs lists jobs whose next run has arrived.
	DueJobs(ctx context.Context) ([]model.RetentionJob, error)
	// Run executes one job: claims it, purges records older than the
	// policy cutoff, persists the execution and reschedules. A failed
	// run is retried at its next scheduled run only.
	Run(ctx context.Context, jobID string) (*model.RetentionJobExecution, error)
}

// retentionService implements the RetentionService interface
type retentionService struct {
	stores   *stores.StoreRegistry
	auditor  audit.AuditService
	userData userdata.UserDataStore
	now      func() int64
}

// newRetentionService creates a new retention service
func newRetentionService(registry *stores.StoreRegistry, auditor audit.AuditService,
	userData userdata.UserDataStore) RetentionService {
	return &retentionService{
		stores:   registry,
		auditor:  auditor,
		userData: userData,
		now:      utils.GetCurrentTimeMillis,
	}
}

func validatePolicyRequest(req model.PolicyAPIRequest) error {
	if req.RetentionPeriodDays <= 0 {
		return fmt.Errorf("retention period must be positive")
	}
	if req.DeletionMethod != model.DeletionMethodDelete && req.DeletionMethod != model.DeletionMethodArchive {
		return fmt.Errorf("unknown deletion method: %s", req.DeletionMethod)
	}
	return nil
}

// CreatePolicy registers a retention policy for one data type.
func (retentionService *retentionService) CreatePolicy(ctx context.Context, adminUserID string, req model.PolicyAPIRequest) (*model.RetentionPolicy, *serviceerror.ServiceError) {
	if err := validatePolicyRequest(req); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	retentionStore := retentionService.stores.Retention.(RetentionStore)

	existing, err := retentionStore.GetPolicyByDataType(ctx, req.DataType)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if existing != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.StateConflictError,
			fmt.Sprintf("a policy for %s already exists", req.DataType))
	}

	currentTime := retentionService.now()
	policy := &model.RetentionPolicy{
		PolicyID:            utils.GenerateUUID(),
		DataType:            req.DataType,
		RetentionPeriodDays: req.RetentionPeriodDays,
		LegalBasis:          req.LegalBasis,
		IsActive:            req.IsActive,
		AutoDelete:          req.AutoDelete,
		DeletionMethod:      req.DeletionMethod,
		CreatedTime:         currentTime,
		UpdatedTime:         currentTime,
	}

	if err := retentionStore.CreatePolicy(ctx, policy); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	retentionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "retention.policy.created",
		EntityType:   auditmodel.EntityTypePolicy,
		EntityID:     &policy.PolicyID,
		AdminUserID:  &adminUserID,
		Details:      fmt.Sprintf("dataType=%s days=%d method=%s", req.DataType, req.RetentionPeriodDays, req.DeletionMethod),
		IsSuccessful: true,
	})

	return policy, nil
}

// GetPolicy retrieves the policy for one data type.
func (retentionService *retentionService) GetPolicy(ctx context.Context, dataType string) (*model.RetentionPolicy, *serviceerror.ServiceError) {
	retentionStore := retentionService.stores.Retention.(RetentionStore)
	policy, err := retentionStore.GetPolicyByDataType(ctx, dataType)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if policy == nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("no retention policy for %s", dataType))
	}
	return policy, nil
}

// ListPolicies lists all policies.
func (retentionService *retentionService) ListPolicies(ctx context.Context) ([]model.RetentionPolicy, *serviceerror.ServiceError) {
	retentionStore := retentionService.stores.Retention.(RetentionStore)
	policies, err := retentionStore.ListPolicies(ctx)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return policies, nil
}

// UpdatePolicy rewrites the policy for one data type.
func (retentionService *retentionService) UpdatePolicy(ctx context.Context, adminUserID, dataType string, req model.PolicyAPIRequest) (*model.RetentionPolicy, *serviceerror.ServiceError) {
	if err := validatePolicyRequest(req); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError, err.Error())
	}

	retentionStore := retentionService.stores.Retention.(RetentionStore)

	policy := &model.RetentionPolicy{
		DataType:            dataType,
		RetentionPeriodDays: req.RetentionPeriodDays,
		LegalBasis:          req.LegalBasis,
		IsActive:            req.IsActive,
		AutoDelete:          req.AutoDelete,
		DeletionMethod:      req.DeletionMethod,
		UpdatedTime:         retentionService.now(),
	}

	updated, err := retentionStore.UpdatePolicy(ctx, policy)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !updated {
		return nil, serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("no retention policy for %s", dataType))
	}

	retentionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "retention.policy.updated",
		EntityType:   auditmodel.EntityTypePolicy,
		AdminUserID:  &adminUserID,
		Details:      fmt.Sprintf("dataType=%s days=%d active=%t", dataType, req.RetentionPeriodDays, req.IsActive),
		IsSuccessful: true,
	})

	return retentionService.GetPolicy(ctx, dataType)
}

// DeletePolicy removes the policy for one data type.
func (retentionService *retentionService) DeletePolicy(ctx context.Context, adminUserID, dataType string) *serviceerror.ServiceError {
	retentionStore := retentionService.stores.Retention.(RetentionStore)

	deleted, err := retentionStore.DeletePolicy(ctx, dataType)
	if err != nil {
		return serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	if !deleted {
		return serviceerror.CustomServiceError(serviceerror.ResourceNotFoundError,
			fmt.Sprintf("no retention policy for %s", dataType))
	}

	retentionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "retention.policy.deleted",
		EntityType:   auditmodel.EntityTypePolicy,
		AdminUserID:  &adminUserID,
		Details:      fmt.Sprintf("dataType=%s", dataType),
		IsSuccessful: true,
	})

	return nil
}

// CreateJob registers a recurring purge job with its first run due now.
func (retentionService *retentionService) CreateJob(ctx context.Context, adminUserID string, req model.JobAPIRequest) (*model.RetentionJob, *serviceerror.ServiceError) {
	switch req.Schedule {
	case model.ScheduleDaily, model.ScheduleWeekly, model.ScheduleMonthly:
	default:
		return nil, serviceerror.CustomServiceError(serviceerror.ValidationError,
			fmt.Sprintf("unknown schedule: %s", req.Schedule))
	}

	currentTime := retentionService.now()
	firstRun := currentTime
	job := &model.RetentionJob{
		JobID:       utils.GenerateUUID(),
		JobType:     req.JobType,
		DataType:    req.DataType,
		Schedule:    req.Schedule,
		Status:      model.JobStatusScheduled,
		NextRun:     &firstRun,
		CreatedTime: currentTime,
		UpdatedTime: currentTime,
	}

	retentionStore := retentionService.stores.Retention.(RetentionStore)
	if err := retentionStore.CreateJob(ctx, job); err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}

	retentionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "retention.job.created",
		EntityType:   auditmodel.EntityTypeRetentionJob,
		EntityID:     &job.JobID,
		AdminUserID:  &adminUserID,
		Details:      fmt.Sprintf("dataType=%s schedule=%s", req.DataType, req.Schedule),
		IsSuccessful: true,
	})

	return job, nil
}

// ListJobs lists all jobs.
func (retentionService *retentionService) ListJobs(ctx context.Context) ([]model.RetentionJob, *serviceerror.ServiceError) {
	retentionStore := retentionService.stores.Retention.(RetentionStore)
	jobs, err := retentionStore.ListJobs(ctx)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return jobs, nil
}

// ListExecutions lists the run history of one job, newest first.
func (retentionService *retentionService) ListExecutions(ctx context.Context, jobID string) ([]model.RetentionJobExecution, *serviceerror.ServiceError) {
	retentionStore := retentionService.stores.Retention.(RetentionStore)
	executions, err := retentionStore.ListExecutionsByJob(ctx, jobID)
	if err != nil {
		return nil, serviceerror.CustomServiceError(serviceerror.DatabaseError, err.Error())
	}
	return executions, nil
}

// DueJobs lists jobs whose next run has arrived.
func (retentionService *retentionService) DueJobs(ctx context.Context) ([]model.RetentionJob, error) {
	retentionStore := retentionService.stores.Retention.(RetentionStore)
	return retentionStore.ListDueJobs(ctx, retentionService.now())
}

// Run executes one retention job end to end.
func (retentionService *retentionService) Run(ctx context.Context, jobID string) (*model.RetentionJobExecution, error) {
	logger := log.GetLogger().With(log.String(log.LoggerKeyComponentName, "RetentionService"))

	retentionStore := retentionService.stores.Retention.(RetentionStore)

	job, err := retentionStore.GetJobByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job == nil {
		return nil, fmt.Errorf("retention job %s not found", jobID)
	}

	startTime := retentionService.now()
	claimed, err := retentionStore.ClaimJob(ctx, jobID, startTime)
	if err != nil {
		return nil, err
	}
	if !claimed {
		// Another runner holds it.
		return nil, nil
	}

	execution := &model.RetentionJobExecution{
		ExecutionID: utils.GenerateUUID(),
		JobID:       jobID,
		StartTime:   startTime,
		Status:      model.JobStatusRunning,
	}

	processed, failed, runErr := retentionService.purge(ctx, job)
	execution.ProcessedRecords = processed
	execution.FailedRecords = failed

	endTime := retentionService.now()
	execution.EndTime = &endTime
	execution.Status = model.JobStatusCompleted
	jobStatus := model.JobStatusCompleted
	if runErr != nil {
		execution.Status = model.JobStatusFailed
		jobStatus = model.JobStatusFailed
		logger.Error("Retention job run failed",
			log.Error(runErr),
			log.String("job_id", jobID),
			log.String("data_type", job.DataType),
		)
	}

	nextRun := model.NextRunFromSchedule(job.Schedule, endTime)
	if err := retentionStore.FinishJob(ctx, jobID, jobStatus, endTime, nextRun, endTime); err != nil {
		return nil, err
	}
	if err := retentionStore.CreateExecution(ctx, execution); err != nil {
		return nil, err
	}

	retentionService.auditor.Record(ctx, auditmodel.AuditLogEntry{
		Action:       "retention.job.executed",
		EntityType:   auditmodel.EntityTypeRetentionJob,
		EntityID:     &jobID,
		Details:      fmt.Sprintf("dataType=%s processed=%d failed=%d", job.DataType, processed, failed),
		IsSuccessful: runErr == nil,
	})

	return execution, nil
}

// purge removes records of the job's data type older than the policy
// cutoff. The policy must be active with auto-delete enabled; otherwise
// the run is a no-op.
func (retentionService *retentionService) purge(ctx context.Context, job *model.RetentionJob) (int64, int64, error) {
	retentionStore := retentionService.stores.Retention.(RetentionStore)

	policy, err := retentionStore.GetPolicyByDataType(ctx, job.DataType)
	if err != nil {
		return 0, 0, err
	}
	if policy == nil {
		return 0, 0, fmt.Errorf("no retention policy for %s", job.DataType)
	}
	if !policy.IsActive || !policy.AutoDelete {
		return 0, 0, nil
	}

	cutoff := retentionService.now() - utils.DaysToMillis(policy.RetentionPeriodDays)

	switch job.DataType {
	case udmodel.DataTypeAuditLogs:
		auditStore := retentionService.stores.Audit.(audit.AuditStore)
		purged, err := auditStore.PurgeOlderThan(ctx, cutoff)
		if err != nil {
			return 0, 1, err
		}
		return purged, 0, nil

	case udmodel.DataTypeConsentRecords:
		consentStore := retentionService.stores.Consent.(consent.ConsentStore)
		purged, err := consentStore.PurgeForDeletedAccounts(ctx, cutoff)
		if err != nil {
			return 0, 1, err
		}
		return purged, 0, nil

	default:
		result, err := retentionService.userData.PurgeOlderThan(ctx, job.DataType, cutoff)
		return result.Processed, result.Failed, err
	}
}
