package retention

import (
	"context"

	"github.com/fittrack/privacy-rights-api/internal/retention/model"
	dbmodel "github.com/fittrack/privacy-rights-api/internal/system/database/model"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
)

const policyColumns = "POLICY_ID, DATA_TYPE, RETENTION_PERIOD_DAYS, LEGAL_BASIS, IS_ACTIVE, AUTO_DELETE, DELETION_METHOD, CREATED_TIME, UPDATED_TIME"
const jobColumns = "JOB_ID, JOB_TYPE, DATA_TYPE, SCHEDULE, STATUS, LAST_RUN, NEXT_RUN, CREATED_TIME, UPDATED_TIME"

// DBQuery objects for retention policy and job operations
var (
	QueryCreatePolicy = dbmodel.DBQuery{
		ID:    "CREATE_RETENTION_POLICY",
		Query: "INSERT INTO RETENTION_POLICY (POLICY_ID, DATA_TYPE, RETENTION_PERIOD_DAYS, LEGAL_BASIS, IS_ACTIVE, AUTO_DELETE, DELETION_METHOD, CREATED_TIME, UPDATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetPolicyByDataType = dbmodel.DBQuery{
		ID:    "GET_RETENTION_POLICY_BY_DATA_TYPE",
		Query: "SELECT " + policyColumns + " FROM RETENTION_POLICY WHERE DATA_TYPE = ?",
	}

	QueryListPolicies = dbmodel.DBQuery{
		ID:    "LIST_RETENTION_POLICIES",
		Query: "SELECT " + policyColumns + " FROM RETENTION_POLICY ORDER BY DATA_TYPE",
	}

	QueryUpdatePolicy = dbmodel.DBQuery{
		ID:    "UPDATE_RETENTION_POLICY",
		Query: "UPDATE RETENTION_POLICY SET RETENTION_PERIOD_DAYS = ?, LEGAL_BASIS = ?, IS_ACTIVE = ?, AUTO_DELETE = ?, DELETION_METHOD = ?, UPDATED_TIME = ? WHERE DATA_TYPE = ?",
	}

	QueryDeletePolicy = dbmodel.DBQuery{
		ID:    "DELETE_RETENTION_POLICY",
		Query: "DELETE FROM RETENTION_POLICY WHERE DATA_TYPE = ?",
	}

	QueryCreateJob = dbmodel.DBQuery{
		ID:    "CREATE_RETENTION_JOB",
		Query: "INSERT INTO RETENTION_JOB (JOB_ID, JOB_TYPE, DATA_TYPE, SCHEDULE, STATUS, NEXT_RUN, CREATED_TIME, UPDATED_TIME) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
	}

	QueryGetJobByID = dbmodel.DBQuery{
		ID:    "GET_RETENTION_JOB_BY_ID",
		Query: "SELECT " + jobColumns + " FROM RETENTION_JOB WHERE JOB_ID = ?",
	}

	QueryListJobs = dbmodel.DBQuery{
		ID:    "LIST_RETENTION_JOBS",
		Query: "SELECT " + jobColumns + " FROM RETENTION_JOB ORDER BY CREATED_TIME",
	}

	// QueryListDueJobs finds jobs whose next run has arrived and that are
	// not already running.
	QueryListDueJobs = dbmodel.DBQuery{
		ID:    "LIST_DUE_RETENTION_JOBS",
		Query: "SELECT " + jobColumns + " FROM RETENTION_JOB WHERE STATUS <> 'RUNNING' AND NEXT_RUN IS NOT NULL AND NEXT_RUN <= ?",
	}

	// QueryClaimJob moves a non-running job to Running; zero rows means
	// another runner holds it.
	QueryClaimJob = dbmodel.DBQuery{
		ID:    "CLAIM_RETENTION_JOB",
		Query: "UPDATE RETENTION_JOB SET STATUS = 'RUNNING', UPDATED_TIME = ? WHERE JOB_ID = ? AND STATUS <> 'RUNNING'",
	}

	QueryFinishJob = dbmodel.DBQuery{
		ID:    "FINISH_RETENTION_JOB",
		Query: "UPDATE RETENTION_JOB SET STATUS = ?, LAST_RUN = ?, NEXT_RUN = ?, UPDATED_TIME = ? WHERE JOB_ID = ? AND STATUS = 'RUNNING'",
	}

	QueryCreateExecution = dbmodel.DBQuery{
		ID:    "CREATE_RETENTION_JOB_EXECUTION",
		Query: "INSERT INTO RETENTION_JOB_EXECUTION (EXECUTION_ID, JOB_ID, START_TIME, END_TIME, PROCESSED_RECORDS, FAILED_RECORDS, STATUS) VALUES (?, ?, ?, ?, ?, ?, ?)",
	}

	QueryListExecutionsByJob = dbmodel.DBQuery{
		ID:    "LIST_EXECUTIONS_BY_JOB",
		Query: "SELECT EXECUTION_ID, JOB_ID, START_TIME, END_TIME, PROCESSED_RECORDS, FAILED_RECORDS, STATUS FROM RETENTION_JOB_EXECUTION WHERE JOB_ID = ? ORDER BY START_TIME DESC",
	}
)

// RetentionStore defines the interface for retention persistence.
type RetentionStore interface {
	CreatePolicy(ctx context.Context, policy *model.RetentionPolicy) error
	GetPolicyByDataType(ctx context.Context, dataType string) (*model.RetentionPolicy, error)
	ListPolicies(ctx context.Context) ([]model.RetentionPolicy, error)
	UpdatePolicy(ctx context.Context, policy *model.RetentionPolicy) (bool, error)
	DeletePolicy(ctx context.Context, dataType string) (bool, error)

	CreateJob(ctx context.Context, job *model.RetentionJob) error
	GetJobByID(ctx context.Context, jobID string) (*model.RetentionJob, error)
	ListJobs(ctx context.Context) ([]model.RetentionJob, error)
	ListDueJobs(ctx context.Context, now int64) ([]model.RetentionJob, error)
	// ClaimJob moves a job to Running; false when already running.
	ClaimJob(ctx context.Context, jobID string, now int64) (bool, error)
	FinishJob(ctx context.Context, jobID string, status model.JobStatus, lastRun, nextRun, now int64) error

	CreateExecution(ctx context.Context, execution *model.RetentionJobExecution) error
	ListExecutionsByJob(ctx context.Context, jobID string) ([]model.RetentionJobExecution, error)
}

// store implements the RetentionStore interface
type store struct {
	dbClient provider.DBClientInterface
}

// newRetentionStore creates a new retention store
func newRetentionStore(dbClient provider.DBClientInterface) RetentionStore {
	return &store{
		dbClient: dbClient,
	}
}

func (s *store) CreatePolicy(ctx context.Context, policy *model.RetentionPolicy) error {
	_, err := s.dbClient.Execute(QueryCreatePolicy,
		policy.PolicyID, policy.DataType, policy.RetentionPeriodDays, policy.LegalBasis,
		policy.IsActive, policy.AutoDelete, policy.DeletionMethod,
		policy.CreatedTime, policy.UpdatedTime)
	return err
}

func (s *store) GetPolicyByDataType(ctx context.Context, dataType string) (*model.RetentionPolicy, error) {
	rows, err := s.dbClient.Query(QueryGetPolicyByDataType, dataType)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToPolicy(rows[0]), nil
}

func (s *store) ListPolicies(ctx context.Context) ([]model.RetentionPolicy, error) {
	rows, err := s.dbClient.Query(QueryListPolicies)
	if err != nil {
		return nil, err
	}
	policies := make([]model.RetentionPolicy, 0, len(rows))
	for _, row := range rows {
		if policy := mapToPolicy(row); policy != nil {
			policies = append(policies, *policy)
		}
	}
	return policies, nil
}

func (s *store) UpdatePolicy(ctx context.Context, policy *model.RetentionPolicy) (bool, error) {
	rows, err := s.dbClient.Execute(QueryUpdatePolicy,
		policy.RetentionPeriodDays, policy.LegalBasis, policy.IsActive,
		policy.AutoDelete, policy.DeletionMethod, policy.UpdatedTime,
		policy.DataType)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *store) DeletePolicy(ctx context.Context, dataType string) (bool, error) {
	rows, err := s.dbClient.Execute(QueryDeletePolicy, dataType)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *store) CreateJob(ctx context.Context, job *model.RetentionJob) error {
	_, err := s.dbClient.Execute(QueryCreateJob,
		job.JobID, job.JobType, job.DataType, job.Schedule, string(job.Status),
		job.NextRun, job.CreatedTime, job.UpdatedTime)
	return err
}

func (s *store) GetJobByID(ctx context.Context, jobID string) (*model.RetentionJob, error) {
	rows, err := s.dbClient.Query(QueryGetJobByID, jobID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return mapToJob(rows[0]), nil
}

func (s *store) ListJobs(ctx context.Context) ([]model.RetentionJob, error) {
	rows, err := s.dbClient.Query(QueryListJobs)
	if err != nil {
		return nil, err
	}
	return mapToJobs(rows), nil
}

func (s *store) ListDueJobs(ctx context.Context, now int64) ([]model.RetentionJob, error) {
	rows, err := s.dbClient.Query(QueryListDueJobs, now)
	if err != nil {
		return nil, err
	}
	return mapToJobs(rows), nil
}

func (s *store) ClaimJob(ctx context.Context, jobID string, now int64) (bool, error) {
	rows, err := s.dbClient.Execute(QueryClaimJob, now, jobID)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *store) FinishJob(ctx context.Context, jobID string, status model.JobStatus, lastRun, nextRun, now int64) error {
	_, err := s.dbClient.Execute(QueryFinishJob, string(status), lastRun, nextRun, now, jobID)
	return err
}

func (s *store) CreateExecution(ctx context.Context, execution *model.RetentionJobExecution) error {
	_, err := s.dbClient.Execute(QueryCreateExecution,
		execution.ExecutionID, execution.JobID, execution.StartTime, execution.EndTime,
		execution.ProcessedRecords, execution.FailedRecords, string(execution.Status))
	return err
}

func (s *store) ListExecutionsByJob(ctx context.Context, jobID string) ([]model.RetentionJobExecution, error) {
	rows, err := s.dbClient.Query(QueryListExecutionsByJob, jobID)
	if err != nil {
		return nil, err
	}
	executions := make([]model.RetentionJobExecution, 0, len(rows))
	for _, row := range rows {
		if execution := mapToExecution(row); execution != nil {
			executions = append(executions, *execution)
		}
	}
	return executions, nil
}

// Mapper functions

func mapToPolicy(row map[string]interface{}) *model.RetentionPolicy {
	if row == nil {
		return nil
	}

	policy := &model.RetentionPolicy{}

	if id, ok := row["POLICY_ID"].(string); ok {
		policy.PolicyID = id
	}
	if dataType, ok := row["DATA_TYPE"].(string); ok {
		policy.DataType = dataType
	}
	if days, ok := row["RETENTION_PERIOD_DAYS"].(int64); ok {
		policy.RetentionPeriodDays = int(days)
	}
	if basis, ok := row["LEGAL_BASIS"].(string); ok {
		policy.LegalBasis = basis
	}
	if active, ok := row["IS_ACTIVE"].(int64); ok {
		policy.IsActive = active != 0
	} else if active, ok := row["IS_ACTIVE"].(bool); ok {
		policy.IsActive = active
	}
	if auto, ok := row["AUTO_DELETE"].(int64); ok {
		policy.AutoDelete = auto != 0
	} else if auto, ok := row["AUTO_DELETE"].(bool); ok {
		policy.AutoDelete = auto
	}
	if method, ok := row["DELETION_METHOD"].(string); ok {
		policy.DeletionMethod = method
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		policy.CreatedTime = created
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		policy.UpdatedTime = updated
	}

	return policy
}

func mapToJobs(rows []map[string]interface{}) []model.RetentionJob {
	jobs := make([]model.RetentionJob, 0, len(rows))
	for _, row := range rows {
		if job := mapToJob(row); job != nil {
			jobs = append(jobs, *job)
		}
	}
	return jobs
}

func mapToJob(row map[string]interface{}) *model.RetentionJob {
	if row == nil {
		return nil
	}

	job := &model.RetentionJob{}

	if id, ok := row["JOB_ID"].(string); ok {
		job.JobID = id
	}
	if jobType, ok := row["JOB_TYPE"].(string); ok {
		job.JobType = jobType
	}
	if dataType, ok := row["DATA_TYPE"].(string); ok {
		job.DataType = dataType
	}
	if schedule, ok := row["SCHEDULE"].(string); ok {
		job.Schedule = schedule
	}
	if status, ok := row["STATUS"].(string); ok {
		job.Status = model.JobStatus(status)
	}
	if lastRun, ok := row["LAST_RUN"].(int64); ok {
		job.LastRun = &lastRun
	}
	if nextRun, ok := row["NEXT_RUN"].(int64); ok {
		job.NextRun = &nextRun
	}
	if created, ok := row["CREATED_TIME"].(int64); ok {
		job.CreatedTime = created
	}
	if updated, ok := row["UPDATED_TIME"].(int64); ok {
		job.UpdatedTime = updated
	}

	return job
}

func mapToExecution(row map[string]interface{}) *model.RetentionJobExecution {
	if row == nil {
		return nil
	}

	execution := &model.RetentionJobExecution{}

	if id, ok := row["EXECUTION_ID"].(string); ok {
		execution.ExecutionID = id
	}
	if jobID, ok := row["JOB_ID"].(string); ok {
		execution.JobID = jobID
	}
	if start, ok := row["START_TIME"].(int64); ok {
		execution.StartTime = start
	}
	if end, ok := row["END_TIME"].(int64); ok {
		execution.EndTime = &end
	}
	if processed, ok := row["PROCESSED_RECORDS"].(int64); ok {
		execution.ProcessedRecords = processed
	}
	if failed, ok := row["FAILED_RECORDS"].(int64); ok {
		execution.FailedRecords = failed
	}
	if status, ok := row["STATUS"].(string); ok {
		execution.Status = model.JobStatus(status)
	}

	return execution
}
