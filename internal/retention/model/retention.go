package model

// RetentionPolicy declares how long one data type is kept. Read-mostly
// configuration mutated through the admin surface.
type RetentionPolicy struct {
	PolicyID            string `db:"POLICY_ID" json:"policyId"`
	DataType            string `db:"DATA_TYPE" json:"dataType"`
	RetentionPeriodDays int    `db:"RETENTION_PERIOD_DAYS" json:"retentionPeriodDays"`
	LegalBasis          string `db:"LEGAL_BASIS" json:"legalBasis"`
	IsActive            bool   `db:"IS_ACTIVE" json:"isActive"`
	AutoDelete          bool   `db:"AUTO_DELETE" json:"autoDelete"`
	DeletionMethod      string `db:"DELETION_METHOD" json:"deletionMethod"`
	CreatedTime         int64  `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime         int64  `db:"UPDATED_TIME" json:"updatedTime"`
}

// Deletion methods accepted on a policy.
const (
	DeletionMethodDelete  = "DELETE"
	DeletionMethodArchive = "ARCHIVE"
)

// JobStatus is the closed set of retention job states.
type JobStatus string

const (
	JobStatusScheduled JobStatus = "SCHEDULED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// IsValid reports whether the value is a known job status.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusScheduled, JobStatusRunning, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Schedule keywords accepted on a job.
const (
	ScheduleDaily   = "daily"
	ScheduleWeekly  = "weekly"
	ScheduleMonthly = "monthly"
)

// NextRunFromSchedule computes the next run time from a schedule keyword.
// Months count as 30 days. Unknown keywords fall back to daily.
func NextRunFromSchedule(schedule string, from int64) int64 {
	const dayMillis = int64(24 * 60 * 60 * 1000)
	switch schedule {
	case ScheduleWeekly:
		return from + 7*dayMillis
	case ScheduleMonthly:
		return from + 30*dayMillis
	default:
		return from + dayMillis
	}
}

// RetentionJob is a recurring purge task for one data type. A job owns
// many executions.
type RetentionJob struct {
	JobID       string    `db:"JOB_ID" json:"jobId"`
	JobType     string    `db:"JOB_TYPE" json:"jobType"`
	DataType    string    `db:"DATA_TYPE" json:"dataType"`
	Schedule    string    `db:"SCHEDULE" json:"schedule"`
	Status      JobStatus `db:"STATUS" json:"status"`
	LastRun     *int64    `db:"LAST_RUN" json:"lastRun,omitempty"`
	NextRun     *int64    `db:"NEXT_RUN" json:"nextRun,omitempty"`
	CreatedTime int64     `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime int64     `db:"UPDATED_TIME" json:"updatedTime"`
}

// RetentionJobExecution is the per-run record of one job.
type RetentionJobExecution struct {
	ExecutionID      string    `db:"EXECUTION_ID" json:"executionId"`
	JobID            string    `db:"JOB_ID" json:"jobId"`
	StartTime        int64     `db:"START_TIME" json:"startTime"`
	EndTime          *int64    `db:"END_TIME" json:"endTime,omitempty"`
	ProcessedRecords int64     `db:"PROCESSED_RECORDS" json:"processedRecords"`
	FailedRecords    int64     `db:"FAILED_RECORDS" json:"failedRecords"`
	Status           JobStatus `db:"STATUS" json:"status"`
}

// PolicyAPIRequest is the admin policy create/update payload.
type PolicyAPIRequest struct {
	DataType            string `json:"dataType" binding:"required"`
	RetentionPeriodDays int    `json:"retentionPeriodDays" binding:"required"`
	LegalBasis          string `json:"legalBasis" binding:"required"`
	IsActive            bool   `json:"isActive"`
	AutoDelete          bool   `json:"autoDelete"`
	DeletionMethod      string `json:"deletionMethod" binding:"required"`
}

// JobAPIRequest is the admin job create payload.
type JobAPIRequest struct {
	JobType  string `json:"jobType" binding:"required"`
	DataType string `json:"dataType" binding:"required"`
	Schedule string `json:"schedule" binding:"required"`
}
