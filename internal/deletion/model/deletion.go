package model

// DeletionStatus is the closed set of account deletion request states.
type DeletionStatus string

const (
	DeletionStatusPending    DeletionStatus = "PENDING"
	DeletionStatusProcessing DeletionStatus = "PROCESSING"
	DeletionStatusCompleted  DeletionStatus = "COMPLETED"
	DeletionStatusFailed     DeletionStatus = "FAILED"
	DeletionStatusCancelled  DeletionStatus = "CANCELLED"
	DeletionStatusExpired    DeletionStatus = "EXPIRED"
)

// deletionTransitions is the legal state machine. Confirmation moves
// Pending to Processing; recovery moves Processing to Cancelled;
// execution moves Processing to Completed or Failed; an unconfirmed
// request expires with its token.
var deletionTransitions = map[DeletionStatus][]DeletionStatus{
	DeletionStatusPending:    {DeletionStatusProcessing, DeletionStatusExpired},
	DeletionStatusProcessing: {DeletionStatusCompleted, DeletionStatusFailed, DeletionStatusCancelled},
}

// CanTransition reports whether moving from the receiver to the target
// status is legal.
func (s DeletionStatus) CanTransition(target DeletionStatus) bool {
	for _, allowed := range deletionTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsValid reports whether the value is a known deletion status.
func (s DeletionStatus) IsValid() bool {
	switch s {
	case DeletionStatusPending, DeletionStatusProcessing, DeletionStatusCompleted,
		DeletionStatusFailed, DeletionStatusCancelled, DeletionStatusExpired:
		return true
	}
	return false
}

// DeletionType selects how the account data is removed on execution.
type DeletionType string

const (
	// DeletionTypeSoft flags the account deleted and keeps the data.
	DeletionTypeSoft DeletionType = "SOFT_DELETE"
	// DeletionTypeHard removes the account and every dependent record.
	DeletionTypeHard DeletionType = "HARD_DELETE"
	// DeletionTypeAnonymize overwrites identifying fields and keeps the
	// non-identifying history.
	DeletionTypeAnonymize DeletionType = "ANONYMIZE"
)

// IsValid reports whether the value is a known deletion type.
func (t DeletionType) IsValid() bool {
	switch t {
	case DeletionTypeSoft, DeletionTypeHard, DeletionTypeAnonymize:
		return true
	}
	return false
}

// AccountDeletionRequest is one account deletion request. At most one
// active request (Pending, or Processing with the recovery period still
// open) may exist per user.
type AccountDeletionRequest struct {
	RequestID             string         `db:"REQUEST_ID" json:"requestId"`
	UserID                string         `db:"USER_ID" json:"userId"`
	Reason                string         `db:"REASON" json:"reason"`
	DeletionType          DeletionType   `db:"DELETION_TYPE" json:"deletionType"`
	Status                DeletionStatus `db:"STATUS" json:"status"`
	ConfirmationToken     string         `db:"CONFIRMATION_TOKEN" json:"-"`
	TokenExpirationDate   int64          `db:"TOKEN_EXPIRATION_DATE" json:"tokenExpirationDate"`
	ConfirmationDate      *int64         `db:"CONFIRMATION_DATE" json:"confirmationDate,omitempty"`
	ScheduledDeletionDate *int64         `db:"SCHEDULED_DELETION_DATE" json:"scheduledDeletionDate,omitempty"`
	RecoveryPeriodDays    int            `db:"RECOVERY_PERIOD_DAYS" json:"recoveryPeriodDays"`
	RecoveryDeadline      *int64         `db:"RECOVERY_DEADLINE" json:"recoveryDeadline,omitempty"`
	IsRecoveryActive      bool           `db:"IS_RECOVERY_ACTIVE" json:"isRecoveryPeriodActive"`
	ProcessedBy           *string        `db:"PROCESSED_BY" json:"processedBy,omitempty"`
	CreatedTime           int64          `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime           int64          `db:"UPDATED_TIME" json:"updatedTime"`
}

// DeletionCreateAPIRequest is the create request payload.
type DeletionCreateAPIRequest struct {
	DeletionType string `json:"deletionType" binding:"required"`
	Reason       string `json:"reason"`
}

// DeletionConfirmAPIRequest carries the single-use confirmation token.
type DeletionConfirmAPIRequest struct {
	Token string `json:"token" binding:"required"`
}
