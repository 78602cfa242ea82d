package model

import "strings"

// RectificationStatus is the closed set of rectification request states.
type RectificationStatus string

const (
	RectificationStatusPending    RectificationStatus = "PENDING"
	RectificationStatusProcessing RectificationStatus = "PROCESSING"
	RectificationStatusCompleted  RectificationStatus = "COMPLETED"
	RectificationStatusFailed     RectificationStatus = "FAILED"
)

// rectificationTransitions is the legal state machine. A move to
// Processing always comes from an explicit reviewer approval.
var rectificationTransitions = map[RectificationStatus][]RectificationStatus{
	RectificationStatusPending:    {RectificationStatusProcessing, RectificationStatusFailed},
	RectificationStatusProcessing: {RectificationStatusCompleted, RectificationStatusFailed},
}

// CanTransition reports whether moving from the receiver to the target
// status is legal.
func (s RectificationStatus) CanTransition(target RectificationStatus) bool {
	for _, allowed := range rectificationTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsValid reports whether the value is a known rectification status.
func (s RectificationStatus) IsValid() bool {
	switch s {
	case RectificationStatusPending, RectificationStatusProcessing,
		RectificationStatusCompleted, RectificationStatusFailed:
		return true
	}
	return false
}

// PriorityFor derives the review priority from the field name. Identity
// fields rank ahead of secondary fields; lower is more urgent.
func PriorityFor(fieldName string) int {
	switch normalized := strings.ToLower(fieldName); {
	case strings.Contains(normalized, "email"):
		return 1
	case strings.Contains(normalized, "phone"):
		return 2
	case strings.Contains(normalized, "name") || strings.Contains(normalized, "birth"):
		return 3
	case strings.Contains(normalized, "emergency"):
		return 4
	default:
		return 10
	}
}

// DataRectificationRequest is one data correction request.
type DataRectificationRequest struct {
	RequestID       string              `db:"REQUEST_ID" json:"requestId"`
	UserID          string              `db:"USER_ID" json:"userId"`
	DataType        string              `db:"DATA_TYPE" json:"dataType"`
	FieldName       string              `db:"FIELD_NAME" json:"fieldName"`
	CurrentValue    string              `db:"CURRENT_VALUE" json:"currentValue"`
	RequestedValue  string              `db:"REQUESTED_VALUE" json:"requestedValue"`
	Reason          string              `db:"REASON" json:"reason"`
	Status          RectificationStatus `db:"STATUS" json:"status"`
	Priority        int                 `db:"PRIORITY" json:"priority"`
	RequestDate     int64               `db:"REQUEST_DATE" json:"requestDate"`
	ReviewDate      *int64              `db:"REVIEW_DATE" json:"reviewDate,omitempty"`
	ReviewedBy      *string             `db:"REVIEWED_BY" json:"reviewedBy,omitempty"`
	ReviewNotes     *string             `db:"REVIEW_NOTES" json:"reviewNotes,omitempty"`
	RejectionReason *string             `db:"REJECTION_REASON" json:"rejectionReason,omitempty"`
	ProcessedDate   *int64              `db:"PROCESSED_DATE" json:"processedDate,omitempty"`
	CreatedTime     int64               `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime     int64               `db:"UPDATED_TIME" json:"updatedTime"`
}

// RectificationCreateAPIRequest is the create request payload.
type RectificationCreateAPIRequest struct {
	DataType       string `json:"dataType" binding:"required"`
	FieldName      string `json:"fieldName" binding:"required"`
	CurrentValue   string `json:"currentValue" binding:"required"`
	RequestedValue string `json:"requestedValue" binding:"required"`
	Reason         string `json:"reason"`
}

// RectificationReviewAPIRequest is the reviewer decision payload.
type RectificationReviewAPIRequest struct {
	Approve         bool   `json:"approve"`
	ReviewNotes     string `json:"reviewNotes"`
	RejectionReason string `json:"rejectionReason"`
}

// RectificationListResponse lists requests for one user, newest first.
type RectificationListResponse struct {
	UserID string                     `json:"userId"`
	Data   []DataRectificationRequest `json:"data"`
}
