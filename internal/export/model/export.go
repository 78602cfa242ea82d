package model

// ExportStatus is the closed set of data export request states.
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "PENDING"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusCompleted  ExportStatus = "COMPLETED"
	ExportStatusFailed     ExportStatus = "FAILED"
	ExportStatusExpired    ExportStatus = "EXPIRED"
)

// exportTransitions is the legal state machine. Anything not listed is
// rejected as a state conflict.
var exportTransitions = map[ExportStatus][]ExportStatus{
	ExportStatusPending:    {ExportStatusProcessing},
	ExportStatusProcessing: {ExportStatusCompleted, ExportStatusFailed},
	ExportStatusCompleted:  {ExportStatusExpired},
}

// CanTransition reports whether moving from the receiver to the target
// status is legal.
func (s ExportStatus) CanTransition(target ExportStatus) bool {
	for _, allowed := range exportTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// IsValid reports whether the value is a known export status.
func (s ExportStatus) IsValid() bool {
	switch s {
	case ExportStatusPending, ExportStatusProcessing, ExportStatusCompleted,
		ExportStatusFailed, ExportStatusExpired:
		return true
	}
	return false
}

// ExportFormat selects the serializer for an export payload.
type ExportFormat string

const (
	ExportFormatJSON ExportFormat = "JSON"
	ExportFormatCSV  ExportFormat = "CSV"
	ExportFormatPDF  ExportFormat = "PDF"
)

// IsValid reports whether the value is a supported export format.
func (f ExportFormat) IsValid() bool {
	switch f {
	case ExportFormatJSON, ExportFormatCSV, ExportFormatPDF:
		return true
	}
	return false
}

// Extension returns the artifact file extension for the format.
func (f ExportFormat) Extension() string {
	switch f {
	case ExportFormatCSV:
		return "csv"
	case ExportFormatPDF:
		return "pdf"
	default:
		return "json"
	}
}

// ContentType returns the HTTP content type served on download.
func (f ExportFormat) ContentType() string {
	switch f {
	case ExportFormatCSV:
		return "text/csv"
	case ExportFormatPDF:
		return "application/pdf"
	default:
		return "application/json"
	}
}

// DataExportRequest is one subject-access export request. ExpirationDate
// is fixed at creation; a later TTL change never moves the deadline of
// existing requests.
type DataExportRequest struct {
	RequestID        string       `db:"REQUEST_ID" json:"requestId"`
	UserID           string       `db:"USER_ID" json:"userId"`
	Status           ExportStatus `db:"STATUS" json:"status"`
	Format           ExportFormat `db:"FORMAT" json:"format"`
	RequestDate      int64        `db:"REQUEST_DATE" json:"requestDate"`
	ExpirationDate   int64        `db:"EXPIRATION_DATE" json:"expirationDate"`
	CompletedDate    *int64       `db:"COMPLETED_DATE" json:"completedDate,omitempty"`
	ArtifactRef      *string      `db:"ARTIFACT_REF" json:"-"`
	FileSizeBytes    *int64       `db:"FILE_SIZE_BYTES" json:"fileSizeBytes,omitempty"`
	ErrorMessage     *string      `db:"ERROR_MESSAGE" json:"errorMessage,omitempty"`
	DownloadCount    int64        `db:"DOWNLOAD_COUNT" json:"downloadCount"`
	LastDownloadDate *int64       `db:"LAST_DOWNLOAD_DATE" json:"lastDownloadDate,omitempty"`
	CreatedTime      int64        `db:"CREATED_TIME" json:"createdTime"`
	UpdatedTime      int64        `db:"UPDATED_TIME" json:"updatedTime"`
}

// ExportCreateAPIRequest is the create request payload.
type ExportCreateAPIRequest struct {
	Format string `json:"format" binding:"required"`
}

// ExportListResponse lists a user's export requests, newest first.
type ExportListResponse struct {
	UserID string              `json:"userId"`
	Data   []DataExportRequest `json:"data"`
}
