package model

// ConsentType is the closed set of consent purposes tracked by the ledger.
type ConsentType string

const (
	ConsentTypeDataProcessing ConsentType = "DATA_PROCESSING"
	ConsentTypeMarketing      ConsentType = "MARKETING"
	ConsentTypeAnalytics      ConsentType = "ANALYTICS"
	ConsentTypeEssential      ConsentType = "ESSENTIAL"
	ConsentTypeThirdParty     ConsentType = "THIRD_PARTY"
)

// AllConsentTypes lists every valid consent type.
func AllConsentTypes() []ConsentType {
	return []ConsentType{
		ConsentTypeDataProcessing,
		ConsentTypeMarketing,
		ConsentTypeAnalytics,
		ConsentTypeEssential,
		ConsentTypeThirdParty,
	}
}

// IsValid reports whether the value is a known consent type.
func (t ConsentType) IsValid() bool {
	switch t {
	case ConsentTypeDataProcessing, ConsentTypeMarketing, ConsentTypeAnalytics,
		ConsentTypeEssential, ConsentTypeThirdParty:
		return true
	}
	return false
}

// ConsentRecord represents one immutable row of the CONSENT_RECORD ledger.
// Records are appended on every grant and withdrawal and never mutated;
// a withdrawal is a new row with IsGranted=false and WithdrawnTime set.
type ConsentRecord struct {
	RecordID       string      `db:"RECORD_ID" json:"recordId"`
	UserID         string      `db:"USER_ID" json:"userId"`
	ConsentType    ConsentType `db:"CONSENT_TYPE" json:"consentType"`
	IsGranted      bool        `db:"IS_GRANTED" json:"isGranted"`
	ConsentTime    int64       `db:"CONSENT_TIME" json:"consentTime"`
	WithdrawnTime  *int64      `db:"WITHDRAWN_TIME" json:"withdrawnTime,omitempty"`
	Purpose        string      `db:"PURPOSE" json:"purpose"`
	LegalBasis     string      `db:"LEGAL_BASIS" json:"legalBasis"`
	ConsentVersion string      `db:"CONSENT_VERSION" json:"consentVersion"`
	IPAddress      *string     `db:"IP_ADDRESS" json:"ipAddress,omitempty"`
	UserAgent      *string     `db:"USER_AGENT" json:"userAgent,omitempty"`
	CreatedTime    int64       `db:"CREATED_TIME" json:"createdTime"`
}

// CurrentFlag is the denormalized per-(user, type) row kept for
// convenience reads. The ledger, not the flag, is authoritative.
type CurrentFlag struct {
	UserID      string      `db:"USER_ID" json:"userId"`
	ConsentType ConsentType `db:"CONSENT_TYPE" json:"consentType"`
	IsGranted   bool        `db:"IS_GRANTED" json:"isGranted"`
	GrantTime   int64       `db:"GRANT_TIME" json:"grantTime"`
	UpdatedTime int64       `db:"UPDATED_TIME" json:"updatedTime"`
}

// ConsentGrantAPIRequest is the grant request payload.
type ConsentGrantAPIRequest struct {
	ConsentType    string `json:"consentType" binding:"required"`
	Purpose        string `json:"purpose" binding:"required"`
	LegalBasis     string `json:"legalBasis" binding:"required"`
	ConsentVersion string `json:"consentVersion" binding:"required"`
}

// ConsentWithdrawAPIRequest is the withdraw request payload.
type ConsentWithdrawAPIRequest struct {
	ConsentType string `json:"consentType" binding:"required"`
}

// ConsentBulkWithdrawAPIRequest withdraws a set of types in one call.
type ConsentBulkWithdrawAPIRequest struct {
	ConsentTypes []string `json:"consentTypes" binding:"required"`
}

// Provenance carries the caller metadata recorded on ledger rows.
type Provenance struct {
	IPAddress string
	UserAgent string
}

// ConsentStatusResponse reports the derived current status for a pair.
type ConsentStatusResponse struct {
	UserID      string      `json:"userId"`
	ConsentType ConsentType `json:"consentType"`
	IsGranted   bool        `json:"isGranted"`
	// ExpiresTime is set when the grant is current but subject to a
	// re-consent window.
	ExpiresTime *int64 `json:"expiresTime,omitempty"`
}

// BulkWithdrawResult reports the per-type outcome of a bulk withdrawal.
// Partial failure is reported per type, not rolled back.
type BulkWithdrawResult struct {
	ConsentType ConsentType `json:"consentType"`
	Withdrawn   bool        `json:"withdrawn"`
	Error       string      `json:"error,omitempty"`
}

// ConsentHistoryResponse lists ledger rows for a user, newest first.
type ConsentHistoryResponse struct {
	UserID string          `json:"userId"`
	Data   []ConsentRecord `json:"data"`
}
