package validator

import (
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/consent/model"
)

// ValidateGrantRequest validates a consent grant request
func ValidateGrantRequest(req model.ConsentGrantAPIRequest, userID string) error {
	if userID == "" {
		return fmt.Errorf("userID is required")
	}
	if req.ConsentType == "" {
		return fmt.Errorf("consentType is required")
	}
	if !model.ConsentType(req.ConsentType).IsValid() {
		return fmt.Errorf("unknown consent type: %s", req.ConsentType)
	}
	if req.Purpose == "" {
		return fmt.Errorf("purpose is required")
	}
	if req.LegalBasis == "" {
		return fmt.Errorf("legalBasis is required")
	}
	if req.ConsentVersion == "" {
		return fmt.Errorf("consentVersion is required")
	}
	return nil
}

// ValidateConsentType validates a consent type string
func ValidateConsentType(consentType string) error {
	if consentType == "" {
		return fmt.Errorf("consentType is required")
	}
	if !model.ConsentType(consentType).IsValid() {
		return fmt.Errorf("unknown consent type: %s", consentType)
	}
	return nil
}
