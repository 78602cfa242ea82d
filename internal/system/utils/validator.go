package utils

import (
	"fmt"
)

// ValidateUserID validates a user identifier
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if len(userID) > 255 {
		return fmt.Errorf("user ID too long (max 255 chars)")
	}
	return nil
}

// ValidateRequired validates a field is not empty
func ValidateRequired(fieldName, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidatePagination validates limit and offset
func ValidatePagination(limit, offset int) error {
	if limit < 1 || limit > 100 {
		return fmt.Errorf("limit must be between 1 and 100")
	}
	if offset < 0 {
		return fmt.Errorf("offset must be non-negative")
	}
	return nil
}

// ValidateUUID validates UUID format using existing IsValidUUID
func ValidateUUID(id string) error {
	if !IsValidUUID(id) {
		return fmt.Errorf("invalid UUID format: %s", id)
	}
	return nil
}

// ValidateRequestID validates a workflow request identifier
func ValidateRequestID(requestID string) error {
	if err := ValidateRequired("requestID", requestID); err != nil {
		return err
	}
	return ValidateUUID(requestID)
}
