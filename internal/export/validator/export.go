// Package validator provides validation for export requests.
package validator

import (
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/export/model"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

// ValidateCreateRequest checks an export create request.
func ValidateCreateRequest(req model.ExportCreateAPIRequest, userID string) error {
	if err := utils.ValidateUserID(userID); err != nil {
		return err
	}
	if !model.ExportFormat(req.Format).IsValid() {
		return fmt.Errorf("unsupported export format: %s", req.Format)
	}
	return nil
}
