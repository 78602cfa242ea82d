// Package validator provides validation for rectification requests.
package validator

import (
	"fmt"

	"github.com/fittrack/privacy-rights-api/internal/rectification/model"
	"github.com/fittrack/privacy-rights-api/internal/system/utils"
)

// ValidateCreateRequest checks a rectification create request. The
// requested value must differ from the current value.
func ValidateCreateRequest(req model.RectificationCreateAPIRequest, userID string) error {
	if err := utils.ValidateUserID(userID); err != nil {
		return err
	}
	if err := utils.ValidateRequired("dataType", req.DataType); err != nil {
		return err
	}
	if err := utils.ValidateRequired("fieldName", req.FieldName); err != nil {
		return err
	}
	if err := utils.ValidateRequired("requestedValue", req.RequestedValue); err != nil {
		return err
	}
	if req.RequestedValue == req.CurrentValue {
		return fmt.Errorf("requested value must differ from current value")
	}
	return nil
}
