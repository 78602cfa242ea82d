package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/system/error/apierror"
	"github.com/fittrack/privacy-rights-api/internal/system/error/serviceerror"
)

// SendError writes a ServiceError as an HTTP response with appropriate status code
func SendError(c *gin.Context, err *serviceerror.ServiceError) {
	statusCode := http.StatusInternalServerError
	if err.Type == serviceerror.ClientErrorType {
		switch err.Code {
		case serviceerror.ResourceNotFoundError.Code:
			statusCode = http.StatusNotFound
		case serviceerror.StateConflictError.Code:
			statusCode = http.StatusConflict
		case serviceerror.RateLimitError.Code:
			statusCode = http.StatusTooManyRequests
		default:
			statusCode = http.StatusBadRequest
		}
	}

	c.JSON(statusCode, apierror.NewErrorResponse(err.Error, err.ErrorDescription))
}

// ClientIP returns the caller address recorded on audit entries.
func ClientIP(c *gin.Context) string {
	return c.ClientIP()
}

// UserAgent returns the caller user agent recorded on audit entries.
func UserAgent(c *gin.Context) string {
	return c.Request.UserAgent()
}
