package constants

const (
	AuthorizationHeaderName = "Authorization"
	ContentTypeHeaderName   = "Content-Type"
	CorrelationIDHeaderName = "X-Correlation-ID"
	UserIDHeaderName        = "X-User-ID"
	AdminUserIDHeaderName   = "X-Admin-User-ID"
	ContentTypeJSON         = "application/json"
	DefaultPageSize         = 30
	MaxPageSize             = 100

	APIBasePath = "/api/v1"

	// SystemActor identifies transitions performed by background sweeps
	// rather than a user or administrator.
	SystemActor = "SYSTEM"
)
