package serviceerror

type ServiceErrorType string

const (
	ClientErrorType ServiceErrorType = "client_error"
	ServerErrorType ServiceErrorType = "server_error"
)

type ServiceError struct {
	Code             string           `json:"code"`
	Type             ServiceErrorType `json:"type"`
	Error            string           `json:"error"`
	ErrorDescription string           `json:"error_description,omitempty"`
}

var (
	InternalServerError = ServiceError{
		Type:             ServerErrorType,
		Code:             "PSE-5000",
		Error:            "internal_server_error",
		ErrorDescription: "An unexpected error occurred",
	}

	DatabaseError = ServiceError{
		Type:             ServerErrorType,
		Code:             "PSE-5001",
		Error:            "database_error",
		ErrorDescription: "A database error occurred",
	}

	// DependencyFailureError covers unavailable external collaborators:
	// artifact store, notification sender, application data store.
	DependencyFailureError = ServiceError{
		Type:             ServerErrorType,
		Code:             "PSE-5002",
		Error:            "dependency_failure",
		ErrorDescription: "A required external dependency failed",
	}

	InvalidRequestError = ServiceError{
		Type:             ClientErrorType,
		Code:             "PCE-4000",
		Error:            "invalid_request",
		ErrorDescription: "The request is invalid",
	}

	ValidationError = ServiceError{
		Type:             ClientErrorType,
		Code:             "PCE-4001",
		Error:            "validation_error",
		ErrorDescription: "Validation failed",
	}

	ResourceNotFoundError = ServiceError{
		Type:             ClientErrorType,
		Code:             "PCE-4004",
		Error:            "resource_not_found",
		ErrorDescription: "Resource not found",
	}

	// StateConflictError is returned when a transition is attempted from a
	// state that does not permit it (e.g. confirming an already-confirmed
	// deletion token). No side effects are applied.
	StateConflictError = ServiceError{
		Type:             ClientErrorType,
		Code:             "PCE-4009",
		Error:            "state_conflict",
		ErrorDescription: "Request conflicts with current state",
	}

	RateLimitError = ServiceError{
		Type:             ClientErrorType,
		Code:             "PCE-4029",
		Error:            "rate_limited",
		ErrorDescription: "Too many requests",
	}
)

func CustomServiceError(baseError ServiceError, description string) *ServiceError {
	return &ServiceError{
		Type:             baseError.Type,
		Code:             baseError.Code,
		Error:            baseError.Error,
		ErrorDescription: description,
	}
}
