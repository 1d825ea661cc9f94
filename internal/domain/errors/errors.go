package errors

import (
	"net/http"

	"conduit/internal/errors"
)

// AppError defines the interface for application-specific errors
type AppError interface {
	error
	HTTPCode() int     // HTTP status code
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface
type BaseError struct {
	httpCode  int
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error
func NewBaseError(httpCode int, errorCode, message, details string) *BaseError {
	return &BaseError{
		httpCode:  httpCode,
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// HTTPCode returns the HTTP status code
func (e *BaseError) HTTPCode() int {
	return e.httpCode
}

// ErrorCode returns the business error code
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		httpCode:  e.httpCode,
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error types
var (
	// Credential-related errors
	ErrCredentialNotFound = NewBaseError(
		http.StatusNotFound,
		"CREDENTIAL_NOT_FOUND",
		"Credential not found",
		"",
	)

	ErrDuplicateCredential = NewBaseError(
		http.StatusConflict,
		"DUPLICATE_CREDENTIAL",
		"A credential for this app already exists",
		"",
	)

	ErrNoAccessToken = NewBaseError(
		http.StatusConflict,
		"NO_ACCESS_TOKEN",
		"Credential has no access token, connect the account first",
		"",
	)

	ErrIntegrity = NewBaseError(
		http.StatusInternalServerError,
		"CREDENTIAL_INTEGRITY",
		"Stored credential could not be authenticated",
		"",
	)

	ErrDeserialization = NewBaseError(
		http.StatusInternalServerError,
		"CREDENTIAL_DESERIALIZATION",
		"Stored credential is not valid JSON",
		"",
	)

	// App-related errors
	ErrAppNotFound = NewBaseError(
		http.StatusNotFound,
		"APP_NOT_FOUND",
		"App not found",
		"",
	)

	ErrUnsupportedAuthType = NewBaseError(
		http.StatusBadRequest,
		"UNSUPPORTED_AUTH_TYPE",
		"This app does not support that connection method",
		"",
	)

	// OAuth-related errors
	ErrUnknownProvider = NewBaseError(
		http.StatusBadRequest,
		"UNKNOWN_PROVIDER",
		"Unknown OAuth provider",
		"",
	)

	ErrProviderNotConfigured = NewBaseError(
		http.StatusServiceUnavailable,
		"PROVIDER_NOT_CONFIGURED",
		"OAuth provider is not configured",
		"",
	)

	ErrInvalidState = NewBaseError(
		http.StatusBadRequest,
		"INVALID_STATE",
		"Invalid OAuth state",
		"",
	)

	ErrExpiredState = NewBaseError(
		http.StatusBadRequest,
		"EXPIRED_STATE",
		"OAuth state has expired, please try again",
		"",
	)

	ErrTokenExchange = NewBaseError(
		http.StatusBadGateway,
		"TOKEN_EXCHANGE_FAILED",
		"Failed to exchange authorization code",
		"",
	)

	ErrTokenRefresh = NewBaseError(
		http.StatusBadGateway,
		"TOKEN_REFRESH_FAILED",
		"Failed to refresh access token. Please reconnect your account.",
		"",
	)

	ErrRefreshNotSupported = NewBaseError(
		http.StatusBadRequest,
		"REFRESH_NOT_SUPPORTED",
		"This provider does not support token refresh",
		"",
	)

	ErrProviderUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"PROVIDER_UNAUTHORIZED",
		"The provider rejected the credential",
		"",
	)

	// Workflow engine errors
	ErrSync = NewBaseError(
		http.StatusBadGateway,
		"SYNC_FAILED",
		"Failed to sync credential to the workflow engine",
		"",
	)

	ErrEngineUnavailable = NewBaseError(
		http.StatusBadGateway,
		"ENGINE_UNAVAILABLE",
		"Workflow engine request failed",
		"",
	)

	// Validation-related errors
	ErrValidationFailed = NewBaseError(
		http.StatusBadRequest,
		"VALIDATION_FAILED",
		"Input validation failed",
		"",
	)

	// General errors
	ErrInternalError = NewBaseError(
		http.StatusInternalServerError,
		"INTERNAL_ERROR",
		"Internal server error",
		"",
	)

	ErrUnauthorized = NewBaseError(
		http.StatusUnauthorized,
		"UNAUTHORIZED",
		"Authentication required",
		"",
	)

	ErrForbidden = NewBaseError(
		http.StatusForbidden,
		"FORBIDDEN",
		"Access denied",
		"",
	)

	ErrNotFound = NewBaseError(
		http.StatusNotFound,
		"NOT_FOUND",
		"Resource not found",
		"",
	)
)

// DatabaseExecuteError represents a database execution error, implementing the AppError interface
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// HTTPCode returns the HTTP status code
func (e *DatabaseExecuteError) HTTPCode() int {
	return http.StatusInternalServerError
}

// ErrorCode returns the business error code
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message
func (e *DatabaseExecuteError) Message() string {
	return "Database execution failed"
}

// Details returns detailed error information
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
