package errors

import (
	"net/http"
	"strconv"
	"time"
)

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Request errors (400xx)
	ErrInvalidRequest   ErrorCode = "40001"
	ErrValidationFailed ErrorCode = "40002"
	ErrInvalidJSON      ErrorCode = "40003"

	// Authentication errors (401xx)
	ErrInvalidCredentials ErrorCode = "40101"
	ErrTokenExpired       ErrorCode = "40102"

	// Payment errors (402xx)
	ErrPaymentRejected ErrorCode = "40201"
	ErrPaymentFailed   ErrorCode = "40202"
	ErrWalletRequired  ErrorCode = "40203"

	// Authorization errors (403xx)
	ErrForbidden      ErrorCode = "40301"
	ErrCourseNotOwned ErrorCode = "40302"

	// Resource errors (404xx)
	ErrNotFound         ErrorCode = "40401"
	ErrCourseNotFound   ErrorCode = "40402"
	ErrProviderNotFound ErrorCode = "40403"

	// Conflict errors (409xx)
	ErrWorkflowBusy       ErrorCode = "40901"
	ErrUsernameTaken      ErrorCode = "40902"
	ErrWalletAlreadyBound ErrorCode = "40903"

	// Payload errors (413xx / 415xx)
	ErrAssetTooLarge    ErrorCode = "41301"
	ErrUnsupportedAsset ErrorCode = "41501"

	// Rate limit errors (429xx)
	ErrRateLimited ErrorCode = "42901"

	// Server errors (500xx and up)
	ErrInternalServer  ErrorCode = "50001"
	ErrDatabaseError   ErrorCode = "50002"
	ErrCacheError      ErrorCode = "50003"
	ErrUploadFailed    ErrorCode = "50201"
	ErrNodeUnavailable ErrorCode = "50301"
	ErrCircuitOpen     ErrorCode = "50302"
	ErrNodeTimeout     ErrorCode = "50401"
)

// APIError represents a standardized API error
type APIError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    any       `json:"details,omitempty"`
	Timestamp  time.Time `json:"-"`
	HTTPStatus int       `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// WithDetails returns a copy of the error with details attached
func (e *APIError) WithDetails(details any) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    e.Message,
		Details:    details,
		Timestamp:  time.Now().UTC(),
		HTTPStatus: e.HTTPStatus,
	}
}

// WithMessage returns a copy of the error with a replaced message
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{
		Code:       e.Code,
		Message:    message,
		Details:    e.Details,
		Timestamp:  time.Now().UTC(),
		HTTPStatus: e.HTTPStatus,
	}
}

// ErrorBody is the serialized error inside an ErrorResponse
type ErrorBody struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   any       `json:"details,omitempty"`
	Timestamp string    `json:"timestamp"`
	Path      string    `json:"path"`
	Method    string    `json:"method"`
}

// ErrorResponse represents the error response format
type ErrorResponse struct {
	Error         ErrorBody `json:"error"`
	RequestID     string    `json:"request_id"`
	CorrelationID string    `json:"correlation_id"`
}

// NewErrorResponse builds the response envelope for an API error
func NewErrorResponse(err *APIError, requestID, correlationID, path, method string) *ErrorResponse {
	return &ErrorResponse{
		Error: ErrorBody{
			Code:      err.Code,
			Message:   err.Message,
			Details:   err.Details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Path:      path,
			Method:    method,
		},
		RequestID:     requestID,
		CorrelationID: correlationID,
	}
}

// GetHTTPStatusFromCode derives the HTTP status from the code's leading digits
func GetHTTPStatusFromCode(code ErrorCode) int {
	if len(code) < 3 {
		return http.StatusInternalServerError
	}
	status, err := strconv.Atoi(string(code)[:3])
	if err != nil || status < 400 || status > 599 {
		return http.StatusInternalServerError
	}
	return status
}

// IsRetryable reports whether the client may retry the same request later
func IsRetryable(err *APIError) bool {
	switch err.Code {
	case ErrNodeTimeout, ErrNodeUnavailable, ErrCircuitOpen, ErrRateLimited, ErrWorkflowBusy:
		return true
	default:
		return false
	}
}

// IsClientError reports whether the error is a 4xx
func IsClientError(err *APIError) bool {
	return err.HTTPStatus >= 400 && err.HTTPStatus < 500
}

// IsServerError reports whether the error is a 5xx
func IsServerError(err *APIError) bool {
	return err.HTTPStatus >= 500 && err.HTTPStatus < 600
}

// Common errors
var (
	ErrInvalidCredentialsError = &APIError{
		Code:       ErrInvalidCredentials,
		Message:    "Invalid or missing credentials",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrTokenExpiredError = &APIError{
		Code:       ErrTokenExpired,
		Message:    "Token has expired",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrForbiddenError = &APIError{
		Code:       ErrForbidden,
		Message:    "Access denied",
		HTTPStatus: http.StatusForbidden,
	}

	ErrCourseNotOwnedError = &APIError{
		Code:       ErrCourseNotOwned,
		Message:    "Course is not owned by the caller",
		HTTPStatus: http.StatusForbidden,
	}

	ErrCourseNotFoundError = &APIError{
		Code:       ErrCourseNotFound,
		Message:    "Course not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrProviderNotFoundError = &APIError{
		Code:       ErrProviderNotFound,
		Message:    "Provider not found",
		HTTPStatus: http.StatusNotFound,
	}

	ErrWorkflowBusyError = &APIError{
		Code:       ErrWorkflowBusy,
		Message:    "Another paid workflow is already in progress",
		HTTPStatus: http.StatusConflict,
	}

	ErrUsernameTakenError = &APIError{
		Code:       ErrUsernameTaken,
		Message:    "Username is already taken",
		HTTPStatus: http.StatusConflict,
	}

	ErrWalletAlreadyBoundError = &APIError{
		Code:       ErrWalletAlreadyBound,
		Message:    "A wallet address is already bound to this provider",
		HTTPStatus: http.StatusConflict,
	}

	ErrPaymentRejectedError = &APIError{
		Code:       ErrPaymentRejected,
		Message:    "Payment was rejected in the wallet",
		HTTPStatus: http.StatusPaymentRequired,
	}

	ErrPaymentFailedError = &APIError{
		Code:       ErrPaymentFailed,
		Message:    "Payment could not be confirmed",
		HTTPStatus: http.StatusPaymentRequired,
	}

	ErrWalletRequiredError = &APIError{
		Code:       ErrWalletRequired,
		Message:    "A connected wallet is required",
		HTTPStatus: http.StatusPaymentRequired,
	}

	ErrAssetTooLargeError = &APIError{
		Code:       ErrAssetTooLarge,
		Message:    "Asset exceeds the maximum allowed size",
		HTTPStatus: http.StatusRequestEntityTooLarge,
	}

	ErrUnsupportedAssetError = &APIError{
		Code:       ErrUnsupportedAsset,
		Message:    "Asset type is not supported",
		HTTPStatus: http.StatusUnsupportedMediaType,
	}

	ErrRateLimitedError = &APIError{
		Code:       ErrRateLimited,
		Message:    "Rate limit exceeded",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternalServerError = &APIError{
		Code:       ErrInternalServer,
		Message:    "Internal server error",
		HTTPStatus: http.StatusInternalServerError,
	}

	ErrUploadFailedError = &APIError{
		Code:       ErrUploadFailed,
		Message:    "Asset store rejected the upload",
		HTTPStatus: http.StatusBadGateway,
	}

	ErrNodeUnavailableError = &APIError{
		Code:       ErrNodeUnavailable,
		Message:    "Chain node unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrCircuitOpenError = &APIError{
		Code:       ErrCircuitOpen,
		Message:    "Upstream temporarily unavailable",
		HTTPStatus: http.StatusServiceUnavailable,
	}

	ErrNodeTimeoutError = &APIError{
		Code:       ErrNodeTimeout,
		Message:    "Chain node timeout",
		HTTPStatus: http.StatusGatewayTimeout,
	}
)

// NewValidationError creates a validation error with details
func NewValidationError(details any) *APIError {
	return &APIError{
		Code:       ErrValidationFailed,
		Message:    "Validation failed",
		Details:    details,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) *APIError {
	return &APIError{
		Code:       ErrInvalidRequest,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}
