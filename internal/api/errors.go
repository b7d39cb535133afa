package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// ErrorCode is the machine-readable part of an error response.
type ErrorCode string

const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeBadRequest      ErrorCode = "BAD_REQUEST"
	ErrCodeUnauthorized    ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden       ErrorCode = "FORBIDDEN"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeRateLimited     ErrorCode = "RATE_LIMITED"
	ErrCodeRequestTooLarge ErrorCode = "REQUEST_TOO_LARGE"

	// request content problems
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvalidJSON  ErrorCode = "INVALID_JSON"
	ErrCodeInvalidDate  ErrorCode = "INVALID_DATE"
	ErrCodeInvalidRange ErrorCode = "INVALID_RANGE"
)

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error     string            `json:"error"`                // HTTP status text
	Message   string            `json:"message"`              // Human-readable description
	Code      ErrorCode         `json:"code"`                 // Machine-readable error code
	Fields    map[string]string `json:"fields,omitempty"`     // Per-field problems
	Errors    []string          `json:"errors,omitempty"`     // Season rule violations, in check order
	RequestID string            `json:"request_id,omitempty"` // Echoes the X-Request-Id of the call
}

// NewErrorResponse creates a new error response
func NewErrorResponse(statusCode int, code ErrorCode, message string) *ErrorResponse {
	return &ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    code,
	}
}

// WithFields adds field-level errors to the response
func (e *ErrorResponse) WithFields(fields map[string]string) *ErrorResponse {
	e.Fields = fields
	return e
}

// WithErrors adds an ordered list of rule violations to the response
func (e *ErrorResponse) WithErrors(errs []string) *ErrorResponse {
	e.Errors = errs
	return e
}

// writeError sends resp with the request id of r filled in.
func writeError(w http.ResponseWriter, r *http.Request, status int, resp *ErrorResponse) {
	if reqID := middleware.GetReqID(r.Context()); reqID != "" {
		resp.RequestID = reqID
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func fail(w http.ResponseWriter, r *http.Request, status int, code ErrorCode, message string) {
	writeError(w, r, status, NewErrorResponse(status, code, message))
}

// ValidationError reports request fields that failed validation.
func ValidationError(w http.ResponseWriter, r *http.Request, message string, fields map[string]string) {
	writeError(w, r, http.StatusBadRequest,
		NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, message).WithFields(fields))
}

// RuleViolationError reports seasonal rule violations in the order they were found
func RuleViolationError(w http.ResponseWriter, r *http.Request, errs []string) {
	writeError(w, r, http.StatusBadRequest,
		NewErrorResponse(http.StatusBadRequest, ErrCodeValidation, "Season rule is invalid").WithErrors(errs))
}

func BadRequestError(w http.ResponseWriter, r *http.Request, code ErrorCode, message string) {
	fail(w, r, http.StatusBadRequest, code, message)
}

func BadRequestErrorWithFields(w http.ResponseWriter, r *http.Request, code ErrorCode, message string, fields map[string]string) {
	writeError(w, r, http.StatusBadRequest,
		NewErrorResponse(http.StatusBadRequest, code, message).WithFields(fields))
}

func UnauthorizedError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func ForbiddenError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusForbidden, ErrCodeForbidden, message)
}

func InternalError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusInternalServerError, ErrCodeInternal, message)
}

func NotFoundError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusNotFound, ErrCodeNotFound, message)
}

func RequestTooLargeError(w http.ResponseWriter, r *http.Request, message string) {
	fail(w, r, http.StatusRequestEntityTooLarge, ErrCodeRequestTooLarge, message)
}

// RateLimitedError is the httprate limit handler.
func RateLimitedError(w http.ResponseWriter, r *http.Request) {
	fail(w, r, http.StatusTooManyRequests, ErrCodeRateLimited, "Rate limit exceeded, retry later")
}

// authError adapts auth failures to structured responses.
func authError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if status == http.StatusForbidden {
		ForbiddenError(w, r, message)
		return
	}
	UnauthorizedError(w, r, message)
}
