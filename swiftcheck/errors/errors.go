package errors

import "fmt"

// Error types for swiftcheck operations
var (
	// ErrStatEmpty is returned when the object store reports no metadata for an object
	ErrStatEmpty = &CheckError{Code: "STAT_EMPTY", Message: "object stat returned no metadata"}

	// ErrContentLengthMissing is returned when object metadata carries no content length
	ErrContentLengthMissing = &CheckError{Code: "CONTENT_LENGTH_MISSING", Message: "content length not present in object metadata"}

	// ErrETagMissing is returned when a non-segmented object carries no ETag
	ErrETagMissing = &CheckError{Code: "ETAG_MISSING", Message: "etag not present in object metadata"}

	// ErrSegmentETagMissing is returned when a segment object carries no ETag
	ErrSegmentETagMissing = &CheckError{Code: "SEGMENT_ETAG_MISSING", Message: "etag not present for segment"}

	// ErrSegmentSizeUnknown is returned when neither a hint nor segment naming yields a segment size
	ErrSegmentSizeUnknown = &CheckError{Code: "SEGMENT_SIZE_UNKNOWN", Message: "segment size could not be determined"}

	// ErrLocalFile is returned when the local file cannot be opened or read
	ErrLocalFile = &CheckError{Code: "LOCAL_FILE_FAILED", Message: "failed to read local file"}

	// ErrAuthFailed is returned when object store authentication fails
	ErrAuthFailed = &CheckError{Code: "AUTH_FAILED", Message: "authentication failed"}

	// ErrStoreRequest is returned when an object store request fails
	ErrStoreRequest = &CheckError{Code: "STORE_REQUEST_FAILED", Message: "object store request failed"}
)

// CheckError represents a structured error in swiftcheck operations
type CheckError struct {
	Code    string                 // Error code for programmatic handling
	Message string                 // Human-readable error message
	Cause   error                  // Underlying error, if any
	Details map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *CheckError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	if len(e.Details) > 0 {
		return fmt.Sprintf("[%s] %s (details: %v)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *CheckError) Unwrap() error {
	return e.Cause
}

// WithCause adds a cause to the error
func (e *CheckError) WithCause(cause error) *CheckError {
	return &CheckError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   cause,
		Details: e.Details,
	}
}

// WithDetail adds a detail key-value pair to the error
func (e *CheckError) WithDetail(key string, value interface{}) *CheckError {
	details := make(map[string]interface{})
	for k, v := range e.Details {
		details[k] = v
	}
	details[key] = value
	return &CheckError{
		Code:    e.Code,
		Message: e.Message,
		Cause:   e.Cause,
		Details: details,
	}
}

// WithMessage overrides the error message
func (e *CheckError) WithMessage(message string) *CheckError {
	return &CheckError{
		Code:    e.Code,
		Message: message,
		Cause:   e.Cause,
		Details: e.Details,
	}
}

// IsCheckError checks if an error is a CheckError
func IsCheckError(err error) bool {
	_, ok := err.(*CheckError)
	return ok
}

// GetErrorCode extracts the error code from a CheckError
func GetErrorCode(err error) string {
	if checkErr, ok := err.(*CheckError); ok {
		return checkErr.Code
	}
	return ""
}
