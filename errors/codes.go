package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Model errors
const (
	// ErrCodeInvalidModel indicates the identifier is neither allow-listed nor a loadable custom model.
	ErrCodeInvalidModel ErrorCode = "INVALID_MODEL"
	// ErrCodeWeightsNotFound indicates the expected local weights file is missing.
	ErrCodeWeightsNotFound ErrorCode = "WEIGHTS_NOT_FOUND"
	// ErrCodeModelLoad indicates any other failure while loading or deserializing a model.
	ErrCodeModelLoad ErrorCode = "MODEL_LOAD_FAILED"
)

// Transcription errors
const (
	// ErrCodeTranscription indicates the model raised while transcribing.
	ErrCodeTranscription ErrorCode = "TRANSCRIPTION_FAILED"
)

// Report errors
const (
	// ErrCodeUnsupportedFormat indicates the requested report format is not supported.
	ErrCodeUnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// ErrCodeReportWrite indicates the report artifact could not be written.
	ErrCodeReportWrite ErrorCode = "REPORT_WRITE_FAILED"
)

// Connection/Availability errors (retryable)
const (
	// ErrCodeServiceUnavailable indicates a backend is temporarily unavailable.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// Validation and internal errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            true,
	ErrCodeInternal:           false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
