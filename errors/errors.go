package errors

import (
	"fmt"
	"net/http"
	"time"
)

// ErrorCode identifies an application error category across the API.
type ErrorCode int32

const (
	ErrorCode_HTTP_OK           ErrorCode = 0
	ErrorCode_INVALID_ARGUMENT  ErrorCode = 3
	ErrorCode_NOT_FOUND         ErrorCode = 5
	ErrorCode_ALREADY_EXISTS    ErrorCode = 6
	ErrorCode_PERMISSION_DENIED ErrorCode = 7
	ErrorCode_INTERNAL          ErrorCode = 13
	ErrorCode_UNAUTHENTICATED   ErrorCode = 16

	ErrorCode_AUTH_INVALID_TOKEN ErrorCode = 100
	ErrorCode_AUTH_TOKEN_EXPIRED ErrorCode = 101

	ErrorCode_TRANSCRIPT_NOT_FOUND ErrorCode = 200
	ErrorCode_TRANSCRIPT_EMPTY     ErrorCode = 201

	ErrorCode_RUN_NOT_FOUND      ErrorCode = 210
	ErrorCode_RUN_INVALID_STATE  ErrorCode = 211
	ErrorCode_ANALYSIS_FAILED    ErrorCode = 220
	ErrorCode_NO_RATERS          ErrorCode = 221
	ErrorCode_CODEBOOK_NOT_FOUND ErrorCode = 222
)

var errorCodeNames = map[ErrorCode]string{
	ErrorCode_HTTP_OK:              "HTTP_OK",
	ErrorCode_INVALID_ARGUMENT:     "INVALID_ARGUMENT",
	ErrorCode_NOT_FOUND:            "NOT_FOUND",
	ErrorCode_ALREADY_EXISTS:       "ALREADY_EXISTS",
	ErrorCode_PERMISSION_DENIED:    "PERMISSION_DENIED",
	ErrorCode_INTERNAL:             "INTERNAL",
	ErrorCode_UNAUTHENTICATED:      "UNAUTHENTICATED",
	ErrorCode_AUTH_INVALID_TOKEN:   "AUTH_INVALID_TOKEN",
	ErrorCode_AUTH_TOKEN_EXPIRED:   "AUTH_TOKEN_EXPIRED",
	ErrorCode_TRANSCRIPT_NOT_FOUND: "TRANSCRIPT_NOT_FOUND",
	ErrorCode_TRANSCRIPT_EMPTY:     "TRANSCRIPT_EMPTY",
	ErrorCode_RUN_NOT_FOUND:        "RUN_NOT_FOUND",
	ErrorCode_RUN_INVALID_STATE:    "RUN_INVALID_STATE",
	ErrorCode_ANALYSIS_FAILED:      "ANALYSIS_FAILED",
	ErrorCode_NO_RATERS:            "NO_RATERS",
	ErrorCode_CODEBOOK_NOT_FOUND:   "CODEBOOK_NOT_FOUND",
}

// String returns the symbolic name of the code.
func (c ErrorCode) String() string {
	if name, ok := errorCodeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ERROR_CODE_%d", int32(c))
}

// AppError là custom error type cho application
type AppError struct {
	Raw       error
	HTTPCode  int
	Code      ErrorCode
	Message   string
	Details   map[string]string
	Timestamp time.Time
}

// Error implements error interface
func (e AppError) Error() string {
	if e.Raw != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code.String(), e.Message, e.Raw)
	}
	return fmt.Sprintf("[%s] %s", e.Code.String(), e.Message)
}

// WithDetail adds a detail to the error
func (e AppError) WithDetail(key, value string) AppError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// General Errors
func ErrInternal(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_INTERNAL,
		Message:  "Internal server error",
	}
}

func ErrInvalidArgument(message string) AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  message,
	}
}

func ErrInvalidPayload() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_INVALID_ARGUMENT,
		Message:  "Invalid request payload",
	}
}

func ErrNotFound(resource string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_NOT_FOUND,
		Message:  fmt.Sprintf("%s not found", resource),
	}
}

func ErrUnauthenticated() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_UNAUTHENTICATED,
		Message:  "Authentication required",
	}
}

func ErrInvalidToken() AppError {
	return AppError{
		HTTPCode: http.StatusUnauthorized,
		Code:     ErrorCode_AUTH_INVALID_TOKEN,
		Message:  "Invalid or expired token",
	}
}

// Transcript Errors
func ErrTranscriptNotFound() AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_TRANSCRIPT_NOT_FOUND,
		Message:  "Transcript not found",
	}
}

func ErrEmptyTranscript() AppError {
	return AppError{
		HTTPCode: http.StatusBadRequest,
		Code:     ErrorCode_TRANSCRIPT_EMPTY,
		Message:  "Transcript has no utterances",
	}
}

// Analysis Errors
func ErrRunNotFound() AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_RUN_NOT_FOUND,
		Message:  "Analysis run not found",
	}
}

func ErrAnalysisFailed(err error) AppError {
	return AppError{
		Raw:      err,
		HTTPCode: http.StatusInternalServerError,
		Code:     ErrorCode_ANALYSIS_FAILED,
		Message:  "Analysis failed",
	}
}

func ErrNoRaters() AppError {
	return AppError{
		HTTPCode: http.StatusServiceUnavailable,
		Code:     ErrorCode_NO_RATERS,
		Message:  "No raters available to code this transcript",
	}
}

func ErrCodebookNotFound(ref string) AppError {
	return AppError{
		HTTPCode: http.StatusNotFound,
		Code:     ErrorCode_CODEBOOK_NOT_FOUND,
		Message:  fmt.Sprintf("Codebook %q not found", ref),
	}
}
