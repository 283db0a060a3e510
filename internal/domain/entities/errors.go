package entities

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrInternalError = errors.New("internal server error")
)

// Transcript errors
var (
	ErrTranscriptNotFound = errors.New("transcript not found")
	ErrEmptyTranscript    = errors.New("transcript has no utterances")
)

// Analysis errors
var (
	ErrRunNotFound        = errors.New("analysis run not found")
	ErrNoRaters           = errors.New("no raters configured")
	ErrCodebookNotFound   = errors.New("codebook not found")
	ErrInvalidProfile     = errors.New("invalid domain profile")
	ErrRaterEmptyResponse = errors.New("empty response from rater")
)

// Auth errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)
