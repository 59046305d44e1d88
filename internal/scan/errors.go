package scan

import (
	"errors"
	"net/http"
)

// ErrorCode is a stable machine-readable identifier for a scan failure.
type ErrorCode string

const (
	CodeInvalidRepoURL ErrorCode = "INVALID_REPO_URL"
	CodeRepoNotFound   ErrorCode = "REPO_NOT_FOUND"
	CodeRateLimited    ErrorCode = "RATE_LIMITED"
	CodeUpstreamFetch  ErrorCode = "UPSTREAM_FETCH_FAILED"
	CodeOversizedRepo  ErrorCode = "OVERSIZED_REPO"
	CodeUnexpected     ErrorCode = "UNEXPECTED_SCAN_ERROR"
)

// Error carries the (code, message, httpStatus) triple surfaced to callers.
// Input-validation and upstream failures abort the whole pipeline; no
// partial results escape alongside an Error.
type Error struct {
	Code    ErrorCode
	Message string
	Status  int
}

func (e *Error) Error() string { return string(e.Code) + ": " + e.Message }

// Errf builds a scan Error with an explicit HTTP status.
func Errf(code ErrorCode, status int, message string) *Error {
	return &Error{Code: code, Message: message, Status: status}
}

func invalidRepoURL(message string) *Error {
	return Errf(CodeInvalidRepoURL, http.StatusBadRequest, message)
}

func oversizedRepo(message string) *Error {
	return Errf(CodeOversizedRepo, http.StatusRequestEntityTooLarge, message)
}

// Classify normalises any error into a scan Error. Unrecognised errors map
// to a generic retry-shortly message at 500 so internal details are never
// echoed to the caller.
func Classify(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return Errf(CodeUnexpected, http.StatusInternalServerError,
		"Unexpected scan error. Please retry shortly.")
}
