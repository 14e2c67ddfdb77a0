package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict") // e.g., username already exists
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrThrottled is returned by the run guard; clients should back off and retry.
	ErrThrottled = errors.New("please wait a moment before running again")
	// ErrJudgeUnavailable means the judge could not evaluate the code. It is never a verdict.
	ErrJudgeUnavailable = errors.New("code execution service is unavailable")
	// ErrResultLost means the judge produced results that could not be persisted.
	ErrResultLost = errors.New("evaluation finished but the result could not be saved")
)

const (
	pgUniqueViolation           = "23505"
	pgInvalidTextRepresentation = "22P02" // e.g. a malformed UUID
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrThrottled) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrJudgeUnavailable) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return http.StatusConflict
		case pgInvalidTextRepresentation:
			return http.StatusBadRequest
		}
	}

	return http.StatusInternalServerError
}

// PublicMessage is the text safe to show a client. Server-side failures
// collapse to their sentinel so wrapped detail (URLs, SQL) never leaks.
func PublicMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrJudgeUnavailable):
		return "Code execution service is unavailable"
	case errors.Is(err, ErrResultLost):
		return "Evaluation finished but the result could not be saved"
	case errors.Is(err, ErrServiceUnavailable):
		return "Service unavailable"
	case errors.Is(err, ErrThrottled):
		return "Please wait a moment before running again."
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return "Resource already exists"
		case pgInvalidTextRepresentation:
			return "Invalid identifier"
		}
	}
	if HTTPStatusFromError(err) >= http.StatusInternalServerError {
		return "Internal server error"
	}
	return err.Error()
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
