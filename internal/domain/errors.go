package domain

import (
	"errors"
	"fmt"
)

// AppError is the base domain error type.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Cause   error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Error codes that callers branch on.
const (
	CodeNotFound             = "NOT_FOUND"
	CodeInvalidTransition    = "INVALID_TRANSITION"
	CodeEmptyBooking         = "EMPTY_BOOKING"
	CodeUnknownTier          = "UNKNOWN_TIER"
	CodePartialSourceFailure = "PARTIAL_SOURCE_FAILURE"
	CodeNotificationFailure  = "NOTIFICATION_FAILURE"
	CodeUnknownOutcome       = "UNKNOWN_OUTCOME"
	CodeValidation           = "VALIDATION_ERROR"
)

// Standard domain error constructors.

func ErrNotFound(entity, id string) *AppError {
	return &AppError{Code: CodeNotFound, Message: fmt.Sprintf("%s %s not found", entity, id), Status: 404}
}

func ErrConflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Message: msg, Status: 409}
}

func ErrValidation(msg string) *AppError {
	return &AppError{Code: CodeValidation, Message: msg, Status: 400}
}

func ErrUnauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Message: msg, Status: 401}
}

func ErrForbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Message: msg, Status: 403}
}

func ErrRateLimited(msg string) *AppError {
	return &AppError{Code: "RATE_LIMITED", Message: msg, Status: 429}
}

func ErrInvalidTransition(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
		Status:  409,
	}
}

func ErrEmptyBooking() *AppError {
	return &AppError{Code: CodeEmptyBooking, Message: "booking has no line items", Status: 422}
}

func ErrUnknownTier(level string) *AppError {
	return &AppError{Code: CodeUnknownTier, Message: fmt.Sprintf("unknown talent level %q", level), Status: 422}
}

func ErrPartialSourceFailure(msg string, cause error) *AppError {
	return &AppError{Code: CodePartialSourceFailure, Message: msg, Status: 503, Cause: cause}
}

func ErrNotificationFailure(cause error) *AppError {
	return &AppError{Code: CodeNotificationFailure, Message: "notification delivery failed", Status: 502, Cause: cause}
}

func ErrUnknownOutcome(outcome string) *AppError {
	return &AppError{Code: CodeUnknownOutcome, Message: fmt.Sprintf("unrecognized gateway outcome %q", outcome), Status: 400}
}

func ErrInternal(msg string, cause error) *AppError {
	return &AppError{Code: "INTERNAL_ERROR", Message: msg, Status: 500, Cause: cause}
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code string) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
