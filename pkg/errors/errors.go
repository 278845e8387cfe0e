package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// CodeOf returns the error code if err is (or wraps) an AppError,
// ErrCodeInternalError otherwise.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternalError
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// Business-rule outcome codes. The API layer maps these 1:1 to user-facing
// messages; none of them indicate an infrastructure failure.
const (
	ErrCodeAlreadyAwarded      = "ALREADY_AWARDED"
	ErrCodeInsufficientPoints  = "INSUFFICIENT_POINTS"
	ErrCodeBelowMinRedemption  = "BELOW_MIN_REDEMPTION"
	ErrCodeSelfReferral        = "SELF_REFERRAL"
	ErrCodeDuplicateReferral   = "DUPLICATE_REFERRAL"
	ErrCodeItemUnavailable     = "ITEM_UNAVAILABLE"
	ErrCodeOutOfStock          = "OUT_OF_STOCK"
	ErrCodeRoleIneligible      = "ROLE_INELIGIBLE"
	ErrCodeExpired             = "EXPIRED"
	ErrCodeInvalidAmount       = "INVALID_AMOUNT"
	ErrCodeInvalidClaimState   = "INVALID_CLAIM_STATE"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInternalError       = "INTERNAL_ERROR"
	ErrCodeConflictRetryBudget = "CONFLICT_RETRY_EXHAUSTED"
)
