package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidLoanTerms     = errors.New("invalid loan terms")
	ErrInvalidPaymentAmount = errors.New("invalid payment amount")
	ErrCreditNotFound       = errors.New("credit not found")
	ErrCreditSettled        = errors.New("credit is already settled")
	ErrStorageFailure       = errors.New("storage failure")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrValidation           = errors.New("validation failed")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeInvalidLoanTerms     = "INVALID_LOAN_TERMS"
	ErrCodeInvalidPaymentAmount = "INVALID_PAYMENT_AMOUNT"
	ErrCodeCreditNotFound       = "CREDIT_NOT_FOUND"
	ErrCodeCreditSettled        = "CREDIT_SETTLED"
	ErrCodeStorageFailure       = "STORAGE_FAILURE"
	ErrCodeCacheError           = "CACHE_ERROR"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeValidation           = "VALIDATION_ERROR"
)

// CodeOf returns the business code carried by err, or "" when err is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapInvalidLoanTerms(reason string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidLoanTerms,
		reason,
		ErrInvalidLoanTerms,
	)
}

func WrapInvalidPaymentAmount(amount string) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidPaymentAmount,
		fmt.Sprintf("Invalid payment amount: %s", amount),
		ErrInvalidPaymentAmount,
	)
}

func WrapCreditNotFound(creditID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCreditNotFound,
		fmt.Sprintf("Credit with ID %s not found", creditID),
		ErrCreditNotFound,
	)
}

func WrapCreditSettled(creditID string) *BusinessError {
	return NewBusinessError(
		ErrCodeCreditSettled,
		fmt.Sprintf("Credit with ID %s has no remaining installments", creditID),
		ErrCreditSettled,
	)
}

// WrapStorageFailure keeps both the storage sentinel and the driver error reachable through errors.Is.
func WrapStorageFailure(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeStorageFailure,
		"storage operation failed",
		fmt.Errorf("%w: %w", ErrStorageFailure, err),
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}

func WrapInvalidCredentials() *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidCredentials,
		"email or password is incorrect",
		ErrInvalidCredentials,
	)
}

func WrapValidation(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeValidation,
		"request validation failed",
		fmt.Errorf("%w: %w", ErrValidation, err),
	)
}
