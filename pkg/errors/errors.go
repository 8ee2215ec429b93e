package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrAlreadyPaid       = errors.New("installment already paid")
	ErrOutOfOrderPayment = errors.New("earlier installment is still unpaid")
	ErrPurchaseNotFound  = errors.New("purchase not found")
	ErrPaymentInProgress = errors.New("another payment is being processed for this purchase")
	ErrConcurrentUpdate  = errors.New("installment was modified concurrently")
	ErrPurchaseCompleted = errors.New("purchase is already completed")

	ErrCertificateNotAvailable = errors.New("no certificate for this purchase")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
	Details map[string]interface{}
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
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeAlreadyPaid       = "ALREADY_PAID"
	ErrCodeOutOfOrderPayment = "OUT_OF_ORDER_PAYMENT"
	ErrCodePurchaseNotFound  = "PURCHASE_NOT_FOUND"
	ErrCodePaymentInProgress = "PAYMENT_IN_PROGRESS"
	ErrCodeConcurrentUpdate  = "CONCURRENT_UPDATE"
	ErrCodePurchaseCompleted = "PURCHASE_COMPLETED"
	ErrCodeNoCertificate     = "CERTIFICATE_NOT_AVAILABLE"
	ErrCodeDatabaseError     = "DATABASE_ERROR"
	ErrCodeCacheError        = "CACHE_ERROR"
)

// CodeOf returns the business code carried by err, or "" when err is not a BusinessError.
func CodeOf(err error) string {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

func WrapInvalidInput(format string, args ...interface{}) *BusinessError {
	return NewBusinessError(
		ErrCodeInvalidInput,
		fmt.Sprintf(format, args...),
		ErrInvalidInput,
	)
}

func WrapAlreadyPaid(sequence int) *BusinessError {
	e := NewBusinessError(
		ErrCodeAlreadyPaid,
		fmt.Sprintf("Installment %d is already paid", sequence),
		ErrAlreadyPaid,
	)
	e.Details = map[string]interface{}{"sequence": sequence}
	return e
}

// WrapOutOfOrderPayment names the first earlier installment that blocks the payment.
func WrapOutOfOrderPayment(sequence, blocking int) *BusinessError {
	e := NewBusinessError(
		ErrCodeOutOfOrderPayment,
		fmt.Sprintf("Installment %d cannot be paid before installment %d", sequence, blocking),
		ErrOutOfOrderPayment,
	)
	e.Details = map[string]interface{}{"sequence": sequence, "blocking_sequence": blocking}
	return e
}

// BlockingSequence extracts the blocking installment from an out-of-order error.
func BlockingSequence(err error) (int, bool) {
	var be *BusinessError
	if !errors.As(err, &be) || be.Code != ErrCodeOutOfOrderPayment {
		return 0, false
	}
	seq, ok := be.Details["blocking_sequence"].(int)
	return seq, ok
}

func WrapPurchaseNotFound(purchaseID string) *BusinessError {
	return NewBusinessError(
		ErrCodePurchaseNotFound,
		fmt.Sprintf("Purchase with ID %s not found", purchaseID),
		ErrPurchaseNotFound,
	)
}

func WrapPaymentInProgress(purchaseID string) *BusinessError {
	return NewBusinessError(
		ErrCodePaymentInProgress,
		fmt.Sprintf("A payment for purchase %s is already being processed", purchaseID),
		ErrPaymentInProgress,
	)
}

func WrapConcurrentUpdate(sequence int) *BusinessError {
	return NewBusinessError(
		ErrCodeConcurrentUpdate,
		fmt.Sprintf("Installment %d changed while the payment was applied", sequence),
		ErrConcurrentUpdate,
	)
}

func WrapPurchaseCompleted(purchaseID string) *BusinessError {
	return NewBusinessError(
		ErrCodePurchaseCompleted,
		fmt.Sprintf("Purchase %s is completed and can no longer change status", purchaseID),
		ErrPurchaseCompleted,
	)
}

// WrapCertificateNotAvailable is returned while a purchase still has unpaid installments
func WrapCertificateNotAvailable(purchaseID, status string) *BusinessError {
	e := NewBusinessError(
		ErrCodeNoCertificate,
		fmt.Sprintf("Purchase %s is %s; a certificate is issued once it is completed", purchaseID, status),
		ErrCertificateNotAvailable,
	)
	e.Details = map[string]interface{}{"status": status}
	return e
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"Cache operation failed",
		err,
	)
}
