// Package apperrors holds the failure kinds surfaced by the booking core and
// their HTTP mapping.
package apperrors

import (
	"errors"
	"net/http"
)

var (
	ErrNotFound                 = errors.New("not found")
	ErrValidation               = errors.New("validation failed")
	ErrSeatUnavailable          = errors.New("seat unavailable")
	ErrHoldExpired              = errors.New("seat hold expired")
	ErrInvalidStatus            = errors.New("invalid status")
	ErrInvalidTransition        = errors.New("invalid status transition")
	ErrNoValidReservedSeats     = errors.New("no valid reserved seats found to confirm")
	ErrPaymentIncomplete        = errors.New("payment incomplete")
	ErrSeatHoldExpired          = errors.New("seat hold expired, reserve again before paying")
	ErrPaymentNotFound          = errors.New("payment not found")
	ErrTransactionNotSuccessful = errors.New("transaction not successful")
	ErrAlreadyPaid              = errors.New("booking is already fully paid")
	ErrAmountExceedsDue         = errors.New("payment amount exceeds amount due")
	ErrGateway                  = errors.New("payment gateway error")
	ErrGatewayUnavailable       = errors.New("payment gateway unavailable")
	ErrSignatureInvalid         = errors.New("invalid webhook signature")
	ErrDataIntegrity            = errors.New("data integrity error")
)

var kinds = []struct {
	err    error
	kind   string
	status int
}{
	{ErrPaymentNotFound, "PaymentNotFound", http.StatusNotFound},
	{ErrNotFound, "NotFound", http.StatusNotFound},
	{ErrValidation, "Validation", http.StatusBadRequest},
	{ErrSeatUnavailable, "SeatUnavailable", http.StatusConflict},
	{ErrHoldExpired, "HoldExpired", http.StatusConflict},
	{ErrSeatHoldExpired, "SeatHoldExpired", http.StatusConflict},
	{ErrInvalidStatus, "InvalidStatus", http.StatusConflict},
	{ErrInvalidTransition, "InvalidTransition", http.StatusConflict},
	{ErrNoValidReservedSeats, "NoValidReservedSeats", http.StatusConflict},
	{ErrPaymentIncomplete, "PaymentIncomplete", http.StatusPaymentRequired},
	{ErrTransactionNotSuccessful, "TransactionNotSuccessful", http.StatusPaymentRequired},
	{ErrAlreadyPaid, "AlreadyPaid", http.StatusBadRequest},
	{ErrAmountExceedsDue, "AmountExceedsDue", http.StatusBadRequest},
	{ErrGatewayUnavailable, "GatewayUnavailable", http.StatusServiceUnavailable},
	{ErrGateway, "GatewayError", http.StatusBadGateway},
	{ErrSignatureInvalid, "SignatureInvalid", http.StatusBadRequest},
	{ErrDataIntegrity, "DataIntegrityError", http.StatusInternalServerError},
}

// Kind returns the machine-readable failure kind for err, or "Internal".
func Kind(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "Internal"
}

// HTTPStatus maps err to the status code returned to API callers.
func HTTPStatus(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}
