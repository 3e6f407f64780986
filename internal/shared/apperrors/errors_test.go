package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindAndStatus(t *testing.T) {
	tests := []struct {
		err    error
		kind   string
		status int
	}{
		{fmt.Errorf("seat 12: %w", ErrSeatUnavailable), "SeatUnavailable", http.StatusConflict},
		{fmt.Errorf("ref_1: %w", ErrPaymentNotFound), "PaymentNotFound", http.StatusNotFound},
		{fmt.Errorf("booking: %w", ErrNotFound), "NotFound", http.StatusNotFound},
		{fmt.Errorf("initialize: %w", ErrGatewayUnavailable), "GatewayUnavailable", http.StatusServiceUnavailable},
		{ErrSignatureInvalid, "SignatureInvalid", http.StatusBadRequest},
		{errors.New("db down"), "Internal", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.kind, Kind(tt.err))
		assert.Equal(t, tt.status, HTTPStatus(tt.err))
	}
}
