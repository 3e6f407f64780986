package payments_test

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"busline/internal/bookings"
	"busline/internal/payments"
	"busline/internal/seats"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const webhookSecret = "sk_test_secret"

type ledgerState struct {
	bookingCount int
	paymentCount int
	booking      bookings.Booking
	payments     []bookings.PaymentInfo
	seats        []seats.Status
}

func (f *fixture) snapshot(t *testing.T, bookingID uint) ledgerState {
	t.Helper()
	booking, ok := f.store.Booking(bookingID)
	require.True(t, ok)
	list, err := f.payments.ListPayments(context.Background(), bookingID)
	require.NoError(t, err)

	state := ledgerState{
		bookingCount: f.store.BookingCount(),
		paymentCount: f.store.PaymentCount(),
		booking:      booking,
		payments:     list,
	}
	for _, seat := range f.seats {
		state.seats = append(state.seats, f.store.Seat(seat.ID).Status)
	}
	return state
}

func (f *fixture) webhookRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	pass := func(c *gin.Context) { c.Next() }
	payments.SetupPaymentRoutes(r.Group("/api/v1"), payments.NewController(f.payments, webhookSecret), pass, pass)
	return r
}

func deliver(r http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(payments.SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBadSignatureLeavesLedgerUntouched(t *testing.T) {
	f := setup(t)
	b := f.draft(t, 2)

	intent, err := f.payments.CreateIntent(context.Background(), payments.CreateIntentRequest{BookingID: b.ID})
	require.NoError(t, err)

	r := f.webhookRouter()
	body := []byte(fmt.Sprintf(`{"event":"charge.success","data":{"reference":%q,"amount":10000,"currency":"NGN","channel":"card"}}`, intent.Reference))
	before := f.snapshot(t, b.ID)

	for name, signature := range map[string]string{
		"wrong secret":     payments.Sign("sk_test_other", body),
		"missing header":   "",
		"tampered body":    payments.Sign(webhookSecret, append([]byte(" "), body...)),
		"truncated digest": payments.Sign(webhookSecret, body)[:64],
	} {
		w := deliver(r, body, signature)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.Equal(t, before, f.snapshot(t, b.ID), name)
	}

	assert.Equal(t, bookings.StatusPending, before.booking.Status)
	assert.Equal(t, int64(0), before.booking.AmountPaid)
	require.Len(t, before.payments, 1)
	assert.Equal(t, bookings.PaymentPending, before.payments[0].Status)

	// the same body with a valid signature does settle
	w := deliver(r, body, payments.Sign(webhookSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Eventually(t, func() bool {
		stored, _ := f.store.Booking(b.ID)
		return stored.Status == bookings.StatusConfirmed
	}, 2*time.Second, 10*time.Millisecond)
}
