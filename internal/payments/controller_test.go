package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"busline/internal/bookings"
	"busline/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	Service
	events  []WebhookEvent
	intent  *IntentResponse
	err     error
	lastReq CreateIntentRequest
}

func (s *stubService) ProcessWebhookEvent(_ context.Context, event WebhookEvent) (*SettlementResult, error) {
	s.events = append(s.events, event)
	return nil, s.err
}

func (s *stubService) CreateIntent(_ context.Context, req CreateIntentRequest) (*IntentResponse, error) {
	s.lastReq = req
	return s.intent, s.err
}

func (s *stubService) ListPayments(context.Context, uint) ([]bookings.PaymentInfo, error) {
	return []bookings.PaymentInfo{{Reference: "ref-1", Amount: 5000, Status: bookings.PaymentPaid}}, nil
}

func setupRouter(svc Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	ctrl := NewController(svc, testSecret).(*controller)
	ctrl.dispatch = func(fn func()) { fn() }

	r := gin.New()
	pass := func(c *gin.Context) { c.Next() }
	SetupPaymentRoutes(r.Group("/api/v1"), ctrl, pass, pass)
	return r
}

func postWebhook(r http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(SignatureHeader, signature)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1","amount":5000}}`)

	w := postWebhook(r, body, Sign("wrong-secret", body))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid signature", w.Body.String())

	w = postWebhook(r, body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Empty(t, svc.events)
}

func TestWebhookDispatchesVerifiedEvent(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1","amount":5000}}`)

	w := postWebhook(r, body, Sign(testSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.events, 1)

	charge, ok := svc.events[0].(ChargeSuccessEvent)
	require.True(t, ok)
	assert.Equal(t, "ref-1", charge.Reference)
}

func TestWebhookAcknowledgesEvenWhenProcessingFails(t *testing.T) {
	svc := &stubService{err: apperrors.ErrPaymentNotFound}
	r := setupRouter(svc)
	body := []byte(`{"event":"charge.success","data":{"reference":"unknown"}}`)

	w := postWebhook(r, body, Sign(testSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, svc.events, 1)
}

func TestWebhookAcknowledgesMalformedBody(t *testing.T) {
	svc := &stubService{}
	r := setupRouter(svc)
	body := []byte(`{"event":"charge.success","data":{}}`)

	w := postWebhook(r, body, Sign(testSecret, body))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.events)
}

func TestInitializePayment(t *testing.T) {
	svc := &stubService{intent: &IntentResponse{Reference: "ref-1", Amount: 5000, Currency: "NGN"}}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initialize", bytes.NewBufferString(`{"booking_token":"BUS-ABC","amount":5000}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "BUS-ABC", svc.lastReq.BookingToken)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "ref-1", data["reference"])
}

func TestInitializePaymentMapsErrors(t *testing.T) {
	svc := &stubService{err: apperrors.ErrSeatHoldExpired}
	r := setupRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initialize", bytes.NewBufferString(`{"booking_id":7}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInitializePaymentRequiresBooking(t *testing.T) {
	r := setupRouter(&stubService{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initialize", bytes.NewBufferString(`{"amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBookingPayments(t *testing.T) {
	r := setupRouter(&stubService{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings/3/payments", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ref-1")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/admin/bookings/abc/payments", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
