package payments

import (
	"testing"

	"busline/internal/shared/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "sk_test_webhook"

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"event":"charge.success","data":{"reference":"ref-1"}}`)
	valid := Sign(testSecret, body)

	tests := []struct {
		name      string
		secret    string
		body      []byte
		signature string
		want      bool
	}{
		{name: "valid", secret: testSecret, body: body, signature: valid, want: true},
		{name: "tampered body", secret: testSecret, body: []byte(`{"event":"charge.success","data":{"reference":"ref-2"}}`), signature: valid},
		{name: "wrong secret", secret: "other", body: body, signature: valid},
		{name: "missing signature", secret: testSecret, body: body},
		{name: "not hex", secret: testSecret, body: body, signature: "zz-not-hex"},
		{name: "empty secret", secret: "", body: body, signature: Sign("", body)},
		{name: "truncated", secret: testSecret, body: body, signature: valid[:64]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(tt.secret, tt.body, tt.signature))
		})
	}
}

func TestParseWebhookEventChargeSuccess(t *testing.T) {
	body := []byte(`{
		"event": "charge.success",
		"data": {
			"reference": "BUS-REF-1",
			"amount": 600000,
			"currency": "NGN",
			"channel": "card",
			"paid_at": "2026-03-02T09:15:00Z",
			"authorization": {"authorization_code": "AUTH_x"},
			"customer": {"customer_code": "CUS_1"}
		}
	}`)

	event, err := ParseWebhookEvent(body)
	require.NoError(t, err)

	charge, ok := event.(ChargeSuccessEvent)
	require.True(t, ok)
	assert.Equal(t, "BUS-REF-1", charge.Reference)
	assert.Equal(t, int64(600000), charge.Amount)
	assert.Equal(t, "card", charge.Channel)
	assert.Equal(t, "CUS_1", charge.CustomerID)
	assert.JSONEq(t, `{"authorization_code": "AUTH_x"}`, charge.Authorization)
	require.NotNil(t, charge.PaidAt)
	assert.Equal(t, 15, charge.PaidAt.Minute())
}

func TestParseWebhookEventUnrecognized(t *testing.T) {
	event, err := ParseWebhookEvent([]byte(`{"event":"transfer.success","data":{}}`))
	require.NoError(t, err)

	unknown, ok := event.(UnrecognizedEvent)
	require.True(t, ok)
	assert.Equal(t, "transfer.success", unknown.EventName())
}

func TestParseWebhookEventRejectsMalformed(t *testing.T) {
	for name, body := range map[string]string{
		"not json":          `event=charge.success`,
		"missing reference": `{"event":"charge.success","data":{"amount":100}}`,
		"bad data":          `{"event":"charge.success","data":"oops"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseWebhookEvent([]byte(body))
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}
