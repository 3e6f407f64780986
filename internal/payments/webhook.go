package payments

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"busline/internal/shared/apperrors"
)

const (
	SignatureHeader    = "x-paystack-signature"
	EventChargeSuccess = "charge.success"
)

// VerifySignature checks the hex HMAC-SHA512 of the raw body against the
// provider signature in constant time.
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(mac.Sum(nil), provided)
}

// Sign returns the signature VerifySignature accepts for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// WebhookEvent is one parsed gateway notification: ChargeSuccessEvent or
// UnrecognizedEvent.
type WebhookEvent interface {
	EventName() string
	webhookEvent()
}

// ChargeSuccessEvent reports a settled charge.
type ChargeSuccessEvent struct {
	Reference     string
	Amount        int64
	Currency      string
	Channel       string
	PaidAt        *time.Time
	Authorization string
	CustomerID    string
}

func (ChargeSuccessEvent) EventName() string { return EventChargeSuccess }
func (ChargeSuccessEvent) webhookEvent()     {}

// UnrecognizedEvent is acknowledged and otherwise ignored.
type UnrecognizedEvent struct {
	Name string
}

func (e UnrecognizedEvent) EventName() string { return e.Name }
func (UnrecognizedEvent) webhookEvent()       {}

type webhookEnvelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type chargeData struct {
	Reference     string          `json:"reference"`
	Amount        int64           `json:"amount"`
	Currency      string          `json:"currency"`
	Channel       string          `json:"channel"`
	PaidAt        *time.Time      `json:"paid_at"`
	Authorization json.RawMessage `json:"authorization"`
	Customer      struct {
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
}

// ParseWebhookEvent decodes a verified webhook body.
func ParseWebhookEvent(body []byte) (WebhookEvent, error) {
	var envelope webhookEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: malformed webhook body: %v", apperrors.ErrValidation, err)
	}

	switch envelope.Event {
	case EventChargeSuccess:
		var data chargeData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("%w: malformed charge data: %v", apperrors.ErrValidation, err)
		}
		if data.Reference == "" {
			return nil, fmt.Errorf("%w: charge event without reference", apperrors.ErrValidation)
		}
		event := ChargeSuccessEvent{
			Reference:  data.Reference,
			Amount:     data.Amount,
			Currency:   data.Currency,
			Channel:    data.Channel,
			PaidAt:     data.PaidAt,
			CustomerID: data.Customer.CustomerCode,
		}
		if len(data.Authorization) > 0 && string(data.Authorization) != "null" {
			event.Authorization = string(data.Authorization)
		}
		return event, nil
	default:
		return UnrecognizedEvent{Name: envelope.Event}, nil
	}
}
