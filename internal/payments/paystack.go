package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"busline/internal/shared/apperrors"
	"busline/internal/shared/config"
	"busline/pkg/circuitbreaker"
	"busline/pkg/metrics"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("busline/payments")

// PaystackClient talks to the Paystack transaction API.
type PaystackClient struct {
	baseURL     string
	secretKey   string
	callbackURL string
	currency    string
	httpClient  *http.Client
	breaker     *circuitbreaker.Breaker
}

func NewPaystackClient(cfg config.PaystackConfig) *PaystackClient {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PaystackClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		secretKey:   cfg.SecretKey,
		callbackURL: cfg.CallbackURL,
		currency:    cfg.Currency,
		httpClient:  &http.Client{Timeout: timeout},
		breaker: circuitbreaker.NewWithSettings("paystack", circuitbreaker.DefaultSettings(), func(err error) bool {
			return errors.Is(err, apperrors.ErrGatewayUnavailable)
		}),
	}
}

// paystackEnvelope is the common response shape: {status, message, data}.
type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type initializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type verifyData struct {
	Status          string          `json:"status"`
	Reference       string          `json:"reference"`
	Amount          int64           `json:"amount"`
	Currency        string          `json:"currency"`
	Channel         string          `json:"channel"`
	PaidAt          *time.Time      `json:"paid_at"`
	GatewayResponse string          `json:"gateway_response"`
	Authorization   json.RawMessage `json:"authorization"`
	Customer        struct {
		CustomerCode string `json:"customer_code"`
	} `json:"customer"`
}

func (p *PaystackClient) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	currency := req.Currency
	if currency == "" {
		currency = p.currency
	}
	callback := req.CallbackURL
	if callback == "" {
		callback = p.callbackURL
	}

	body := map[string]interface{}{
		"email":    req.Email,
		"amount":   req.Amount,
		"currency": currency,
	}
	if callback != "" {
		body["callback_url"] = callback
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var data initializeData
	if err := p.call(ctx, "initialize", http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}
	if data.Reference == "" || data.AuthorizationURL == "" {
		return nil, fmt.Errorf("%w: initialize returned no reference", apperrors.ErrGateway)
	}

	return &InitializeResult{
		Reference:        data.Reference,
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
	}, nil
}

func (p *PaystackClient) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	var data verifyData
	path := "/transaction/verify/" + url.PathEscape(reference)
	if err := p.call(ctx, "verify", http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}

	result := &VerifyResult{
		Verified:        data.Status == "success",
		Status:          data.Status,
		Reference:       data.Reference,
		Amount:          data.Amount,
		Currency:        data.Currency,
		Channel:         data.Channel,
		PaidAt:          data.PaidAt,
		CustomerID:      data.Customer.CustomerCode,
		GatewayResponse: data.GatewayResponse,
	}
	if len(data.Authorization) > 0 && string(data.Authorization) != "null" {
		result.Authorization = string(data.Authorization)
	}
	if result.Reference == "" {
		result.Reference = reference
	}
	return result, nil
}

// call performs one request through the breaker. Transport failures, timeouts
// and 5xx responses are ErrGatewayUnavailable; other rejections are ErrGateway.
func (p *PaystackClient) call(ctx context.Context, operation, method, path string, in, out interface{}) (err error) {
	ctx, span := tracer.Start(ctx, "paystack."+operation)
	span.SetAttributes(attribute.String("http.method", method), attribute.String("paystack.path", path))
	start := time.Now()
	defer func() {
		metrics.ObserveGateway(operation, start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	var payload io.Reader
	if in != nil {
		raw, mErr := json.Marshal(in)
		if mErr != nil {
			return fmt.Errorf("failed to encode paystack request: %w", mErr)
		}
		payload = bytes.NewReader(raw)
	}

	err = p.breaker.Do(ctx, func(ctx context.Context) error {
		req, rErr := http.NewRequestWithContext(ctx, method, p.baseURL+path, payload)
		if rErr != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrGateway, rErr)
		}
		req.Header.Set("Authorization", "Bearer "+p.secretKey)
		req.Header.Set("Accept", "application/json")
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, dErr := p.httpClient.Do(req)
		if dErr != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrGatewayUnavailable, dErr)
		}
		defer resp.Body.Close()
		span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

		raw, rdErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if rdErr != nil {
			return fmt.Errorf("%w: reading response: %v", apperrors.ErrGatewayUnavailable, rdErr)
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return fmt.Errorf("%w: paystack returned %d", apperrors.ErrGatewayUnavailable, resp.StatusCode)
		}

		var envelope paystackEnvelope
		if uErr := json.Unmarshal(raw, &envelope); uErr != nil {
			return fmt.Errorf("%w: malformed response (%d): %v", apperrors.ErrGateway, resp.StatusCode, uErr)
		}
		if resp.StatusCode >= http.StatusBadRequest || !envelope.Status {
			return fmt.Errorf("%w: %s (%d)", apperrors.ErrGateway, envelope.Message, resp.StatusCode)
		}
		if out != nil && len(envelope.Data) > 0 {
			if uErr := json.Unmarshal(envelope.Data, out); uErr != nil {
				return fmt.Errorf("%w: malformed data: %v", apperrors.ErrGateway, uErr)
			}
		}
		return nil
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return fmt.Errorf("%w: %v", apperrors.ErrGatewayUnavailable, err)
	}
	return err
}
