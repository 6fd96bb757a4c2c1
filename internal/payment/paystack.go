package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"chowvest/internal/logger"
	"chowvest/internal/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// PaystackOptions configures PaystackClient.
type PaystackOptions struct {
	BaseURL         string
	SecretKey       string
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
	HTTPClient      *http.Client
}

// PaystackClient implements Gateway against the Paystack REST API. Calls go
// through a circuit breaker so an outage fails fast instead of tying up
// request goroutines for the full timeout.
type PaystackClient struct {
	baseURL   string
	secretKey string
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker
	log       *zap.SugaredLogger
}

// NewPaystackClient creates a client from opts.
func NewPaystackClient(opts PaystackOptions) *PaystackClient {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}

	log := logger.Named("paystack")
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "paystack",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warnw("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &PaystackClient{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		secretKey: opts.SecretKey,
		client:    client,
		breaker:   breaker,
		log:       log,
	}
}

// InitializePayment opens a checkout session for req.Reference.
func (p *PaystackClient) InitializePayment(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	body := paystackInitializeRequest{
		Email:       req.PayerEmail,
		Amount:      req.AmountMinor,
		Reference:   req.Reference,
		CallbackURL: req.CallbackURL,
		Metadata:    req.Metadata,
		Channels:    req.Channels,
		Currency:    "NGN",
	}

	status, envelope, err := p.do(ctx, "initialize", http.MethodPost, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK || !envelope.Status {
		return nil, &RemoteError{Operation: "initialize", StatusCode: status, Message: envelope.Message}
	}

	var data paystackInitializeData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("initialize: decode data: %w", err)
	}
	if data.AuthorizationURL == "" {
		return nil, &RemoteError{Operation: "initialize", StatusCode: status, Message: "missing authorization_url"}
	}
	if data.Reference == "" {
		data.Reference = req.Reference
	}

	return &InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
	}, nil
}

// VerifyPayment asks Paystack for the current state of reference. An unknown
// reference is reported as an unsuccessful verification, not an error.
func (p *PaystackClient) VerifyPayment(ctx context.Context, reference string) (*Verification, error) {
	status, envelope, err := p.do(ctx, "verify", http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound || (status == http.StatusBadRequest && strings.Contains(strings.ToLower(envelope.Message), "not found")) {
		return &Verification{Status: "not_found", Reference: reference}, nil
	}
	if status != http.StatusOK || !envelope.Status {
		return nil, &RemoteError{Operation: "verify", StatusCode: status, Message: envelope.Message}
	}

	var data paystackVerifyData
	if err := json.Unmarshal(envelope.Data, &data); err != nil {
		return nil, fmt.Errorf("verify: decode data: %w", err)
	}

	v := &Verification{
		Succeeded:   data.Status == "success",
		Status:      data.Status,
		Reference:   data.Reference,
		AmountMinor: data.Amount,
		Channel:     data.Channel,
		PaidAt:      data.PaidAt,
		Raw:         envelope.Data,
	}
	if data.Fees != nil {
		v.FeeMinor = *data.Fees
	}
	if v.Reference == "" {
		v.Reference = reference
	}
	return v, nil
}

// do performs one request through the breaker. Only transport failures and
// 5xx answers count against the breaker; 4xx answers are returned to the
// caller to interpret.
func (p *PaystackClient) do(ctx context.Context, op, method, path string, body any) (int, *paystackResponse, error) {
	start := time.Now()

	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%s: encode request: %w", op, err)
		}
		payload = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, payload)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.secretKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	type answer struct {
		status int
		body   []byte
	}
	out, err := p.breaker.Execute(func() (interface{}, error) {
		resp, err := p.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, &RemoteError{Operation: op, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return answer{status: resp.StatusCode, body: raw}, nil
	})
	metrics.GatewayDuration.WithLabelValues(op, metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		p.log.Warnw("Paystack request failed", "operation", op, "error", err, "duration", time.Since(start))
		return 0, nil, err
	}

	a := out.(answer)
	var envelope paystackResponse
	if err := json.Unmarshal(a.body, &envelope); err != nil {
		return a.status, nil, &RemoteError{Operation: op, StatusCode: a.status, Message: "malformed response body"}
	}

	p.log.Debugw("Paystack request completed", "operation", op, "status", a.status, "duration", time.Since(start))
	return a.status, &envelope, nil
}
