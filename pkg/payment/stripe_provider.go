package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// StripeProvider drives the card flow via Stripe Checkout Sessions over the
// REST API. The session id doubles as our provider order id; the buyer is
// handed the hosted checkout URL.
type StripeProvider struct {
	BaseURL   string
	SecretKey string
	client    *resty.Client
}

func NewStripeProvider(secretKey string) *StripeProvider {
	return NewStripeProviderWithBase("https://api.stripe.com", secretKey)
}

func NewStripeProviderWithBase(baseURL, secretKey string) *StripeProvider {
	return &StripeProvider{
		BaseURL:   baseURL,
		SecretKey: secretKey,
		client:    resty.New().SetTimeout(30 * time.Second),
	}
}

func (p *StripeProvider) Name() string { return "stripe" }

type stripeSession struct {
	ID            string `json:"id"`
	URL           string `json:"url"`
	PaymentStatus string `json:"payment_status"`
	PaymentIntent string `json:"payment_intent"`
}

type stripeError struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (p *StripeProvider) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	form := map[string]string{
		"mode":                                           "payment",
		"client_reference_id":                            req.Reference,
		"success_url":                                    req.SuccessURL,
		"cancel_url":                                     req.CancelURL,
		"line_items[0][quantity]":                        "1",
		"line_items[0][price_data][currency]":            strings.ToLower(req.Currency),
		"line_items[0][price_data][unit_amount]":         strconv.FormatInt(req.AmountCents, 10),
		"line_items[0][price_data][product_data][name]":  req.Description,
	}
	if req.CustomerEmail != "" {
		form["customer_email"] = req.CustomerEmail
	}
	for k, v := range req.Metadata {
		form["metadata["+k+"]"] = v
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.SecretKey, "").
		SetFormData(form).
		Post(p.BaseURL + "/v1/checkout/sessions")
	if err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	if resp.StatusCode() != 200 {
		var se stripeError
		_ = json.Unmarshal(resp.Body(), &se)
		return nil, fmt.Errorf("stripe create session: %d %s", resp.StatusCode(), se.Error.Message)
	}
	var sess stripeSession
	if err := json.Unmarshal(resp.Body(), &sess); err != nil {
		return nil, fmt.Errorf("stripe create session: %w", err)
	}
	if sess.ID == "" || sess.URL == "" {
		return nil, fmt.Errorf("stripe create session: empty session in response")
	}
	return &Order{ProviderOrderID: sess.ID, RedirectURL: sess.URL}, nil
}

// OrderPaid retrieves the checkout session and reports whether Stripe marked
// it paid. Used by the synchronous verify endpoint and the pending sweep.
func (p *StripeProvider) OrderPaid(ctx context.Context, sessionID string) (bool, string, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetBasicAuth(p.SecretKey, "").
		Get(p.BaseURL + "/v1/checkout/sessions/" + sessionID)
	if err != nil {
		return false, "", fmt.Errorf("stripe retrieve session: %w", err)
	}
	if resp.StatusCode() != 200 {
		return false, "", fmt.Errorf("stripe retrieve session: %d", resp.StatusCode())
	}
	var sess stripeSession
	if err := json.Unmarshal(resp.Body(), &sess); err != nil {
		return false, "", fmt.Errorf("stripe retrieve session: %w", err)
	}
	return sess.PaymentStatus == "paid", sess.PaymentIntent, nil
}

// StripeWebhookEvent is the subset of the event envelope the webhook
// listener consumes.
type StripeWebhookEvent struct {
	Type string `json:"type"`
	Data struct {
		Object stripeSession `json:"object"`
	} `json:"data"`
}

// SessionID returns the checkout session id carried by the event.
func (e *StripeWebhookEvent) SessionID() string { return e.Data.Object.ID }

// PaymentID returns the payment intent id carried by the event.
func (e *StripeWebhookEvent) PaymentID() string { return e.Data.Object.PaymentIntent }

// ParseStripeWebhook validates the Stripe-Signature header against the
// payload and decodes the event. The header carries a timestamp and one or
// more v1 signatures: HMAC-SHA256 of "<t>.<payload>" under the endpoint
// secret. Comparison is constant-time; events older than tolerance are
// rejected to blunt replay.
func ParseStripeWebhook(payload []byte, sigHeader, secret string, tolerance time.Duration) (*StripeWebhookEvent, error) {
	var ts string
	var sigs []string
	for _, part := range strings.Split(sigHeader, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" || len(sigs) == 0 {
		return nil, fmt.Errorf("stripe webhook: malformed signature header")
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("stripe webhook: bad timestamp")
	}
	if tolerance > 0 {
		age := time.Since(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return nil, fmt.Errorf("stripe webhook: timestamp outside tolerance")
		}
	}
	expected := SignHMAC(secret, ts+"."+string(payload))
	valid := false
	for _, s := range sigs {
		if SecureCompare(expected, s) {
			valid = true
		}
	}
	if !valid {
		return nil, fmt.Errorf("stripe webhook: signature mismatch")
	}
	var event StripeWebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("stripe webhook: %w", err)
	}
	return &event, nil
}
