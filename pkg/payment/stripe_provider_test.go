package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedHeader(secret string, payload []byte, at time.Time) string {
	ts := fmt.Sprintf("%d", at.Unix())
	return fmt.Sprintf("t=%s,v1=%s", ts, SignHMAC(secret, ts+"."+string(payload)))
}

func webhookPayload(eventType, sessionID, paymentStatus string) []byte {
	payload, _ := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             sessionID,
				"payment_status": paymentStatus,
				"payment_intent": "pi_123",
			},
		},
	})
	return payload
}

func TestParseStripeWebhookAcceptsValidSignature(t *testing.T) {
	payload := webhookPayload("checkout.session.completed", "cs_test_9", "paid")
	header := signedHeader("whsec_test", payload, time.Now())

	event, err := ParseStripeWebhook(payload, header, "whsec_test", 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "checkout.session.completed", event.Type)
	assert.Equal(t, "cs_test_9", event.SessionID())
	assert.Equal(t, "pi_123", event.PaymentID())
}

func TestParseStripeWebhookRejectsBadSignature(t *testing.T) {
	payload := webhookPayload("checkout.session.completed", "cs_test_9", "paid")
	header := signedHeader("whsec_wrong", payload, time.Now())

	_, err := ParseStripeWebhook(payload, header, "whsec_test", 5*time.Minute)
	assert.Error(t, err)
}

func TestParseStripeWebhookRejectsTamperedPayload(t *testing.T) {
	payload := webhookPayload("checkout.session.completed", "cs_test_9", "paid")
	header := signedHeader("whsec_test", payload, time.Now())
	tampered := webhookPayload("checkout.session.completed", "cs_attacker", "paid")

	_, err := ParseStripeWebhook(tampered, header, "whsec_test", 5*time.Minute)
	assert.Error(t, err)
}

func TestParseStripeWebhookRejectsStaleTimestamp(t *testing.T) {
	payload := webhookPayload("checkout.session.completed", "cs_test_9", "paid")
	header := signedHeader("whsec_test", payload, time.Now().Add(-time.Hour))

	_, err := ParseStripeWebhook(payload, header, "whsec_test", 5*time.Minute)
	assert.Error(t, err)
}

func TestParseStripeWebhookRejectsMalformedHeader(t *testing.T) {
	payload := webhookPayload("checkout.session.completed", "cs_test_9", "paid")
	for _, header := range []string{"", "t=123", "v1=deadbeef", "nonsense"} {
		_, err := ParseStripeWebhook(payload, header, "whsec_test", 5*time.Minute)
		assert.Error(t, err, "header %q", header)
	}
}

func TestStripeCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions", r.URL.Path)
		user, _, ok := r.BasicAuth()
		require.True(t, ok)
		require.Equal(t, "sk_test", user)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "payment", r.PostForm.Get("mode"))
		assert.Equal(t, "4999", r.PostForm.Get("line_items[0][price_data][unit_amount]"))
		assert.Equal(t, "usd", r.PostForm.Get("line_items[0][price_data][currency]"))
		json.NewEncoder(w).Encode(map[string]string{
			"id":  "cs_live_1",
			"url": "https://checkout.stripe.com/pay/cs_live_1",
		})
	}))
	defer srv.Close()

	p := NewStripeProviderWithBase(srv.URL, "sk_test")
	order, err := p.CreateOrder(context.Background(), OrderRequest{
		Reference:   "learnly-abc",
		AmountCents: 4999,
		Currency:    "USD",
		Description: "Go From Scratch",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_live_1", order.ProviderOrderID)
	assert.Equal(t, "https://checkout.stripe.com/pay/cs_live_1", order.RedirectURL)
}

func TestStripeOrderPaid(t *testing.T) {
	status := "unpaid"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkout/sessions/cs_live_2", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{
			"id":             "cs_live_2",
			"payment_status": status,
			"payment_intent": "pi_789",
		})
	}))
	defer srv.Close()

	p := NewStripeProviderWithBase(srv.URL, "sk_test")
	paid, _, err := p.OrderPaid(context.Background(), "cs_live_2")
	require.NoError(t, err)
	assert.False(t, paid)

	status = "paid"
	paid, paymentID, err := p.OrderPaid(context.Background(), "cs_live_2")
	require.NoError(t, err)
	assert.True(t, paid)
	assert.Equal(t, "pi_789", paymentID)
}
