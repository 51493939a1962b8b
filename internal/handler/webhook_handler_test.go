package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learnly/internal/domain"
	"learnly/internal/ws"
	"learnly/pkg/payment"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func webhookRouter(env *testEnv) *gin.Engine {
	r := gin.New()
	h := NewCardWebhookHandler(env.cfg, env.intents, env.enrollSvc)
	r.POST("/webhooks/card", h.Handle)
	return r
}

func stripeEvent(eventType, sessionID, paymentStatus string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"type": eventType,
		"data": map[string]interface{}{
			"object": map[string]interface{}{
				"id":             sessionID,
				"payment_status": paymentStatus,
				"payment_intent": "pi_42",
			},
		},
	})
	return body
}

func signStripe(secret string, payload []byte) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	return fmt.Sprintf("t=%s,v1=%s", ts, payment.SignHMAC(secret, ts+"."+string(payload)))
}

func postWebhook(r *gin.Engine, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/card", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestWebhookSettlesPendingIntent(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env)
	user, course, _ := env.seedPendingIntent(t, "cs_wh_1", domain.ProviderCard)

	payload := stripeEvent("checkout.session.completed", "cs_wh_1", "paid")
	w := postWebhook(r, payload, signStripe("whsec_test", payload))
	assert.Equal(t, http.StatusOK, w.Code)

	intent, err := env.intents.GetByProviderOrderID("cs_wh_1")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentSucceeded, intent.Status)
	assert.Equal(t, "pi_42", intent.ProviderPaymentID)

	_, err = env.enrollments.GetByUserCourse(user.ID, course.ID)
	assert.NoError(t, err)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env)
	env.seedPendingIntent(t, "cs_wh_2", domain.ProviderCard)

	payload := stripeEvent("checkout.session.completed", "cs_wh_2", "paid")
	w := postWebhook(r, payload, signStripe("whsec_attacker", payload))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Nothing written: intent still pending, no enrollment.
	intent, err := env.intents.GetByProviderOrderID("cs_wh_2")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPending, intent.Status)
	assert.EqualValues(t, 0, env.countEnrollments(t))
}

func TestWebhookDuplicateDeliveryIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env)
	env.seedPendingIntent(t, "cs_wh_3", domain.ProviderCard)

	payload := stripeEvent("checkout.session.completed", "cs_wh_3", "paid")
	sig := signStripe("whsec_test", payload)
	for i := 0; i < 3; i++ {
		w := postWebhook(r, payload, sig)
		assert.Equal(t, http.StatusOK, w.Code)
	}
	assert.EqualValues(t, 1, env.countEnrollments(t))
}

func TestWebhookFailureEventAfterSuccessIsIgnored(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env)
	env.seedPendingIntent(t, "cs_wh_4", domain.ProviderCard)

	success := stripeEvent("checkout.session.completed", "cs_wh_4", "paid")
	postWebhook(r, success, signStripe("whsec_test", success))

	expired := stripeEvent("checkout.session.expired", "cs_wh_4", "unpaid")
	w := postWebhook(r, expired, signStripe("whsec_test", expired))
	assert.Equal(t, http.StatusOK, w.Code)

	intent, err := env.intents.GetByProviderOrderID("cs_wh_4")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentSucceeded, intent.Status)
}

func TestWebhookExpiredEventFailsIntent(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env)
	user, course, _ := env.seedPendingIntent(t, "cs_wh_5", domain.ProviderCard)

	payload := stripeEvent("checkout.session.expired", "cs_wh_5", "unpaid")
	w := postWebhook(r, payload, signStripe("whsec_test", payload))
	assert.Equal(t, http.StatusOK, w.Code)

	intent, err := env.intents.GetByProviderOrderID("cs_wh_5")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentFailed, intent.Status)
	_, err = env.enrollments.GetByUserCourse(user.ID, course.ID)
	assert.Error(t, err)
}

func TestWebhookExpiredEventPushesPaymentFailed(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env)
	user, course, _ := env.seedPendingIntent(t, "cs_wh_7", domain.ProviderCard)

	client := &ws.Client{UserID: user.ID, Send: make(chan []byte, 4)}
	env.hub.Register(client)
	defer client.Close()

	payload := stripeEvent("checkout.session.expired", "cs_wh_7", "unpaid")
	w := postWebhook(r, payload, signStripe("whsec_test", payload))
	assert.Equal(t, http.StatusOK, w.Code)

	select {
	case raw := <-client.Send:
		var msg map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &msg))
		assert.Equal(t, "payment_failed", msg["type"])
		assert.EqualValues(t, course.ID, msg["course_id"])
	default:
		t.Fatal("expected a payment_failed push on the user's connection")
	}
}

func TestWebhookUnknownOrderIsAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env)

	payload := stripeEvent("checkout.session.completed", "cs_nobody", "paid")
	w := postWebhook(r, payload, signStripe("whsec_test", payload))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, env.countEnrollments(t))
}

func TestWebhookCompletedUnpaidWaitsForAsyncEvent(t *testing.T) {
	env := newTestEnv(t)
	r := webhookRouter(env)
	env.seedPendingIntent(t, "cs_wh_6", domain.ProviderCard)

	completed := stripeEvent("checkout.session.completed", "cs_wh_6", "unpaid")
	w := postWebhook(r, completed, signStripe("whsec_test", completed))
	assert.Equal(t, http.StatusOK, w.Code)

	intent, err := env.intents.GetByProviderOrderID("cs_wh_6")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentPending, intent.Status)

	async := stripeEvent("checkout.session.async_payment_succeeded", "cs_wh_6", "paid")
	postWebhook(r, async, signStripe("whsec_test", async))

	intent, err = env.intents.GetByProviderOrderID("cs_wh_6")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentSucceeded, intent.Status)
}
