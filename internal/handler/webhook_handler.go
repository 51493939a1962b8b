package handler

import (
	"io"
	"log"
	"net/http"
	"time"

	"learnly/config"
	"learnly/internal/domain"
	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/internal/service"
	"learnly/pkg/payment"

	"github.com/gin-gonic/gin"
)

// webhookTolerance bounds how old a signed webhook timestamp may be.
const webhookTolerance = 5 * time.Minute

// CardWebhookHandler receives the card provider's server-to-server events.
// Delivery is at-least-once and can race the synchronous verify; the guarded
// intent transition plus the idempotent reconciler make duplicates and
// reordering harmless.
type CardWebhookHandler struct {
	cfg       *config.Config
	intents   *repository.PaymentIntentRepository
	enrollSvc *service.EnrollmentService
}

func NewCardWebhookHandler(
	cfg *config.Config,
	intents *repository.PaymentIntentRepository,
	enrollSvc *service.EnrollmentService,
) *CardWebhookHandler {
	return &CardWebhookHandler{cfg: cfg, intents: intents, enrollSvc: enrollSvc}
}

func (h *CardWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	event, err := payment.ParseStripeWebhook(body, c.GetHeader("Stripe-Signature"), h.cfg.Stripe.WebhookSecret, webhookTolerance)
	if err != nil {
		log.Printf("[Webhook] rejected: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
		return
	}
	orderID := event.SessionID()
	if orderID == "" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	intent, err := h.intents.GetByProviderOrderID(orderID)
	if err != nil {
		// Unknown order: acknowledge so the provider stops retrying.
		log.Printf("[Webhook] no intent for order=%s", orderID)
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if intent.Status != domain.IntentPending {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		h.settle(c, intent, event)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		if err := h.intents.MarkFailed(orderID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
			return
		}
		h.enrollSvc.NotifyPaymentFailed(intent.UserID, intent.CourseID)
		log.Printf("[Webhook] intent %d failed (event=%s)", intent.ID, event.Type)
		c.JSON(http.StatusOK, gin.H{"received": true})
	default:
		c.JSON(http.StatusOK, gin.H{"received": true})
	}
}

func (h *CardWebhookHandler) settle(c *gin.Context, intent *models.PaymentIntent, event *payment.StripeWebhookEvent) {
	if event.Data.Object.PaymentStatus != "paid" {
		// Completed-but-unpaid sessions (delayed payment methods) settle via
		// the async_payment_succeeded event later.
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}
	if err := h.intents.MarkSucceeded(intent.ProviderOrderID, event.PaymentID()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if _, err := h.enrollSvc.Enroll(intent.UserID, intent.CourseID, &intent.ID); err != nil {
		// Intent is already succeeded; a redelivery converges via the
		// idempotent reconciler. Non-200 asks the provider to retry.
		log.Printf("[Webhook] reconcile failed intent=%d: %v", intent.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "reconcile failed"})
		return
	}
	log.Printf("[Webhook] intent %d succeeded (order=%s)", intent.ID, intent.ProviderOrderID)
	c.JSON(http.StatusOK, gin.H{"received": true})
}
