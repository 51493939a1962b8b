package handler

import (
	"errors"
	"log"
	"net/http"

	"learnly/internal/domain"
	"learnly/internal/middleware"
	"learnly/internal/repository"
	"learnly/internal/service"
	"learnly/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// VerifyHandler hosts the synchronous confirmation paths: the card
// session-status poll after a redirect flow, and the local provider's
// client-submitted signature triplet. Both terminate in the reconciler and
// are safe to race the asynchronous webhook.
type VerifyHandler struct {
	intents      *repository.PaymentIntentRepository
	enrollSvc    *service.EnrollmentService
	cardProvider payment.Provider
	local        *payment.RazorpayProvider
}

func NewVerifyHandler(
	intents *repository.PaymentIntentRepository,
	enrollSvc *service.EnrollmentService,
	cardProvider payment.Provider,
	local *payment.RazorpayProvider,
) *VerifyHandler {
	return &VerifyHandler{intents: intents, enrollSvc: enrollSvc, cardProvider: cardProvider, local: local}
}

// VerifyCard confirms a card payment by polling the provider's session
// status. Invoked by the client right after returning from the hosted
// checkout page, typically before the webhook lands.
func (h *VerifyHandler) VerifyCard(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "session_id required"})
		return
	}
	intent, err := h.intents.GetByProviderOrderID(req.SessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if intent.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	if intent.Status == domain.IntentSucceeded {
		// Webhook got here first; just make sure the enrollment exists.
		if _, err := h.enrollSvc.Enroll(intent.UserID, intent.CourseID, &intent.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enrollment failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if intent.Status == domain.IntentFailed {
		// The sweep already settled this attempt as failed; never enroll off
		// a terminal-failed intent. A late capture is a support case.
		c.JSON(http.StatusConflict, gin.H{"error": "payment already marked failed"})
		return
	}
	paid, paymentID, err := h.cardProvider.OrderPaid(c.Request.Context(), req.SessionID)
	if err != nil {
		log.Printf("[Verify] card poll failed order=%s: %v", req.SessionID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "provider unavailable"})
		return
	}
	if !paid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "payment not completed"})
		return
	}
	if err := h.intents.MarkSucceeded(req.SessionID, paymentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if _, err := h.enrollSvc.Enroll(intent.UserID, intent.CourseID, &intent.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enrollment failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// VerifyLocal confirms a local-provider payment from the widget callback
// triplet. The signature must match the HMAC of "orderID|paymentID" under
// the shared secret; nothing is written on a mismatch.
func (h *VerifyHandler) VerifyLocal(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		OrderID   string `json:"order_id" binding:"required"`
		PaymentID string `json:"payment_id" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	intent, err := h.intents.GetByProviderOrderID(req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if intent.UserID != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "payment not found"})
		return
	}
	if intent.Status == domain.IntentSucceeded {
		if _, err := h.enrollSvc.Enroll(intent.UserID, intent.CourseID, &intent.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "enrollment failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if intent.Status == domain.IntentFailed {
		c.JSON(http.StatusConflict, gin.H{"error": "payment already marked failed"})
		return
	}
	if !h.local.VerifySignature(req.OrderID, req.PaymentID, req.Signature) {
		log.Printf("[Verify] signature mismatch order=%s user=%d", req.OrderID, userID)
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrVerificationFailed.Error()})
		return
	}
	if err := h.intents.MarkSucceeded(req.OrderID, req.PaymentID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if _, err := h.enrollSvc.Enroll(intent.UserID, intent.CourseID, &intent.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enrollment failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
