package handler

import (
	"errors"
	"log"
	"net/http"

	"learnly/internal/middleware"
	"learnly/internal/service"

	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	checkoutSvc *service.CheckoutService
}

func NewCheckoutHandler(checkoutSvc *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutSvc: checkoutSvc}
}

// Start begins checkout for the authenticated user. Free courses enroll
// immediately; paid courses get a provider handoff (redirect URL for card,
// widget params for local).
func (h *CheckoutHandler) Start(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		CourseID uint   `json:"course_id" binding:"required"`
		Provider string `json:"provider" binding:"omitempty,oneof=card local"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.checkoutSvc.Start(c.Request.Context(), userID, req.CourseID, req.Provider)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCourseNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAlreadyEnrolled):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrProvider):
			log.Printf("[Checkout] user=%d course=%d: %v", userID, req.CourseID, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "payment provider unavailable"})
		default:
			log.Printf("[Checkout] user=%d course=%d: %v", userID, req.CourseID, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "checkout failed"})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}
