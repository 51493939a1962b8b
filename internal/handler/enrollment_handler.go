package handler

import (
	"net/http"

	"learnly/internal/middleware"
	"learnly/internal/repository"

	"github.com/gin-gonic/gin"
)

type EnrollmentHandler struct {
	enrollments *repository.EnrollmentRepository
	intents     *repository.PaymentIntentRepository
}

func NewEnrollmentHandler(
	enrollments *repository.EnrollmentRepository,
	intents *repository.PaymentIntentRepository,
) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, intents: intents}
}

// ListMine returns the authenticated user's enrollments with course info.
func (h *EnrollmentHandler) ListMine(c *gin.Context) {
	enrollments, err := h.enrollments.ListByUser(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch enrollments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollments": enrollments})
}

// Purchases returns the user's payment intent history.
func (h *EnrollmentHandler) Purchases(c *gin.Context) {
	intents, err := h.intents.ListByUser(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch purchases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"purchases": intents})
}
