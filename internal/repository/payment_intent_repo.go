package repository

import (
	"time"

	"learnly/internal/domain"
	"learnly/internal/models"

	"gorm.io/gorm"
)

type PaymentIntentRepository struct {
	db *gorm.DB
}

func NewPaymentIntentRepository(db *gorm.DB) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

// Create inserts a new pending intent. A duplicate provider order id surfaces
// as gorm.ErrDuplicatedKey via the unique index; callers treat that as a
// conflict because two checkout attempts must never share a provider order.
func (r *PaymentIntentRepository) Create(pi *models.PaymentIntent) error {
	if pi.Status == "" {
		pi.Status = domain.IntentPending
	}
	return r.db.Create(pi).Error
}

func (r *PaymentIntentRepository) GetByID(id uint) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	if err := r.db.First(&pi, id).Error; err != nil {
		return nil, err
	}
	return &pi, nil
}

func (r *PaymentIntentRepository) GetByProviderOrderID(orderID string) (*models.PaymentIntent, error) {
	var pi models.PaymentIntent
	if err := r.db.Where("provider_order_id = ?", orderID).First(&pi).Error; err != nil {
		return nil, err
	}
	return &pi, nil
}

// MarkSucceeded transitions a pending intent to succeeded. The guarded WHERE
// makes redelivered webhooks a no-op: once an intent is terminal no further
// status write ever matches, regardless of delivery order or duplication.
func (r *PaymentIntentRepository) MarkSucceeded(providerOrderID, providerPaymentID string) error {
	now := time.Now()
	return r.db.Model(&models.PaymentIntent{}).
		Where("provider_order_id = ? AND status = ?", providerOrderID, domain.IntentPending).
		Updates(map[string]interface{}{
			"status":              domain.IntentSucceeded,
			"provider_payment_id": providerPaymentID,
			"succeeded_at":        now,
		}).Error
}

// MarkFailed transitions a pending intent to failed, with the same idempotency
// guarantee as MarkSucceeded.
func (r *PaymentIntentRepository) MarkFailed(providerOrderID string) error {
	now := time.Now()
	return r.db.Model(&models.PaymentIntent{}).
		Where("provider_order_id = ? AND status = ?", providerOrderID, domain.IntentPending).
		Updates(map[string]interface{}{
			"status":    domain.IntentFailed,
			"failed_at": now,
		}).Error
}

// ListStalePending returns pending intents created before the cutoff, oldest
// first. Used by the reconciliation sweeper for abandoned checkouts and
// dropped webhooks.
func (r *PaymentIntentRepository) ListStalePending(cutoff time.Time, limit int) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	q := r.db.Where("status = ? AND created_at < ?", domain.IntentPending, cutoff).
		Order("created_at asc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&intents).Error
	return intents, err
}

// ListRecent returns the latest intents across all users, optionally filtered
// by status. Back-office reconciliation view.
func (r *PaymentIntentRepository) ListRecent(status string, limit int) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	q := r.db.Order("created_at desc")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	err := q.Limit(limit).Find(&intents).Error
	return intents, err
}

// ListByUser returns a user's intents, newest first (purchase history).
func (r *PaymentIntentRepository) ListByUser(userID uint) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := r.db.Where("user_id = ?", userID).Order("created_at desc").Find(&intents).Error
	return intents, err
}
