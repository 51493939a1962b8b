package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"learnly/config"
	"learnly/internal/domain"
	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/pkg/payment"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CheckoutResult is what the caller needs to finish paying. For the free
// path Enrolled is set and Destination points at the course player; for the
// card path RedirectURL carries the hosted checkout page; for the local path
// ClientParams feeds the provider's widget.
type CheckoutResult struct {
	Enrolled        bool                   `json:"enrolled"`
	Destination     string                 `json:"destination,omitempty"`
	Provider        string                 `json:"provider,omitempty"`
	ProviderOrderID string                 `json:"provider_order_id,omitempty"`
	RedirectURL     string                 `json:"redirect_url,omitempty"`
	ClientParams    map[string]interface{} `json:"client_params,omitempty"`
}

// CheckoutService decides the payment path for a purchase intent and hands
// the caller whatever they need to complete it. It creates at most one
// pending PaymentIntent per attempt and never writes enrollment rows itself;
// that is the reconciler's job.
type CheckoutService struct {
	cfg         *config.Config
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	intents     *repository.PaymentIntentRepository
	users       *repository.UserRepository
	enrollSvc   *EnrollmentService
	providers   map[string]payment.Provider
}

func NewCheckoutService(
	cfg *config.Config,
	courses *repository.CourseRepository,
	enrollments *repository.EnrollmentRepository,
	intents *repository.PaymentIntentRepository,
	users *repository.UserRepository,
	enrollSvc *EnrollmentService,
	providers map[string]payment.Provider,
) *CheckoutService {
	return &CheckoutService{
		cfg:         cfg,
		courses:     courses,
		enrollments: enrollments,
		intents:     intents,
		users:       users,
		enrollSvc:   enrollSvc,
		providers:   providers,
	}
}

// Start begins checkout for (user, course) on the requested provider
// ("card" or "local", defaulting to card).
func (s *CheckoutService) Start(ctx context.Context, userID, courseID uint, providerName string) (*CheckoutResult, error) {
	course, err := s.courses.GetByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if course.Status != domain.CoursePublished {
		return nil, ErrCourseNotFound
	}

	// Duplicate-enrollment guard runs before any provider call so a repeat
	// checkout never creates a provider order.
	if _, err := s.enrollments.GetByUserCourse(userID, courseID); err == nil {
		return nil, ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	if course.IsFree() {
		if _, err := s.enrollSvc.Enroll(userID, courseID, nil); err != nil {
			return nil, err
		}
		return &CheckoutResult{
			Enrolled:    true,
			Destination: s.cfg.Checkout.SuccessPath + "/" + course.Slug,
		}, nil
	}

	if providerName == "" {
		providerName = domain.ProviderCard
	}
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProvider, providerName)
	}

	user, err := s.users.GetByID(userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}

	reference := "learnly-" + uuid.New().String()
	order, err := provider.CreateOrder(ctx, payment.OrderRequest{
		Reference:     reference,
		AmountCents:   course.PriceCents,
		Currency:      course.Currency,
		Description:   course.Title,
		CustomerEmail: user.Email,
		SuccessURL:    s.cfg.Server.BaseURL + s.cfg.Checkout.SuccessPath + "/" + course.Slug + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.cfg.Server.BaseURL + s.cfg.Checkout.CancelPath + "/" + course.Slug,
		Metadata: map[string]string{
			"user_id":   fmt.Sprintf("%d", userID),
			"course_id": fmt.Sprintf("%d", courseID),
		},
	})
	if err != nil {
		log.Printf("[Checkout] provider order failed user=%d course=%d provider=%s: %v", userID, courseID, providerName, err)
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}

	intent := &models.PaymentIntent{
		UserID:          userID,
		CourseID:        courseID,
		AmountCents:     course.PriceCents,
		Currency:        course.Currency,
		Provider:        providerName,
		ProviderOrderID: order.ProviderOrderID,
		Status:          domain.IntentPending,
	}
	if err := s.intents.Create(intent); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Two intents for one provider order is a defect, not a user error.
			log.Printf("[Checkout] duplicate provider order id %s", order.ProviderOrderID)
			return nil, ErrIntentConflict
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	log.Printf("[Checkout] intent created user=%d course=%d provider=%s order=%s amount=%d %s",
		userID, courseID, providerName, order.ProviderOrderID, course.PriceCents, course.Currency)

	return &CheckoutResult{
		Provider:        providerName,
		ProviderOrderID: order.ProviderOrderID,
		RedirectURL:     order.RedirectURL,
		ClientParams:    order.ClientParams,
	}, nil
}

// Provider returns the configured adapter by name.
func (s *CheckoutService) Provider(name string) (payment.Provider, bool) {
	p, ok := s.providers[name]
	return p, ok
}
