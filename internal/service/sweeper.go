package service

import (
	"context"
	"log"
	"time"

	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/pkg/payment"

	"github.com/robfig/cron/v3"
)

// PendingSweeper resolves payment intents stuck in pending: abandoned
// checkouts and webhooks that never arrived. On each run it polls the
// provider for every intent older than the threshold and drives it to the
// same terminal transition the webhook would have, so a dropped callback
// still converges to an enrollment.
type PendingSweeper struct {
	intents   *repository.PaymentIntentRepository
	enrollSvc *EnrollmentService
	providers map[string]payment.Provider
	olderThan time.Duration
	batchSize int
}

func NewPendingSweeper(
	intents *repository.PaymentIntentRepository,
	enrollSvc *EnrollmentService,
	providers map[string]payment.Provider,
	olderThan time.Duration,
) *PendingSweeper {
	return &PendingSweeper{
		intents:   intents,
		enrollSvc: enrollSvc,
		providers: providers,
		olderThan: olderThan,
		batchSize: 100,
	}
}

// Start schedules the sweep on the given cron spec (e.g. "@every 30m") and
// returns the running scheduler so main can stop it on shutdown.
func (s *PendingSweeper) Start(schedule string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		s.SweepOnce(ctx)
	}); err != nil {
		return nil, err
	}
	c.Start()
	log.Printf("[Sweeper] scheduled (%s), resolving intents pending longer than %s", schedule, s.olderThan)
	return c, nil
}

// SweepOnce processes one batch of stale pending intents.
func (s *PendingSweeper) SweepOnce(ctx context.Context) {
	cutoff := time.Now().Add(-s.olderThan)
	stale, err := s.intents.ListStalePending(cutoff, s.batchSize)
	if err != nil {
		log.Printf("[Sweeper] list stale pending: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}
	log.Printf("[Sweeper] found %d stale pending intents", len(stale))
	resolved, failed := 0, 0
	for _, intent := range stale {
		if ctx.Err() != nil {
			return
		}
		switch s.resolve(ctx, &intent) {
		case sweepSucceeded:
			resolved++
		case sweepFailed:
			failed++
		}
	}
	log.Printf("[Sweeper] done: %d succeeded, %d failed, %d left pending", resolved, failed, len(stale)-resolved-failed)
}

type sweepOutcome int

const (
	sweepLeftPending sweepOutcome = iota
	sweepSucceeded
	sweepFailed
)

func (s *PendingSweeper) resolve(ctx context.Context, intent *models.PaymentIntent) sweepOutcome {
	provider, ok := s.providers[intent.Provider]
	if !ok {
		log.Printf("[Sweeper] intent %d: no adapter for provider %q", intent.ID, intent.Provider)
		return sweepLeftPending
	}
	paid, paymentID, err := provider.OrderPaid(ctx, intent.ProviderOrderID)
	if err != nil {
		// Provider unreachable: leave pending, the next run retries.
		log.Printf("[Sweeper] intent %d: provider poll failed: %v", intent.ID, err)
		return sweepLeftPending
	}
	if paid {
		if err := s.intents.MarkSucceeded(intent.ProviderOrderID, paymentID); err != nil {
			log.Printf("[Sweeper] intent %d: mark succeeded: %v", intent.ID, err)
			return sweepLeftPending
		}
		if _, err := s.enrollSvc.Enroll(intent.UserID, intent.CourseID, &intent.ID); err != nil {
			// Intent stays succeeded; the next sweep or a redelivered
			// webhook re-runs reconciliation.
			log.Printf("[Sweeper] intent %d: reconcile: %v", intent.ID, err)
			return sweepLeftPending
		}
		log.Printf("[Sweeper] intent %d resolved succeeded (order=%s)", intent.ID, intent.ProviderOrderID)
		return sweepSucceeded
	}
	// The intent outlived the threshold and the provider still reports
	// unpaid: the checkout was abandoned or the order expired.
	if err := s.intents.MarkFailed(intent.ProviderOrderID); err != nil {
		log.Printf("[Sweeper] intent %d: mark failed: %v", intent.ID, err)
		return sweepLeftPending
	}
	s.enrollSvc.NotifyPaymentFailed(intent.UserID, intent.CourseID)
	log.Printf("[Sweeper] intent %d resolved failed (order=%s)", intent.ID, intent.ProviderOrderID)
	return sweepFailed
}
