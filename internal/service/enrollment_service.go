package service

import (
	"errors"
	"fmt"
	"log"
	"time"

	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/internal/ws"

	"gorm.io/gorm"
)

// EnrollmentService is the reconciler: the only writer of enrollment rows in
// the free and paid paths. Free checkout, synchronous verification, the
// provider webhook and the pending sweep all funnel through Enroll, which is
// idempotent so none of them need to coordinate.
type EnrollmentService struct {
	enrollments *repository.EnrollmentRepository
	users       *repository.UserRepository
	courses     *repository.CourseRepository
	mailSvc     *MailService
	hub         *ws.Hub
}

func NewEnrollmentService(
	enrollments *repository.EnrollmentRepository,
	users *repository.UserRepository,
	courses *repository.CourseRepository,
	mailSvc *MailService,
	hub *ws.Hub,
) *EnrollmentService {
	return &EnrollmentService{
		enrollments: enrollments,
		users:       users,
		courses:     courses,
		mailSvc:     mailSvc,
		hub:         hub,
	}
}

// Enroll returns the enrollment for (user, course), creating it if missing.
// Calling it N times yields exactly one row and never errors on a repeat
// call; a concurrent duplicate insert loses to the unique index and resolves
// by re-reading the winner's row. paymentIntentID is nil for free courses
// and manual grants.
func (s *EnrollmentService) Enroll(userID, courseID uint, paymentIntentID *uint) (*models.Enrollment, error) {
	existing, err := s.enrollments.GetByUserCourse(userID, courseID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	e := &models.Enrollment{
		UserID:          userID,
		CourseID:        courseID,
		PaymentIntentID: paymentIntentID,
		EnrolledAt:      time.Now(),
		ProgressPercent: 0,
	}
	if err := s.enrollments.Create(e); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race to a concurrent webhook/verify; their row wins.
			return s.enrollments.GetByUserCourse(userID, courseID)
		}
		return nil, fmt.Errorf("%w: %v", ErrStore, err)
	}
	log.Printf("[Enroll] user=%d course=%d enrolled (intent=%v)", userID, courseID, paymentIntentID)
	s.notifyEnrolled(e)
	return e, nil
}

// notifyEnrolled pushes the confirmation over the user's websocket and sends
// the confirmation email. Both are best-effort.
func (s *EnrollmentService) notifyEnrolled(e *models.Enrollment) {
	course, err := s.courses.GetByID(e.CourseID)
	if err != nil {
		return
	}
	if s.hub != nil {
		s.hub.PushToUser(e.UserID, map[string]interface{}{
			"type":      "enrollment_confirmed",
			"course_id": e.CourseID,
			"title":     course.Title,
		})
	}
	if s.mailSvc != nil {
		if user, err := s.users.GetByID(e.UserID); err == nil {
			go s.mailSvc.SendEnrollmentConfirmed(user, course)
		}
	}
}

// NotifyPaymentFailed tells the user a checkout attempt did not settle, over
// the websocket and by email. Best-effort, like notifyEnrolled.
func (s *EnrollmentService) NotifyPaymentFailed(userID, courseID uint) {
	course, err := s.courses.GetByID(courseID)
	if err != nil {
		return
	}
	if s.hub != nil {
		s.hub.PushToUser(userID, map[string]interface{}{
			"type":      "payment_failed",
			"course_id": courseID,
			"title":     course.Title,
		})
	}
	if s.mailSvc != nil {
		if user, err := s.users.GetByID(userID); err == nil {
			go s.mailSvc.SendPaymentFailed(user, course)
		}
	}
}

// RecomputeProgress rolls per-lesson completion up into the enrollment's
// percentage, stamping completion when every lesson is done.
func (s *EnrollmentService) RecomputeProgress(userID, courseID uint, progress *repository.ProgressRepository) (int, error) {
	total, err := s.courses.CountLessons(courseID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	if total == 0 {
		return 0, nil
	}
	done, err := progress.CountCompleted(userID, courseID)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	percent := int(done * 100 / total)
	if err := s.enrollments.UpdateProgress(userID, courseID, percent); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStore, err)
	}
	return percent, nil
}
