package handler

import (
	"context"
	"testing"

	"learnly/config"
	"learnly/internal/domain"
	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/internal/service"
	"learnly/internal/ws"
	"learnly/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	enrollments *repository.EnrollmentRepository
	intents     *repository.PaymentIntentRepository
	enrollSvc   *service.EnrollmentService
	hub         *ws.Hub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A pooled :memory: connection is its own database; keep one connection.
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.Course{},
		&models.Section{},
		&models.Lesson{},
		&models.PaymentIntent{},
		&models.Enrollment{},
		&models.LessonProgress{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := &config.Config{}
	cfg.Stripe.WebhookSecret = "whsec_test"
	enrollments := repository.NewEnrollmentRepository(db)
	users := repository.NewUserRepository(db)
	courses := repository.NewCourseRepository(db)
	hub := ws.NewHub()
	return &testEnv{
		db:          db,
		cfg:         cfg,
		enrollments: enrollments,
		intents:     repository.NewPaymentIntentRepository(db),
		enrollSvc:   service.NewEnrollmentService(enrollments, users, courses, nil, hub),
		hub:         hub,
	}
}

// asUser injects auth context the way AuthRequired does after a valid token.
func asUser(userID uint, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Next()
	}
}

func (e *testEnv) seedPendingIntent(t *testing.T, orderID, provider string) (*models.User, *models.Course, *models.PaymentIntent) {
	t.Helper()
	user := &models.User{Name: "Student", Email: orderID + "@test.local", PasswordHash: "x", Role: "STUDENT"}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	instructor := &models.User{Name: "Instructor", Email: orderID + "-i@test.local", PasswordHash: "x", Role: "INSTRUCTOR"}
	if err := e.db.Create(instructor).Error; err != nil {
		t.Fatalf("seed instructor: %v", err)
	}
	course := &models.Course{
		Slug: "course-" + orderID, Title: "Course", PriceCents: 4999, Currency: "USD",
		Status: "PUBLISHED", InstructorID: instructor.ID,
	}
	if err := e.db.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	intent := &models.PaymentIntent{
		UserID: user.ID, CourseID: course.ID, AmountCents: 4999, Currency: "USD",
		Provider: provider, ProviderOrderID: orderID, Status: "pending",
	}
	if err := e.db.Create(intent).Error; err != nil {
		t.Fatalf("seed intent: %v", err)
	}
	return user, course, intent
}

// seedPendingIntentWithStubOrder opens a stub provider order and binds a
// pending intent to it, so OrderPaid polls resolve against the stub.
func (e *testEnv) seedPendingIntentWithStubOrder(t *testing.T, stub *payment.StubProvider) (*models.User, *models.Course, *models.PaymentIntent) {
	t.Helper()
	order, err := stub.CreateOrder(context.Background(), payment.OrderRequest{})
	if err != nil {
		t.Fatalf("stub order: %v", err)
	}
	return e.seedPendingIntent(t, order.ProviderOrderID, domain.ProviderCard)
}

func (e *testEnv) countEnrollments(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&models.Enrollment{}).Count(&n).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	return n
}
