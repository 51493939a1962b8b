package service

import (
	"testing"

	"learnly/config"
	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/internal/ws"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	db          *gorm.DB
	cfg         *config.Config
	users       *repository.UserRepository
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	intents     *repository.PaymentIntentRepository
	progress    *repository.ProgressRepository
	hub         *ws.Hub
	enrollSvc   *EnrollmentService
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
	env := &testEnv{
		db: db,
		cfg: &config.Config{
			Checkout: config.CheckoutConfig{SuccessPath: "/learn", CancelPath: "/courses"},
		},
		users:       repository.NewUserRepository(db),
		courses:     repository.NewCourseRepository(db),
		enrollments: repository.NewEnrollmentRepository(db),
		intents:     repository.NewPaymentIntentRepository(db),
		progress:    repository.NewProgressRepository(db),
		hub:         ws.NewHub(),
	}
	env.enrollSvc = NewEnrollmentService(env.enrollments, env.users, env.courses, nil, env.hub)
	return env
}

func (e *testEnv) seedUser(t *testing.T, email string) *models.User {
	t.Helper()
	u := &models.User{Name: "Student", Email: email, PasswordHash: "x", Role: "STUDENT"}
	if err := e.db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func (e *testEnv) seedCourse(t *testing.T, slug string, priceCents int64, status string) *models.Course {
	t.Helper()
	instructor := &models.User{Name: "Instructor", Email: slug + "-instructor@test.local", PasswordHash: "x", Role: "INSTRUCTOR"}
	if err := e.db.Create(instructor).Error; err != nil {
		t.Fatalf("seed instructor: %v", err)
	}
	c := &models.Course{
		Slug:         slug,
		Title:        "Course " + slug,
		PriceCents:   priceCents,
		Currency:     "USD",
		Status:       status,
		InstructorID: instructor.ID,
	}
	if err := e.db.Create(c).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return c
}

func (e *testEnv) countEnrollments(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&models.Enrollment{}).Count(&n).Error; err != nil {
		t.Fatalf("count enrollments: %v", err)
	}
	return n
}

func (e *testEnv) countIntents(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&models.PaymentIntent{}).Count(&n).Error; err != nil {
		t.Fatalf("count intents: %v", err)
	}
	return n
}
