package repository

import (
	"testing"

	"learnly/internal/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens a fresh in-memory database per test. TranslateError matches
// production so unique-index violations surface as gorm.ErrDuplicatedKey.
func testDB(t *testing.T) *gorm.DB {
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
	return db
}

func seedUserAndCourse(t *testing.T, db *gorm.DB, priceCents int64) (*models.User, *models.Course) {
	t.Helper()
	user := &models.User{Name: "Test Student", Email: "student@test.local", PasswordHash: "x", Role: "STUDENT"}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	instructor := &models.User{Name: "Test Instructor", Email: "instructor@test.local", PasswordHash: "x", Role: "INSTRUCTOR"}
	if err := db.Create(instructor).Error; err != nil {
		t.Fatalf("seed instructor: %v", err)
	}
	course := &models.Course{
		Slug:         "go-from-scratch",
		Title:        "Go From Scratch",
		PriceCents:   priceCents,
		Currency:     "USD",
		Status:       "PUBLISHED",
		InstructorID: instructor.ID,
	}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return user, course
}
