package repository

import (
	"time"

	"learnly/internal/models"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

func (r *EnrollmentRepository) Create(e *models.Enrollment) error {
	return r.db.Create(e).Error
}

func (r *EnrollmentRepository) GetByUserCourse(userID, courseID uint) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]models.Enrollment, error) {
	var enrollments []models.Enrollment
	err := r.db.Where("user_id = ?", userID).
		Preload("Course").Preload("Course.Category").
		Order("enrolled_at desc").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) CountByCourse(courseID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Enrollment{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}

// UpdateProgress stores the rolled-up course completion percentage and stamps
// completed_at the first time it reaches 100.
func (r *EnrollmentRepository) UpdateProgress(userID, courseID uint, percent int) error {
	updates := map[string]interface{}{"progress_percent": percent}
	if percent >= 100 {
		updates["completed_at"] = time.Now()
	}
	q := r.db.Model(&models.Enrollment{}).
		Where("user_id = ? AND course_id = ?", userID, courseID)
	if percent >= 100 {
		q = q.Where("completed_at IS NULL OR progress_percent < 100")
	}
	return q.Updates(updates).Error
}
