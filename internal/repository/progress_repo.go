package repository

import (
	"time"

	"learnly/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Save upserts the autosave row for (user, lesson). Completed is sticky: a
// later tick at an earlier playhead never un-completes a lesson.
func (r *ProgressRepository) Save(p *models.LessonProgress) error {
	if p.Completed && p.CompletedAt == nil {
		now := time.Now()
		p.CompletedAt = &now
	}
	assignments := map[string]interface{}{
		"position_seconds": p.PositionSeconds,
		"updated_at":       time.Now(),
	}
	if p.Completed {
		assignments["completed"] = true
		assignments["completed_at"] = p.CompletedAt
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(p).Error
}

func (r *ProgressRepository) Get(userID, lessonID uint) (*models.LessonProgress, error) {
	var p models.LessonProgress
	if err := r.db.Where("user_id = ? AND lesson_id = ?", userID, lessonID).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProgressRepository) ListByUserCourse(userID, courseID uint) ([]models.LessonProgress, error) {
	var rows []models.LessonProgress
	err := r.db.Where("user_id = ? AND course_id = ?", userID, courseID).Find(&rows).Error
	return rows, err
}

func (r *ProgressRepository) CountCompleted(userID, courseID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ?", userID, courseID, true).
		Count(&n).Error
	return n, err
}
