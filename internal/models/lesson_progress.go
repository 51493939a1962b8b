package models

import (
	"time"
)

// LessonProgress is the per-lesson autosave row behind the video player.
// One row per (user, lesson); PositionSeconds is the last saved playhead.
type LessonProgress struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"user_id"`
	LessonID        uint       `gorm:"not null;uniqueIndex:idx_progress_user_lesson" json:"lesson_id"`
	CourseID        uint       `gorm:"not null;index" json:"course_id"`
	PositionSeconds int        `gorm:"not null;default:0" json:"position_seconds"`
	Completed       bool       `gorm:"not null;default:false" json:"completed"`
	CompletedAt     *time.Time `json:"completed_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (LessonProgress) TableName() string { return "lesson_progress" }
