package models

import (
	"time"
)

// Enrollment is the authoritative record that a user has access to a course.
// The composite unique index on (user_id, course_id) backs the reconciler's
// idempotency: concurrent webhook and verify callbacks can both attempt the
// insert and the loser just re-reads the winner's row.
type Enrollment struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uint       `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"user_id"`
	CourseID        uint       `gorm:"not null;uniqueIndex:idx_enrollments_user_course" json:"course_id"`
	PaymentIntentID *uint      `gorm:"index" json:"payment_intent_id"` // nil for free courses and manual grants
	EnrolledAt      time.Time  `gorm:"not null" json:"enrolled_at"`
	CompletedAt     *time.Time `json:"completed_at"`
	ProgressPercent int        `gorm:"not null;default:0" json:"progress_percent"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	User   User   `gorm:"foreignKey:UserID" json:"-"`
	Course Course `gorm:"foreignKey:CourseID" json:"course,omitempty"`
}

func (Enrollment) TableName() string { return "enrollments" }
