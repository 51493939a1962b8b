package models

import (
	"time"

	"gorm.io/gorm"
)

type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"uniqueIndex;size:120;not null" json:"name"`
	Slug string `gorm:"uniqueIndex;size:140;not null" json:"slug"`
}

func (Category) TableName() string { return "categories" }

// Course is the catalog entry students enroll into. Price is stored in minor
// units (cents, paise) so both providers receive integer amounts.
type Course struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Slug         string         `gorm:"uniqueIndex;size:160;not null" json:"slug"`
	Title        string         `gorm:"size:200;not null" json:"title"`
	Subtitle     string         `gorm:"size:300" json:"subtitle"`
	Description  string         `gorm:"type:text" json:"description"`
	PriceCents   int64          `gorm:"not null;default:0" json:"price_cents"`
	Currency     string         `gorm:"size:3;not null;default:'USD'" json:"currency"`
	Status       string         `gorm:"size:20;not null;default:'DRAFT';index" json:"status"` // DRAFT | PUBLISHED
	Level        string         `gorm:"size:30" json:"level"`
	ThumbnailURL string         `gorm:"size:512" json:"thumbnail_url"`
	PreviewURL   string         `gorm:"size:512" json:"preview_url"`
	InstructorID uint           `gorm:"not null;index" json:"instructor_id"`
	CategoryID   *uint          `gorm:"index" json:"category_id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	Instructor User      `gorm:"foreignKey:InstructorID" json:"-"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Sections   []Section `gorm:"foreignKey:CourseID" json:"sections,omitempty"`
}

func (Course) TableName() string { return "courses" }

func (c *Course) IsFree() bool { return c.PriceCents == 0 }

// Section groups lessons inside a course curriculum. Position is the
// display order within the course (1-based).
type Section struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	CourseID uint   `gorm:"not null;index" json:"course_id"`
	Title    string `gorm:"size:200;not null" json:"title"`
	Position int    `gorm:"not null;default:0" json:"position"`

	Lessons []Lesson `gorm:"foreignKey:SectionID" json:"lessons,omitempty"`
}

func (Section) TableName() string { return "sections" }

type Lesson struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	SectionID       uint   `gorm:"not null;index" json:"section_id"`
	CourseID        uint   `gorm:"not null;index" json:"course_id"`
	Title           string `gorm:"size:200;not null" json:"title"`
	Position        int    `gorm:"not null;default:0" json:"position"`
	VideoURL        string `gorm:"size:512" json:"video_url"`
	DurationSeconds int    `gorm:"default:0" json:"duration_seconds"`
	FreePreview     bool   `gorm:"default:false" json:"free_preview"`
}

func (Lesson) TableName() string { return "lessons" }
