package repository

import (
	"learnly/internal/domain"
	"learnly/internal/models"

	"gorm.io/gorm"
)

type CourseRepository struct {
	db *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func (r *CourseRepository) Create(course *models.Course) error {
	return r.db.Create(course).Error
}

func (r *CourseRepository) Update(course *models.Course) error {
	return r.db.Save(course).Error
}

func (r *CourseRepository) GetByID(id uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.First(&course, id).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *CourseRepository) GetBySlug(slug string) (*models.Course, error) {
	var course models.Course
	if err := r.db.Where("slug = ?", slug).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

// GetWithCurriculum loads a course with its ordered sections and lessons.
func (r *CourseRepository) GetWithCurriculum(id uint) (*models.Course, error) {
	var course models.Course
	err := r.db.
		Preload("Category").
		Preload("Sections", func(db *gorm.DB) *gorm.DB { return db.Order("sections.position asc") }).
		Preload("Sections.Lessons", func(db *gorm.DB) *gorm.DB { return db.Order("lessons.position asc") }).
		First(&course, id).Error
	if err != nil {
		return nil, err
	}
	return &course, nil
}

type CourseFilter struct {
	CategoryID uint
	Search     string
	Page       int
	Limit      int
}

// ListPublished returns the public catalog with total count for pagination.
func (r *CourseRepository) ListPublished(f CourseFilter) ([]models.Course, int64, error) {
	q := r.db.Model(&models.Course{}).Where("status = ?", domain.CoursePublished)
	if f.CategoryID != 0 {
		q = q.Where("category_id = ?", f.CategoryID)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("title LIKE ? OR subtitle LIKE ?", like, like)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Limit <= 0 {
		f.Limit = 20
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	var courses []models.Course
	err := q.Preload("Category").
		Order("created_at desc").
		Offset((f.Page - 1) * f.Limit).Limit(f.Limit).
		Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) ListByInstructor(instructorID uint) ([]models.Course, error) {
	var courses []models.Course
	err := r.db.Where("instructor_id = ?", instructorID).Order("created_at desc").Find(&courses).Error
	return courses, err
}

func (r *CourseRepository) CreateSection(s *models.Section) error {
	return r.db.Create(s).Error
}

func (r *CourseRepository) GetSection(id uint) (*models.Section, error) {
	var s models.Section
	if err := r.db.First(&s, id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *CourseRepository) UpdateSection(s *models.Section) error {
	return r.db.Save(s).Error
}

func (r *CourseRepository) DeleteSection(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("section_id = ?", id).Delete(&models.Lesson{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Section{}, id).Error
	})
}

func (r *CourseRepository) CreateLesson(l *models.Lesson) error {
	return r.db.Create(l).Error
}

func (r *CourseRepository) GetLesson(id uint) (*models.Lesson, error) {
	var l models.Lesson
	if err := r.db.First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *CourseRepository) UpdateLesson(l *models.Lesson) error {
	return r.db.Save(l).Error
}

func (r *CourseRepository) DeleteLesson(id uint) error {
	return r.db.Delete(&models.Lesson{}, id).Error
}

func (r *CourseRepository) CountLessons(courseID uint) (int64, error) {
	var n int64
	err := r.db.Model(&models.Lesson{}).Where("course_id = ?", courseID).Count(&n).Error
	return n, err
}

// ReorderItem pairs an entity id with its new 1-based position.
type ReorderItem struct {
	ID       uint `json:"id" binding:"required"`
	Position int  `json:"position" binding:"required"`
}

// ReorderLessons applies a curriculum reorder atomically: every position
// update runs inside one transaction so a half-applied drag-and-drop can
// never be observed.
func (r *CourseRepository) ReorderLessons(sectionID uint, items []ReorderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			res := tx.Model(&models.Lesson{}).
				Where("id = ? AND section_id = ?", it.ID, sectionID).
				Update("position", it.Position)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

// ReorderSections is the section-level counterpart of ReorderLessons.
func (r *CourseRepository) ReorderSections(courseID uint, items []ReorderItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		for _, it := range items {
			res := tx.Model(&models.Section{}).
				Where("id = ? AND course_id = ?", it.ID, courseID).
				Update("position", it.Position)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return nil
	})
}

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) Create(cat *models.Category) error {
	return r.db.Create(cat).Error
}

func (r *CategoryRepository) List() ([]models.Category, error) {
	var cats []models.Category
	err := r.db.Order("name asc").Find(&cats).Error
	return cats, err
}
