package handler

import (
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"learnly/internal/domain"
	"learnly/internal/middleware"
	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/internal/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AdminCourseHandler is the back-office surface: course authoring for
// instructors, plus category, manual enrollment and payment views for admins.
type AdminCourseHandler struct {
	courses    *repository.CourseRepository
	categories *repository.CategoryRepository
	intents    *repository.PaymentIntentRepository
	users      *repository.UserRepository
	enrollSvc  *service.EnrollmentService
}

func NewAdminCourseHandler(
	courses *repository.CourseRepository,
	categories *repository.CategoryRepository,
	intents *repository.PaymentIntentRepository,
	users *repository.UserRepository,
	enrollSvc *service.EnrollmentService,
) *AdminCourseHandler {
	return &AdminCourseHandler{courses: courses, categories: categories, intents: intents, users: users, enrollSvc: enrollSvc}
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(title string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// canEdit checks course ownership; admins may edit anything.
func (h *AdminCourseHandler) canEdit(c *gin.Context, course *models.Course) bool {
	if middleware.GetRole(c) == domain.RoleAdmin {
		return true
	}
	return course.InstructorID == middleware.GetUserID(c)
}

func (h *AdminCourseHandler) loadEditable(c *gin.Context) *models.Course {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return nil
	}
	course, err := h.courses.GetByID(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return nil
	}
	if !h.canEdit(c, course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return nil
	}
	return course
}

type courseRequest struct {
	Title       string `json:"title" binding:"required"`
	Subtitle    string `json:"subtitle"`
	Description string `json:"description"`
	PriceCents  int64  `json:"price_cents" binding:"min=0"`
	Currency    string `json:"currency"`
	Level       string `json:"level"`
	CategoryID  *uint  `json:"category_id"`
}

func (h *AdminCourseHandler) CreateCourse(c *gin.Context) {
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}
	course := &models.Course{
		Slug:         slugify(req.Title),
		Title:        req.Title,
		Subtitle:     req.Subtitle,
		Description:  req.Description,
		PriceCents:   req.PriceCents,
		Currency:     currency,
		Level:        req.Level,
		Status:       domain.CourseDraft,
		InstructorID: middleware.GetUserID(c),
		CategoryID:   req.CategoryID,
	}
	if err := h.courses.Create(course); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			c.JSON(http.StatusConflict, gin.H{"error": "a course with this title already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create course"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"course": course})
}

func (h *AdminCourseHandler) UpdateCourse(c *gin.Context) {
	course := h.loadEditable(c)
	if course == nil {
		return
	}
	var req courseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	course.Title = req.Title
	course.Subtitle = req.Subtitle
	course.Description = req.Description
	course.PriceCents = req.PriceCents
	if req.Currency != "" {
		course.Currency = strings.ToUpper(req.Currency)
	}
	course.Level = req.Level
	course.CategoryID = req.CategoryID
	if err := h.courses.Update(course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update course"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

// Publish flips a course between draft and published. A course needs at least
// one lesson before it can go live.
func (h *AdminCourseHandler) Publish(c *gin.Context) {
	course := h.loadEditable(c)
	if course == nil {
		return
	}
	var req struct {
		Published bool `json:"published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Published {
		n, err := h.courses.CountLessons(course.ID)
		if err != nil || n == 0 {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "course has no lessons"})
			return
		}
		course.Status = domain.CoursePublished
	} else {
		course.Status = domain.CourseDraft
	}
	if err := h.courses.Update(course); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update course"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"course": course})
}

// ListOwn returns the caller's courses, drafts included.
func (h *AdminCourseHandler) ListOwn(c *gin.Context) {
	courses, err := h.courses.ListByInstructor(middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *AdminCourseHandler) CreateSection(c *gin.Context) {
	course := h.loadEditable(c)
	if course == nil {
		return
	}
	var req struct {
		Title    string `json:"title" binding:"required"`
		Position int    `json:"position"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	section := &models.Section{CourseID: course.ID, Title: req.Title, Position: req.Position}
	if err := h.courses.CreateSection(section); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create section"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"section": section})
}

func (h *AdminCourseHandler) loadEditableSection(c *gin.Context) *models.Section {
	id, err := strconv.ParseUint(c.Param("section_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid section id"})
		return nil
	}
	section, err := h.courses.GetSection(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "section not found"})
		return nil
	}
	course, err := h.courses.GetByID(section.CourseID)
	if err != nil || !h.canEdit(c, course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return nil
	}
	return section
}

func (h *AdminCourseHandler) UpdateSection(c *gin.Context) {
	section := h.loadEditableSection(c)
	if section == nil {
		return
	}
	var req struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	section.Title = req.Title
	if err := h.courses.UpdateSection(section); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update section"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"section": section})
}

func (h *AdminCourseHandler) DeleteSection(c *gin.Context) {
	section := h.loadEditableSection(c)
	if section == nil {
		return
	}
	if err := h.courses.DeleteSection(section.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete section"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

type lessonRequest struct {
	Title           string `json:"title" binding:"required"`
	Position        int    `json:"position"`
	VideoURL        string `json:"video_url"`
	DurationSeconds int    `json:"duration_seconds"`
	FreePreview     bool   `json:"free_preview"`
}

func (h *AdminCourseHandler) CreateLesson(c *gin.Context) {
	section := h.loadEditableSection(c)
	if section == nil {
		return
	}
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lesson := &models.Lesson{
		SectionID:       section.ID,
		CourseID:        section.CourseID,
		Title:           req.Title,
		Position:        req.Position,
		VideoURL:        req.VideoURL,
		DurationSeconds: req.DurationSeconds,
		FreePreview:     req.FreePreview,
	}
	if err := h.courses.CreateLesson(lesson); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create lesson"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"lesson": lesson})
}

func (h *AdminCourseHandler) loadEditableLesson(c *gin.Context) *models.Lesson {
	id, err := strconv.ParseUint(c.Param("lesson_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lesson id"})
		return nil
	}
	lesson, err := h.courses.GetLesson(uint(id))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
		return nil
	}
	course, err := h.courses.GetByID(lesson.CourseID)
	if err != nil || !h.canEdit(c, course) {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your course"})
		return nil
	}
	return lesson
}

func (h *AdminCourseHandler) UpdateLesson(c *gin.Context) {
	lesson := h.loadEditableLesson(c)
	if lesson == nil {
		return
	}
	var req lessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lesson.Title = req.Title
	lesson.VideoURL = req.VideoURL
	lesson.DurationSeconds = req.DurationSeconds
	lesson.FreePreview = req.FreePreview
	if err := h.courses.UpdateLesson(lesson); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lesson"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"lesson": lesson})
}

func (h *AdminCourseHandler) DeleteLesson(c *gin.Context) {
	lesson := h.loadEditableLesson(c)
	if lesson == nil {
		return
	}
	if err := h.courses.DeleteLesson(lesson.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete lesson"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// ReorderSections applies a new section ordering inside one course. The whole
// batch commits or none of it does.
func (h *AdminCourseHandler) ReorderSections(c *gin.Context) {
	course := h.loadEditable(c)
	if course == nil {
		return
	}
	var req struct {
		Items []repository.ReorderItem `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.courses.ReorderSections(course.ID, req.Items); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "reorder rejected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reordered": true})
}

// ReorderLessons applies a new lesson ordering inside one section.
func (h *AdminCourseHandler) ReorderLessons(c *gin.Context) {
	section := h.loadEditableSection(c)
	if section == nil {
		return
	}
	var req struct {
		Items []repository.ReorderItem `json:"items" binding:"required,min=1"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.courses.ReorderLessons(section.ID, req.Items); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "reorder rejected"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reordered": true})
}

func (h *AdminCourseHandler) CreateCategory(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cat := &models.Category{Name: req.Name, Slug: slugify(req.Name)}
	if err := h.categories.Create(cat); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "category already exists"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": cat})
}

// GrantEnrollment enrolls a user without payment (support refunds, scholarships,
// comps). Goes through the same reconciler as paid enrollments, so repeating
// the call is harmless.
func (h *AdminCourseHandler) GrantEnrollment(c *gin.Context) {
	var req struct {
		UserID   uint `json:"user_id" binding:"required"`
		CourseID uint `json:"course_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := h.users.GetByID(req.UserID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if _, err := h.courses.GetByID(req.CourseID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	enrollment, err := h.enrollSvc.Enroll(req.UserID, req.CourseID, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enroll"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"enrollment": enrollment})
}

// ListIntents is the admin reconciliation view over payment intents.
func (h *AdminCourseHandler) ListIntents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	intents, err := h.intents.ListRecent(c.Query("status"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch intents"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"intents": intents})
}
