package handler

import (
	"net/http"
	"strconv"

	"learnly/internal/repository"

	"github.com/gin-gonic/gin"
)

type CourseHandler struct {
	courseRepo *repository.CourseRepository
	categories *repository.CategoryRepository
	enrollRepo *repository.EnrollmentRepository
}

func NewCourseHandler(
	courseRepo *repository.CourseRepository,
	categories *repository.CategoryRepository,
	enrollRepo *repository.EnrollmentRepository,
) *CourseHandler {
	return &CourseHandler{courseRepo: courseRepo, categories: categories, enrollRepo: enrollRepo}
}

// List returns the published catalog with optional category/search filters.
func (h *CourseHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	categoryID, _ := strconv.ParseUint(c.Query("category_id"), 10, 32)
	courses, total, err := h.courseRepo.ListPublished(repository.CourseFilter{
		CategoryID: uint(categoryID),
		Search:     c.Query("q"),
		Page:       page,
		Limit:      limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch courses"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"courses": courses,
		"pagination": gin.H{"total": total, "page": page, "limit": limit},
	})
}

// Get returns a course with its curriculum. Courses are looked up by slug.
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.courseRepo.GetBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "course not found"})
		return
	}
	full, err := h.courseRepo.GetWithCurriculum(course.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch course"})
		return
	}
	students, _ := h.enrollRepo.CountByCourse(course.ID)
	c.JSON(http.StatusOK, gin.H{"course": full, "students": students})
}

func (h *CourseHandler) ListCategories(c *gin.Context) {
	cats, err := h.categories.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}
