package handler

import (
	"net/http"
	"strconv"

	"learnly/internal/middleware"
	"learnly/internal/models"
	"learnly/internal/repository"
	"learnly/internal/service"

	"github.com/gin-gonic/gin"
)

type ProgressHandler struct {
	progress    *repository.ProgressRepository
	courses     *repository.CourseRepository
	enrollments *repository.EnrollmentRepository
	enrollSvc   *service.EnrollmentService
}

func NewProgressHandler(
	progress *repository.ProgressRepository,
	courses *repository.CourseRepository,
	enrollments *repository.EnrollmentRepository,
	enrollSvc *service.EnrollmentService,
) *ProgressHandler {
	return &ProgressHandler{progress: progress, courses: courses, enrollments: enrollments, enrollSvc: enrollSvc}
}

// Save is the REST autosave endpoint behind the video player. Requires an
// enrollment; completion rolls up into the course progress percentage.
func (h *ProgressHandler) Save(c *gin.Context) {
	userID := middleware.GetUserID(c)
	var req struct {
		LessonID        uint `json:"lesson_id" binding:"required"`
		PositionSeconds int  `json:"position_seconds" binding:"min=0"`
		Completed       bool `json:"completed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	lesson, err := h.courses.GetLesson(req.LessonID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lesson not found"})
		return
	}
	if _, err := h.enrollments.GetByUserCourse(userID, lesson.CourseID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled"})
		return
	}
	p := &models.LessonProgress{
		UserID:          userID,
		LessonID:        req.LessonID,
		CourseID:        lesson.CourseID,
		PositionSeconds: req.PositionSeconds,
		Completed:       req.Completed,
	}
	if err := h.progress.Save(p); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}
	percent := -1
	if req.Completed {
		if pct, err := h.enrollSvc.RecomputeProgress(userID, lesson.CourseID, h.progress); err == nil {
			percent = pct
		}
	}
	resp := gin.H{"saved": true}
	if percent >= 0 {
		resp["course_progress_percent"] = percent
	}
	c.JSON(http.StatusOK, resp)
}

// Course returns all per-lesson progress for one course.
func (h *ProgressHandler) Course(c *gin.Context) {
	userID := middleware.GetUserID(c)
	courseID, err := strconv.ParseUint(c.Param("course_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid course id"})
		return
	}
	enrollment, err := h.enrollments.GetByUserCourse(userID, uint(courseID))
	if err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "not enrolled"})
		return
	}
	rows, err := h.progress.ListByUserCourse(userID, uint(courseID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"progress_percent": enrollment.ProgressPercent,
		"completed_at":     enrollment.CompletedAt,
		"lessons":          rows,
	})
}
