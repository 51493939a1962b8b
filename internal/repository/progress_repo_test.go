package repository

import (
	"testing"

	"learnly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressSaveUpserts(t *testing.T) {
	db := testDB(t)
	repo := NewProgressRepository(db)
	user, course := seedUserAndCourse(t, db, 0)
	section := &models.Section{CourseID: course.ID, Title: "S", Position: 1}
	require.NoError(t, db.Create(section).Error)
	lesson := &models.Lesson{SectionID: section.ID, CourseID: course.ID, Title: "L", Position: 1}
	require.NoError(t, db.Create(lesson).Error)

	require.NoError(t, repo.Save(&models.LessonProgress{
		UserID: user.ID, LessonID: lesson.ID, CourseID: course.ID, PositionSeconds: 30,
	}))
	require.NoError(t, repo.Save(&models.LessonProgress{
		UserID: user.ID, LessonID: lesson.ID, CourseID: course.ID, PositionSeconds: 95,
	}))

	var n int64
	require.NoError(t, db.Model(&models.LessonProgress{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	got, err := repo.Get(user.ID, lesson.ID)
	require.NoError(t, err)
	assert.Equal(t, 95, got.PositionSeconds)
}

func TestProgressCompletedIsSticky(t *testing.T) {
	db := testDB(t)
	repo := NewProgressRepository(db)
	user, course := seedUserAndCourse(t, db, 0)
	section := &models.Section{CourseID: course.ID, Title: "S", Position: 1}
	require.NoError(t, db.Create(section).Error)
	lesson := &models.Lesson{SectionID: section.ID, CourseID: course.ID, Title: "L", Position: 1}
	require.NoError(t, db.Create(lesson).Error)

	require.NoError(t, repo.Save(&models.LessonProgress{
		UserID: user.ID, LessonID: lesson.ID, CourseID: course.ID,
		PositionSeconds: 300, Completed: true,
	}))

	// Rewatching from the start must not clear completion.
	require.NoError(t, repo.Save(&models.LessonProgress{
		UserID: user.ID, LessonID: lesson.ID, CourseID: course.ID, PositionSeconds: 10,
	}))

	got, err := repo.Get(user.ID, lesson.ID)
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.NotNil(t, got.CompletedAt)
	assert.Equal(t, 10, got.PositionSeconds)

	done, err := repo.CountCompleted(user.ID, course.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, done)
}
