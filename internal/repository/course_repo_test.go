package repository

import (
	"testing"

	"learnly/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedCurriculum(t *testing.T, db *gorm.DB) (*models.Course, *models.Section, []models.Lesson) {
	t.Helper()
	_, course := seedUserAndCourse(t, db, 0)
	section := &models.Section{CourseID: course.ID, Title: "Basics", Position: 1}
	require.NoError(t, db.Create(section).Error)
	lessons := []models.Lesson{
		{SectionID: section.ID, CourseID: course.ID, Title: "Intro", Position: 1},
		{SectionID: section.ID, CourseID: course.ID, Title: "Setup", Position: 2},
		{SectionID: section.ID, CourseID: course.ID, Title: "Types", Position: 3},
	}
	for i := range lessons {
		require.NoError(t, db.Create(&lessons[i]).Error)
	}
	return course, section, lessons
}

func TestReorderLessonsApplies(t *testing.T) {
	db := testDB(t)
	repo := NewCourseRepository(db)
	_, section, lessons := seedCurriculum(t, db)

	err := repo.ReorderLessons(section.ID, []ReorderItem{
		{ID: lessons[0].ID, Position: 3},
		{ID: lessons[1].ID, Position: 1},
		{ID: lessons[2].ID, Position: 2},
	})
	require.NoError(t, err)

	var ordered []models.Lesson
	require.NoError(t, db.Where("section_id = ?", section.ID).Order("position asc").Find(&ordered).Error)
	require.Len(t, ordered, 3)
	assert.Equal(t, "Setup", ordered[0].Title)
	assert.Equal(t, "Types", ordered[1].Title)
	assert.Equal(t, "Intro", ordered[2].Title)
}

func TestReorderLessonsRejectsForeignLessonAtomically(t *testing.T) {
	db := testDB(t)
	repo := NewCourseRepository(db)
	course, section, lessons := seedCurriculum(t, db)

	other := &models.Section{CourseID: course.ID, Title: "Advanced", Position: 2}
	require.NoError(t, db.Create(other).Error)
	foreign := &models.Lesson{SectionID: other.ID, CourseID: course.ID, Title: "Channels", Position: 1}
	require.NoError(t, db.Create(foreign).Error)

	err := repo.ReorderLessons(section.ID, []ReorderItem{
		{ID: lessons[0].ID, Position: 2},
		{ID: foreign.ID, Position: 1}, // belongs to another section
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	// The whole batch must roll back, including the first valid update.
	var intro models.Lesson
	require.NoError(t, db.First(&intro, lessons[0].ID).Error)
	assert.Equal(t, 1, intro.Position)
}

func TestReorderSectionsRejectsUnknownID(t *testing.T) {
	db := testDB(t)
	repo := NewCourseRepository(db)
	course, section, _ := seedCurriculum(t, db)

	err := repo.ReorderSections(course.ID, []ReorderItem{
		{ID: section.ID, Position: 2},
		{ID: 9999, Position: 1},
	})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var got models.Section
	require.NoError(t, db.First(&got, section.ID).Error)
	assert.Equal(t, 1, got.Position)
}

func TestListPublishedFiltersDrafts(t *testing.T) {
	db := testDB(t)
	repo := NewCourseRepository(db)
	_, course := seedUserAndCourse(t, db, 1999)

	draft := &models.Course{
		Slug: "unfinished", Title: "Unfinished", Currency: "USD",
		Status: "DRAFT", InstructorID: course.InstructorID,
	}
	require.NoError(t, db.Create(draft).Error)

	courses, total, err := repo.ListPublished(CourseFilter{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, courses, 1)
	assert.Equal(t, course.ID, courses[0].ID)
}
