package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"academy/backend/models"
	"academy/backend/utils"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // keep the in-memory database on one connection

	require.NoError(t, utils.MigrateDB(db))
	return db
}

func seedCourse(t *testing.T, db *gorm.DB) models.Course {
	t.Helper()

	course := models.Course{
		Title:       "Go from scratch",
		OwnerID:     1,
		IsPublished: true,
		Price:       49,
	}
	require.NoError(t, db.Create(&course).Error)

	chapters := []models.Chapter{
		{CourseID: course.ID, Title: "Basics", Position: 1, IsPublished: true, VideoURL: "v1"},
		{CourseID: course.ID, Title: "Structs", Position: 2, IsPublished: true, VideoURL: "v2"},
		{CourseID: course.ID, Title: "Draft", Position: 3, IsPublished: false},
	}
	require.NoError(t, db.Create(&chapters).Error)

	quiz := models.Quiz{ChapterID: chapters[1].ID, Title: "Structs quiz", Position: 1, IsPublished: true}
	require.NoError(t, db.Create(&quiz).Error)

	assignment := models.Assignment{CourseID: course.ID, Title: "Build a CLI", IsPublished: true}
	require.NoError(t, db.Create(&assignment).Error)

	return course
}

func TestLoadCourseSnapshot(t *testing.T) {
	db := setupDB(t)
	course := seedCourse(t, db)
	s := New(db)

	var chapters []models.Chapter
	require.NoError(t, db.Where("course_id = ? AND is_published = ?", course.ID, true).
		Order("position ASC").Find(&chapters).Error)
	var quiz models.Quiz
	require.NoError(t, db.Where("chapter_id = ?", chapters[1].ID).First(&quiz).Error)
	var assignment models.Assignment
	require.NoError(t, db.Where("course_id = ?", course.ID).First(&assignment).Error)

	learnerID := uint(7)
	require.NoError(t, db.Create(&models.Purchase{
		UserID: learnerID, CourseID: course.ID, Status: models.PurchaseCompleted,
	}).Error)
	require.NoError(t, db.Create(&models.UserProgress{
		UserID: learnerID, ChapterID: chapters[0].ID, IsCompleted: true,
	}).Error)
	require.NoError(t, db.Create(&models.QuizAttempt{
		UserID: learnerID, QuizID: quiz.ID, Score: 50,
	}).Error)
	require.NoError(t, db.Create(&models.Submission{
		UserID: learnerID, AssignmentID: assignment.ID, Status: models.SubmissionSubmitted,
	}).Error)

	snap, err := s.LoadCourseSnapshot(learnerID, course.ID)
	require.NoError(t, err)

	// Only published chapters, in position order.
	require.Len(t, snap.Course.Chapters, 2)
	assert.Equal(t, "Basics", snap.Course.Chapters[0].Title)
	assert.Equal(t, "Structs", snap.Course.Chapters[1].Title)

	assert.NotNil(t, snap.Purchase)
	assert.True(t, snap.Records.CompletedChapters[chapters[0].ID])
	assert.Equal(t, 1, snap.Records.QuizAttempts[quiz.ID])
	assert.Equal(t, models.SubmissionSubmitted, snap.Records.Submissions[assignment.ID])

	eval := snap.Evaluate()
	assert.True(t, eval.Entitlement.Entitled)
	assert.True(t, eval.Access[0].Accessible)
	assert.True(t, eval.Access[1].Accessible)
	assert.Equal(t, 50, eval.Summary.Simple.Percent)
}

func TestLoadCourseSnapshotLatestSubmissionWins(t *testing.T) {
	db := setupDB(t)
	course := seedCourse(t, db)
	s := New(db)

	var assignment models.Assignment
	require.NoError(t, db.Where("course_id = ?", course.ID).First(&assignment).Error)

	learnerID := uint(7)
	require.NoError(t, db.Create(&models.Submission{
		UserID: learnerID, AssignmentID: assignment.ID, Status: models.SubmissionSubmitted,
	}).Error)
	require.NoError(t, db.Create(&models.Submission{
		UserID: learnerID, AssignmentID: assignment.ID, Status: models.SubmissionGraded,
	}).Error)

	snap, err := s.LoadCourseSnapshot(learnerID, course.ID)
	require.NoError(t, err)
	assert.Equal(t, models.SubmissionGraded, snap.Records.Submissions[assignment.ID])
}

func TestLoadCourseSnapshotAnonymous(t *testing.T) {
	db := setupDB(t)
	course := seedCourse(t, db)
	s := New(db)

	snap, err := s.LoadCourseSnapshot(0, course.ID)
	require.NoError(t, err)
	assert.Nil(t, snap.Purchase)
	assert.Empty(t, snap.Records.CompletedChapters)

	eval := snap.Evaluate()
	assert.False(t, eval.Entitlement.Entitled)
	for _, access := range eval.Access {
		assert.False(t, access.Accessible)
	}
}

func TestLoadCourseSnapshotMissingCourse(t *testing.T) {
	db := setupDB(t)
	s := New(db)

	_, err := s.LoadCourseSnapshot(7, 999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
