package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"academy/backend/config"
	"academy/backend/models"
	"academy/backend/routes"
	"academy/backend/utils"
)

var (
	app *fiber.App
	db  *gorm.DB
	cfg *config.Config
)

func TestMain(m *testing.M) {
	cfg = &config.Config{
		JWTSecret:  "testsecret",
		ServerPort: "8080",
	}

	var err error
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		panic(err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := utils.MigrateDB(db); err != nil {
		panic(err)
	}

	app = fiber.New()
	routes.SetupRoutes(app, db, cfg)

	os.Exit(m.Run())
}

func doJSON(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	var result map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&result)
	return resp.StatusCode, result
}

var userSeq int

func registerUser(t *testing.T) string {
	t.Helper()
	userSeq++

	status, result := doJSON(t, "POST", "/api/auth/register", "", map[string]string{
		"username": fmt.Sprintf("user%d", userSeq),
		"email":    fmt.Sprintf("user%d@example.com", userSeq),
		"password": "password",
	})
	require.Equal(t, fiber.StatusOK, status)
	require.NotEmpty(t, result["token"])
	return result["token"].(string)
}

func id(result map[string]interface{}, key string) uint {
	return uint(result[key].(map[string]interface{})["ID"].(float64))
}

// createPublishedCourse seeds a paid course with three published chapters and
// returns the instructor token, course ID and chapter IDs.
func createPublishedCourse(t *testing.T) (string, uint, []uint) {
	t.Helper()

	instructor := registerUser(t)
	status, result := doJSON(t, "POST", "/api/courses", instructor, map[string]interface{}{
		"Title":       "Test course",
		"Price":       49.0,
		"IsPublished": true,
	})
	require.Equal(t, fiber.StatusOK, status)
	courseID := id(result, "course")

	var chapterIDs []uint
	for i, title := range []string{"One", "Two", "Three"} {
		status, result := doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/chapters", courseID), instructor, map[string]interface{}{
			"title":        title,
			"video_url":    "v.mp4",
			"is_published": true,
			"is_preview":   i == 0,
		})
		require.Equal(t, fiber.StatusOK, status)
		chapterIDs = append(chapterIDs, id(result, "chapter"))
	}

	return instructor, courseID, chapterIDs
}

func purchase(t *testing.T, token string, courseID uint) {
	t.Helper()
	status, _ := doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/purchase", courseID), token, nil)
	require.Equal(t, fiber.StatusOK, status)
}

func completeChapter(t *testing.T, token string, courseID, chapterID uint) {
	t.Helper()
	status, _ := doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/chapters/%d/complete", courseID, chapterID), token, nil)
	require.Equal(t, fiber.StatusOK, status)
}

func sidebarChapters(t *testing.T, token string, courseID uint) []map[string]interface{} {
	t.Helper()
	status, result := doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/sidebar", courseID), token, nil)
	require.Equal(t, fiber.StatusOK, status)

	raw := result["chapters"].([]interface{})
	chapters := make([]map[string]interface{}, len(raw))
	for i, entry := range raw {
		chapters[i] = entry.(map[string]interface{})
	}
	return chapters
}

func TestSidebarAnonymous(t *testing.T) {
	_, courseID, _ := createPublishedCourse(t)

	chapters := sidebarChapters(t, "", courseID)
	require.Len(t, chapters, 3)

	// Preview chapter stays open, the rest lock with the purchase reason.
	assert.True(t, chapters[0]["accessible"].(bool))
	assert.False(t, chapters[1]["accessible"].(bool))
	assert.Equal(t, "Course not purchased", chapters[1]["reason"])
	assert.False(t, chapters[2]["accessible"].(bool))
}

func TestSidebarSequentialUnlock(t *testing.T) {
	_, courseID, chapterIDs := createPublishedCourse(t)
	learner := registerUser(t)
	purchase(t, learner, courseID)

	chapters := sidebarChapters(t, learner, courseID)
	assert.True(t, chapters[0]["accessible"].(bool))
	assert.False(t, chapters[1]["accessible"].(bool))
	assert.Equal(t, "Previous chapter not completed", chapters[1]["reason"])

	completeChapter(t, learner, courseID, chapterIDs[0])

	chapters = sidebarChapters(t, learner, courseID)
	assert.True(t, chapters[1]["accessible"].(bool))
	assert.False(t, chapters[2]["accessible"].(bool))

	// 1 of 3 chapters done.
	status, result := doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/sidebar", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	progress := result["progress"].(map[string]interface{})
	assert.Equal(t, float64(33), progress["percent"])
}

func TestSidebarInstructorBypass(t *testing.T) {
	instructor, courseID, _ := createPublishedCourse(t)

	for _, ch := range sidebarChapters(t, instructor, courseID) {
		assert.True(t, ch["accessible"].(bool))
	}
}

func TestChapterPageLocked(t *testing.T) {
	_, courseID, chapterIDs := createPublishedCourse(t)
	learner := registerUser(t)
	purchase(t, learner, courseID)

	status, result := doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/chapters/%d", courseID, chapterIDs[2]), learner, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "Previous chapter not completed", result["reason"])

	status, _ = doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/chapters/%d", courseID, chapterIDs[0]), learner, nil)
	assert.Equal(t, fiber.StatusOK, status)
}

func TestLockedChapterCannotBeCompleted(t *testing.T) {
	_, courseID, chapterIDs := createPublishedCourse(t)
	learner := registerUser(t)
	purchase(t, learner, courseID)

	status, _ := doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/chapters/%d/complete", courseID, chapterIDs[1]), learner, nil)
	assert.Equal(t, fiber.StatusForbidden, status)
}

func TestOverviewAgreesWithSidebar(t *testing.T) {
	_, courseID, chapterIDs := createPublishedCourse(t)
	learner := registerUser(t)
	purchase(t, learner, courseID)
	completeChapter(t, learner, courseID, chapterIDs[0])

	status, overview := doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/overview", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)

	sidebar := sidebarChapters(t, learner, courseID)
	overviewChapters := overview["chapters"].([]interface{})
	require.Len(t, overviewChapters, len(sidebar))

	for i, entry := range overviewChapters {
		ch := entry.(map[string]interface{})
		assert.Equal(t, sidebar[i]["accessible"], ch["accessible"], "chapter %d", i)
		assert.Equal(t, sidebar[i]["reason"], ch["reason"], "chapter %d", i)
	}
}

func TestQuizAttemptCompletesQuiz(t *testing.T) {
	instructor, courseID, chapterIDs := createPublishedCourse(t)

	status, result := doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/chapters/%d/quizzes", courseID, chapterIDs[0]), instructor, map[string]interface{}{
		"title":        "Quiz",
		"is_published": true,
	})
	require.Equal(t, fiber.StatusOK, status)
	quizID := id(result, "quiz")

	status, _ = doJSON(t, "POST", fmt.Sprintf("/api/quizzes/%d/questions", quizID), instructor, map[string]interface{}{
		"question":       "2+2?",
		"options":        `["3","4"]`,
		"correct_answer": 1,
	})
	require.Equal(t, fiber.StatusOK, status)

	learner := registerUser(t)
	purchase(t, learner, courseID)

	// Wrong answer still counts as attendance.
	status, result = doJSON(t, "POST", fmt.Sprintf("/api/quizzes/%d/attempts", quizID), learner, map[string]interface{}{
		"answers": []int{0},
	})
	require.Equal(t, fiber.StatusOK, status)
	attempt := result["attempt"].(map[string]interface{})
	assert.Equal(t, float64(0), attempt["Score"])

	chapters := sidebarChapters(t, learner, courseID)
	// Chapter 1 has video + quiz; quiz attended -> 50%.
	assert.Equal(t, float64(50), chapters[0]["percent"])
}

func TestCertificateFlow(t *testing.T) {
	instructor, courseID, chapterIDs := createPublishedCourse(t)

	status, _ := doJSON(t, "PUT", fmt.Sprintf("/api/courses/%d/certificate-template", courseID), instructor, map[string]interface{}{
		"min_percentage":       70.0,
		"require_all_chapters": true,
	})
	require.Equal(t, fiber.StatusOK, status)

	status, _ = doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/final-exam", courseID), instructor, map[string]interface{}{
		"title":         "Final",
		"passing_score": 60.0,
		"is_published":  true,
	})
	require.Equal(t, fiber.StatusOK, status)

	var exam models.FinalExam
	require.NoError(t, db.Where("course_id = ?", courseID).First(&exam).Error)
	require.NoError(t, db.Create(&models.FinalExamQuestion{
		FinalExamID:   exam.ID,
		Question:      "2+2?",
		Options:       `["3","4"]`,
		CorrectAnswer: 1,
		SequenceOrder: 1,
	}).Error)

	learner := registerUser(t)
	purchase(t, learner, courseID)
	for _, chapterID := range chapterIDs {
		completeChapter(t, learner, courseID, chapterID)
	}

	// All chapters done, exam not passed yet.
	status, result := doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, result["eligible"].(bool))

	status, _ = doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	// Fail the exam: still ineligible.
	status, _ = doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/final-exam/attempts", courseID), learner, map[string]interface{}{
		"answers": []int{0},
	})
	require.Equal(t, fiber.StatusOK, status)
	_, result = doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	assert.False(t, result["eligible"].(bool))

	// Pass it: eligible, certificate can be issued exactly once.
	status, result = doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/final-exam/attempts", courseID), learner, map[string]interface{}{
		"answers": []int{1},
	})
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, result["attempt"].(map[string]interface{})["Passed"].(bool))

	_, result = doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	assert.True(t, result["eligible"].(bool))

	status, result = doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Certificate issued", result["message"])

	status, result = doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "Certificate already issued", result["message"])

	var count int64
	db.Model(&models.Certificate{}).Where("course_id = ?", courseID).Count(&count)
	assert.Equal(t, int64(1), count)

	// Issued certificates survive tightened requirements.
	status, _ = doJSON(t, "PUT", fmt.Sprintf("/api/courses/%d/certificate-template", courseID), instructor, map[string]interface{}{
		"min_percentage":          100.0,
		"require_all_chapters":    true,
		"require_all_assignments": true,
	})
	require.Equal(t, fiber.StatusOK, status)

	_, result = doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	assert.True(t, result["issued"].(bool))
	assert.True(t, result["can_view"].(bool))
}

func TestIssueCertificateRequiresEntitlement(t *testing.T) {
	instructor := registerUser(t)
	status, result := doJSON(t, "POST", "/api/courses", instructor, map[string]interface{}{
		"Title":       "Paid course with previews",
		"Price":       49.0,
		"IsPublished": true,
	})
	require.Equal(t, fiber.StatusOK, status)
	courseID := id(result, "course")

	var chapterIDs []uint
	for _, title := range []string{"One", "Two"} {
		status, result := doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/chapters", courseID), instructor, map[string]interface{}{
			"title":        title,
			"video_url":    "v.mp4",
			"is_published": true,
			"is_preview":   true,
		})
		require.Equal(t, fiber.StatusOK, status)
		chapterIDs = append(chapterIDs, id(result, "chapter"))
	}

	status, _ = doJSON(t, "PUT", fmt.Sprintf("/api/courses/%d/certificate-template", courseID), instructor, map[string]interface{}{
		"min_percentage":       70.0,
		"require_all_chapters": true,
	})
	require.Equal(t, fiber.StatusOK, status)

	// Every chapter is a preview, so a learner who never bought the course
	// can complete them all and reach 100%.
	learner := registerUser(t)
	for _, chapterID := range chapterIDs {
		completeChapter(t, learner, courseID, chapterID)
	}

	status, result = doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.False(t, result["can_view"].(bool))

	// Issuance agrees with the certificate view: no purchase, no certificate.
	status, _ = doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/certificate", courseID), learner, nil)
	assert.Equal(t, fiber.StatusForbidden, status)

	var count int64
	db.Model(&models.Certificate{}).Where("course_id = ?", courseID).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestGetProfileRequiresToken(t *testing.T) {
	token := registerUser(t)

	status, _ := doJSON(t, "GET", "/api/user/profile", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, result := doJSON(t, "GET", "/api/user/profile", token, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, result["username"])
}

func TestPurchaseStatusEnvelope(t *testing.T) {
	_, courseID, _ := createPublishedCourse(t)
	learner := registerUser(t)

	status, result := doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/purchase", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	assert.True(t, result["success"].(bool))
	assert.False(t, result["data"].(map[string]interface{})["purchased"].(bool))

	purchase(t, learner, courseID)

	status, result = doJSON(t, "GET", fmt.Sprintf("/api/courses/%d/purchase", courseID), learner, nil)
	require.Equal(t, fiber.StatusOK, status)
	data := result["data"].(map[string]interface{})
	assert.True(t, data["purchased"].(bool))
	assert.NotNil(t, data["purchase"])
}

func TestFreeCourseStillSequential(t *testing.T) {
	instructor := registerUser(t)
	status, result := doJSON(t, "POST", "/api/courses", instructor, map[string]interface{}{
		"Title":       "Free course",
		"IsFree":      true,
		"IsPublished": true,
	})
	require.Equal(t, fiber.StatusOK, status)
	courseID := id(result, "course")

	for _, title := range []string{"One", "Two"} {
		status, _ := doJSON(t, "POST", fmt.Sprintf("/api/courses/%d/chapters", courseID), instructor, map[string]interface{}{
			"title":        title,
			"video_url":    "v.mp4",
			"is_published": true,
		})
		require.Equal(t, fiber.StatusOK, status)
	}

	// No purchase needed, but the gates still apply.
	learner := registerUser(t)
	chapters := sidebarChapters(t, learner, courseID)
	assert.True(t, chapters[0]["accessible"].(bool))
	assert.False(t, chapters[1]["accessible"].(bool))
	assert.Equal(t, "Previous chapter not completed", chapters[1]["reason"])
}
