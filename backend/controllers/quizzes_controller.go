package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy/backend/config"
	"academy/backend/models"
	"academy/backend/store"
	"academy/backend/utils"
)

type QuizzesController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store *store.Store
}

func NewQuizzesController(db *gorm.DB, cfg *config.Config) *QuizzesController {
	return &QuizzesController{DB: db, Cfg: cfg, Store: store.New(db)}
}

func (qc *QuizzesController) AddQuiz(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	chapterID, err := strconv.Atoi(c.Params("chapterId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chapter ID",
		})
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		IsPublished bool   `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var chapter models.Chapter
	if err := qc.DB.First(&chapter, chapterID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Chapter not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var course models.Course
	if err := qc.DB.First(&course, chapter.CourseID).Error; err != nil || course.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to add quizzes to this chapter",
		})
	}

	var count int64
	qc.DB.Model(&models.Quiz{}).Where("chapter_id = ?", chapterID).Count(&count)

	quiz := models.Quiz{
		ChapterID:   uint(chapterID),
		Title:       input.Title,
		Description: input.Description,
		IsPublished: input.IsPublished,
		Position:    int(count) + 1,
	}
	if err := qc.DB.Create(&quiz).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create quiz",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Quiz added",
		"quiz":    quiz,
	})
}

func (qc *QuizzesController) AddQuizQuestion(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("quizId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var input struct {
		Question      string `json:"question"`
		Options       string `json:"options"` // JSON array
		CorrectAnswer int    `json:"correct_answer"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var quiz models.Quiz
	if err := qc.DB.First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var chapter models.Chapter
	var course models.Course
	if err := qc.DB.First(&chapter, quiz.ChapterID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if err := qc.DB.First(&course, chapter.CourseID).Error; err != nil || course.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to edit this quiz",
		})
	}

	var count int64
	qc.DB.Model(&models.QuizQuestion{}).Where("quiz_id = ?", quizID).Count(&count)

	question := models.QuizQuestion{
		QuizID:        uint(quizID),
		Question:      input.Question,
		Options:       input.Options,
		CorrectAnswer: input.CorrectAnswer,
		SequenceOrder: int(count) + 1,
	}
	if err := qc.DB.Create(&question).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create question",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Question added",
		"question": question,
	})
}

// SubmitQuizAttempt grades the learner's answers and records the attempt.
// Attendance is what completes a quiz for progression: one recorded attempt,
// whatever the score.
func (qc *QuizzesController) SubmitQuizAttempt(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, qc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	quizID, err := strconv.Atoi(c.Params("quizId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid quiz ID",
		})
	}

	var input struct {
		Answers []int `json:"answers"` // selected option index per question, in sequence order
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var quiz models.Quiz
	if err := qc.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).First(&quiz, quizID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Quiz not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var chapter models.Chapter
	if err := qc.DB.First(&chapter, quiz.ChapterID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	// The quiz's chapter must be unlocked for this learner.
	snap, err := qc.Store.LoadCourseSnapshot(userID, chapter.CourseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	eval := snap.Evaluate()
	if access, ok := eval.AccessFor(chapter.ID); !ok || !access.Accessible {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Chapter locked",
		})
	}

	correct := 0
	for i, q := range quiz.Questions {
		if i < len(input.Answers) && input.Answers[i] == q.CorrectAnswer {
			correct++
		}
	}

	score := 0.0
	if len(quiz.Questions) > 0 {
		score = 100 * float64(correct) / float64(len(quiz.Questions))
	}

	attempt := models.QuizAttempt{
		UserID:         userID,
		QuizID:         uint(quizID),
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(quiz.Questions),
	}
	if err := qc.DB.Create(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save attempt",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Attempt recorded",
		"attempt": attempt,
	})
}
