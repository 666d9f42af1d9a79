package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy/backend/config"
	"academy/backend/models"
	"academy/backend/utils"
)

type AssignmentsController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewAssignmentsController(db *gorm.DB, cfg *config.Config) *AssignmentsController {
	return &AssignmentsController{DB: db, Cfg: cfg}
}

func (ac *AssignmentsController) AddAssignment(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	var input struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		ChapterID   *uint  `json:"chapter_id"`
		DueDate     string `json:"due_date"`
		IsPublished bool   `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var course models.Course
	if err := ac.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if course.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to add assignments to this course",
		})
	}

	assignment := models.Assignment{
		CourseID:    uint(courseID),
		ChapterID:   input.ChapterID,
		Title:       input.Title,
		Description: input.Description,
		IsPublished: input.IsPublished,
	}
	if input.DueDate != "" {
		if due, err := time.Parse(time.RFC3339, input.DueDate); err == nil {
			assignment.DueDate = due
		}
	}

	if err := ac.DB.Create(&assignment).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create assignment",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Assignment added",
		"assignment": assignment,
	})
}

// SubmitAssignment records a submission. Submissions surface in the chapter
// view but never move the progress percentage.
func (ac *AssignmentsController) SubmitAssignment(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	assignmentID, err := strconv.Atoi(c.Params("assignmentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid assignment ID",
		})
	}

	var input struct {
		Content string `json:"content"`
		FileURL string `json:"file_url"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var assignment models.Assignment
	if err := ac.DB.First(&assignment, assignmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Assignment not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	submission := models.Submission{
		UserID:       userID,
		AssignmentID: uint(assignmentID),
		Status:       models.SubmissionSubmitted,
		Content:      input.Content,
		FileURL:      input.FileURL,
	}
	if err := ac.DB.Create(&submission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save submission",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Assignment submitted",
		"submission": submission,
	})
}

func (ac *AssignmentsController) GradeSubmission(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, ac.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	submissionID, err := strconv.Atoi(c.Params("submissionId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid submission ID",
		})
	}

	var input struct {
		Grade    float64 `json:"grade"`
		Feedback string  `json:"feedback"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var submission models.Submission
	if err := ac.DB.First(&submission, submissionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Submission not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	var assignment models.Assignment
	var course models.Course
	if err := ac.DB.First(&assignment, submission.AssignmentID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if err := ac.DB.First(&course, assignment.CourseID).Error; err != nil || course.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to grade this submission",
		})
	}

	submission.Status = models.SubmissionGraded
	submission.Grade = input.Grade
	submission.Feedback = input.Feedback
	if err := ac.DB.Save(&submission).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save grade",
		})
	}

	return c.JSON(fiber.Map{
		"message":    "Submission graded",
		"submission": submission,
	})
}
