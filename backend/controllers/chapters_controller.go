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

type ChaptersController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store *store.Store
}

func NewChaptersController(db *gorm.DB, cfg *config.Config) *ChaptersController {
	return &ChaptersController{DB: db, Cfg: cfg, Store: store.New(db)}
}

// GetChapter godoc
// @Summary Chapter page
// @Description Returns one chapter with its accessibility; locked chapters answer 403 with the lock reason
// @Tags chapters
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /courses/{id}/chapters/{chapterId} [get]
func (hc *ChaptersController) GetChapter(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}
	chapterID, err := strconv.Atoi(c.Params("chapterId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chapter ID",
		})
	}

	userID := utils.OptionalUserID(c, hc.Cfg)

	snap, err := hc.Store.LoadCourseSnapshot(userID, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	eval := snap.Evaluate()
	access, ok := eval.AccessFor(uint(chapterID))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Chapter not found",
		})
	}

	if !access.Accessible {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":  "Chapter locked",
			"reason": access.Reason,
		})
	}

	var chapter *models.Chapter
	for i := range snap.Course.Chapters {
		if snap.Course.Chapters[i].ID == uint(chapterID) {
			chapter = &snap.Course.Chapters[i]
			break
		}
	}

	return c.JSON(fiber.Map{
		"chapter": fiber.Map{
			"id":          chapter.ID,
			"title":       chapter.Title,
			"description": chapter.Description,
			"position":    chapter.Position,
			"is_preview":  chapter.IsPreview,
			"video_url":   chapter.VideoURL,
			"videos":      chapter.Videos,
		},
		"completion": eval.Completions[chapter.ID],
		"access":     access,
	})
}

// MarkChapterComplete records the learner's explicit completion of a chapter,
// normally fired when the player finishes the primary video. It is also the
// way through a chapter with no video or quizzes: such a chapter blocks its
// successors until completed here.
func (hc *ChaptersController) MarkChapterComplete(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, hc.Cfg)
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
	chapterID, err := strconv.Atoi(c.Params("chapterId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid chapter ID",
		})
	}

	snap, err := hc.Store.LoadCourseSnapshot(userID, uint(courseID))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Course not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	eval := snap.Evaluate()
	access, ok := eval.AccessFor(uint(chapterID))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Chapter not found",
		})
	}
	if !access.Accessible {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":  "Chapter locked",
			"reason": access.Reason,
		})
	}

	var progress models.UserProgress
	err = hc.DB.Where("user_id = ? AND chapter_id = ?", userID, chapterID).First(&progress).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		progress = models.UserProgress{
			UserID:      userID,
			ChapterID:   uint(chapterID),
			IsCompleted: true,
		}
		err = hc.DB.Create(&progress).Error
	} else if err == nil && !progress.IsCompleted {
		progress.IsCompleted = true
		err = hc.DB.Save(&progress).Error
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save progress",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Chapter completed",
		"progress": progress,
	})
}

func (hc *ChaptersController) AddChapter(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, hc.Cfg)
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
		VideoURL    string `json:"video_url"`
		IsPreview   bool   `json:"is_preview"`
		IsPublished bool   `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var course models.Course
	if err := hc.DB.First(&course, courseID).Error; err != nil {
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
			"error": "You don't have permission to add chapters to this course",
		})
	}

	// Next position after the current tail, unpublished chapters included.
	var maxPosition int
	hc.DB.Model(&models.Chapter{}).Where("course_id = ?", courseID).
		Select("COALESCE(MAX(position), 0)").Scan(&maxPosition)

	chapter := models.Chapter{
		CourseID:    uint(courseID),
		Title:       input.Title,
		Description: input.Description,
		VideoURL:    input.VideoURL,
		IsPreview:   input.IsPreview,
		IsPublished: input.IsPublished,
		Position:    maxPosition + 1,
	}
	if err := hc.DB.Create(&chapter).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create chapter",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Chapter added",
		"chapter": chapter,
	})
}

func (hc *ChaptersController) AddChapterVideo(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, hc.Cfg)
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
		Title    string `json:"title"`
		URL      string `json:"url"`
		Duration int    `json:"duration"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var chapter models.Chapter
	if err := hc.DB.First(&chapter, chapterID).Error; err != nil {
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
	if err := hc.DB.First(&course, chapter.CourseID).Error; err != nil || course.OwnerID != userID {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "You don't have permission to edit this chapter",
		})
	}

	var count int64
	hc.DB.Model(&models.ChapterVideo{}).Where("chapter_id = ?", chapterID).Count(&count)

	video := models.ChapterVideo{
		ChapterID: uint(chapterID),
		Title:     input.Title,
		URL:       input.URL,
		Duration:  input.Duration,
		Position:  int(count) + 1,
	}
	if err := hc.DB.Create(&video).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create video",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Video added",
		"video":   video,
	})
}
