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

type CoursesController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store *store.Store
}

func NewCoursesController(db *gorm.DB, cfg *config.Config) *CoursesController {
	return &CoursesController{DB: db, Cfg: cfg, Store: store.New(db)}
}

func (cc *CoursesController) GetAvailableCourses(c *fiber.Ctx) error {
	search := c.Query("search")

	query := cc.DB.Model(&models.Course{}).Where("is_published = ?", true)
	if search != "" {
		query = query.Where("title ILIKE ? OR short_desc ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var courses []models.Course
	if err := query.Order("created_at DESC").Find(&courses).Error; err != nil {
		return utils.InternalServerError(c, "Failed to fetch courses")
	}

	var result []fiber.Map
	for _, course := range courses {
		result = append(result, fiber.Map{
			"id":         course.ID,
			"title":      course.Title,
			"short_desc": course.ShortDesc,
			"is_free":    course.IsFree,
			"price":      course.Price,
			"logo_url":   course.LogoURL,
		})
	}

	return c.JSON(result)
}

// GetCourseSidebar godoc
// @Summary Course sidebar navigation
// @Description Returns per-chapter accessibility, lock reasons and completion percentages
// @Tags courses
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /courses/{id}/sidebar [get]
func (cc *CoursesController) GetCourseSidebar(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	userID := utils.OptionalUserID(c, cc.Cfg)

	snap, err := cc.Store.LoadCourseSnapshot(userID, uint(courseID))
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

	chapters := make([]fiber.Map, 0, len(eval.Access))
	for _, access := range eval.Access {
		var title string
		var isPreview bool
		for _, ch := range snap.Course.Chapters {
			if ch.ID == access.ChapterID {
				title, isPreview = ch.Title, ch.IsPreview
				break
			}
		}
		completion := eval.Completions[access.ChapterID]
		chapters = append(chapters, fiber.Map{
			"id":         access.ChapterID,
			"title":      title,
			"is_preview": isPreview,
			"accessible": access.Accessible,
			"reason":     access.Reason,
			"percent":    completion.Percent,
			"video_done": completion.VideoDone,
		})
	}

	return c.JSON(fiber.Map{
		"entitlement": eval.Entitlement,
		"chapters":    chapters,
		"progress":    eval.Summary.Simple,
	})
}

// GetCourseOverview godoc
// @Summary Course overview page
// @Description Returns the course with chapter accessibility, both progress bars and the certificate banner
// @Tags courses
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /courses/{id}/overview [get]
func (cc *CoursesController) GetCourseOverview(c *fiber.Ctx) error {
	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid course ID",
		})
	}

	userID := utils.OptionalUserID(c, cc.Cfg)

	snap, err := cc.Store.LoadCourseSnapshot(userID, uint(courseID))
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

	chapters := make([]fiber.Map, 0, len(eval.Access))
	for _, access := range eval.Access {
		completion := eval.Completions[access.ChapterID]
		for _, ch := range snap.Course.Chapters {
			if ch.ID != access.ChapterID {
				continue
			}
			chapters = append(chapters, fiber.Map{
				"id":          ch.ID,
				"title":       ch.Title,
				"description": ch.Description,
				"position":    ch.Position,
				"is_preview":  ch.IsPreview,
				"accessible":  access.Accessible,
				"reason":      access.Reason,
				"completion":  completion,
			})
			break
		}
	}

	return c.JSON(fiber.Map{
		"course": fiber.Map{
			"id":          snap.Course.ID,
			"title":       snap.Course.Title,
			"short_desc":  snap.Course.ShortDesc,
			"description": snap.Course.Description,
			"is_free":     snap.Course.IsFree,
			"price":       snap.Course.Price,
			"logo_url":    snap.Course.LogoURL,
			"owner_id":    snap.Course.OwnerID,
		},
		"entitlement": eval.Entitlement,
		"chapters":    chapters,
		"progress": fiber.Map{
			"simple":   eval.Summary.Simple,
			"enhanced": eval.Summary.Enhanced,
		},
		"certificate": fiber.Map{
			"program_exists": snap.Template != nil,
			"eligible":       eval.CertificateEligible,
			"issued":         eval.HasCertificate,
			"can_view":       eval.CanViewCertificate,
		},
	})
}

func (cc *CoursesController) CreateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Unauthorized",
		})
	}

	var course models.Course
	if err := c.BodyParser(&course); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	course.OwnerID = userID
	if err := cc.DB.Create(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create course",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Course created",
		"course":  course,
	})
}

func (cc *CoursesController) UpdateCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, cc.Cfg)
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
		Title       string   `json:"title"`
		ShortDesc   string   `json:"short_desc"`
		Description string   `json:"description"`
		LogoURL     string   `json:"logo_url"`
		Price       *float64 `json:"price"`
		IsFree      *bool    `json:"is_free"`
		IsPublished *bool    `json:"is_published"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var course models.Course
	if err := cc.DB.First(&course, courseID).Error; err != nil {
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
			"error": "You don't have permission to edit this course",
		})
	}

	if input.Title != "" {
		course.Title = input.Title
	}
	if input.ShortDesc != "" {
		course.ShortDesc = input.ShortDesc
	}
	if input.Description != "" {
		course.Description = input.Description
	}
	if input.LogoURL != "" {
		course.LogoURL = input.LogoURL
	}
	if input.Price != nil {
		course.Price = *input.Price
	}
	if input.IsFree != nil {
		course.IsFree = *input.IsFree
	}
	if input.IsPublished != nil {
		course.IsPublished = *input.IsPublished
	}

	if err := cc.DB.Save(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not update course",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Course updated",
		"course":  course,
	})
}
