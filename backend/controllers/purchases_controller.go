package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"academy/backend/config"
	"academy/backend/models"
	"academy/backend/utils"
)

type PurchasesController struct {
	DB  *gorm.DB
	Cfg *config.Config
}

func NewPurchasesController(db *gorm.DB, cfg *config.Config) *PurchasesController {
	return &PurchasesController{DB: db, Cfg: cfg}
}

// PurchaseCourse records a completed purchase for the learner. The checkout
// flow itself (payment provider, webhooks) lives outside this service; this
// endpoint is what its success callback hits.
func (pc *PurchasesController) PurchaseCourse(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var course models.Course
	if err := pc.DB.First(&course, courseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound(c, "Course not found")
		}
		return utils.InternalServerError(c, "Could not query database")
	}

	if course.IsFree {
		return utils.BadRequest(c, "Course is free")
	}

	var existing models.Purchase
	err = pc.DB.Where("user_id = ? AND course_id = ? AND status = ?",
		userID, courseID, models.PurchaseCompleted).First(&existing).Error
	if err == nil {
		return utils.Success(c, fiber.StatusOK, fiber.Map{
			"message":  "Course already purchased",
			"purchase": existing,
		})
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.InternalServerError(c, "Could not query database")
	}

	purchase := models.Purchase{
		UserID:   userID,
		CourseID: uint(courseID),
		Status:   models.PurchaseCompleted,
		Amount:   course.Price,
	}
	if err := pc.DB.Create(&purchase).Error; err != nil {
		return utils.InternalServerError(c, "Could not save purchase")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"message":  "Course purchased",
		"purchase": purchase,
	})
}

// ListAllPurchases returns every purchase on the platform, newest first.
// Admin back office only.
func (pc *PurchasesController) ListAllPurchases(c *fiber.Ctx) error {
	var purchases []models.Purchase
	if err := pc.DB.Order("created_at DESC").Find(&purchases).Error; err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, purchases)
}

func (pc *PurchasesController) GetPurchaseStatus(c *fiber.Ctx) error {
	userID, err := utils.ExtractUserIDFromToken(c, pc.Cfg)
	if err != nil {
		return utils.Unauthorized(c, "Unauthorized")
	}

	courseID, err := strconv.Atoi(c.Params("id"))
	if err != nil {
		return utils.BadRequest(c, "Invalid course ID")
	}

	var purchase models.Purchase
	err = pc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
		Order("created_at DESC").First(&purchase).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.Success(c, fiber.StatusOK, fiber.Map{
			"purchased": false,
		})
	}
	if err != nil {
		return utils.InternalServerError(c, "Could not query database")
	}

	return utils.Success(c, fiber.StatusOK, fiber.Map{
		"purchased": purchase.Status == models.PurchaseCompleted,
		"purchase":  purchase,
	})
}
