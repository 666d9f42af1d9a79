package controllers

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"academy/backend/config"
	"academy/backend/models"
	"academy/backend/store"
	"academy/backend/utils"
)

type CertificatesController struct {
	DB    *gorm.DB
	Cfg   *config.Config
	Store *store.Store
}

func NewCertificatesController(db *gorm.DB, cfg *config.Config) *CertificatesController {
	return &CertificatesController{DB: db, Cfg: cfg, Store: store.New(db)}
}

// GetCertificateStatus godoc
// @Summary Certificate page state
// @Description Returns eligibility, the issued certificate if any, and the requirement breakdown
// @Tags certificates
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security ApiKeyAuth
// @Router /courses/{id}/certificate [get]
func (cc *CertificatesController) GetCertificateStatus(c *fiber.Ctx) error {
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

	resp := fiber.Map{
		"program_exists": snap.Template != nil,
		"eligible":       eval.CertificateEligible,
		"issued":         eval.HasCertificate,
		"can_view":       eval.CanViewCertificate,
		"progress": fiber.Map{
			"enhanced":                  eval.Summary.Enhanced,
			"all_quizzes_done":          eval.Summary.AllQuizzesDone,
			"all_assignments_submitted": eval.Summary.AllAssignmentsSubmitted,
		},
	}
	if snap.Template != nil {
		resp["requirements"] = fiber.Map{
			"min_percentage":          snap.Template.MinPercentage,
			"require_all_chapters":    snap.Template.RequireAllChapters,
			"require_all_quizzes":     snap.Template.RequireAllQuizzes,
			"require_all_assignments": snap.Template.RequireAllAssignments,
		}
	}
	if snap.Certificate != nil {
		resp["certificate"] = fiber.Map{
			"serial_number": snap.Certificate.SerialNumber,
			"issued_at":     snap.Certificate.IssuedAt,
		}
	}
	if snap.FinalExam != nil && snap.FinalExam.IsPublished {
		exam := fiber.Map{
			"id":            snap.FinalExam.ID,
			"title":         snap.FinalExam.Title,
			"passing_score": snap.FinalExam.PassingScore,
		}
		if snap.LastExamAttempt != nil {
			exam["last_score"] = snap.LastExamAttempt.Score
			exam["passed"] = snap.LastExamAttempt.Passed
		}
		resp["final_exam"] = exam
	}

	return c.JSON(resp)
}

// IssueCertificate creates the certificate record for an eligible learner.
// The insert rides on the (user_id, course_id) unique index: a concurrent
// duplicate simply hits the conflict clause and the existing row is returned,
// so no check-then-act race can mint two certificates.
func (cc *CertificatesController) IssueCertificate(c *fiber.Ctx) error {
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

	// Eligibility alone is not enough: preview chapters can be completed
	// without a purchase, so issuance gates on entitlement the same way the
	// certificate view does.
	if !eval.Entitlement.Entitled {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Course not purchased",
		})
	}

	if snap.Certificate != nil {
		return c.JSON(fiber.Map{
			"message":     "Certificate already issued",
			"certificate": snap.Certificate,
		})
	}
	if !eval.CertificateEligible {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Certificate requirements not met",
		})
	}

	cert := models.Certificate{
		UserID:       userID,
		CourseID:     uint(courseID),
		SerialNumber: uuid.NewString(),
		IssuedAt:     time.Now().UTC(),
	}
	result := cc.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoNothing: true,
	}).Create(&cert)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not issue certificate",
		})
	}
	if result.RowsAffected == 0 {
		// Lost the race; someone issued it first.
		if err := cc.DB.Where("user_id = ? AND course_id = ?", userID, courseID).
			First(&cert).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not query database",
			})
		}
	}

	return c.JSON(fiber.Map{
		"message":     "Certificate issued",
		"certificate": cert,
	})
}

// SubmitFinalExamAttempt grades an exam sitting. Only the most recent attempt
// counts toward certificate gating.
func (cc *CertificatesController) SubmitFinalExamAttempt(c *fiber.Ctx) error {
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
		Answers []int `json:"answers"`
	}
	if err := c.BodyParser(&input); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Cannot parse JSON",
		})
	}

	var exam models.FinalExam
	err = cc.DB.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("sequence_order ASC")
	}).Where("course_id = ? AND is_published = ?", courseID, true).First(&exam).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Final exam not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	snap, err := cc.Store.LoadCourseSnapshot(userID, uint(courseID))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}
	if ent := snap.Evaluate().Entitlement; !ent.Entitled {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Course not purchased",
		})
	}

	correct := 0
	for i, q := range exam.Questions {
		if i < len(input.Answers) && input.Answers[i] == q.CorrectAnswer {
			correct++
		}
	}
	score := 0.0
	if len(exam.Questions) > 0 {
		score = 100 * float64(correct) / float64(len(exam.Questions))
	}

	attempt := models.FinalExamAttempt{
		UserID:      userID,
		FinalExamID: exam.ID,
		Score:       score,
		Passed:      score >= exam.PassingScore,
	}
	if err := cc.DB.Create(&attempt).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save attempt",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Attempt recorded",
		"attempt": attempt,
	})
}

func (cc *CertificatesController) CreateFinalExam(c *fiber.Ctx) error {
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
		Title            string  `json:"title"`
		PassingScore     float64 `json:"passing_score"`
		CertificateScore float64 `json:"certificate_score"`
		IsPublished      bool    `json:"is_published"`
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

	exam := models.FinalExam{
		CourseID:         uint(courseID),
		Title:            input.Title,
		PassingScore:     input.PassingScore,
		CertificateScore: input.CertificateScore,
		IsPublished:      input.IsPublished,
	}
	if err := cc.DB.Create(&exam).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not create final exam",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Final exam created",
		"exam":    exam,
	})
}

func (cc *CertificatesController) UpsertCertificateTemplate(c *fiber.Ctx) error {
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
		Title                 string  `json:"title"`
		MinPercentage         float64 `json:"min_percentage"`
		RequireAllChapters    bool    `json:"require_all_chapters"`
		RequireAllQuizzes     bool    `json:"require_all_quizzes"`
		RequireAllAssignments bool    `json:"require_all_assignments"`
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

	var tmpl models.CertificateTemplate
	err = cc.DB.Where("course_id = ?", courseID).First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		tmpl = models.CertificateTemplate{CourseID: uint(courseID)}
	} else if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not query database",
		})
	}

	tmpl.Title = input.Title
	tmpl.MinPercentage = input.MinPercentage
	tmpl.RequireAllChapters = input.RequireAllChapters
	tmpl.RequireAllQuizzes = input.RequireAllQuizzes
	tmpl.RequireAllAssignments = input.RequireAllAssignments

	if err := cc.DB.Save(&tmpl).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Could not save certificate template",
		})
	}

	return c.JSON(fiber.Map{
		"message":  "Certificate template saved",
		"template": tmpl,
	})
}
