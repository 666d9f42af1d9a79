package routes

import (
	"academy/backend/config"
	"academy/backend/controllers"
	"academy/backend/middleware"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Middleware
	authMiddleware := middleware.AuthMiddleware(cfg)

	// Auth routes
	authController := controllers.NewAuthController(db, cfg)
	app.Post("/api/auth/register", authController.Register)
	app.Post("/api/auth/login", authController.Login)
	app.Get("/api/user/profile", authMiddleware, authController.GetProfile)

	// Course routes. Sidebar, overview and chapter pages stay open to
	// anonymous traffic: the progression engine resolves them to locked
	// chapters with preview access rather than a 401.
	coursesController := controllers.NewCoursesController(db, cfg)
	courses := app.Group("/api/courses")
	courses.Get("/", coursesController.GetAvailableCourses)
	courses.Get("/:id/sidebar", coursesController.GetCourseSidebar)
	courses.Get("/:id/overview", coursesController.GetCourseOverview)
	courses.Post("/", authMiddleware, coursesController.CreateCourse)
	courses.Put("/:id", authMiddleware, coursesController.UpdateCourse)

	// Chapter routes
	chaptersController := controllers.NewChaptersController(db, cfg)
	courses.Get("/:id/chapters/:chapterId", chaptersController.GetChapter)
	courses.Post("/:id/chapters", authMiddleware, chaptersController.AddChapter)
	courses.Post("/:id/chapters/:chapterId/complete", authMiddleware, chaptersController.MarkChapterComplete)
	courses.Post("/:id/chapters/:chapterId/videos", authMiddleware, chaptersController.AddChapterVideo)

	// Quiz routes
	quizzesController := controllers.NewQuizzesController(db, cfg)
	courses.Post("/:id/chapters/:chapterId/quizzes", authMiddleware, quizzesController.AddQuiz)
	app.Post("/api/quizzes/:quizId/questions", authMiddleware, quizzesController.AddQuizQuestion)
	app.Post("/api/quizzes/:quizId/attempts", authMiddleware, quizzesController.SubmitQuizAttempt)

	// Assignment routes
	assignmentsController := controllers.NewAssignmentsController(db, cfg)
	courses.Post("/:id/assignments", authMiddleware, assignmentsController.AddAssignment)
	app.Post("/api/assignments/:assignmentId/submissions", authMiddleware, assignmentsController.SubmitAssignment)
	app.Put("/api/submissions/:submissionId/grade", authMiddleware, assignmentsController.GradeSubmission)

	// Purchase routes
	purchasesController := controllers.NewPurchasesController(db, cfg)
	courses.Post("/:id/purchase", authMiddleware, purchasesController.PurchaseCourse)
	courses.Get("/:id/purchase", authMiddleware, purchasesController.GetPurchaseStatus)

	// Admin routes
	app.Get("/api/admin/purchases", middleware.AdminMiddleware(db, cfg), purchasesController.ListAllPurchases)

	// Certificate and final exam routes
	certificatesController := controllers.NewCertificatesController(db, cfg)
	courses.Get("/:id/certificate", authMiddleware, certificatesController.GetCertificateStatus)
	courses.Post("/:id/certificate", authMiddleware, certificatesController.IssueCertificate)
	courses.Post("/:id/final-exam", authMiddleware, certificatesController.CreateFinalExam)
	courses.Post("/:id/final-exam/attempts", authMiddleware, certificatesController.SubmitFinalExamAttempt)
	courses.Put("/:id/certificate-template", authMiddleware, certificatesController.UpsertCertificateTemplate)
}
