package routes

import (
	"github.com/gofiber/fiber/v2"
	"github.com/philosofium/coursemarket/backend/catalog"
	"github.com/philosofium/coursemarket/backend/config"
	"github.com/philosofium/coursemarket/backend/content"
	"github.com/philosofium/coursemarket/backend/controllers"
	"github.com/philosofium/coursemarket/backend/enrollment"
	"github.com/philosofium/coursemarket/backend/identity"
	"github.com/philosofium/coursemarket/backend/middleware"
	"github.com/philosofium/coursemarket/backend/notify"
	"github.com/philosofium/coursemarket/backend/reviews"
	"github.com/philosofium/coursemarket/backend/settings"
	"github.com/philosofium/coursemarket/backend/stats"
	"github.com/philosofium/coursemarket/backend/store"
	"go.uber.org/zap"
)

// Services is the wired application core.
type Services struct {
	Courses       *catalog.Store
	Reviews       *reviews.Engine
	Editor        *content.Editor
	Stats         *stats.Aggregator
	Notifications *notify.Log
	Settings      *settings.Service
	Enrollment    *enrollment.Service
	Directory     *identity.Directory
}

// NewServices wires every service over one document store.
func NewServices(st store.DocumentStore, log *zap.Logger) *Services {
	notes := notify.NewLog(st, log)
	courses := catalog.NewStore(st, notes, log)
	agg := stats.NewAggregator(st, courses, log)
	enroll := enrollment.NewService(st, courses, agg, log)
	return &Services{
		Courses:       courses,
		Reviews:       reviews.NewEngine(courses, enroll, agg, st, log),
		Editor:        content.NewEditor(courses, notes, log),
		Stats:         agg,
		Notifications: notes,
		Settings:      settings.NewService(st, notes, log),
		Enrollment:    enroll,
		Directory:     identity.NewDirectory(st, log),
	}
}

func SetupRoutes(app *fiber.App, svc *Services, cfg *config.Config, log *zap.Logger) {
	authMiddleware := middleware.AuthMiddleware(cfg, svc.Directory, log)
	requireAuth := middleware.RequireAuth()
	adminMiddleware := middleware.AdminMiddleware(svc.Directory)

	api := app.Group("/api", authMiddleware)

	sessionController := controllers.NewSessionController(svc.Directory)
	api.Get("/auth/session", sessionController.GetSession)

	// User routes
	userController := controllers.NewUserController(svc.Directory)
	enrollmentController := controllers.NewEnrollmentController(svc.Enrollment)
	api.Get("/user/profile", requireAuth, userController.GetProfile)
	api.Put("/user/profile", requireAuth, userController.UpdateProfile)
	api.Get("/user/courses", requireAuth, enrollmentController.MyCourses)

	// Courses routes
	coursesController := controllers.NewCoursesController(svc.Courses, cfg)
	reviewsController := controllers.NewReviewsController(svc.Reviews, svc.Directory)
	courses := api.Group("/courses")
	courses.Get("/", coursesController.ListCourses)
	courses.Get("/featured", coursesController.ListFeatured)
	courses.Get("/:id", coursesController.GetCourse)
	courses.Get("/:id/enrollment", requireAuth, enrollmentController.EnrollmentStatus)
	courses.Post("/:id/enroll", requireAuth, enrollmentController.Enroll)
	courses.Post("/:id/complete", requireAuth, enrollmentController.Complete)
	courses.Get("/:id/reviews", reviewsController.ListReviews)
	courses.Get("/:id/reviews/mine", requireAuth, reviewsController.MyReview)
	courses.Post("/:id/reviews", requireAuth, reviewsController.SubmitReview)
	courses.Post("/:id/reviews/:reviewId/helpful", requireAuth, reviewsController.MarkHelpful)
	courses.Post("/:id/reviews/:reviewId/reply", requireAuth, reviewsController.Reply)
	courses.Post("/:id/reviews/:reviewId/report", requireAuth, reviewsController.Report)

	admin := api.Group("/admin", requireAuth, adminMiddleware)

	// Admin routes for courses
	analyticsController := controllers.NewAnalyticsController(svc.Stats)
	contentController := controllers.NewContentController(svc.Editor)
	adminCourses := admin.Group("/courses")
	adminCourses.Post("/", coursesController.CreateCourse)
	adminCourses.Put("/:id", coursesController.UpdateCourse)
	adminCourses.Delete("/:id", coursesController.DeleteCourse)
	adminCourses.Get("/:id/analytics", analyticsController.GetCourseAnalytics)
	adminCourses.Get("/:id/content", contentController.GetContent)
	adminCourses.Put("/:id/content", contentController.ReplaceContent)
	adminCourses.Post("/:id/content/sections", contentController.AddSection)
	adminCourses.Put("/:id/content/sections/:section", contentController.RenameSection)
	adminCourses.Delete("/:id/content/sections/:section", contentController.DeleteSection)
	adminCourses.Post("/:id/content/sections/:section/move", contentController.MoveSection)
	adminCourses.Post("/:id/content/sections/:section/lessons", contentController.AddLesson)
	adminCourses.Put("/:id/content/sections/:section/lessons/:lesson", contentController.UpdateLesson)
	adminCourses.Delete("/:id/content/sections/:section/lessons/:lesson", contentController.DeleteLesson)
	adminCourses.Post("/:id/content/sections/:section/lessons/:lesson/move", contentController.MoveLesson)
	adminCourses.Post("/:id/content/sections/:section/lessons/:lesson/questions", contentController.AddQuestion)
	adminCourses.Put("/:id/content/sections/:section/lessons/:lesson/questions/:question", contentController.UpdateQuestion)
	adminCourses.Delete("/:id/content/sections/:section/lessons/:lesson/questions/:question", contentController.DeleteQuestion)

	// Admin dashboard
	overviewController := controllers.NewOverviewController(svc.Stats, svc.Notifications, svc.Settings, cfg)
	admin.Get("/overview", overviewController.GetOverview)
	admin.Get("/statistics", analyticsController.GetGlobalStatistics)
	admin.Post("/statistics/reset", analyticsController.ResetStatistics)
	admin.Get("/notifications", overviewController.ListNotifications)
	admin.Post("/notifications/read", overviewController.MarkAllNotificationsRead)
	admin.Post("/notifications/:id/read", overviewController.MarkNotificationRead)
	admin.Get("/settings", overviewController.GetSettings)
	admin.Put("/settings", overviewController.UpdateSettings)
	admin.Get("/users", userController.ListUsers)
	admin.Put("/users/:id/role", userController.UpdateRole)
}
