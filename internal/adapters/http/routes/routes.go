package routes

import (
	"context"

	"shelftrack/internal/adapters/http/handlers"
	"shelftrack/internal/adapters/http/middleware"
	"shelftrack/internal/adapters/persistence/repositories"
	"shelftrack/internal/config"
	"shelftrack/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"gorm.io/gorm"
)

// Background holds long-running services started after route setup
// and stopped on shutdown.
type Background struct {
	Feed     *services.ChangeFeed
	Reminder *services.ReminderService
}

// Setup configures all routes for the application and returns the
// background services for lifecycle management.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *Background {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	patronRepo := repositories.NewPatronRepository(db)
	loanRepo := repositories.NewLoanRepository(db)
	auditRepo := repositories.NewAuditRepository(db)

	// Initialize services
	auditService := services.NewAuditService(auditRepo)
	feed := services.NewChangeFeed()
	inventoryService := services.NewInventoryService(bookRepo, loanRepo)

	// Loan and book mutations refresh derived inventory statuses
	refresh := func(table string) {
		_, _ = inventoryService.Refresh(context.Background())
	}
	feed.OnChange("loans", refresh)
	feed.OnChange("books", refresh)

	authService := services.NewAuthService(userRepo, refreshTokenRepo, cfg)
	userService := services.NewUserService(userRepo)
	notifyService := services.NewNotificationService(cfg)
	bookService := services.NewBookService(bookRepo, loanRepo, inventoryService, auditService, feed)
	patronService := services.NewPatronService(patronRepo, loanRepo, auditService, feed)
	loanService := services.NewLoanService(loanRepo, bookRepo, patronRepo, inventoryService, auditService, feed, notifyService)
	dashboardService := services.NewDashboardService(bookRepo, patronRepo, loanRepo, inventoryService)
	reminderService := services.NewReminderService(loanRepo, notifyService)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	bookHandler := handlers.NewBookHandler(bookService)
	patronHandler := handlers.NewPatronHandler(patronService, loanService)
	loanHandler := handlers.NewLoanHandler(loanService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService, auditService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, healthHandler, authHandler, userHandler,
		bookHandler, patronHandler, loanHandler, dashboardHandler, cfg)

	return &Background{
		Feed:     feed,
		Reminder: reminderService,
	}
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	bookHandler *handlers.BookHandler,
	patronHandler *handlers.PatronHandler,
	loanHandler *handlers.LoanHandler,
	dashboardHandler *handlers.DashboardHandler,
	cfg *config.Config,
) {
	// API Info
	router.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// User management routes (Admin only)
	userRoutes := router.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	setupUserRoutes(userRoutes, userHandler)

	// Book catalog routes (Librarian/Admin for writes)
	bookRoutes := router.Group("/books")
	bookRoutes.Use(middleware.AuthMiddleware(cfg))
	setupBookRoutes(bookRoutes, bookHandler)

	// Patron registry routes (Librarian/Admin for writes)
	patronRoutes := router.Group("/patrons")
	patronRoutes.Use(middleware.AuthMiddleware(cfg))
	setupPatronRoutes(patronRoutes, patronHandler)

	// Loan workflow routes (Librarian/Admin)
	loanRoutes := router.Group("/loans")
	loanRoutes.Use(middleware.AuthMiddleware(cfg))
	loanRoutes.Use(middleware.LibrarianOrAdmin())
	setupLoanRoutes(loanRoutes, loanHandler)

	// Dashboard routes (live data, never cached)
	dashboardRoutes := router.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	dashboardRoutes.Use(middleware.NoCacheHeaders())
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes with stricter rate limits
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures staff account routes
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	// Any authenticated user may change their own password
	router.Put("/me/password", middleware.StrictRateLimiter(), handler.ChangePassword)

	// Admin only
	adminRoutes := router.Group("")
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.Get("/", handler.List)
	adminRoutes.Get("/:id", handler.GetByID)
	adminRoutes.Put("/:id", handler.Update)
	adminRoutes.Post("/:id/deactivate", handler.Deactivate)
}

// setupBookRoutes configures book catalog routes
func setupBookRoutes(router fiber.Router, handler *handlers.BookHandler) {
	// Reads for all authenticated users
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)

	// Writes for librarians and admins
	writeRoutes := router.Group("")
	writeRoutes.Use(middleware.LibrarianOrAdmin())
	writeRoutes.Post("/", handler.Create)
	writeRoutes.Put("/:id", handler.Update)
	writeRoutes.Post("/:id/archive", handler.Archive)
	writeRoutes.Delete("/:id", handler.Delete)
}

// setupPatronRoutes configures patron registry routes
func setupPatronRoutes(router fiber.Router, handler *handlers.PatronHandler) {
	// Reads for all authenticated users
	router.Get("/", handler.List)
	router.Get("/:id", handler.GetByID)
	router.Get("/:id/loans", handler.Loans)

	// Writes for librarians and admins
	writeRoutes := router.Group("")
	writeRoutes.Use(middleware.LibrarianOrAdmin())
	writeRoutes.Post("/", handler.Create)
	writeRoutes.Put("/:id", handler.Update)
	writeRoutes.Post("/:id/archive", handler.Archive)
	writeRoutes.Delete("/:id", handler.Delete)
}

// setupLoanRoutes configures loan workflow routes
func setupLoanRoutes(router fiber.Router, handler *handlers.LoanHandler) {
	router.Post("/", handler.Create)
	router.Get("/", handler.List)
	router.Get("/overdue", handler.ListOverdue)
	router.Get("/:id", handler.GetByID)
	router.Post("/:id/activate", handler.Activate)
	router.Post("/:id/return", handler.Return)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	router.Get("/stats", handler.Stats)
	router.Get("/audit/:table", middleware.LibrarianOrAdmin(), handler.AuditHistory)
}
