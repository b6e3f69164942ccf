package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "competency-assessment/docs" // This is for Swagger
	"competency-assessment/internal/auth"
	"competency-assessment/internal/config"
	"competency-assessment/internal/database"
	"competency-assessment/internal/email"
	"competency-assessment/internal/handlers"
	"competency-assessment/internal/logger"
	"competency-assessment/internal/middleware"
	"competency-assessment/internal/models"
	"competency-assessment/internal/repository"
	"competency-assessment/internal/scheduler"
	"competency-assessment/internal/service"
	"competency-assessment/internal/storage"
	"competency-assessment/internal/vault"
	"competency-assessment/migrations"
)

// @title Competency Assessment API
// @version 1.0
// @description Backend API for competency self and assessor assessments, consensus views and employee profiles

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logger
	logger.Setup(logger.Config{
		Level: cfg.Log.Level,
	})

	slog.Info("Starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"env", cfg.App.Env,
		"log_level", cfg.Log.Level,
	)

	ctx := context.Background()

	// Initialize database
	db, err := database.New(&cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func(db *database.Database) {
		if err := db.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}(db)

	slog.Info("Database connection established")

	// Run database migrations
	var migrationFiles fs.FS = migrations.Files
	if cfg.Database.MigrationsPath != "" {
		migrationFiles = os.DirFS(cfg.Database.MigrationsPath)
	}
	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.Run(ctx, migrationFiles); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database migrations completed")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db.DB)
	sessionRepo := repository.NewSessionRepository(db.DB)
	auditRepo := repository.NewAuditRepository(db.DB)
	competencyRepo := repository.NewCompetencyRepository(db.DB)
	orgRepo := repository.NewOrganizationRepository(db.DB)
	assessmentRepo := repository.NewAssessmentRepository(db.DB)
	profileRepo := repository.NewProfileRepository(db.DB)

	// Rating comments are sealed with Vault transit when it is enabled
	var vaultClient *vault.Client
	if cfg.Vault.Enabled {
		vaultClient, err = vault.NewClient(ctx, &vault.Config{
			Address:      cfg.Vault.Address,
			Token:        cfg.Vault.Token,
			TransitMount: cfg.Vault.TransitMount,
		})
		if err != nil {
			slog.Error("Failed to initialize Vault client", "error", err)
			os.Exit(1)
		}
		slog.Info("Vault is enabled - rating comments are encrypted", "vault_addr", cfg.Vault.Address)
	} else {
		slog.Warn("Vault is disabled - rating comments are stored in plain text")
	}
	commentCipher, err := vault.NewCommentCipher(ctx, vaultClient, cfg.Vault.KeyName)
	if err != nil {
		slog.Error("Failed to prepare comment encryption key", "error", err)
		os.Exit(1)
	}

	// Profile photos go to Cloudinary when it is configured
	var photoStore service.PhotoStore
	if cfg.Cloudinary.URL != "" {
		cloudinaryStore, err := storage.NewCloudinaryStore(cfg.Cloudinary.URL, cfg.Cloudinary.Folder)
		if err != nil {
			slog.Error("Failed to initialize Cloudinary", "error", err)
			os.Exit(1)
		}
		photoStore = cloudinaryStore
	} else {
		slog.Warn("Cloudinary is not configured - profile photo uploads are disabled")
	}

	// Initialize services
	authService := auth.NewService(&cfg.JWT)
	emailService := email.NewService(&cfg.Email)
	auditSvc := service.NewAuditService(auditRepo)
	authSvc := service.NewAuthService(userRepo, sessionRepo, authService, auditSvc)
	userSvc := service.NewUserService(userRepo, authService, auditSvc)
	competencySvc := service.NewCompetencyService(competencyRepo, auditSvc)
	orgSvc := service.NewOrganizationService(orgRepo, userRepo, emailService, auditSvc)
	assessmentSvc := service.NewAssessmentService(assessmentRepo, orgRepo, competencyRepo, userRepo, commentCipher, auditSvc)
	consensusSvc := service.NewConsensusService(userRepo, competencyRepo, orgRepo, assessmentRepo, commentCipher)
	profileSvc := service.NewProfileService(profileRepo, orgRepo, photoStore, cfg.Profile.MaxPhotoBytes, auditSvc)

	// Initialize scheduler
	schedulerService := scheduler.NewScheduler(assessmentRepo, userRepo, emailService, sessionRepo, &cfg.Scheduler)
	schedulerService.Start()
	defer schedulerService.Stop()

	// Initialize middleware
	authMw := middleware.NewAuthMiddleware(authService, sessionRepo)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit)
	defer rateLimiter.Close()
	auditMw := middleware.NewAuditMiddleware(auditRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authSvc)
	userHandler := handlers.NewUserHandler(userSvc)
	auditHandler := handlers.NewAuditHandler(auditSvc)
	competencyHandler := handlers.NewCompetencyHandler(competencySvc)
	orgHandler := handlers.NewOrganizationHandler(orgSvc)
	assessmentHandler := handlers.NewAssessmentHandler(assessmentSvc)
	consensusHandler := handlers.NewConsensusHandler(consensusSvc)
	profileHandler := handlers.NewProfileHandler(profileSvc, cfg.Profile.MaxPhotoBytes)
	configHandler := handlers.NewConfigHandler(cfg)

	checks := map[string]handlers.HealthChecker{"database": db}
	if vaultClient != nil {
		checks["vault"] = vaultClient
	}
	healthHandler := handlers.NewHealthHandler(cfg.App.Version, checks)

	// Setup router
	mux := http.NewServeMux()
	rt := &router{mux: mux, authMw: authMw}
	api := handlers.APIBasePath

	// Public routes
	rt.public("POST "+api+"/auth/login", authHandler.Login)
	rt.public("GET "+api+"/config/app", configHandler.GetAppConfig)
	rt.public("GET /health", healthHandler.Health)

	// Session and users
	rt.protected("POST "+api+"/auth/logout", authHandler.Logout)
	rt.protected("GET "+api+"/users/me", userHandler.Me)
	rt.managed("GET "+api+"/users", userHandler.List)
	rt.managed("POST "+api+"/users", userHandler.Create)
	rt.managed("GET "+api+"/users/{id}", userHandler.Get)
	rt.managed("PUT "+api+"/users/{id}", userHandler.Update)
	rt.protected("GET "+api+"/audit-logs", auditHandler.List,
		middleware.RequireRole(models.RoleAdmin), auditMw.Log("view", "audit_logs"))

	// Competency framework
	rt.protected("GET "+api+"/competency-domains", competencyHandler.ListDomains)
	rt.managed("POST "+api+"/competency-domains", competencyHandler.CreateDomain)
	rt.managed("PUT "+api+"/competency-domains/{id}", competencyHandler.UpdateDomain)
	rt.managed("DELETE "+api+"/competency-domains/{id}", competencyHandler.DeleteDomain)
	rt.protected("GET "+api+"/competency-categories", competencyHandler.ListCategories)
	rt.managed("POST "+api+"/competency-categories", competencyHandler.CreateCategory)
	rt.managed("PUT "+api+"/competency-categories/{id}", competencyHandler.UpdateCategory)
	rt.managed("DELETE "+api+"/competency-categories/{id}", competencyHandler.DeleteCategory)
	rt.protected("GET "+api+"/competencies", competencyHandler.ListCompetencies)
	rt.protected("GET "+api+"/competencies/{id}", competencyHandler.GetCompetency)
	rt.managed("POST "+api+"/competencies", competencyHandler.CreateCompetency)
	rt.managed("PUT "+api+"/competencies/{id}", competencyHandler.UpdateCompetency)
	rt.managed("DELETE "+api+"/competencies/{id}", competencyHandler.DeleteCompetency)
	rt.protected("GET "+api+"/proficiency-levels", competencyHandler.ListLevels)
	rt.managed("PUT "+api+"/proficiency-levels", competencyHandler.SaveLevel)
	rt.managed("DELETE "+api+"/proficiency-levels/{id}", competencyHandler.DeleteLevel)

	// Organization
	rt.protected("GET "+api+"/departments", orgHandler.ListDepartments)
	rt.managed("POST "+api+"/departments", orgHandler.CreateDepartment)
	rt.managed("PUT "+api+"/departments/{id}", orgHandler.UpdateDepartment)
	rt.managed("DELETE "+api+"/departments/{id}", orgHandler.DeleteDepartment)
	rt.protected("GET "+api+"/jobs", orgHandler.ListJobs)
	rt.managed("POST "+api+"/jobs", orgHandler.CreateJob)
	rt.managed("DELETE "+api+"/jobs/{id}", orgHandler.DeleteJob)
	rt.protected("GET "+api+"/job-assignments", orgHandler.ListJobAssignments)
	rt.managed("POST "+api+"/job-assignments", orgHandler.CreateJobAssignment)
	rt.managed("DELETE "+api+"/job-assignments/{id}", orgHandler.DeleteJobAssignment)
	rt.protected("GET "+api+"/assessor-assignments", orgHandler.ListAssessorAssignments)
	rt.managed("POST "+api+"/assessor-assignments", orgHandler.AssignAssessor)
	rt.managed("DELETE "+api+"/assessor-assignments/{id}", orgHandler.DeleteAssessorAssignment)

	// Assessments
	rt.protected("GET "+api+"/assessments", assessmentHandler.List)
	rt.protected("POST "+api+"/assessments", assessmentHandler.Create)
	rt.protected("GET "+api+"/assessments/{id}", assessmentHandler.Get)
	rt.managed("DELETE "+api+"/assessments/{id}", assessmentHandler.Delete)
	rt.protected("PUT "+api+"/assessments/{id}/status", assessmentHandler.Transition)
	rt.protected("PUT "+api+"/assessments/{id}/ratings", assessmentHandler.SaveRating)

	// Consensus views are read-only and derived on every request
	rt.protected("GET "+api+"/consensus", consensusHandler.List,
		middleware.RequireAnyRole(models.RoleAdmin, models.RoleHR, models.RoleAssessor), auditMw.Log("view", "consensus"))
	rt.protected("GET "+api+"/consensus/employees/{id}", consensusHandler.Get, auditMw.Log("view", "consensus"))

	// Own profile
	rt.protected("GET "+api+"/profile", profileHandler.Get)
	rt.protected("PUT "+api+"/profile", profileHandler.Update)
	rt.protected("POST "+api+"/profile/photo", profileHandler.UploadPhoto)

	// Swagger documentation
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	// Apply global middleware
	handler := middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging,
		middleware.SecurityHeaders,
		corsMw.Handler,
		rateLimiter.Limit,
	)

	// Create server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	// Start server in a goroutine
	go func() {
		slog.Info("Server starting", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Server shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}
