package main

import (
	"fmt"
	"os"

	"campusfin/internal/cache"
	"campusfin/internal/config"
	"campusfin/internal/database"
	"campusfin/internal/logger"
	"campusfin/internal/router"
	"campusfin/internal/services"
	"campusfin/internal/validator"
)

// @title           campusfin API
// @version         1.0
// @description     Student finance tracking with rule-adjusted spending and income forecasts.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Admin API key.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if appConfig.AdminAPIKey == "" {
		log.Warn("ADMIN_API_KEY is not set; admin endpoints will answer 503")
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Initialize services
	db := dbManager.DB()
	studentService := services.NewStudentService(db)
	categoryService := services.NewCategoryService(db)
	transactionService := services.NewTransactionService(db, categoryService)
	obligationService := services.NewObligationService(db)
	ruleService := services.NewRuleService(db)
	auditService := services.NewAuditService(db)
	analyticsService := services.NewAnalyticsService(studentService, transactionService, categoryService)

	forecastCache := cache.New(cache.NewGormStore(db), appConfig.Forecast.CacheTTL, appConfig.Forecast.ComputeTimeout)
	forecastService := services.NewForecastService(services.ForecastDeps{
		Students:    studentService,
		Analytics:   analyticsService,
		Categories:  categoryService,
		Obligations: obligationService,
		Rules:       ruleService,
	}, forecastCache, appConfig.Forecast)

	validator.Register()

	r := router.New(router.Deps{
		JWTSecret:    appConfig.JWTSecret,
		AdminAPIKey:  appConfig.AdminAPIKey,
		Analytics:    analyticsService,
		Forecasts:    forecastService,
		Transactions: transactionService,
		Categories:   categoryService,
		Obligations:  obligationService,
		Rules:        ruleService,
		Audit:        auditService,
	})

	log.Infof("Starting campusfin server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return r.Run(":" + appConfig.Port)
}
