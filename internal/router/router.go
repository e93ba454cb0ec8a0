// Package router assembles the gin engine: middleware, public and
// authenticated API routes, and the admin surface.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "campusfin/internal/docs" // Import swagger docs
	"campusfin/internal/handlers"
	"campusfin/internal/middleware"
	"campusfin/internal/services"
)

// Deps carries everything the routes need.
type Deps struct {
	JWTSecret   string
	AdminAPIKey string

	Analytics    services.AnalyticsServicer
	Forecasts    services.ForecastServicer
	Transactions services.TransactionServicer
	Categories   services.CategoryServicer
	Obligations  services.ObligationServicer
	Rules        services.RuleServicer
	Audit        services.AuditServicer
}

// New builds the HTTP engine.
func New(d Deps) *gin.Engine {
	analyticsHandler := handlers.NewAnalyticsHandler(d.Analytics)
	forecastHandler := handlers.NewForecastHandler(d.Forecasts)
	transactionHandler := handlers.NewTransactionHandler(d.Transactions, d.Audit)
	categoryHandler := handlers.NewCategoryHandler(d.Categories, d.Audit)
	obligationHandler := handlers.NewObligationHandler(d.Obligations, d.Audit)
	ruleHandler := handlers.NewRuleHandler(d.Rules, d.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Student routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(d.JWTSecret))

	analytics := protected.Group("/analytics")
	analytics.GET("/summary", analyticsHandler.GetSummary)
	analytics.GET("/categories", analyticsHandler.GetCategoryBreakdown)
	analytics.GET("/trend", analyticsHandler.GetTrend)
	analytics.GET("/budget", analyticsHandler.GetBudgetAnalysis)
	analytics.GET("/comparison", analyticsHandler.GetPeriodComparison)

	protected.GET("/forecasts", forecastHandler.GetForecast)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetStudentTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetStudentCategories)
	categories.GET("/:id", categoryHandler.GetCategoryByID)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	protected.POST("/debts", obligationHandler.CreateDebt)
	protected.GET("/debts", obligationHandler.ListDebts)
	protected.POST("/future-events", obligationHandler.CreateFutureEvent)
	protected.GET("/future-events", obligationHandler.ListFutureEvents)
	protected.GET("/academic-events", obligationHandler.ListAcademicEvents)

	// Admin routes
	admin := v1.Group("/admin")
	admin.Use(middleware.AdminKeyMiddleware(d.AdminAPIKey))
	admin.POST("/rules", ruleHandler.CreateRule)
	admin.GET("/rules", ruleHandler.GetRules)
	admin.POST("/rules/import", ruleHandler.ImportRules)
	admin.GET("/rules/:id", ruleHandler.GetRuleByID)
	admin.PUT("/rules/:id", ruleHandler.UpdateRule)
	admin.POST("/academic-events", obligationHandler.CreateAcademicEvent)

	return router
}
