package app

import (
	"pillar_journey_backend/docs"
	"pillar_journey_backend/internal/config"
	"pillar_journey_backend/internal/middleware"
	"pillar_journey_backend/pkg/monitoring"
	"pillar_journey_backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由，按用户限流
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg), security.RateLimiter(a.limiter, middleware.UserKey))
	{
		a.registerJourneyRoutes(authGroup, c)
		a.registerProgressRoutes(authGroup, c)
		a.registerInsightRoutes(authGroup, c)
	}
}

func (a *App) registerJourneyRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/journey/start", c.journey.StartJourney)
	rg.GET("/journey/current", c.journey.CurrentJourney)
	rg.POST("/journey/complete", c.journey.CompleteJourney)

	rg.GET("/dashboard", c.dashboard.GetDashboard)

	rg.POST("/assessments", c.assessment.SubmitAssessment)
	rg.GET("/assessments", c.assessment.ListAssessments)
	rg.GET("/assessments/compare", c.assessment.CompareAssessments)

	rg.POST("/moods", c.mood.LogMood)
	rg.GET("/moods", c.mood.RecentMoods)
}

func (a *App) registerProgressRoutes(rg *gin.RouterGroup, c *controllers) {
	rg.POST("/checkins", c.checkin.RecordCompletion)
	rg.GET("/checkins", c.checkin.ListCheckins)

	rg.GET("/karma", c.checkin.GetKarma)
	rg.GET("/karma/transactions", c.checkin.ListTransactions)

	rg.GET("/badges", c.badge.ListBadges)
	rg.POST("/badges/evaluate", c.badge.EvaluateBadges)
}

func (a *App) registerInsightRoutes(rg *gin.RouterGroup, c *controllers) {
	insights := rg.Group("/insights")
	{
		insights.GET("", c.insight.ListInsights)
		insights.POST("/refresh", c.insight.RefreshInsights)
		insights.POST("/read-all", c.insight.MarkAllRead)
		insights.PATCH("/:id/read", c.insight.MarkRead)
		insights.PATCH("/:id/dismiss", c.insight.Dismiss)
	}

	reports := rg.Group("/reports")
	{
		reports.GET("", c.report.GetReport)
		reports.GET("/csv", c.report.DownloadCSV)
		reports.POST("/archive", c.report.ArchiveReport)
	}
}
