package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/feedback-analytics/internal/metrics"
	"github.com/SAP-F-2025/feedback-analytics/internal/middleware"
	"github.com/SAP-F-2025/feedback-analytics/internal/services"
	"github.com/SAP-F-2025/feedback-analytics/internal/session"
	"github.com/SAP-F-2025/feedback-analytics/internal/utils"
)

type HandlerManager struct {
	datasetHandler   *DatasetHandler
	analyticsHandler *AnalyticsHandler
	chatHandler      *ChatHandler
	contactHandler   *ContactHandler
}

// RouteOptions holds the middleware dependencies of the API routes
type RouteOptions struct {
	Sessions    *session.Manager
	Metrics     *metrics.Metrics
	Auth        middleware.TokenParser
	ChatLimiter *middleware.RateLimiter
	Logger      utils.Logger
}

func NewHandlerManager(serviceManager services.ServiceManager, logger utils.Logger) *HandlerManager {
	return &HandlerManager{
		datasetHandler:   NewDatasetHandler(serviceManager.Dataset(), logger),
		analyticsHandler: NewAnalyticsHandler(serviceManager.Analytics(), logger),
		chatHandler:      NewChatHandler(serviceManager.Chat(), logger),
		contactHandler:   NewContactHandler(serviceManager.Contact(), logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine, opts RouteOptions) {
	if opts.Metrics != nil {
		router.Use(middleware.Metrics(opts.Metrics))
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(middleware.Auth(opts.Auth, utils.ToSlogLogger(opts.Logger)))
	v1.Use(middleware.Session(opts.Sessions))
	{
		datasets := v1.Group("/datasets")
		{
			datasets.POST("", hm.datasetHandler.UploadDataset)
			datasets.GET("/current", hm.datasetHandler.GetCurrentDataset)
			datasets.GET("/current/questions", hm.datasetHandler.ListQuestions)
			datasets.GET("/current/search", hm.datasetHandler.SearchDataset)
			datasets.DELETE("/current", hm.datasetHandler.ResetDataset)
		}

		analyticsRoutes := v1.Group("/analytics")
		{
			analyticsRoutes.GET("/grade-distribution", hm.analyticsHandler.GetGradeDistribution)
			analyticsRoutes.GET("/difficulty-discrimination", hm.analyticsHandler.GetDifficultyDiscrimination)
			analyticsRoutes.GET("/error-types", hm.analyticsHandler.GetTopErrorTypes)
			analyticsRoutes.GET("/error-categories", hm.analyticsHandler.GetErrorCategories)
			analyticsRoutes.GET("/export", hm.analyticsHandler.ExportWorkbook)
		}

		chat := v1.Group("/chat")
		{
			ask := []gin.HandlerFunc{hm.chatHandler.Ask}
			if opts.ChatLimiter != nil {
				ask = append([]gin.HandlerFunc{opts.ChatLimiter.Handler()}, ask...)
			}
			chat.POST("", ask...)
			chat.GET("/history", hm.chatHandler.GetHistory)
			chat.GET("/history/download", hm.chatHandler.DownloadHistory)
			chat.DELETE("/history", hm.chatHandler.ClearHistory)
		}

		v1.POST("/contact", hm.contactHandler.SubmitContact)
	}
}

// HealthCheck reports liveness
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "feedback-analytics",
	})
}
