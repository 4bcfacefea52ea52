package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/feedplanner/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares. The WhatsApp
// routes are only registered when a webhook handler is given.
func New(plans *handlers.PlanHandler, webhook *handlers.WebhookHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/catalog", plans.Catalog)
	planRoutes := r.Group("/plans")
	{
		planRoutes.POST("", plans.CreatePlan)
		planRoutes.POST("/export", plans.ExportPlan)
		planRoutes.POST("/publish", plans.PublishPlan)
		planRoutes.POST("/schedule", plans.PublishSchedule)
	}

	if webhook != nil {
		r.GET("/webhook", webhook.Verify)
		r.POST("/webhook", webhook.Receive)
		r.POST("/send-message", webhook.SendMessage)
	}

	if logger != nil {
		logger.Info("router initialized", zap.Bool("whatsapp", webhook != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
