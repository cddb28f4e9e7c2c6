package routes

import (
	"net/http"
	"time"

	"bookline/handlers"
	"bookline/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterWebhookRoutes registers the inbound channel endpoints.
func RegisterWebhookRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	wh := r.Group("/webhook")
	{
		wh.Use(middleware.RateLimitMiddleware())
		wh.POST("/whatsapp", hb.Webhook.HandleInbound)
	}
}

// RegisterAdminRoutes registers the tenant operator console endpoints.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/admin")
	{
		api.POST("/login", hb.Auth.Login)

		// Protected routes (Require Authentication)
		api.Use(middleware.TenantAuthMiddleware())
		api.POST("/device", hb.Auth.RegisterDevice)
		api.GET("/alerts", hb.Admin.ListAlerts)
		api.PUT("/alerts/:id/resolve", hb.Admin.ResolveAlert)
		api.GET("/agenda", hb.Admin.Agenda)
		api.PUT("/appointments/:id/complete", hb.Admin.CompleteAppointment)
		api.DELETE("/appointments/:id", hb.Admin.DeleteAppointment)
		api.POST("/conversations/resume", hb.Admin.ResumeConversation)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm Bookline"})
	})
}

// RegisterRoutes sets up CORS and mounts every route group.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterWebhookRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
}
