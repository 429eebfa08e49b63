package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saasvalidator/page-service/internal/middleware"
)

// SetupRoutes configures all API routes.
func SetupRoutes(
	router *gin.Engine,
	handlers *Handlers,
	jwtSecret string,
	registry *prometheus.Registry,
	maxEventsPerMin int,
	rateLimitWindow time.Duration,
	done <-chan struct{},
) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	))

	// Owner-facing management API.
	v1 := router.Group("/api/v1")
	v1.Use(middleware.OwnerAuth(jwtSecret))
	{
		pages := v1.Group("/pages")
		pages.POST("", handlers.CreatePage)
		pages.GET("", handlers.ListPages)
		pages.GET("/:id", handlers.GetPage)
		pages.PATCH("/:id", handlers.UpdatePage)
		pages.POST("/:id/generate", handlers.StartGeneration)
		pages.POST("/:id/archive", handlers.ArchivePage)
		pages.POST("/:id/unpublish", handlers.UnpublishPage)
	}

	// Generation worker callbacks authenticate as the page owner; the
	// handlers reject results whose token subject does not own the page.
	v1.POST("/pages/:id/generation/complete", handlers.CompleteGeneration)
	v1.POST("/pages/:id/generation/fail", handlers.FailGeneration)

	// Public render lookup.
	router.GET("/p/:owner/:slug", handlers.RenderPage)

	// Public tracking endpoints with bot filter and per-IP rate limiting.
	track := router.Group("/t")
	track.Use(middleware.BotFilter())
	track.Use(middleware.RateLimiter(maxEventsPerMin, rateLimitWindow, done))
	track.POST("/:id/view", handlers.RecordView)
	track.POST("/:id/conversion", handlers.RecordConversion)
}
