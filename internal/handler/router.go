package handler

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"hostel-portal/internal/config"
)

type Handlers struct {
	Middleware *Middleware
	Widget     *WidgetHandler
	Task       *TaskHandler
	Profile    *ProfileHandler
	Menu       *MenuHandler
}

func NewRouter(cfg *config.Config, h Handlers) *gin.Engine {
	router := gin.New()

	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})

	sendLimit := func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled && cfg.RateLimit.RequestsPerMinute > 0 {
		perSecond := rate.Limit(float64(cfg.RateLimit.RequestsPerMinute) / 60)
		sendLimit = h.Middleware.RateLimitPerUser(perSecond, max(cfg.RateLimit.Burst, 1))
	}

	api := router.Group("/api", h.Middleware.AuthRequired())
	{
		widgets := api.Group("/widget/sessions")
		{
			widgets.POST("", h.Widget.Mount)
			widgets.GET("/:id", h.Widget.Get)
			widgets.DELETE("/:id", h.Widget.Unmount)
			widgets.POST("/:id/open", h.Widget.Open)
			widgets.POST("/:id/close", h.Widget.Close)
			widgets.POST("/:id/toggle", h.Widget.Toggle)
			widgets.POST("/:id/dismiss", h.Widget.DismissGreeting)
			widgets.PUT("/:id/draft", h.Widget.SetDraft)
			widgets.POST("/:id/send", sendLimit, h.Widget.Send)
			widgets.POST("/:id/quick", sendLimit, h.Widget.AskQuickQuestion)
			widgets.GET("/:id/events", h.Widget.Events)
			widgets.GET("/:id/ws", h.Widget.WebSocket)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", h.Task.List)
			tasks.GET("/summary", h.Task.Summary)
			tasks.PUT("/:id/status", h.Task.UpdateStatus)
		}

		profile := api.Group("/profile")
		{
			profile.GET("", h.Profile.Get)
			profile.PUT("", h.Profile.Update)
			profile.POST("/picture", h.Profile.UploadPicture)
			profile.DELETE("/picture", h.Profile.DeletePicture)
		}

		api.GET("/menu", h.Menu.Get)
	}

	return router
}
