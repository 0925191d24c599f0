package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/matrixlab/pulse/config"
	"github.com/matrixlab/pulse/controllers"
	"github.com/matrixlab/pulse/hub"
	"github.com/matrixlab/pulse/middleware"
	"github.com/matrixlab/pulse/services"
	"github.com/matrixlab/pulse/utils"
)

// SetupRouter wires routes, middlewares, services and controllers.
func SetupRouter(db *gorm.DB, presence *hub.Hub) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	gate := services.NewModerationService(db)
	notifications := services.NewNotificationService(db, cfg, presence)
	threads := services.NewThreadService(db, cfg, gate, notifications)
	ledger := services.NewEngagementService(db, gate)

	commentController := controllers.NewCommentController(threads)
	likeController := controllers.NewLikeController(ledger)
	statsController := controllers.NewStatsController(threads, ledger)
	notificationController := controllers.NewNotificationController(notifications, presence)

	api := r.Group("/api/v1")

	// Public reads
	api.GET("/posts/:id/comments", commentController.ListComments)
	api.GET("/posts/:id/stats", statsController.GetPostStats)
	api.GET("/comments/:commentId/stats", statsController.GetCommentStats)

	// Live channel; the notification socket authenticates inside the handler
	// because browsers cannot set headers on a websocket handshake
	r.GET("/ws/notifications", notificationController.NotificationSocket)
	r.GET("/ws/chat/:room", notificationController.ChatSocket)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/posts/:id/comments", commentController.CreateComment)
	protected.POST("/comments/:commentId/replies", commentController.CreateReply)
	protected.DELETE("/comments/:commentId", commentController.DeactivateComment)
	protected.POST("/posts/:id/like", likeController.TogglePostLike)
	protected.POST("/comments/:commentId/like", likeController.ToggleCommentLike)
	protected.GET("/notifications/unread", notificationController.ListUnread)
	protected.POST("/notifications/:id/read", notificationController.MarkRead)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
