package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"course-scheduler/config"
	"course-scheduler/internal/api/handler"
	"course-scheduler/internal/api/middleware"
	"course-scheduler/pkg/jwt"
	"course-scheduler/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// db 仅用于健康检查，可为 nil
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	v1.Use(middleware.RateLimit(rdb, cfg.Server.RateLimit, time.Minute))
	{
		v1.POST("/auth/logout", h.Auth.Logout)

		// 选课会话模块
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", h.Session.CreateSession)
			sessions.POST("/import", h.Session.ImportSession)
			sessions.GET("/:id", h.Session.GetSession)
			sessions.POST("/:id/input", h.Session.SubmitInput)
			sessions.POST("/:id/skip", h.Session.SkipCourse)
			sessions.POST("/:id/reset", h.Session.ResetSession)
			sessions.GET("/:id/calendar", h.Session.GetCalendar)
			sessions.DELETE("/:id", h.Session.DeleteSession)
		}

		// 开课目录模块
		v1.GET("/offerings", h.Offering.ListOfferings)

		// 选课记录模块
		schedules := v1.Group("/schedules")
		{
			schedules.GET("/:id/selections", h.Selection.ListSelections)
			schedules.DELETE("/:id/selections/:code", h.Selection.DeleteSelection)
		}
	}

	return r
}
