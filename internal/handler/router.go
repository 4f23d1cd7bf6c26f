package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"rollcall/internal/auth"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// RouterConfig carries the HTTP-level settings.
type RouterConfig struct {
	Issuer          *auth.Issuer
	CORSOrigins     []string
	RateLimit       gin.HandlerFunc
	Metrics         http.Handler
	Health          map[string]HealthCheck
	SkipRequestLogs bool
}

// NewRouter wires the routes onto a gin engine.
func NewRouter(h *Handler, rc RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if !rc.SkipRequestLogs {
		r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
			SkipPaths: []string{"/healthz", "/metrics"},
		}))
	}
	r.Use(corsMiddleware(rc.CORSOrigins))
	r.Use(securityHeaders())
	if rc.RateLimit != nil {
		r.Use(rc.RateLimit)
	}

	if rc.Metrics != nil {
		r.GET("/metrics", gin.WrapH(rc.Metrics))
	}
	r.GET("/healthz", healthz(rc.Health))

	v1 := r.Group("/v1")
	v1.POST("/admin/signup", h.SignUp)
	v1.POST("/admin/login", h.Login)
	v1.POST("/admin/refresh", h.Refresh)

	v1.GET("/sessions", h.SearchSessions)
	v1.POST("/sessions/:id/open", h.OpenSession)
	v1.GET("/live/:id", h.LiveSession)
	v1.POST("/live/:id/attendance", h.TakeAttendance)

	admin := v1.Group("", auth.AdminAuth(rc.Issuer))
	admin.POST("/students", h.RegisterStudent)
	admin.GET("/admin/sessions", h.SearchSessions)
	admin.POST("/admin/sessions", h.CreateSession)
	admin.PUT("/admin/sessions/:id", h.UpdateSession)
	admin.DELETE("/admin/sessions/:id", h.DeleteSession)
	admin.GET("/admin/attendances", h.ListAttendances)
	admin.POST("/reports", h.GenerateReport)
	admin.POST("/reports/export", h.ExportReport)
	admin.POST("/reports/jobs", h.EnqueueExport)

	return r
}

func healthz(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		body := gin.H{"status": "ok"}
		status := http.StatusOK
		for name, check := range checks {
			ok := check(ctx)
			body[name] = ok
			if !ok {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}
		c.JSON(status, body)
	}
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition", "X-Report-Location"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// HSTS only in release builds
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
