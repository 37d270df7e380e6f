// Package server assembles the HTTP and gRPC surfaces of the service.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fekuna/omnipos-production-service/internal/auth"
	"github.com/fekuna/omnipos-production-service/internal/logger"
)

// Routes is implemented by every HTTP handler of the service.
type Routes interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// NewRouter wires the gin engine with middlewares, ops endpoints and the
// /api/v1 routes of each handler.
func NewRouter(log logger.ZapLogger, gatherer prometheus.Gatherer, handlers ...Routes) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(log))
	r.Use(auth.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	for _, h := range handlers {
		h.RegisterRoutes(api)
	}

	log.Info("router initialized", zap.Int("handlers", len(handlers)))
	return r
}

func zapLoggerMiddleware(log logger.ZapLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		log.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
