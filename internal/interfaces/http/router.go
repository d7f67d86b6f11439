// Package http assembles the learning API's route tree and the server
// that exposes it.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wucy1/ProDocuX/internal/infrastructure/monitoring/logging"
	"github.com/wucy1/ProDocuX/internal/interfaces/http/handlers"
	"github.com/wucy1/ProDocuX/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware dependencies of the
// complete route tree.
type RouterConfig struct {
	LearningHandler *handlers.LearningHandler
	ProfileHandler  *handlers.ProfileHandler
	HealthHandler   *handlers.HealthHandler

	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler

	Logger logging.Logger

	// Mode selects the gin mode: "debug", "release" or "test".
	Mode string

	// MaxUploadBytes caps request body size; zero disables the limit.
	MaxUploadBytes int64
}

// NewRouter builds the complete HTTP route tree: global middleware, public
// probes, the metrics endpoint, and the /api/v1 resource groups.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}

	engine := gin.New()
	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()),
		middleware.CORS(middleware.DefaultCORSConfig()),
		middleware.BodyLimit(cfg.MaxUploadBytes),
	)

	if cfg.HealthHandler != nil {
		engine.GET("/healthz", cfg.HealthHandler.Liveness)
		engine.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Metrics != nil {
		engine.GET("/metrics", gin.WrapH(cfg.Metrics))
	}

	api := engine.Group("/api/v1")
	if cfg.LearningHandler != nil {
		cfg.LearningHandler.RegisterRoutes(api)
	}
	if cfg.ProfileHandler != nil {
		cfg.ProfileHandler.RegisterRoutes(api)
	}
	return engine
}
