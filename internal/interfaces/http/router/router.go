// Package router assembles the gin engine: global middleware, the health
// check, static uploads and the API route groups.
package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sharehub/backend/internal/infrastructure/config"
	"github.com/sharehub/backend/internal/infrastructure/logger"
	"github.com/sharehub/backend/internal/interfaces/http/dto"
	"github.com/sharehub/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Router manages HTTP route registration
type Router struct {
	engine     *gin.Engine
	basePath   string
	registrars []RouteRegistrar
}

// RouterOption is a functional option for Router configuration
type RouterOption func(*Router)

// WithBasePath sets the prefix every registrar is mounted under (default "/api")
func WithBasePath(path string) RouterOption {
	return func(r *Router) {
		r.basePath = normalizeBasePath(path)
	}
}

// NewRouter creates a new Router instance
func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{
		engine:   engine,
		basePath: "/api",
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a RouteRegistrar to be registered by Setup
func (r *Router) Register(registrar RouteRegistrar) *Router {
	r.registrars = append(r.registrars, registrar)
	return r
}

// Setup registers all routes with the engine
func (r *Router) Setup() {
	api := r.engine.Group(r.basePath)
	for _, registrar := range r.registrars {
		registrar.RegisterRoutes(api)
	}
}

// BasePath returns the API prefix
func (r *Router) BasePath() string {
	return r.basePath
}

// EngineConfig holds what NewEngine needs besides the route registrars
type EngineConfig struct {
	HTTP   config.HTTPConfig
	Upload config.UploadConfig
	Logger *zap.Logger
	Health gin.HandlerFunc
}

// NewEngine creates a gin engine with the global middleware chain, /health,
// static serving of uploaded images (filesystem backend) and every registrar
// mounted under the configured base path.
func NewEngine(cfg EngineConfig, registrars ...RouteRegistrar) *gin.Engine {
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			cfg.Logger.Warn("Invalid trusted proxies, ignoring", zap.Error(err))
		}
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(cfg.Logger),
		logger.Recovery(cfg.Logger),
		middleware.Secure(middleware.DefaultSecurityConfig()),
		middleware.CORS(middleware.CORSConfigFromHTTP(cfg.HTTP)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponse(dto.ErrCodeNotFound, "Route not found", c.GetString("request_id")))
	})

	if cfg.Health != nil {
		engine.GET("/health", cfg.Health)
	}

	if cfg.Upload.Backend == "filesystem" && cfg.Upload.Dir != "" {
		engine.Static(normalizeBasePath(cfg.Upload.PublicPath), cfg.Upload.Dir)
	}

	r := NewRouter(engine, WithBasePath(cfg.HTTP.BasePath))
	for _, registrar := range registrars {
		r.Register(registrar)
	}
	r.Setup()

	return engine
}

// normalizeBasePath returns path with one leading slash and no trailing slash
func normalizeBasePath(path string) string {
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return "/"
	}
	return "/" + path
}
