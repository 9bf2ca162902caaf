package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/dtroode/recipebox-server/internal/api/http/handler"
	"github.com/dtroode/recipebox-server/internal/api/http/middleware"
	"github.com/dtroode/recipebox-server/internal/logger"
	"github.com/dtroode/recipebox-server/internal/model"
)

// LegacyPrefix is the mount point the browser client has always used.
const LegacyPrefix = "/api/users"

// Options tune the router around the handlers.
type Options struct {
	AllowedOrigins []string
	Cookie         handler.CookieOptions
	// ServiceName enables otelgin spans when non-empty.
	ServiceName string
}

// Router wires HTTP handlers and middleware into a gin engine.
type Router struct {
	authService    handler.AuthService
	pagesService   handler.PagesService
	exportService  handler.ExportService
	tokenService   middleware.TokenService
	healthChecker  handler.HealthChecker
	contextManager model.ContextManager
	opts           Options
	logger         *logger.Logger
}

// New creates a Router. exportService may be nil, which leaves the export route out.
func New(
	authService handler.AuthService,
	pagesService handler.PagesService,
	exportService handler.ExportService,
	tokenService middleware.TokenService,
	healthChecker handler.HealthChecker,
	contextManager model.ContextManager,
	opts Options,
	logger *logger.Logger,
) *Router {
	return &Router{
		authService:    authService,
		pagesService:   pagesService,
		exportService:  exportService,
		tokenService:   tokenService,
		healthChecker:  healthChecker,
		contextManager: contextManager,
		opts:           opts,
		logger:         logger,
	}
}

// Register builds the engine with every route mounted at the root and under LegacyPrefix.
func (r *Router) Register() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery())
	if r.opts.ServiceName != "" {
		engine.Use(otelgin.Middleware(r.opts.ServiceName))
	}
	engine.Use(middleware.NewLogging(r.logger).Handle())
	if len(r.opts.AllowedOrigins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     r.opts.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	health := handler.NewHealth(r.healthChecker, r.logger)
	engine.GET("/healthz", health.Check)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.registerRoutes(engine.Group(""))
	r.registerRoutes(engine.Group(LegacyPrefix))

	return engine
}

func (r *Router) registerRoutes(group *gin.RouterGroup) {
	authHandler := handler.NewAuth(r.authService, r.opts.Cookie, r.logger)
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/logout", authHandler.Logout)

	authenticate := middleware.NewAuthenticate(r.tokenService, r.contextManager, r.logger)
	protected := group.Group("", authenticate.Handle())

	pagesHandler := handler.NewPages(r.pagesService, r.contextManager, r.logger)
	protected.GET("/dashboard", pagesHandler.Dashboard)
	protected.POST("/addPage", pagesHandler.AddPage)
	protected.DELETE("/deletePage/:pageId", pagesHandler.DeletePage)
	protected.POST("/addTimer", pagesHandler.AddTimer)
	protected.DELETE("/deleteTimer/:timerId", pagesHandler.DeleteTimer)
	protected.GET("/pages/:pageId/unitConverters", pagesHandler.ListUnitConverters)
	protected.POST("/pages/:pageId/unitConverters", pagesHandler.AddUnitConverter)
	protected.PUT("/pages/:pageId/unitConverters/:converterId", pagesHandler.UpdateUnitConverter)
	protected.DELETE("/pages/:pageId/unitConverters/:converterId", pagesHandler.DeleteUnitConverter)

	if r.exportService != nil {
		exportHandler := handler.NewExport(r.exportService, r.contextManager, r.logger)
		protected.POST("/pages/:pageId/export", exportHandler.ExportPage)
	}
}
