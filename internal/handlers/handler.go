package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"smokemate/internal/logger"
	"smokemate/internal/service"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	gatherer prometheus.Gatherer
}

// Option configures a Handler.
type Option func(*Handler)

// WithGatherer serves the collectors of g on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(h *Handler) { h.gatherer = g }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds the dashboard router: the UI API, the status stream and
// the edit session.
func (h *Handler) InitRoutes() *gin.Engine {
	router := h.baseRouter()

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	router.GET("/ws", h.wsConnect)

	return router
}

// InitRelayRoutes builds the relay router. The wire routes mirror the
// controller's own API so a dashboard can point at the relay instead.
func (h *Handler) InitRelayRoutes() *gin.Engine {
	router := h.baseRouter()

	h.registerWireRoutes(router)
	h.registerAuthRoutes(router)

	api := router.Group("/api/v1", h.authMiddleware)
	{
		h.registerLogRoutes(api)
	}
	return router
}

func (h *Handler) baseRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	if h.gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))
	}
	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.authMiddleware)
	{
		h.registerMonitoringRoutes(api)
		h.registerControlRoutes(api)
		h.registerSessionRoutes(api)
	}
}

func (h *Handler) registerMonitoringRoutes(api *gin.RouterGroup) {
	api.GET("/status", h.getStatus)
	api.GET("/config", h.getConfig)
	api.GET("/history", h.getHistory)
	api.GET("/poll-stats", h.getPollStats)
}

func (h *Handler) registerControlRoutes(api *gin.RouterGroup) {
	api.POST("/start", h.startController)
	api.POST("/stop", h.stopController)
}

func (h *Handler) registerSessionRoutes(api *gin.RouterGroup) {
	s := api.Group("/session")
	{
		s.GET("", h.getSession)
		s.POST("", h.openSession)
		s.DELETE("", h.discardSession)
		s.PUT("/fields/:name", h.setSessionField)
		s.PUT("/steps", h.setSessionStepCount)
		s.PUT("/steps/:index/:field", h.setSessionStepField)
		s.POST("/submit", h.submitSession)
	}
}

func (h *Handler) registerWireRoutes(r *gin.Engine) {
	r.GET("/status", h.wireStatus)
	r.GET("/config", h.wireConfig)
	r.GET("/run-status-history", h.wireRunHistory)
	r.POST("/start", h.wireStart)
	r.POST("/stop", h.wireStop)
	r.POST("/config", h.wireSetConfig)
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("", h.getLogs)
	}
}
