package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/centraldavisao/lead-funnel/pkg/middleware"
	"github.com/centraldavisao/lead-funnel/pkg/web"
)

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *Handlers, corsOrigin string) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery(h.logger), middleware.RequestLogger(h.logger))

	router.StaticFS("/static", web.Static())

	// Visitor form
	router.GET("/", h.ShowStep)
	router.POST("/step", h.NextStep)
	router.POST("/back", h.PreviousStep)
	router.POST("/reset", h.ResetForm)
	router.GET("/whatsapp", h.OpenWhatsApp)

	// Admin
	router.GET("/dashboard", h.ShowDashboard)
	router.POST("/dashboard/login", h.Login)
	router.POST("/dashboard/logout", h.Logout)

	// JSON API
	apiGroup := router.Group("/api", middleware.CORS(corsOrigin))
	apiGroup.OPTIONS("/*path", func(c *gin.Context) {})
	apiGroup.POST("/leads", h.HandleLeadSubmission)
	apiGroup.POST("/events", h.HandleFunnelEvent)
	apiGroup.GET("/dashboard", h.auth.RequireAdmin(), h.DashboardJSON)

	// Ops
	router.GET("/health", h.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}
