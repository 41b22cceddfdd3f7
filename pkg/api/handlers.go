package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/auth"
	"github.com/centraldavisao/lead-funnel/pkg/funnel"
	"github.com/centraldavisao/lead-funnel/pkg/models"
	"github.com/centraldavisao/lead-funnel/pkg/services"
	"github.com/centraldavisao/lead-funnel/pkg/session"
	"github.com/centraldavisao/lead-funnel/pkg/utils"
	"github.com/centraldavisao/lead-funnel/pkg/web"
)

// LeadStore is the persistence the handlers use directly.
type LeadStore interface {
	MarkWhatsAppSent(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Dependencies wires the handlers to the rest of the application.
type Dependencies struct {
	Store          LeadStore
	Sessions       session.Store
	Submission     services.LeadSubmissionService
	Tracking       services.TrackingService
	Dashboard      services.DashboardService
	Auth           *auth.Authenticator
	Renderer       *web.Renderer
	ClinicWhatsApp string
	SecureCookies  bool
	Logger         *zap.Logger
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	store          LeadStore
	sessions       session.Store
	locks          *session.Locks
	submission     services.LeadSubmissionService
	tracking       services.TrackingService
	dashboard      services.DashboardService
	auth           *auth.Authenticator
	renderer       *web.Renderer
	clinicWhatsApp string
	secureCookies  bool
	logger         *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Dependencies) *Handlers {
	clinic := deps.ClinicWhatsApp
	if clinic == "" {
		clinic = funnel.DefaultClinicWhatsApp
	}
	return &Handlers{
		store:          deps.Store,
		sessions:       deps.Sessions,
		locks:          session.NewLocks(),
		submission:     deps.Submission,
		tracking:       deps.Tracking,
		dashboard:      deps.Dashboard,
		auth:           deps.Auth,
		renderer:       deps.Renderer,
		clinicWhatsApp: clinic,
		secureCookies:  deps.SecureCookies,
		logger:         deps.Logger,
	}
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// HandleLeadSubmission accepts a complete lead from a headless client
func (h *Handlers) HandleLeadSubmission(c *gin.Context) {
	var req models.LeadRequest

	// Bind JSON to struct
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Error parsing lead request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	// Validate field values
	answers := req.Answers()
	if err := answers.Validate(); err != nil {
		var fields funnel.ValidationError
		if errors.As(err, &fields) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid fields", "fields": fields})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead := models.NewLead(req.SessionID, answers)
	if err := h.submission.Submit(c.Request.Context(), &lead); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store lead"})
		return
	}

	h.logger.Info("Lead received via API",
		zap.String("lead_id", lead.ID), zap.String("phone_hash", utils.HashPhone(lead.Phone)))
	c.JSON(http.StatusCreated, gin.H{
		"status":       "success",
		"id":           lead.ID,
		"whatsappLink": funnel.WhatsAppLink(h.clinicWhatsApp, answers),
	})
}

// HandleFunnelEvent records a step event from a headless client
func (h *Handlers) HandleFunnelEvent(c *gin.Context) {
	var req models.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
		return
	}

	h.tracking.Track(c.Request.Context(), req.SessionID, req.StepNumber, req.StepName)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
