package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
	"github.com/centraldavisao/lead-funnel/pkg/metrics"
	"github.com/centraldavisao/lead-funnel/pkg/models"
	"github.com/centraldavisao/lead-funnel/pkg/session"
)

var formFields = []string{
	funnel.FieldSituation,
	funnel.FieldProblem,
	funnel.FieldImplication,
	funnel.FieldAcceptsPrivate,
	funnel.FieldPhone,
	funnel.FieldName,
	funnel.FieldEmail,
}

// visitor returns the session id and wizard state of the caller, starting
// a new session when the cookie is missing, malformed or expired.
func (h *Handlers) visitor(c *gin.Context) (string, *funnel.State, error) {
	ctx := c.Request.Context()
	if id, err := c.Cookie(session.CookieName); err == nil && session.ValidID(id) {
		state, err := h.sessions.Load(ctx, id)
		if err == nil {
			return id, state, nil
		}
		if !errors.Is(err, session.ErrNotFound) {
			return "", nil, err
		}
	}

	return h.startSession(c, funnel.NewState())
}

// startSession saves state under a new id and hands its cookie to the
// browser.
func (h *Handlers) startSession(c *gin.Context, state *funnel.State) (string, *funnel.State, error) {
	ctx := c.Request.Context()
	id := session.NewID()
	if err := h.sessions.Save(ctx, id, state); err != nil {
		return "", nil, err
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, id, 0, "/", "", h.secureCookies, true)
	h.tracking.Track(ctx, id, state.Step, "")
	return id, state, nil
}

// lockedVisitor is visitor for handlers that change the state. The session
// stays locked until unlock is called, after the state is saved.
func (h *Handlers) lockedVisitor(c *gin.Context) (string, *funnel.State, func(), error) {
	unlock := func() {}
	if id, err := c.Cookie(session.CookieName); err == nil && session.ValidID(id) {
		unlock = h.locks.Lock(id)
	}
	id, state, err := h.visitor(c)
	if err != nil {
		unlock()
		return "", nil, nil, err
	}
	return id, state, unlock, nil
}

func (h *Handlers) save(c *gin.Context, id string, state *funnel.State) bool {
	if err := h.sessions.Save(c.Request.Context(), id, state); err != nil {
		h.logger.Error("Error saving session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return false
	}
	return true
}

func (h *Handlers) applyForm(c *gin.Context, state *funnel.State) {
	for _, field := range formFields {
		if value, ok := c.GetPostForm(field); ok {
			// Known fields only; Set cannot fail here.
			_ = state.Set(field, value)
		}
	}
}

// ShowStep renders the visitor's current step.
func (h *Handlers) ShowStep(c *gin.Context) {
	_, state, err := h.visitor(c)
	if err != nil {
		h.logger.Error("Error loading session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Header("Cache-Control", "no-store")
	h.renderer.Wizard(c, state)
}

// NextStep applies the posted answers and advances the wizard. Completing
// the last question submits the lead.
func (h *Handlers) NextStep(c *gin.Context) {
	id, state, unlock, err := h.lockedVisitor(c)
	if err != nil {
		h.logger.Error("Error loading session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer unlock()
	if state.Rejected {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	h.applyForm(c, state)
	switch state.Next() {
	case funnel.Advanced:
		h.tracking.Track(c.Request.Context(), id, state.Step, "")
	case funnel.Rejected:
		metrics.Rejections.Inc()
	case funnel.Completed:
		lead := models.NewLead(id, state.Answers)
		if err := h.submission.Submit(c.Request.Context(), &lead); err != nil {
			state.Reopen()
			break
		}
		state.LeadID = lead.ID
		h.tracking.Track(c.Request.Context(), id, state.Step, "")
	}

	if h.save(c, id, state) {
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// PreviousStep goes back one step, keeping what was typed.
func (h *Handlers) PreviousStep(c *gin.Context) {
	id, state, unlock, err := h.lockedVisitor(c)
	if err != nil {
		h.logger.Error("Error loading session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer unlock()

	h.applyForm(c, state)
	if state.Back() == funnel.Retreated {
		h.tracking.Track(c.Request.Context(), id, state.Step, "")
	}

	if h.save(c, id, state) {
		c.Redirect(http.StatusSeeOther, "/")
	}
}

// ResetForm drops the visitor's session and starts the wizard over as a
// new visit.
func (h *Handlers) ResetForm(c *gin.Context) {
	id, state, unlock, err := h.lockedVisitor(c)
	if err != nil {
		h.logger.Error("Error loading session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	defer unlock()

	if err := h.sessions.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("Error deleting session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	state.Reset()
	if _, _, err := h.startSession(c, state); err != nil {
		h.logger.Error("Error starting session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// OpenWhatsApp marks the lead as contacted and sends the visitor to the
// pre-filled WhatsApp chat.
func (h *Handlers) OpenWhatsApp(c *gin.Context) {
	_, state, err := h.visitor(c)
	if err != nil {
		h.logger.Error("Error loading session", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	if state.Step != funnel.FinalStep || state.LeadID == "" {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	if err := h.store.MarkWhatsAppSent(c.Request.Context(), state.LeadID); err != nil {
		h.logger.Error("Error marking WhatsApp sent", zap.String("lead_id", state.LeadID), zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, funnel.WhatsAppLink(h.clinicWhatsApp, state.Answers))
}
