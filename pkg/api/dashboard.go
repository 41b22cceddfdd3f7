package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/web"
)

// LoginFailedMessage is shown for any rejected login.
const LoginFailedMessage = "Credenciais inválidas."

// ShowDashboard renders the dashboard, or the login form without a valid
// admin cookie.
func (h *Handlers) ShowDashboard(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if !h.auth.Authenticated(c) {
		h.renderer.HTML(c, http.StatusOK, web.PageLogin, web.Page{Title: "Admin Dashboard", Body: web.LoginView{}})
		return
	}

	snap, err := h.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("Error building dashboard", zap.Error(err))
		h.renderer.Error(c, http.StatusInternalServerError)
		return
	}
	h.renderer.HTML(c, http.StatusOK, web.PageDashboard, web.Page{
		Title: "Dashboard de Conversão",
		Body:  web.DashboardView{Snapshot: snap},
	})
}

// Login checks the posted credentials and sets the admin cookie.
func (h *Handlers) Login(c *gin.Context) {
	username := c.PostForm("username")
	if err := h.auth.Authenticate(username, c.PostForm("password")); err != nil {
		h.logger.Warn("Dashboard login rejected", zap.String("ip", c.ClientIP()))
		h.renderer.HTML(c, http.StatusUnauthorized, web.PageLogin, web.Page{
			Title: "Admin Dashboard",
			Body:  web.LoginView{Username: username, Error: LoginFailedMessage},
		})
		return
	}

	token, err := h.auth.IssueToken()
	if err != nil {
		h.logger.Error("Error issuing admin token", zap.Error(err))
		c.AbortWithStatus(http.StatusInternalServerError)
		return
	}
	h.auth.SetCookie(c, token)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// Logout clears the admin cookie.
func (h *Handlers) Logout(c *gin.Context) {
	h.auth.ClearCookie(c)
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// DashboardJSON returns the dashboard snapshot.
func (h *Handlers) DashboardJSON(c *gin.Context) {
	snap, err := h.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		h.logger.Error("Error building dashboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "dashboard_unavailable"})
		return
	}
	c.JSON(http.StatusOK, snap)
}
