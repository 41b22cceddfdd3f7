// Package web renders the visitor wizard and the admin dashboard from
// embedded html/template files.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
	"github.com/centraldavisao/lead-funnel/pkg/services"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const htmlContentType = "text/html; charset=utf-8"

// Page names.
const (
	PageWizard    = "wizard.html"
	PageRejected  = "rejected.html"
	PageLogin     = "login.html"
	PageDashboard = "dashboard.html"
)

// Brazil has had no daylight saving time since 2019.
var brazilTime = time.FixedZone("BRT", -3*60*60)

// PixelEvent is one analytics pixel call emitted after PageView.
type PixelEvent struct {
	Custom bool
	Name   string
	Params map[string]any
}

// Page is the data handed to the shared layout.
type Page struct {
	Title       string
	PixelID     string
	PixelEvents []PixelEvent
	Body        any
}

// WizardView is the body of the visitor form.
type WizardView struct {
	State        *funnel.State
	StepName     string
	TotalSteps   int
	Situations   []funnel.Option
	Problems     []funnel.Option
	Implications []funnel.Option
}

// LoginView is the body of the login form.
type LoginView struct {
	Username string
	Error    string
}

// DashboardView is the body of the admin dashboard.
type DashboardView struct {
	Snapshot *services.Snapshot
}

// Renderer executes the embedded templates.
type Renderer struct {
	pages   map[string]*template.Template
	pixelID string
	logger  *zap.Logger
}

// NewRenderer parses every page against the layout.
func NewRenderer(pixelID string, logger *zap.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"situationLabel":   funnel.SituationLabel,
		"problemLabel":     funnel.ProblemLabel,
		"implicationLabel": funnel.ImplicationLabel,
		"firstName":        funnel.FirstName,
		"brDateTime":       FormatDateTime,
		"barChart":         BarChart,
		"percent":          FormatPercent,
		"isStep":           func(s *funnel.State, n int) bool { return s.Step == n },
	}

	pages := make(map[string]*template.Template)
	for _, name := range []string{PageWizard, PageRejected, PageLogin, PageDashboard} {
		t, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages, pixelID: pixelID, logger: logger}, nil
}

// Static returns the embedded stylesheet directory.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// Execute renders a page into a buffer.
func (r *Renderer) Execute(page string, p Page) ([]byte, error) {
	t, ok := r.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	p.PixelID = r.pixelID
	var buffer bytes.Buffer
	if err := t.ExecuteTemplate(&buffer, "layout.html", p); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}

// HTML renders a page as the response.
func (r *Renderer) HTML(c *gin.Context, status int, page string, p Page) {
	body, err := r.Execute(page, p)
	if err != nil {
		r.logger.Error("render_page", zap.String("page", page), zap.Error(err))
		r.Error(c, http.StatusInternalServerError)
		return
	}
	c.Data(status, htmlContentType, body)
}

const errorPage = `<!DOCTYPE html>
<html lang="pt-BR"><head><meta charset="utf-8"><title>Central da Visão</title></head>
<body><p>Algo deu errado. Tente novamente em instantes.</p></body></html>
`

// Error aborts an HTML route with a bare error page.
func (r *Renderer) Error(c *gin.Context, status int) {
	c.Data(status, htmlContentType, []byte(errorPage))
	c.Abort()
}

// Wizard renders the visitor form, or the rejection view once the visitor
// declined private care.
func (r *Renderer) Wizard(c *gin.Context, state *funnel.State) {
	page := PageWizard
	if state.Rejected {
		page = PageRejected
	}
	r.HTML(c, http.StatusOK, page, WizardPage(state))
}

// WizardPage builds the page for the current wizard state, including the
// pixel events that belong to it.
func WizardPage(state *funnel.State) Page {
	if state.Rejected {
		return Page{
			Title:       "Central da Visão",
			PixelEvents: []PixelEvent{{Custom: true, Name: "Rejected", Params: map[string]any{"reason": "convenio"}}},
		}
	}
	name := funnel.StepName(state.Step)
	events := []PixelEvent{{
		Custom: true,
		Name:   "FunnelStep",
		Params: map[string]any{"step": state.Step, "step_name": name},
	}}
	if state.Step == funnel.FinalStep {
		events = append(events, PixelEvent{Name: "Lead", Params: map[string]any{"content_name": "Exame de Vista"}})
	}
	return Page{
		Title:       "Agende seu Exame de Vista - Central da Visão",
		PixelEvents: events,
		Body: WizardView{
			State:        state,
			StepName:     name,
			TotalSteps:   funnel.TotalSteps,
			Situations:   funnel.SituationOptions,
			Problems:     funnel.ProblemOptions,
			Implications: funnel.ImplicationOptions,
		},
	}
}

// FormatDateTime renders t as a pt-BR date and time in Brazil's time zone.
func FormatDateTime(t time.Time) string {
	return t.In(brazilTime).Format("02/01/2006 15:04:05")
}

// FormatPercent renders a rate with a decimal comma.
func FormatPercent(v float64) string {
	return strings.Replace(fmt.Sprintf("%.1f", v), ".", ",", 1)
}
