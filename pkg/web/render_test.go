package web

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
	"github.com/centraldavisao/lead-funnel/pkg/models"
	"github.com/centraldavisao/lead-funnel/pkg/services"
)

func newRenderer(t *testing.T, pixelID string) *Renderer {
	t.Helper()
	r, err := NewRenderer(pixelID, zap.NewNop())
	require.NoError(t, err)
	return r
}

func TestWizardFirstStep(t *testing.T) {
	r := newRenderer(t, "")
	out, err := r.Execute(PageWizard, WizardPage(funnel.NewState()))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Etapa 1 de 8")
	assert.Contains(t, html, "width: 12.5%")
	assert.Contains(t, html, "Quando foi seu último exame de vista?")
	assert.Contains(t, html, `value="menos1"`)
	assert.Contains(t, html, "Continuar")
	assert.NotContains(t, html, "Voltar")
	assert.NotContains(t, html, "fbq(")
}

func TestWizardQualificationStepLabelAndBack(t *testing.T) {
	r := newRenderer(t, "")
	s := funnel.NewState()
	s.Step = funnel.QualificationStep
	out, err := r.Execute(PageWizard, WizardPage(s))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Quero agendar")
	assert.Contains(t, html, "Voltar")
	assert.Contains(t, html, "R$ 180,00")
	assert.Contains(t, html, "width: 50%")
}

func TestWizardShowsFieldError(t *testing.T) {
	r := newRenderer(t, "")
	s := funnel.NewState()
	s.Step = funnel.PhoneStep
	require.NoError(t, s.Set(funnel.FieldPhone, "123"))
	s.Next()

	out, err := r.Execute(PageWizard, WizardPage(s))
	require.NoError(t, err)
	assert.Contains(t, string(out), funnel.MsgInvalidPhone)
}

func TestWizardSubmitBanner(t *testing.T) {
	r := newRenderer(t, "")
	s := funnel.NewState()
	s.Reopen()

	out, err := r.Execute(PageWizard, WizardPage(s))
	require.NoError(t, err)
	assert.Contains(t, string(out), funnel.MsgSubmitFailed)
	assert.Contains(t, string(out), "Etapa 7 de 8")
}

func TestWizardFinalStepWithPixel(t *testing.T) {
	r := newRenderer(t, "123456")
	s := funnel.NewState()
	s.Step = funnel.FinalStep
	s.Answers = funnel.Answers{
		Situation: "nunca", Problem: "dor_cabeca", Implication: "leitura",
		AcceptsPrivate: "sim", Phone: "(47) 98888-7777", Name: "maria clara", Email: "m@x.com",
	}

	out, err := r.Execute(PageWizard, WizardPage(s))
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Perfeito, Maria!")
	assert.Contains(t, html, "Nunca fiz")
	assert.Contains(t, html, "Dores de cabeça")
	assert.Contains(t, html, `href="/whatsapp"`)
	assert.Contains(t, html, `fbq('init', "123456")`)
	assert.Contains(t, html, `fbq('track', 'PageView')`)
	assert.Contains(t, html, `"Lead"`)
	assert.Contains(t, html, `"FunnelStep"`)
	assert.Contains(t, html, "Contact")
	assert.NotContains(t, html, "Continuar")
}

func TestRejectedPage(t *testing.T) {
	r := newRenderer(t, "42")
	s := funnel.NewState()
	s.Rejected = true

	out, err := r.Execute(PageRejected, WizardPage(s))
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "Que pena!")
	assert.Contains(t, html, `action="/reset"`)
	assert.Contains(t, html, `"Rejected"`)
}

func TestLoginPage(t *testing.T) {
	r := newRenderer(t, "")
	out, err := r.Execute(PageLogin, Page{Body: LoginView{Username: "<admin>", Error: "Credenciais inválidas."}})
	require.NoError(t, err)
	html := string(out)
	assert.Contains(t, html, "Credenciais inválidas.")
	assert.Contains(t, html, "&lt;admin&gt;")
}

func TestDashboardPage(t *testing.T) {
	r := newRenderer(t, "")
	snap := &services.Snapshot{
		Stats: services.Stats{TotalVisits: 3, TotalLeads: 1, ConversionRate: 33.3, WhatsAppSent: 1},
		Funnel: []services.FunnelBar{
			{Step: 1, Name: "Último exame", Count: 3},
			{Step: 8, Name: "Concluído", Count: 1},
		},
		RecentLeads: []models.Lead{
			{Name: "Ana", Phone: "(47) 98888-7777", WhatsAppSent: true, CreatedAt: time.Date(2026, 5, 2, 17, 30, 5, 0, time.UTC)},
			{Name: "Bia", Phone: "(47) 3333-4444"},
		},
	}
	out, err := r.Execute(PageDashboard, Page{Body: DashboardView{Snapshot: snap}})
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "33,3%")
	assert.Contains(t, html, "02/05/2026 14:30:05")
	assert.Contains(t, html, "Enviado")
	assert.Contains(t, html, "Pendente")
	assert.Contains(t, html, "<svg")
}

func TestBarChartHighlightsLastBar(t *testing.T) {
	svg := string(BarChart([]services.FunnelBar{
		{Step: 1, Name: "A", Count: 10},
		{Step: 2, Name: "B", Count: 5},
		{Step: 3, Name: "C<script>", Count: 2},
	}))

	assert.Equal(t, 2, strings.Count(svg, `fill="`+BarColor+`"`))
	assert.Equal(t, 1, strings.Count(svg, `fill="`+HighlightColor+`"`))
	assert.True(t, strings.LastIndex(svg, BarColor) < strings.Index(svg, HighlightColor))
	assert.NotContains(t, svg, "<script>")
	assert.Contains(t, svg, "C&lt;script&gt;")
}

func TestBarChartEmpty(t *testing.T) {
	assert.Contains(t, string(BarChart(nil)), "Sem dados")
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "0,0", FormatPercent(0))
	assert.Equal(t, "66,7", FormatPercent(66.7))
}
