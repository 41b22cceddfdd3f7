package web

import (
	"fmt"
	"html"
	"html/template"
	"strings"

	"github.com/centraldavisao/lead-funnel/pkg/services"
)

// Bar colors; the last step of the funnel is highlighted.
const (
	BarColor       = "#3d3e91"
	HighlightColor = "#10b981"
)

const (
	chartWidth   = 720
	chartHeight  = 300
	marginTop    = 20
	marginRight  = 30
	marginBottom = 40
	marginLeft   = 40
	gridLines    = 4
)

// BarChart draws the funnel as an inline SVG bar chart.
func BarChart(bars []services.FunnelBar) template.HTML {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg class="funnel-chart" viewBox="0 0 %d %d" role="img" aria-label="Funil de conversão">`, chartWidth, chartHeight)
	if len(bars) == 0 {
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" fill="#a0aec0">Sem dados</text></svg>`, chartWidth/2, chartHeight/2)
		return template.HTML(b.String())
	}

	plotW := float64(chartWidth - marginLeft - marginRight)
	plotH := float64(chartHeight - marginTop - marginBottom)
	baseline := float64(chartHeight - marginBottom)

	maxCount := 0
	for _, bar := range bars {
		if bar.Count > maxCount {
			maxCount = bar.Count
		}
	}
	if maxCount == 0 {
		maxCount = 1
	}

	for i := 0; i <= gridLines; i++ {
		y := baseline - plotH*float64(i)/gridLines
		value := maxCount * i / gridLines
		fmt.Fprintf(&b, `<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="rgba(255,255,255,0.1)" stroke-dasharray="3 3"/>`,
			marginLeft, y, chartWidth-marginRight, y)
		fmt.Fprintf(&b, `<text x="%d" y="%.1f" text-anchor="end" font-size="11" fill="#a0aec0">%d</text>`,
			marginLeft-6, y+4, value)
	}

	slot := plotW / float64(len(bars))
	width := slot * 0.6
	for i, bar := range bars {
		fill := BarColor
		if i == len(bars)-1 {
			fill = HighlightColor
		}
		h := plotH * float64(bar.Count) / float64(maxCount)
		x := float64(marginLeft) + slot*float64(i) + (slot-width)/2
		fmt.Fprintf(&b, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" rx="4" fill="%s"><title>%s: %d</title></rect>`,
			x, baseline-h, width, h, fill, html.EscapeString(bar.Name), bar.Count)
		fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" font-size="11" fill="#a0aec0">%s</text>`,
			x+width/2, baseline+16, html.EscapeString(bar.Name))
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}
