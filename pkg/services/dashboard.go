package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/centraldavisao/lead-funnel/pkg/models"
)

// RecentLeadsLimit caps the leads table on the dashboard.
const RecentLeadsLimit = 100

// DashboardStore is the read side used by the dashboard.
type DashboardStore interface {
	FunnelEvents(ctx context.Context) ([]models.FunnelEvent, error)
	AdminLeads(ctx context.Context, limit int) ([]models.Lead, error)
	LeadTotals(ctx context.Context) (total, whatsAppSent int, err error)
}

// Stats are the headline numbers on the dashboard.
type Stats struct {
	TotalVisits    int     `json:"totalVisits"`
	TotalLeads     int     `json:"totalLeads"`
	ConversionRate float64 `json:"conversionRate"`
	WhatsAppSent   int     `json:"whatsappSent"`
}

// FunnelBar is the number of events recorded for one step.
type FunnelBar struct {
	Step  int    `json:"step"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Snapshot is everything the dashboard renders.
type Snapshot struct {
	Stats       Stats         `json:"stats"`
	Funnel      []FunnelBar   `json:"funnel"`
	RecentLeads []models.Lead `json:"recentLeads"`
	GeneratedAt time.Time     `json:"generatedAt"`
}

// DashboardService builds dashboard snapshots.
type DashboardService interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

type dashboardServiceImpl struct {
	store DashboardStore
	now   func() time.Time
}

// NewDashboardService creates a dashboard service.
func NewDashboardService(store DashboardStore) DashboardService {
	return &dashboardServiceImpl{store: store, now: time.Now}
}

// Snapshot loads events, leads and totals concurrently and aggregates them.
func (d *dashboardServiceImpl) Snapshot(ctx context.Context) (*Snapshot, error) {
	var (
		events         []models.FunnelEvent
		leads          []models.Lead
		total, waTotal int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		events, err = d.store.FunnelEvents(gctx)
		if err != nil {
			return fmt.Errorf("load funnel events: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		leads, err = d.store.AdminLeads(gctx, RecentLeadsLimit)
		if err != nil {
			return fmt.Errorf("load leads: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		total, waTotal, err = d.store.LeadTotals(gctx)
		if err != nil {
			return fmt.Errorf("count leads: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bars, sessions := Aggregate(events)
	if leads == nil {
		leads = []models.Lead{}
	}
	return &Snapshot{
		Stats: Stats{
			TotalVisits:    sessions,
			TotalLeads:     total,
			ConversionRate: ConversionRate(total, sessions),
			WhatsAppSent:   waTotal,
		},
		Funnel:      bars,
		RecentLeads: leads,
		GeneratedAt: d.now(),
	}, nil
}

// Aggregate counts event rows per step, ordered by step. The bar name is the
// step name of the first event seen for that step. The second result is the
// number of distinct sessions overall.
func Aggregate(events []models.FunnelEvent) ([]FunnelBar, int) {
	byStep := make(map[int]*FunnelBar)
	sessions := make(map[string]struct{})

	for _, ev := range events {
		sessions[ev.SessionID] = struct{}{}
		bar, ok := byStep[ev.StepNumber]
		if !ok {
			name := ev.StepName
			if name == "" {
				name = fmt.Sprintf("Etapa %d", ev.StepNumber)
			}
			bar = &FunnelBar{Step: ev.StepNumber, Name: name}
			byStep[ev.StepNumber] = bar
		}
		bar.Count++
	}

	bars := make([]FunnelBar, 0, len(byStep))
	for _, bar := range byStep {
		bars = append(bars, *bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Step < bars[j].Step })
	return bars, len(sessions)
}

// ConversionRate is leads/sessions as a percentage with one decimal, or 0
// when there were no sessions.
func ConversionRate(leads, sessions int) float64 {
	if sessions <= 0 {
		return 0
	}
	return math.Round(float64(leads)/float64(sessions)*1000) / 10
}
