package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/clients/twilio"
	"github.com/centraldavisao/lead-funnel/pkg/metrics"
)

// ReportService periodically sends the dashboard numbers to the clinic.
type ReportService struct {
	dashboard DashboardService
	twilio    twilio.Client
	to        string
	logger    *zap.Logger
	cron      *cron.Cron
	timeout   time.Duration
}

// NewReportService creates a report service. Nothing is scheduled until Start.
func NewReportService(dashboard DashboardService, client twilio.Client, to string, logger *zap.Logger) *ReportService {
	return &ReportService{
		dashboard: dashboard,
		twilio:    client,
		to:        to,
		logger:    logger,
		cron:      cron.New(),
		timeout:   time.Minute,
	}
}

// Start schedules the report on a standard five field cron expression.
func (r *ReportService) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.run); err != nil {
		return fmt.Errorf("invalid report schedule %q: %w", schedule, err)
	}
	r.cron.Start()
	r.logger.Info("Daily report scheduled", zap.String("schedule", schedule))
	return nil
}

// Stop unschedules the report and waits for a running send to finish.
func (r *ReportService) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

func (r *ReportService) run() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	if err := r.Send(ctx); err != nil {
		r.logger.Error("Error sending daily report", zap.Error(err))
	}
}

// Send builds the current report and delivers it.
func (r *ReportService) Send(ctx context.Context) error {
	snap, err := r.dashboard.Snapshot(ctx)
	if err != nil {
		return err
	}
	if err := r.twilio.SendMessage(r.to, FormatReport(snap)); err != nil {
		metrics.Notifications.WithLabelValues("daily_report", "error").Inc()
		return err
	}
	metrics.Notifications.WithLabelValues("daily_report", "ok").Inc()
	return nil
}

// FormatReport renders a snapshot as a short pt-BR text message.
func FormatReport(s *Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Funil Exame de Vista - %s\n", s.GeneratedAt.Format("02/01/2006"))
	fmt.Fprintf(&b, "Visitas: %d\n", s.Stats.TotalVisits)
	fmt.Fprintf(&b, "Leads: %d\n", s.Stats.TotalLeads)
	fmt.Fprintf(&b, "Conversão: %s%%\n", strings.Replace(fmt.Sprintf("%.1f", s.Stats.ConversionRate), ".", ",", 1))
	fmt.Fprintf(&b, "WhatsApp enviados: %d", s.Stats.WhatsAppSent)
	for _, bar := range s.Funnel {
		fmt.Fprintf(&b, "\n%d. %s: %d", bar.Step, bar.Name, bar.Count)
	}
	return b.String()
}
