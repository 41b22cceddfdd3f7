package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/clients/webhook"
	"github.com/centraldavisao/lead-funnel/pkg/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeStore struct {
	mu       sync.Mutex
	leads    []models.Lead
	events   []models.FunnelEvent
	insertFn func() error
	eventErr error
	total    int
	waSent   int
}

func (f *fakeStore) InsertLead(_ context.Context, lead *models.Lead) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertFn != nil {
		if err := f.insertFn(); err != nil {
			return err
		}
	}
	lead.ID = "lead-1"
	f.leads = append(f.leads, *lead)
	return nil
}

func (f *fakeStore) InsertFunnelEvent(_ context.Context, ev *models.FunnelEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.eventErr != nil {
		return f.eventErr
	}
	f.events = append(f.events, *ev)
	return nil
}

func (f *fakeStore) FunnelEvents(context.Context) ([]models.FunnelEvent, error) {
	return f.events, nil
}

func (f *fakeStore) AdminLeads(_ context.Context, limit int) ([]models.Lead, error) {
	if len(f.leads) > limit {
		return f.leads[:limit], nil
	}
	return f.leads, nil
}

func (f *fakeStore) LeadTotals(context.Context) (int, int, error) {
	return f.total, f.waSent, nil
}

type fakeWebhook struct {
	mu       sync.Mutex
	payloads []webhook.Payload
	err      error
}

func (f *fakeWebhook) Notify(_ context.Context, p webhook.Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, p)
	return f.err
}

func (f *fakeWebhook) Close() {}

type fakeTwilio struct {
	mu   sync.Mutex
	sent map[string][]string
	err  error
}

func (f *fakeTwilio) SendMessage(to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sent == nil {
		f.sent = make(map[string][]string)
	}
	f.sent[to] = append(f.sent[to], body)
	return f.err
}

func sampleLead() *models.Lead {
	return &models.Lead{
		SessionID:      "sess-1",
		Name:           "Ana Souza",
		Phone:          "(47) 98888-7777",
		Email:          "ana@exemplo.com",
		Situation:      "1a2",
		Problem:        "checkup",
		Implication:    "prevencao",
		AcceptsPrivate: true,
	}
}

func TestSubmitStoresAndNotifies(t *testing.T) {
	st := &fakeStore{}
	wh := &fakeWebhook{}
	tw := &fakeTwilio{}
	svc := NewLeadSubmissionService(st, wh, tw, "whatsapp:+5547999990000", zap.NewNop())

	lead := sampleLead()
	require.NoError(t, svc.Submit(context.Background(), lead))
	svc.Wait()

	require.Len(t, st.leads, 1)
	assert.Equal(t, "lead-1", lead.ID)
	require.Len(t, wh.payloads, 1)
	assert.Equal(t, "lead-1", wh.payloads[0].LeadID)
	assert.Equal(t, "Ana Souza", wh.payloads[0].Name)
	require.Len(t, tw.sent["whatsapp:+5547999990000"], 1)
	assert.Contains(t, tw.sent["whatsapp:+5547999990000"][0], "Ana Souza")
}

func TestSubmitReturnsStoreError(t *testing.T) {
	st := &fakeStore{insertFn: func() error { return errors.New("disk full") }}
	wh := &fakeWebhook{}
	svc := NewLeadSubmissionService(st, wh, nil, "", zap.NewNop())

	err := svc.Submit(context.Background(), sampleLead())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Empty(t, wh.payloads)
}

func TestSubmitSkipsNotificationsForStoredSession(t *testing.T) {
	st := &fakeStore{insertFn: func() error { return models.ErrDuplicateLead }}
	wh := &fakeWebhook{}
	tw := &fakeTwilio{}
	svc := NewLeadSubmissionService(st, wh, tw, "+5547000000000", zap.NewNop())

	require.NoError(t, svc.Submit(context.Background(), sampleLead()))
	svc.Wait()
	assert.Empty(t, wh.payloads)
	assert.Empty(t, tw.sent)
}

func TestSubmitSwallowsWebhookError(t *testing.T) {
	st := &fakeStore{}
	wh := &fakeWebhook{err: errors.New("timeout")}
	svc := NewLeadSubmissionService(st, wh, nil, "", zap.NewNop())

	require.NoError(t, svc.Submit(context.Background(), sampleLead()))
	assert.Len(t, st.leads, 1)
	assert.Len(t, wh.payloads, 1)
}

func TestSubmitSurvivesCanceledRequest(t *testing.T) {
	st := &fakeStore{}
	wh := &fakeWebhook{}
	svc := NewLeadSubmissionService(st, wh, nil, "", zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, svc.Submit(ctx, sampleLead()))
	assert.Len(t, wh.payloads, 1)
}

func TestSubmitWithoutIntegrations(t *testing.T) {
	st := &fakeStore{}
	svc := NewLeadSubmissionService(st, nil, nil, "", zap.NewNop())
	require.NoError(t, svc.Submit(context.Background(), sampleLead()))
	svc.Wait()
	assert.Len(t, st.leads, 1)
}

func TestLeadAlertMessageUsesLabels(t *testing.T) {
	msg := LeadAlertMessage(*sampleLead())
	assert.Contains(t, msg, "1 a 2 anos")
	assert.Contains(t, msg, "Apenas check-up")
	assert.Contains(t, msg, "(47) 98888-7777")
}

func TestTrackRecordsEvent(t *testing.T) {
	st := &fakeStore{}
	svc := NewTrackingService(st, zap.NewNop())

	svc.Track(context.Background(), "sess-1", 3, "")
	svc.Track(context.Background(), "sess-1", 4, "Custom")

	require.Len(t, st.events, 2)
	assert.Equal(t, 3, st.events[0].StepNumber)
	assert.NotEmpty(t, st.events[0].StepName)
	assert.Equal(t, "Custom", st.events[1].StepName)
}

func TestTrackSwallowsErrors(t *testing.T) {
	st := &fakeStore{eventErr: errors.New("locked")}
	svc := NewTrackingService(st, zap.NewNop())
	assert.NotPanics(t, func() {
		svc.Track(context.Background(), "sess-1", 1, "")
	})
}

func TestAggregateCountsRowsPerStep(t *testing.T) {
	events := []models.FunnelEvent{
		{SessionID: "a", StepNumber: 1, StepName: "Início"},
		{SessionID: "a", StepNumber: 1, StepName: "Outro"},
		{SessionID: "b", StepNumber: 1, StepName: "Início"},
		{SessionID: "a", StepNumber: 2, StepName: "Situação"},
		{SessionID: "c", StepNumber: 8, StepName: "Final"},
	}
	bars, sessions := Aggregate(events)

	assert.Equal(t, 3, sessions)
	require.Len(t, bars, 3)
	assert.Equal(t, FunnelBar{Step: 1, Name: "Início", Count: 3}, bars[0])
	assert.Equal(t, FunnelBar{Step: 2, Name: "Situação", Count: 1}, bars[1])
	assert.Equal(t, FunnelBar{Step: 8, Name: "Final", Count: 1}, bars[2])
}

func TestAggregateFallbackName(t *testing.T) {
	bars, _ := Aggregate([]models.FunnelEvent{{SessionID: "a", StepNumber: 5}})
	require.Len(t, bars, 1)
	assert.Equal(t, "Etapa 5", bars[0].Name)
}

func TestAggregateEmpty(t *testing.T) {
	bars, sessions := Aggregate(nil)
	assert.Empty(t, bars)
	assert.Zero(t, sessions)
}

func TestConversionRate(t *testing.T) {
	assert.Equal(t, 0.0, ConversionRate(5, 0))
	assert.Equal(t, 33.3, ConversionRate(1, 3))
	assert.Equal(t, 66.7, ConversionRate(2, 3))
	assert.Equal(t, 100.0, ConversionRate(4, 4))
	assert.Equal(t, 12.5, ConversionRate(1, 8))
}

func TestSnapshot(t *testing.T) {
	st := &fakeStore{
		events: []models.FunnelEvent{
			{SessionID: "a", StepNumber: 1},
			{SessionID: "b", StepNumber: 1},
			{SessionID: "a", StepNumber: 2},
			{SessionID: "d", StepNumber: 1},
		},
		leads:  []models.Lead{*sampleLead()},
		total:  1,
		waSent: 1,
	}
	svc := NewDashboardService(st).(*dashboardServiceImpl)
	fixed := time.Date(2026, 5, 2, 20, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	snap, err := svc.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Stats{TotalVisits: 3, TotalLeads: 1, ConversionRate: 33.3, WhatsAppSent: 1}, snap.Stats)
	assert.Len(t, snap.Funnel, 2)
	assert.Len(t, snap.RecentLeads, 1)
	assert.Equal(t, fixed, snap.GeneratedAt)
}

func TestReportSend(t *testing.T) {
	st := &fakeStore{
		events: []models.FunnelEvent{{SessionID: "a", StepNumber: 1, StepName: "Início"}},
		total:  1,
	}
	tw := &fakeTwilio{}
	dash := NewDashboardService(st)
	r := NewReportService(dash, tw, "+5547999990000", zap.NewNop())

	require.NoError(t, r.Send(context.Background()))
	require.Len(t, tw.sent["+5547999990000"], 1)
	msg := tw.sent["+5547999990000"][0]
	assert.Contains(t, msg, "Visitas: 1")
	assert.Contains(t, msg, "Conversão: 100,0%")
	assert.Contains(t, msg, "1. Início: 1")
}

func TestReportRejectsBadSchedule(t *testing.T) {
	r := NewReportService(NewDashboardService(&fakeStore{}), &fakeTwilio{}, "x", zap.NewNop())
	require.Error(t, r.Start("not a schedule"))
}

func TestReportStartStop(t *testing.T) {
	r := NewReportService(NewDashboardService(&fakeStore{}), &fakeTwilio{}, "x", zap.NewNop())
	require.NoError(t, r.Start("0 20 * * *"))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r.Stop(ctx)
}
