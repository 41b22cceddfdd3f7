package services

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
	"github.com/centraldavisao/lead-funnel/pkg/metrics"
	"github.com/centraldavisao/lead-funnel/pkg/models"
)

// EventStore is the persistence needed to record funnel events.
type EventStore interface {
	InsertFunnelEvent(ctx context.Context, ev *models.FunnelEvent) error
}

// TrackingService records which step each session reached.
type TrackingService interface {
	// Track appends a funnel event. Failures are logged, never returned:
	// analytics must not break the form.
	Track(ctx context.Context, sessionID string, step int, stepName string)
}

type trackingServiceImpl struct {
	store  EventStore
	logger *zap.Logger
}

// NewTrackingService creates a tracking service.
func NewTrackingService(store EventStore, logger *zap.Logger) TrackingService {
	return &trackingServiceImpl{store: store, logger: logger}
}

func (t *trackingServiceImpl) Track(ctx context.Context, sessionID string, step int, stepName string) {
	if stepName == "" {
		stepName = funnel.StepName(step)
	}
	ev := &models.FunnelEvent{SessionID: sessionID, StepNumber: step, StepName: stepName}
	if err := t.store.InsertFunnelEvent(context.WithoutCancel(ctx), ev); err != nil {
		t.logger.Error("Error recording funnel event",
			zap.String("session_id", sessionID), zap.Int("step", step), zap.Error(err))
		return
	}
	metrics.StepViews.WithLabelValues(strconv.Itoa(step)).Inc()
}
