package store

import (
	"context"
	"fmt"

	"github.com/centraldavisao/lead-funnel/pkg/models"
)

// InsertFunnelEvent appends a step event.
func (s *Store) InsertFunnelEvent(ctx context.Context, ev *models.FunnelEvent) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = s.now().UTC()
	}
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO funnel_events (session_id, step_number, step_name, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		ev.SessionID, ev.StepNumber, ev.StepName, toMillis(ev.CreatedAt),
	).Scan(&ev.ID)
	if err != nil {
		return fmt.Errorf("insert funnel event: %w", err)
	}
	return nil
}

// FunnelEvents returns every recorded step event in insertion order.
func (s *Store) FunnelEvents(ctx context.Context) ([]models.FunnelEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, step_number, step_name, created_at
		FROM funnel_events
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query funnel events: %w", err)
	}
	defer rows.Close()

	var events []models.FunnelEvent
	for rows.Next() {
		var (
			ev      models.FunnelEvent
			created int64
		)
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.StepNumber, &ev.StepName, &created); err != nil {
			return nil, fmt.Errorf("scan funnel event: %w", err)
		}
		ev.CreatedAt = fromMillis(created)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate funnel events: %w", err)
	}
	return events, nil
}
