package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/centraldavisao/lead-funnel/pkg/models"
)

// InsertLead stores a new lead, assigning its ID and creation time when unset.
func (s *Store) InsertLead(ctx context.Context, lead *models.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.NewString()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = s.now().UTC()
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO leads (id, session_id, name, phone, email, situation, problem, implication,
			accepts_private, whatsapp_sent, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) WHERE session_id <> '' DO NOTHING`),
		lead.ID, lead.SessionID, lead.Name, lead.Phone, lead.Email,
		lead.Situation, lead.Problem, lead.Implication,
		lead.AcceptsPrivate, lead.WhatsAppSent, toMillis(lead.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	if n > 0 {
		return nil
	}

	// One lead per session; hand back the one already stored.
	var created int64
	err = s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, created_at FROM leads WHERE session_id = ?`), lead.SessionID,
	).Scan(&lead.ID, &created)
	if err != nil {
		return fmt.Errorf("load existing lead: %w", err)
	}
	lead.CreatedAt = fromMillis(created)
	return models.ErrDuplicateLead
}

// AdminLeads returns the most recent leads, newest first, through the admin view.
func (s *Store) AdminLeads(ctx context.Context, limit int) ([]models.Lead, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(s.dialect.adminLeads), limit)
	if err != nil {
		return nil, fmt.Errorf("query admin leads: %w", err)
	}
	defer rows.Close()

	var leads []models.Lead
	for rows.Next() {
		var (
			l       models.Lead
			created int64
		)
		if err := rows.Scan(&l.ID, &l.Name, &l.Phone, &l.Email, &l.Situation, &l.Problem,
			&l.Implication, &l.WhatsAppSent, &created); err != nil {
			return nil, fmt.Errorf("scan admin lead: %w", err)
		}
		l.AcceptsPrivate = true
		l.CreatedAt = fromMillis(created)
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admin leads: %w", err)
	}
	return leads, nil
}

// LeadTotals counts all leads and those that opened the WhatsApp link.
func (s *Store) LeadTotals(ctx context.Context) (total, whatsAppSent int, err error) {
	err = s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN whatsapp_sent THEN 1 ELSE 0 END), 0)
		FROM leads`).Scan(&total, &whatsAppSent)
	if err != nil {
		return 0, 0, fmt.Errorf("count leads: %w", err)
	}
	return total, whatsAppSent, nil
}

// MarkWhatsAppSent flags a lead as having opened the WhatsApp conversation.
func (s *Store) MarkWhatsAppSent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE leads SET whatsapp_sent = ? WHERE id = ?`), true, id)
	if err != nil {
		return fmt.Errorf("mark whatsapp sent: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark whatsapp sent: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
