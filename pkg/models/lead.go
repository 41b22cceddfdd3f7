package models

import (
	"errors"
	"time"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
)

// ErrDuplicateLead is returned when the session already has a stored lead.
// The lead passed in then carries the stored ID.
var ErrDuplicateLead = errors.New("lead already stored for session")

// Lead is a qualified visitor's contact and questionnaire record.
type Lead struct {
	ID             string    `json:"id"`
	SessionID      string    `json:"session_id,omitempty"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Situation      string    `json:"situation"`
	Problem        string    `json:"problem"`
	Implication    string    `json:"implication"`
	AcceptsPrivate bool      `json:"accepts_private"`
	WhatsAppSent   bool      `json:"whatsapp_sent"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewLead builds an unsaved lead from wizard answers.
func NewLead(sessionID string, a funnel.Answers) Lead {
	return Lead{
		SessionID:      sessionID,
		Name:           a.Name,
		Phone:          funnel.FormatPhone(a.Phone),
		Email:          a.Email,
		Situation:      a.Situation,
		Problem:        a.Problem,
		Implication:    a.Implication,
		AcceptsPrivate: a.AcceptsPrivate == funnel.AcceptsPrivateYes,
	}
}

// Answers converts the lead back to wizard answers.
func (l Lead) Answers() funnel.Answers {
	a := funnel.Answers{
		Situation:   l.Situation,
		Problem:     l.Problem,
		Implication: l.Implication,
		Phone:       l.Phone,
		Name:        l.Name,
		Email:       l.Email,
	}
	if l.AcceptsPrivate {
		a.AcceptsPrivate = funnel.AcceptsPrivateYes
	} else {
		a.AcceptsPrivate = funnel.AcceptsPrivateNo
	}
	return a
}

// LeadRequest represents the lead payload posted by headless clients.
type LeadRequest struct {
	SessionID      string `json:"session_id" binding:"max=64"`
	Situation      string `json:"situation" binding:"required"`
	Problem        string `json:"problem" binding:"required"`
	Implication    string `json:"implication" binding:"required"`
	AcceptsPrivate string `json:"acceptsPrivate" binding:"required"`
	Phone          string `json:"phone" binding:"required,max=32"`
	Name           string `json:"name" binding:"required,max=200"`
	Email          string `json:"email" binding:"required,max=254"`
}

// Answers returns the request as wizard answers for validation.
func (r LeadRequest) Answers() funnel.Answers {
	return funnel.Answers{
		Situation:      r.Situation,
		Problem:        r.Problem,
		Implication:    r.Implication,
		AcceptsPrivate: r.AcceptsPrivate,
		Phone:          r.Phone,
		Name:           r.Name,
		Email:          r.Email,
	}
}
