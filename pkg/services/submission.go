package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/clients/twilio"
	"github.com/centraldavisao/lead-funnel/pkg/clients/webhook"
	"github.com/centraldavisao/lead-funnel/pkg/funnel"
	"github.com/centraldavisao/lead-funnel/pkg/metrics"
	"github.com/centraldavisao/lead-funnel/pkg/models"
	"github.com/centraldavisao/lead-funnel/pkg/utils"
)

const notifyTimeout = 30 * time.Second

// LeadStore is the persistence needed to accept leads.
type LeadStore interface {
	InsertLead(ctx context.Context, lead *models.Lead) error
}

// LeadSubmissionService defines the interface for handling completed forms
type LeadSubmissionService interface {
	// Submit stores the lead, then notifies the webhook and the clinic.
	// Only a storage failure is returned; notifications are best effort.
	// A session that already has a lead is not stored or notified again.
	Submit(ctx context.Context, lead *models.Lead) error
	// Wait blocks until background notifications have finished.
	Wait()
}

type leadSubmissionServiceImpl struct {
	store         LeadStore
	webhookClient webhook.Client
	twilioClient  twilio.Client
	notifyTo      string
	logger        *zap.Logger
	wg            sync.WaitGroup
}

// NewLeadSubmissionService creates a new submission service. webhookClient
// and twilioClient may be nil when those integrations are not configured.
func NewLeadSubmissionService(
	store LeadStore,
	webhookClient webhook.Client,
	twilioClient twilio.Client,
	notifyTo string,
	logger *zap.Logger,
) LeadSubmissionService {
	return &leadSubmissionServiceImpl{
		store:         store,
		webhookClient: webhookClient,
		twilioClient:  twilioClient,
		notifyTo:      notifyTo,
		logger:        logger,
	}
}

// Submit handles the entire submission workflow
func (s *leadSubmissionServiceImpl) Submit(ctx context.Context, lead *models.Lead) error {
	log := s.logger.With(zap.String("phone_hash", utils.HashPhone(lead.Phone)), zap.String("session_id", lead.SessionID))

	if err := s.store.InsertLead(ctx, lead); err != nil {
		if errors.Is(err, models.ErrDuplicateLead) {
			// Already stored and notified by an earlier request.
			metrics.Submissions.WithLabelValues("duplicate").Inc()
			log.Info("Lead already stored", zap.String("lead_id", lead.ID))
			return nil
		}
		metrics.Submissions.WithLabelValues("store_error").Inc()
		log.Error("Error storing lead", zap.Error(err))
		return fmt.Errorf("store lead: %w", err)
	}
	metrics.Submissions.WithLabelValues("stored").Inc()
	log = log.With(zap.String("lead_id", lead.ID))
	log.Info("Lead stored")

	// The lead is saved; a visitor closing the tab must not abort notifications.
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if s.webhookClient != nil {
		if err := s.webhookClient.Notify(notifyCtx, webhook.NewPayload(*lead)); err != nil {
			metrics.WebhookDeliveries.WithLabelValues("error").Inc()
			log.Error("Error notifying webhook", zap.Error(err))
		} else {
			metrics.WebhookDeliveries.WithLabelValues("ok").Inc()
			log.Info("Webhook notified")
		}
	}

	if s.twilioClient != nil && s.notifyTo != "" {
		s.wg.Add(1)
		go s.alertClinic(*lead, log)
	}
	return nil
}

func (s *leadSubmissionServiceImpl) alertClinic(lead models.Lead, log *zap.Logger) {
	defer s.wg.Done()
	if err := s.twilioClient.SendMessage(s.notifyTo, LeadAlertMessage(lead)); err != nil {
		metrics.Notifications.WithLabelValues("lead_alert", "error").Inc()
		log.Error("Error sending clinic alert", zap.Error(err))
		return
	}
	metrics.Notifications.WithLabelValues("lead_alert", "ok").Inc()
}

func (s *leadSubmissionServiceImpl) Wait() {
	s.wg.Wait()
}

// LeadAlertMessage is the text sent to the clinic for a new lead.
func LeadAlertMessage(lead models.Lead) string {
	var b strings.Builder
	b.WriteString("🔔 Novo lead - Exame de Vista\n")
	b.WriteString("Nome: " + lead.Name + "\n")
	b.WriteString("Telefone: " + lead.Phone + "\n")
	b.WriteString("Email: " + lead.Email + "\n")
	b.WriteString("Último exame: " + funnel.SituationLabel(lead.Situation) + "\n")
	b.WriteString("Sintoma: " + funnel.ProblemLabel(lead.Problem) + "\n")
	b.WriteString("Impacto: " + funnel.ImplicationLabel(lead.Implication))
	return b.String()
}
