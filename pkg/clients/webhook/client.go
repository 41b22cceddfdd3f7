package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/centraldavisao/lead-funnel/pkg/funnel"
	"github.com/centraldavisao/lead-funnel/pkg/models"
)

// Fixed metadata attached to every notification.
const (
	ServiceName = "Exame de Vista"
	ClinicName  = "Central da Visão"
	ClinicCity  = "Balneário Camboriú"
	ExamPrice   = "R$ 180,00"
	LeadSource  = "funil-spin"
)

// Payload is the JSON body posted for each new lead.
type Payload struct {
	LeadID           string `json:"lead_id"`
	Name             string `json:"name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	Situation        string `json:"situation"`
	SituationLabel   string `json:"situation_label"`
	Problem          string `json:"problem"`
	ProblemLabel     string `json:"problem_label"`
	Implication      string `json:"implication"`
	ImplicationLabel string `json:"implication_label"`
	AcceptsPrivate   bool   `json:"accepts_private"`
	Service          string `json:"service"`
	Clinic           string `json:"clinic"`
	City             string `json:"city"`
	Price            string `json:"price"`
	Source           string `json:"source"`
	SubmittedAt      string `json:"submitted_at"`
}

// NewPayload builds the notification body for a stored lead.
func NewPayload(lead models.Lead) Payload {
	return Payload{
		LeadID:           lead.ID,
		Name:             lead.Name,
		Phone:            lead.Phone,
		Email:            lead.Email,
		Situation:        lead.Situation,
		SituationLabel:   funnel.SituationLabel(lead.Situation),
		Problem:          lead.Problem,
		ProblemLabel:     funnel.ProblemLabel(lead.Problem),
		Implication:      lead.Implication,
		ImplicationLabel: funnel.ImplicationLabel(lead.Implication),
		AcceptsPrivate:   lead.AcceptsPrivate,
		Service:          ServiceName,
		Clinic:           ClinicName,
		City:             ClinicCity,
		Price:            ExamPrice,
		Source:           LeadSource,
		SubmittedAt:      lead.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// StatusError is returned when the endpoint answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook responded %d: %s", e.StatusCode, e.Body)
}

// Client defines the interface for notifying the automation endpoint
type Client interface {
	Notify(ctx context.Context, payload Payload) error
	Close()
}

type clientImpl struct {
	url             string
	httpClient      *http.Client
	transport       *http.Transport
	maxAttempts     int
	initialInterval time.Duration
	breaker         *gobreaker.CircuitBreaker
	logger          *zap.Logger
}

// NewClient creates a webhook client posting to url. With maxAttempts above
// one, transient failures are retried up to maxAttempts deliveries in total.
func NewClient(url string, timeout time.Duration, maxAttempts int, logger *zap.Logger) Client {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	c := &clientImpl{
		url:             url,
		httpClient:      &http.Client{Timeout: timeout, Transport: transport},
		transport:       transport,
		maxAttempts:     maxAttempts,
		initialInterval: 500 * time.Millisecond,
		logger:          logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "webhook",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state change",
				zap.String("name", name), zap.String("from", from.String()), zap.String("to", to.String()))
		},
	})
	return c
}

// Notify posts the payload, retrying network errors, 429 and 5xx answers
// with exponential backoff.
func (c *clientImpl) Notify(ctx context.Context, payload Payload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error creating payload: %w", err)
	}

	_, err = c.breaker.Execute(func() (interface{}, error) {
		return nil, c.deliver(ctx, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("webhook unavailable: %w", err)
	}
	return err
}

func (c *clientImpl) deliver(ctx context.Context, body []byte) error {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = c.initialInterval
	eb.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(c.maxAttempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := c.post(ctx, body)
		if err == nil {
			return nil
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !retryable(statusErr.StatusCode) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("Webhook delivery failed, retrying",
			zap.Int("attempt", attempt), zap.Duration("wait", wait), zap.Error(err))
	}
	return backoff.RetryNotify(operation, policy, notify)
}

func (c *clientImpl) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error posting webhook: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

// Close releases idle connections.
func (c *clientImpl) Close() {
	c.transport.CloseIdleConnections()
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}
