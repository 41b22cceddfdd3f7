package twilio

import (
	"fmt"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Client defines the interface for sending messages through Twilio
type Client interface {
	SendMessage(to, body string) error
}

type clientImpl struct {
	client *twilio.RestClient
	from   string
	logger *zap.Logger
}

// NewClient creates a new Twilio client. from and the recipients use the
// "whatsapp:+55..." form for WhatsApp or plain E.164 for SMS.
func NewClient(accountSid, authToken, from string, logger *zap.Logger) Client {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSid,
		Password: authToken,
	})

	return &clientImpl{
		client: client,
		from:   from,
		logger: logger,
	}
}

func (c *clientImpl) SendMessage(to, body string) error {
	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(c.from)
	params.SetBody(body)

	resp, err := c.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("error sending message: %w", err)
	}

	sid := ""
	if resp.Sid != nil {
		sid = *resp.Sid
	}
	c.logger.Info("Sent Twilio message", zap.String("sid", sid))
	return nil
}
