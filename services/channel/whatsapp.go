// Package channel sends outbound WhatsApp messages through Twilio. Inbound
// traffic arrives on the webhook; this side covers reminders and any other
// proactive sends.
package channel

import (
	"fmt"

	"bookline/config"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Sender delivers one outbound message to a contact identity.
type Sender interface {
	Send(toIdentity, body string) error
}

// TwilioSender is the production WhatsApp sender.
type TwilioSender struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioSender() *TwilioSender {
	return &TwilioSender{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: config.AppConfig.TwilioAccountSID,
			Password: config.AppConfig.TwilioAuthToken,
		}),
		from: config.AppConfig.TwilioWhatsAppFrom,
	}
}

func (s *TwilioSender) Send(toIdentity, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(toIdentity)
	params.SetFrom(s.from)
	params.SetBody(body)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send to %s failed: %w", toIdentity, err)
	}
	return nil
}
