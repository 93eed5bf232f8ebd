package twilio

import (
	"context"
	"fmt"
	"time"

	twilio "github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// Sender delivers OTPs through the Twilio Messages API.
type Sender struct {
	api  messageCreator
	from string
	ttl  time.Duration
}

// NewSender builds a Twilio sender. otpTTL is quoted in the message text.
func NewSender(accountSID, authToken, from string, otpTTL time.Duration) *Sender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &Sender{api: client.Api, from: from, ttl: otpTTL}
}

// SendOTP ignores ctx: the Twilio client does not take one.
func (s *Sender) SendOTP(_ context.Context, phone, code string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phone)
	params.SetFrom(s.from)
	params.SetBody(domain.OTPMessage(code, s.ttl))

	if _, err := s.api.CreateMessage(params); err != nil {
		return fmt.Errorf("twilio send: %w", err)
	}
	return nil
}
