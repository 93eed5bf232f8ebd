package sns

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/zouiscorp-sudo/salem-farm-mango-sub001/internal/domain"
)

type publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Sender delivers OTPs as transactional SMS via AWS SNS.
type Sender struct {
	client publisher
	ttl    time.Duration
}

// NewSender builds an SNS sender. otpTTL is quoted in the message text.
func NewSender(awsCfg aws.Config, otpTTL time.Duration) *Sender {
	return &Sender{client: sns.NewFromConfig(awsCfg), ttl: otpTTL}
}

func (s *Sender) SendOTP(ctx context.Context, phone, code string) error {
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(domain.OTPMessage(code, s.ttl)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {DataType: aws.String("String"), StringValue: aws.String("Transactional")},
		},
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}
