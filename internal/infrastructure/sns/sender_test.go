package sns

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct{ mock.Mock }

func (m *mockPublisher) Publish(ctx context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, in)
	if out, _ := args.Get(0).(*sns.PublishOutput); out != nil {
		return out, args.Error(1)
	}
	return nil, args.Error(1)
}

func TestSendOTP_PublishesTransactionalSMS(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.MatchedBy(func(in *sns.PublishInput) bool {
		return aws.ToString(in.PhoneNumber) == "+919876543210" &&
			aws.ToString(in.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue) == "Transactional"
	})).Return(&sns.PublishOutput{MessageId: aws.String("m1")}, nil)

	s := &Sender{client: pub, ttl: 10 * time.Minute}
	require.NoError(t, s.SendOTP(context.Background(), "+919876543210", "482913"))
	pub.AssertExpectations(t)

	in := pub.Calls[0].Arguments.Get(1).(*sns.PublishInput)
	assert.Contains(t, aws.ToString(in.Message), "482913")
	assert.Contains(t, aws.ToString(in.Message), "valid for 10 minutes")
}

func TestSendOTP_WrapsError(t *testing.T) {
	pub := &mockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	s := &Sender{client: pub}
	err := s.SendOTP(context.Background(), "+919876543210", "482913")
	assert.ErrorContains(t, err, "sns publish: throttled")
}
