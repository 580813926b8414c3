package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAWSEmailClient struct {
	mock.Mock
}

func (m *MockAWSEmailClient) SendEmail(ctx context.Context, input *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	args := m.Called(ctx, input, opts)
	out, _ := args.Get(0).(*sesv2.SendEmailOutput)
	return out, args.Error(1)
}

func newMailer(client SESAPI) *SESMailer {
	logger := zerolog.Nop()
	return NewSESMailer(client, "noreply@civicconnect.example", &logger)
}

func TestSESMailerSend(t *testing.T) {
	client := &MockAWSEmailClient{}
	client.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).
		Return(&sesv2.SendEmailOutput{MessageId: aws.String("m-1")}, nil)

	msg := OTPMessage("asha@example.com", "Asha", "123456", 5)
	require.NoError(t, newMailer(client).Send(context.Background(), msg))

	client.AssertCalled(t, "SendEmail", mock.Anything, mock.MatchedBy(func(input *sesv2.SendEmailInput) bool {
		return aws.ToString(input.FromEmailAddress) == "noreply@civicconnect.example" &&
			input.Destination.ToAddresses[0] == "asha@example.com" &&
			aws.ToString(input.Content.Simple.Subject.Data) == "CivicConnect verification code"
	}), mock.Anything)
	assert.Contains(t, msg.Body, "123456")
	assert.Contains(t, msg.Body, "5 minutes")
}

func TestSESMailerSendError(t *testing.T) {
	client := &MockAWSEmailClient{}
	client.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("throttled"))

	err := newMailer(client).Send(context.Background(), NotificationMessage("a@b.c", "A", "Update", "done"))
	assert.Error(t, err)
}

func TestSendRequiresRecipient(t *testing.T) {
	client := &MockAWSEmailClient{}
	assert.ErrorIs(t, newMailer(client).Send(context.Background(), Message{Subject: "x"}), ErrNoRecipient)
	client.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)

	logger := zerolog.Nop()
	assert.ErrorIs(t, LogMailer{Log: &logger}.Send(context.Background(), Message{}), ErrNoRecipient)
	assert.NoError(t, LogMailer{Log: &logger}.Send(context.Background(), Message{To: "a@b.c"}))
}
