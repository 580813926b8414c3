// Package mail delivers notification and OTP emails through Amazon SES.
package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/civicconnect/civicconnect-services/internal/awsclient"
	"github.com/rs/zerolog"
)

var ErrNoRecipient = errors.New("email has no recipient")

// Message is a single plain text email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends email.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SESAPI is the subset of the SES client used to send mail.
type SESAPI interface {
	SendEmail(ctx context.Context, input *sesv2.SendEmailInput, opts ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

type SESMailer struct {
	Client SESAPI
	Sender string
	Log    *zerolog.Logger
}

func NewSESMailer(client SESAPI, sender string, log *zerolog.Logger) *SESMailer {
	return &SESMailer{Client: client, Sender: sender, Log: log}
}

func (m *SESMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(m.Sender),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(msg.Body)},
				},
			},
		},
	}

	out, err := m.Client.SendEmail(ctx, input)
	if err != nil {
		m.Log.Error().Err(err).Str("error_code", awsclient.ErrorCode(err)).
			Str("subject", msg.Subject).Msg("Failed to send email")
		return fmt.Errorf("error sending email: %w", err)
	}

	m.Log.Debug().Str("message_id", aws.ToString(out.MessageId)).Str("subject", msg.Subject).Msg("Email sent")
	return nil
}

// LogMailer only logs messages. It is used when email delivery is disabled.
type LogMailer struct {
	Log *zerolog.Logger
}

func (m LogMailer) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return ErrNoRecipient
	}
	m.Log.Info().Str("subject", msg.Subject).Msg("Email delivery disabled, message dropped")
	return nil
}

// OTPMessage renders the verification email for a mobile number change.
func OTPMessage(to, name, code string, validMinutes int) Message {
	return Message{
		To:      to,
		Subject: "CivicConnect verification code",
		Body: fmt.Sprintf("Hello %s,\n\nYour CivicConnect verification code is %s. "+
			"It is valid for %d minutes.\n\nIf you did not request this code you can ignore this email.\n",
			name, code, validMinutes),
	}
}

// NotificationMessage renders a complaint notification email.
func NotificationMessage(to, name, title, body string) Message {
	return Message{
		To:      to,
		Subject: "CivicConnect: " + title,
		Body:    fmt.Sprintf("Hello %s,\n\n%s\n\nThe CivicConnect team\n", name, body),
	}
}
