package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	appConfig "github.com/crewlink/crewlink-api/config"
)

// EmailSender defines the interface for outbound notification email
type EmailSender interface {
	SendNotificationEmail(ctx context.Context, toEmail, subject, body string) error
}

// SESEmailService sends email through AWS SESv2
type SESEmailService struct {
	client *sesv2.Client
	from   string
}

var emailServiceInstance EmailSender

// InitEmailService initializes the SES email service
func InitEmailService() (EmailSender, error) {
	cfg := appConfig.GetConfig()

	awsConfig, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(cfg.AWSRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AWSAccessKeyID,
			cfg.AWSSecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	emailServiceInstance = &SESEmailService{
		client: sesv2.NewFromConfig(awsConfig),
		from:   cfg.SESFromAddress,
	}
	return emailServiceInstance, nil
}

// GetEmailService returns the initialized email service instance
func GetEmailService() EmailSender {
	return emailServiceInstance
}

// SetEmailService sets the email service instance (primarily for testing)
func SetEmailService(service EmailSender) {
	emailServiceInstance = service
}

// SendNotificationEmail sends a plain-text notification email
func (s *SESEmailService) SendNotificationEmail(ctx context.Context, toEmail, subject, body string) error {
	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination: &sestypes.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &sestypes.EmailContent{
			Simple: &sestypes.Message{
				Subject: &sestypes.Content{Data: aws.String(subject)},
				Body: &sestypes.Body{
					Text: &sestypes.Content{Data: aws.String(body)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}
	return nil
}
