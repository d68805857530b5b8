package sns

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/notifica-api/internal/config"
	"github.com/notifica-api/internal/domain"
)

// DeliverySender dispatches the third-party delivery notice required by
// qualified-level notifications. The returned id is the external service's
// correlation id and is stored on the notification as delivery evidence.
type DeliverySender interface {
	SendNotice(ctx context.Context, phone, message string) (string, error)
	ServiceName() string
}

type sender struct {
	client      *sns.Client
	serviceName string
}

func NewSender(cfg *config.Config) (DeliverySender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &sender{client: sns.NewFromConfig(awsCfg), serviceName: cfg.SNSServiceName}, nil
}

func (s *sender) SendNotice(ctx context.Context, phone, message string) (string, error) {
	if phone == "" {
		return "", fmt.Errorf("recipient has no phone number: %w", domain.ErrCollaboratorPermanent)
	}
	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &phone,
		Message:     &message,
	})
	if err != nil {
		return "", fmt.Errorf("sns publish: %s: %w", err, domain.ErrCollaboratorTransient)
	}
	if out.MessageId == nil {
		return "", fmt.Errorf("sns publish returned no message id: %w", domain.ErrCollaboratorTransient)
	}
	return *out.MessageId, nil
}

func (s *sender) ServiceName() string { return s.serviceName }
