package sns

import (
	"context"
	"encoding/json"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/otp-api-nosql/internal/config"
)

// EventPublisher publishes issuance events to an SNS topic for downstream
// consumers. Publishing is best-effort; callers must not fail a request on
// a publish error.
type EventPublisher interface {
	PublishIssued(ctx context.Context, email string, issuedAt time.Time) error
}

type publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(cfg *config.Config) (EventPublisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

type issuedEvent struct {
	Event    string `json:"event"`
	Email    string `json:"email"`
	IssuedAt string `json:"issued_at"`
}

func (p *publisher) PublishIssued(ctx context.Context, email string, issuedAt time.Time) error {
	payload, err := json.Marshal(issuedEvent{
		Event:    "otp.issued",
		Email:    email,
		IssuedAt: issuedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	msg := string(payload)
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &p.topicARN,
		Message:  &msg,
	})
	return err
}
