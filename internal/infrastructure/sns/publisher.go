package sns

import (
	"context"
	"encoding/json"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/railvoice/railvoice/internal/config"
	"github.com/railvoice/railvoice/internal/domain"
)

// Publisher fans emergency announcements out to an SNS topic that the
// mobile push pipeline is subscribed to. It satisfies announce.Pusher.
type Publisher struct {
	client   *sns.Client
	topicARN string
}

func NewPublisher(cfg *config.Config) (*Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return &Publisher{client: sns.NewFromConfig(awsCfg), topicARN: cfg.SNSTopicARN}, nil
}

func (p *Publisher) PublishEmergency(ctx context.Context, a domain.Announcement) error {
	body, err := json.Marshal(a)
	if err != nil {
		return err
	}
	msg := string(body)
	subject := "Emergency announcement"
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn: &p.topicARN,
		Subject:  &subject,
		Message:  &msg,
	})
	return err
}
