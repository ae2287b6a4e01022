package service

import (
	"context"

	"github.com/ATenderholt/s3-virusscan/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// Publisher emits one alert about an object.
type Publisher interface {
	Publish(ctx context.Context, bucket string, key string, message string) error
}

type NotificationService struct {
	topic  string
	client NotificationClient
}

func NewNotificationService(policy domain.Policy, client NotificationClient) *NotificationService {
	return &NotificationService{
		topic:  policy.Topic,
		client: client,
	}
}

func (service NotificationService) Publish(ctx context.Context, bucket string, key string, message string) error {
	alert := domain.NewAlert(bucket, key, message)

	attributes := make(map[string]snstypes.MessageAttributeValue, len(alert.Attributes))
	for name, attribute := range alert.Attributes {
		attributes[name] = snstypes.MessageAttributeValue{
			DataType:    aws.String(attribute.DataType),
			StringValue: aws.String(attribute.StringValue),
		}
	}

	output, err := service.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(service.topic),
		Subject:           aws.String(alert.Subject),
		Message:           aws.String(alert.Body),
		MessageAttributes: attributes,
	})
	if err != nil {
		return PublishError{
			topic: service.topic,
			uri:   alert.Attributes[domain.AlertKeyAttribute].StringValue,
			base:  err,
		}
	}

	logger.Debugf("Published alert %s to %s", aws.ToString(output.MessageId), service.topic)
	return nil
}
