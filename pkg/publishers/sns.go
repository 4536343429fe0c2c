package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// snsAPI is the slice of the SNS client the publisher calls.
type snsAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type snsPublisher struct {
	id       string
	topicARN string
	api      snsAPI
	log      Logger
}

func newSNSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.SNS == nil {
		return nil, fmt.Errorf("publisher %q missing sns configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SNS.Region, cfg.SNS.Credentials)
	if err != nil {
		return nil, err
	}
	return &snsPublisher{
		id:       cfg.ID,
		topicARN: cfg.SNS.TopicARN,
		api:      sns.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *snsPublisher) ID() string   { return s.id }
func (s *snsPublisher) Type() string { return TypeSNS }

// Publish posts the event to the topic so subscribers can filter on target id.
func (s *snsPublisher) Publish(ctx context.Context, evt Event) error {
	msg, err := encodeEvent(evt)
	if err != nil {
		return err
	}
	dataType, value := stringAttribute(evt.TargetID)

	out, err := s.api.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(s.topicARN),
		Message:  msg,
		MessageAttributes: map[string]types.MessageAttributeValue{
			targetAttribute: {DataType: dataType, StringValue: value},
		},
	})
	if err != nil {
		s.log.ErrorObj("sns publish failed", "publisher_sns_error", map[string]any{
			"publisher_id": s.id,
			"target_id":    evt.TargetID,
			"error":        err.Error(),
		})
		return fmt.Errorf("publish to sns: %w", err)
	}
	s.log.DebugObj("sns event delivered", "publisher_sns_delivery", map[string]any{
		"publisher_id": s.id,
		"target_id":    evt.TargetID,
		"message_id":   aws.ToString(out.MessageId),
	})
	return nil
}
