package publishers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
)

// sqsAPI is the slice of the SQS client the publisher calls.
type sqsAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

type sqsPublisher struct {
	id       string
	queueURL string
	api      sqsAPI
	log      Logger
}

func newSQSPublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.SQS == nil {
		return nil, fmt.Errorf("publisher %q missing sqs configuration", cfg.ID)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg.SQS.Region, cfg.SQS.Credentials)
	if err != nil {
		return nil, err
	}
	return &sqsPublisher{
		id:       cfg.ID,
		queueURL: cfg.SQS.QueueURL,
		api:      sqs.NewFromConfig(awsCfg),
		log:      ensureLogger(log),
	}, nil
}

func (s *sqsPublisher) ID() string   { return s.id }
func (s *sqsPublisher) Type() string { return TypeSQS }

// Publish enqueues the event with its target id as a message attribute.
func (s *sqsPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := encodeEvent(evt)
	if err != nil {
		return err
	}
	dataType, value := stringAttribute(evt.TargetID)

	out, err := s.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: body,
		MessageAttributes: map[string]types.MessageAttributeValue{
			targetAttribute: {DataType: dataType, StringValue: value},
		},
	})
	if err != nil {
		s.log.ErrorObj("sqs send failed", "publisher_sqs_error", map[string]any{
			"publisher_id": s.id,
			"target_id":    evt.TargetID,
			"error":        err.Error(),
		})
		return fmt.Errorf("send message to sqs: %w", err)
	}
	s.log.DebugObj("sqs event delivered", "publisher_sqs_delivery", map[string]any{
		"publisher_id": s.id,
		"target_id":    evt.TargetID,
		"message_id":   aws.ToString(out.MessageId),
	})
	return nil
}
