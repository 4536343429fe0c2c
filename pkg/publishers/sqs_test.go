package publishers

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Paraschamoli/Bindu/internal/domain"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-123")}, nil
}

func TestSQSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		api:      client,
		log:      nopLogger{},
	}

	err := pub.Publish(context.Background(), NewEvent(domain.CheckResult{TargetID: "agent-card"}, true))
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://example.com/queue" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["target_id"]
	if !ok || aws.ToString(attr.StringValue) != "agent-card" {
		t.Fatalf("target_id attribute missing or wrong: %#v", attr)
	}
	if aws.ToString(attr.DataType) != "String" {
		t.Fatalf("DataType should be String, got %#v", attr.DataType)
	}
	body := aws.ToString(client.input.MessageBody)
	if !strings.Contains(body, `"target_id":"agent-card"`) || !strings.Contains(body, `"status":"unhealthy"`) {
		t.Fatalf("MessageBody missing event fields: %s", body)
	}
}

func TestSQSPublisherPublishError(t *testing.T) {
	pub := &sqsPublisher{
		id:       "queue",
		queueURL: "https://example.com/queue",
		api:      &fakeSQSClient{err: errors.New("boom")},
		log:      nopLogger{},
	}

	if err := pub.Publish(context.Background(), Event{TargetID: "a"}); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestNewSQSPublisherWithStaticCredentials(t *testing.T) {
	pub, err := newSQSPublisher(context.Background(), PublisherConfig{
		ID:   "queue",
		Type: TypeSQS,
		SQS: &SQSPublisherConfig{
			QueueURL:    "https://sqs.ap-south-1.amazonaws.com/123/probe",
			Region:      "ap-south-1",
			Credentials: &AWSCredentials{AccessKeyID: "AKIA", SecretAccessKey: "secret"},
		},
	}, nil)
	if err != nil {
		t.Fatalf("newSQSPublisher: %v", err)
	}
	if pub.ID() != "queue" || pub.Type() != TypeSQS {
		t.Fatalf("unexpected publisher identity %s/%s", pub.ID(), pub.Type())
	}

	if _, err := newSQSPublisher(context.Background(), PublisherConfig{ID: "x"}, nil); err == nil {
		t.Fatalf("expected error for missing sqs block")
	}
}

func TestLoadAWSConfigPinsStaticCredentials(t *testing.T) {
	cfg, err := loadAWSConfig(context.Background(), "eu-west-1", &AWSCredentials{AccessKeyID: "AKIA", SecretAccessKey: "secret"})
	if err != nil {
		t.Fatalf("loadAWSConfig: %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Fatalf("Region = %s", cfg.Region)
	}
	creds, err := cfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if creds.AccessKeyID != "AKIA" || creds.SecretAccessKey != "secret" {
		t.Fatalf("unexpected credentials %#v", creds)
	}
}
