package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSNSClient struct {
	input *sns.PublishInput
	err   error
}

func (f *fakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

type fakeSQSClient struct {
	input *sqs.SendMessageInput
	err   error
}

func (f *fakeSQSClient) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{MessageId: aws.String("msg-456")}, nil
}

func testEvent() Event {
	return Event{
		Source:     "https://safesim.test",
		EntryIndex: 4,
		EntryKey:   "abc",
		Entry:    json.RawMessage(`{"agent":7}`),
	}
}

func TestSNSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSNSClient{}
	pub := &snsPublisher{id: "t", topicARN: "arn:aws:sns:::topic", client: client, log: noopLogger{}}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if client.input == nil {
		t.Fatalf("client was not called")
	}
	if got := aws.ToString(client.input.TopicArn); got != "arn:aws:sns:::topic" {
		t.Fatalf("TopicArn = %s", got)
	}
	attr, ok := client.input.MessageAttributes["source"]
	if !ok || aws.ToString(attr.StringValue) != "https://safesim.test" || aws.ToString(attr.DataType) != "String" {
		t.Fatalf("source attribute missing or wrong: %#v", attr)
	}
	key, ok := client.input.MessageAttributes["entry_key"]
	if !ok || aws.ToString(key.StringValue) != "abc" {
		t.Fatalf("entry_key attribute missing or wrong: %#v", key)
	}
	idx, ok := client.input.MessageAttributes["entry_index"]
	if !ok || aws.ToString(idx.StringValue) != "4" || aws.ToString(idx.DataType) != "Number" {
		t.Fatalf("entry_index attribute missing or wrong: %#v", idx)
	}
	if !strings.Contains(aws.ToString(client.input.Message), `"entry":{"agent":7}`) {
		t.Fatalf("Message missing entry: %s", aws.ToString(client.input.Message))
	}
}

func TestSNSPublisherPublishError(t *testing.T) {
	pub := &snsPublisher{id: "t", topicARN: "arn", client: &fakeSNSClient{err: errors.New("boom")}, log: noopLogger{}}
	if err := pub.Publish(context.Background(), testEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestSQSPublisherPublishSuccess(t *testing.T) {
	client := &fakeSQSClient{}
	pub := &sqsPublisher{id: "q", queueURL: "https://sqs.local/q", client: client, log: noopLogger{}}

	if err := pub.Publish(context.Background(), testEvent()); err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if got := aws.ToString(client.input.QueueUrl); got != "https://sqs.local/q" {
		t.Fatalf("QueueUrl = %s", got)
	}
	attr, ok := client.input.MessageAttributes["entry_key"]
	if !ok || aws.ToString(attr.StringValue) != "abc" {
		t.Fatalf("entry_key attribute missing or wrong: %#v", attr)
	}
	if idx := client.input.MessageAttributes["entry_index"]; aws.ToString(idx.StringValue) != "4" {
		t.Fatalf("entry_index attribute = %#v", idx)
	}
	if !strings.Contains(aws.ToString(client.input.MessageBody), `"entry_key":"abc"`) {
		t.Fatalf("MessageBody missing entry_key: %s", aws.ToString(client.input.MessageBody))
	}
}

func TestSQSPublisherPublishError(t *testing.T) {
	pub := &sqsPublisher{id: "q", queueURL: "u", client: &fakeSQSClient{err: errors.New("boom")}, log: noopLogger{}}
	if err := pub.Publish(context.Background(), testEvent()); err == nil {
		t.Fatalf("expected error from Publish")
	}
}

func TestMessageAttributesSkipEmptyValues(t *testing.T) {
	attrs := messageAttributes(Event{EntryKey: "k"}, func(dataType, value *string) string {
		return aws.ToString(dataType) + ":" + aws.ToString(value)
	})
	if _, ok := attrs["source"]; ok {
		t.Fatalf("empty source should be omitted, got %v", attrs)
	}
	if attrs["entry_key"] != "String:k" || attrs["entry_index"] != "Number:0" {
		t.Fatalf("unexpected attributes %v", attrs)
	}
}
