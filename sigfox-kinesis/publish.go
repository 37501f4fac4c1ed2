package sigfoxkinesis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/kinesis"
	"github.com/aws/aws-sdk-go/service/kinesis/kinesisiface"

	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

// Envelope is the message format published to the readings stream.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

type Publisher struct {
	client     kinesisiface.KinesisAPI
	streamName string
}

func NewPublisher(client kinesisiface.KinesisAPI, streamName string) *Publisher {
	return &Publisher{
		client:     client,
		streamName: streamName,
	}
}

// BuildPublisher publishes to the configured stream, or the standard stream
// of env when none is configured.
func BuildPublisher(s *session.Session, env string) *Publisher {
	streamName := KinesisOpts.StreamName
	if streamName == "" {
		streamName = StreamName(env)
	}
	return NewPublisher(kinesis.New(s), streamName)
}

func StreamName(env string) string {
	return env + "-sigfox-readings"
}

// Send publishes payload under topic. The topic is the partition key, which
// keeps the messages of a topic in order.
func (p *Publisher) Send(ctx context.Context, topic string, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshalling payload: %w", err)
	}

	data, err := json.Marshal(Envelope{
		Topic:   topic,
		Payload: payloadBytes,
	})
	if err != nil {
		return fmt.Errorf("marshalling envelope: %w", err)
	}

	_, err = p.client.PutRecordWithContext(ctx, &kinesis.PutRecordInput{
		StreamName:   aws.String(p.streamName),
		PartitionKey: aws.String(topic),
		Data:         data,
	})
	if err != nil {
		return fmt.Errorf("publishing to kinesis stream %v: %w", p.streamName, err)
	}
	return nil
}

// PublishReading sends r with its device id as the topic.
func (p *Publisher) PublishReading(ctx context.Context, r reading.SensorReading) error {
	return p.Send(ctx, r.DeviceID, r)
}

// Decode unwraps a reading published by PublishReading.
func Decode(data []byte) (reading.SensorReading, error) {
	var envelope Envelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return reading.SensorReading{}, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	var r reading.SensorReading
	if err := json.Unmarshal(envelope.Payload, &r); err != nil {
		return reading.SensorReading{}, fmt.Errorf("failed to unmarshal reading for topic %v: %w", envelope.Topic, err)
	}
	return r, nil
}
