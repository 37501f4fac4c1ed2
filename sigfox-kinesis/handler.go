// Package sigfoxkinesis fans readings out over a Kinesis stream and tails
// that stream, either as a Lambda consumer or from the console.
package sigfoxkinesis

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/kinesis"
	consumer "github.com/harlow/kinesis-consumer"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	sigfoxddb "github.com/sigfox-demo/sigfox-telemetry/sigfox-ddb"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox-kinesis/checkpointdao"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

type HandleMessageCallback func(ctx context.Context, record events.KinesisEventRecord) error
type ReadingCallback func(ctx context.Context, logger zerolog.Logger, r reading.SensorReading) error

type Handler struct {
	Service sigfoxcli.Service
	Logger  zerolog.Logger

	handleMessage HandleMessageCallback
	onReading     ReadingCallback
}

func NewGenericHandler(
	service sigfoxcli.Service,
	handleMessage HandleMessageCallback,
) *Handler {
	return &Handler{
		Service:       service,
		Logger:        sigfoxcli.Logger(service),
		handleMessage: handleMessage,
	}
}

func NewHandler(
	service sigfoxcli.Service,
	onReading ReadingCallback,
) *Handler {
	return &Handler{
		Service:   service,
		Logger:    sigfoxcli.Logger(service),
		onReading: onReading,
	}
}

// LogReading is a ReadingCallback that only logs what arrives.
func LogReading(_ context.Context, logger zerolog.Logger, r reading.SensorReading) error {
	logger.Info().
		Str("deviceId", r.DeviceID).
		Int64("timestamp", r.Timestamp).
		Int64("data", r.Payload.Data).
		Int64("temperature", r.Payload.Temperature).
		Int64("humidity", r.Payload.Humidity).
		Msg("reading")
	return nil
}

func (h *Handler) Start(c *cli.Context) error {
	if !sigfoxcli.CommonOpts.Console {
		lambda.Start(h.HandleKinesisEvent)
		return nil
	}
	return h.handleRealtime(c.Context)
}

func (h *Handler) HandleKinesisEvent(ctx context.Context, event events.KinesisEvent) error {
	ctx = h.Logger.WithContext(ctx)
	for _, r := range event.Records {
		if err := h.handleSingleEvent(ctx, r); err != nil {
			return err
		}
	}
	return nil
}

type KinesisSequenceNumberKeyType string

var KinesisSequenceNumberKey = KinesisSequenceNumberKeyType("kinesisSequenceNumber")

func (h *Handler) handleSingleEvent(ctx context.Context, r events.KinesisEventRecord) error {
	ctx = context.WithValue(ctx, KinesisSequenceNumberKey, r.Kinesis.SequenceNumber)

	if h.handleMessage != nil {
		return h.handleMessage(ctx, r)
	}

	rd, err := Decode(r.Kinesis.Data)
	if err != nil {
		return fmt.Errorf("failed to decode kinesis record %v: %w", r.Kinesis.SequenceNumber, err)
	}
	if h.onReading != nil {
		return h.onReading(ctx, h.Logger, rd)
	}
	return nil
}

func (h *Handler) consumerOptions() []consumer.Option {
	s := sigfoxcli.Session()
	options := []consumer.Option{
		consumer.WithClient(kinesis.New(s)),
	}
	switch {
	case KinesisOpts.Replay && KinesisOpts.ReplayFrom.Value() != nil:
		options = append(options,
			consumer.WithShardIteratorType("AT_TIMESTAMP"),
			consumer.WithTimestamp(*KinesisOpts.ReplayFrom.Value()),
		)
	case KinesisOpts.Replay:
		options = append(options, consumer.WithShardIteratorType("TRIM_HORIZON"))
	default:
		options = append(options, consumer.WithShardIteratorType("LATEST"))
	}
	if KinesisOpts.Checkpoint && !sigfoxcli.CommonOpts.Dry {
		checkpoints := checkpointdao.Build(sigfoxddb.Client(s), sigfoxcli.CommonOpts.Env)
		options = append(options, consumer.WithStore(checkpoints))
	}
	return options
}

func (h *Handler) handleRealtime(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	streamName := KinesisOpts.StreamName
	if streamName == "" {
		streamName = StreamName(sigfoxcli.CommonOpts.Env)
	}
	c, err := consumer.New(streamName, h.consumerOptions()...)
	if err != nil {
		return fmt.Errorf("unable to consume stream %v: %w", streamName, err)
	}

	ctx = h.Logger.WithContext(ctx)
	callback := func(record *consumer.Record) error {
		er := events.KinesisEventRecord{
			Kinesis: events.KinesisRecord{
				Data:           record.Data,
				PartitionKey:   aws.StringValue(record.PartitionKey),
				SequenceNumber: aws.StringValue(record.SequenceNumber),
			},
		}
		return h.handleSingleEvent(ctx, er)
	}
	h.Logger.Info().Str("stream", streamName).Bool("replay", KinesisOpts.Replay).Msg("listening")
	return c.Scan(ctx, callback)
}

