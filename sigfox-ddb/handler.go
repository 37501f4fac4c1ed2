// Package sigfoxddb builds DynamoDB and DAX clients for the readings table and
// reacts to its change stream.
package sigfoxddb

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodbstreams"
	"github.com/rs/zerolog"
	"github.com/savaki/ddb"
	"golang.org/x/sync/errgroup"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

type BatchCallback func(ctx context.Context, event ddb.Event) error
type InsertCallback func(ctx context.Context, newValue map[string]*dynamodb.AttributeValue) error
type UpdateCallback func(ctx context.Context, oldValue, newValue map[string]*dynamodb.AttributeValue) error
type DeleteCallback func(ctx context.Context, oldValue map[string]*dynamodb.AttributeValue) error

// ReadingCallback receives every reading inserted into the table.
type ReadingCallback func(ctx context.Context, r reading.SensorReading) error

// idlePoll is how long an open shard with no new records is left alone.
const idlePoll = time.Second

type Handler struct {
	service sigfoxcli.Service
	Logger  zerolog.Logger

	onBatch  BatchCallback
	onInsert InsertCallback
	onUpdate UpdateCallback
	onDelete DeleteCallback
}

func NewHandler(
	service sigfoxcli.Service,
	onInsert InsertCallback,
	onUpdate UpdateCallback,
	onDelete DeleteCallback,
) *Handler {
	return &Handler{
		service:  service,
		Logger:   sigfoxcli.Logger(service),
		onInsert: onInsert,
		onUpdate: onUpdate,
		onDelete: onDelete,
	}
}

func NewBatchHandler(
	service sigfoxcli.Service,
	onBatch BatchCallback,
) *Handler {
	return &Handler{
		service: service,
		Logger:  sigfoxcli.Logger(service),
		onBatch: onBatch,
	}
}

// NewReadingHandler decodes inserted items into readings. Updates and
// deletes, such as the ones caused by a table reset, are ignored.
func NewReadingHandler(service sigfoxcli.Service, onReading ReadingCallback) *Handler {
	onInsert := func(ctx context.Context, newValue map[string]*dynamodb.AttributeValue) error {
		var r reading.SensorReading
		if err := ParseItem(newValue, &r); err != nil {
			return err
		}
		return onReading(ctx, r)
	}
	return NewHandler(service, onInsert, nil, nil)
}

func (h *Handler) Start() error {
	switch {
	case sigfoxcli.CommonOpts.Console:
		return h.handleRealtime(context.Background())

	default:
		lambda.Start(h.HandleEvent)
	}
	return nil
}

func (h *Handler) HandleEvent(ctx context.Context, event ddb.Event) error {
	ctx = h.Logger.WithContext(ctx)
	h.Logger.Trace().Int("count", len(event.Records)).Msg("handling a batch of events")
	if h.onBatch != nil {
		return h.onBatch(ctx, event)
	}
	for _, record := range event.Records {
		if err := h.HandleSingleRecord(ctx, record); err != nil {
			h.Logger.Error().Err(err).Str("event", record.EventID).Msg("unable to handle record")
			return fmt.Errorf("unable to handle record: %w", err)
		}
	}
	return nil
}

func (h *Handler) HandleSingleRecord(ctx context.Context, record ddb.Record) error {
	if h.onBatch != nil {
		return h.onBatch(ctx, ddb.Event{Records: []ddb.Record{record}})
	}
	switch record.EventName {
	case "INSERT":
		if h.onInsert != nil {
			return h.onInsert(ctx, record.Change.NewImage)
		}

	case "MODIFY":
		if h.onUpdate != nil {
			return h.onUpdate(ctx, record.Change.OldImage, record.Change.NewImage)
		}

	case "REMOVE":
		if h.onDelete != nil {
			return h.onDelete(ctx, record.Change.OldImage)
		}
	}
	return nil
}

// ToRecord converts a record read straight from DynamoDB Streams into the
// shape Lambda delivers.
func ToRecord(record *dynamodbstreams.Record) (ddb.Record, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return ddb.Record{}, fmt.Errorf("unable to marshal record: %w", err)
	}
	var ddbr ddb.Record
	if err := json.Unmarshal(raw, &ddbr); err != nil {
		return ddb.Record{}, fmt.Errorf("unable to unmarshal record: %w", err)
	}
	return ddbr, nil
}

func (h *Handler) handleRealtime(ctx context.Context) error {
	ctx = h.Logger.WithContext(ctx)
	streams := Streams(sigfoxcli.Session())
	ss, err := streams.ListStreamsWithContext(ctx, &dynamodbstreams.ListStreamsInput{
		TableName: aws.String(DDBOpts.TableName),
	})
	if err != nil {
		return fmt.Errorf("unable to list streams for table %v: %w", DDBOpts.TableName, err)
	}
	if len(ss.Streams) != 1 {
		return fmt.Errorf("too few or too many streams (%v) for table %v", len(ss.Streams), DDBOpts.TableName)
	}
	stream := ss.Streams[0]

	var shards []*dynamodbstreams.Shard
	var lastShard *string
	for {
		ss, err := streams.DescribeStreamWithContext(ctx, &dynamodbstreams.DescribeStreamInput{
			StreamArn:             stream.StreamArn,
			ExclusiveStartShardId: lastShard,
		})
		if err != nil {
			return fmt.Errorf("unable to describe stream %v: %w", aws.StringValue(stream.StreamArn), err)
		}
		shards = append(shards, ss.StreamDescription.Shards...)
		if ss.StreamDescription.LastEvaluatedShardId == nil {
			break
		}
		lastShard = ss.StreamDescription.LastEvaluatedShardId
	}

	iteratorType := dynamodbstreams.ShardIteratorTypeLatest
	if DDBOpts.FromStart {
		iteratorType = dynamodbstreams.ShardIteratorTypeTrimHorizon
	}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(256)

	h.Logger.Info().
		Str("tableName", DDBOpts.TableName).
		Int("shardCount", len(shards)).
		Str("iterator", iteratorType).
		Msg("responding to stream events")

	for _, shard := range shards {
		group.Go(func() error {
			it, err := streams.GetShardIteratorWithContext(ctx, &dynamodbstreams.GetShardIteratorInput{
				StreamArn:         stream.StreamArn,
				ShardId:           shard.ShardId,
				ShardIteratorType: aws.String(iteratorType),
			})
			if err != nil {
				return fmt.Errorf("unable to get shard iterator: %w", err)
			}

			for it.ShardIterator != nil {
				records, err := streams.GetRecordsWithContext(ctx, &dynamodbstreams.GetRecordsInput{
					ShardIterator: it.ShardIterator,
				})
				if err != nil {
					return fmt.Errorf("unable to get records: %w", err)
				}
				for _, record := range records.Records {
					ddbr, err := ToRecord(record)
					if err != nil {
						return err
					}
					if err := h.HandleSingleRecord(ctx, ddbr); err != nil {
						return fmt.Errorf("error processing record %v: %w", ddbr.EventID, err)
					}
				}
				it.ShardIterator = records.NextShardIterator

				if len(records.Records) == 0 && it.ShardIterator != nil {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(idlePoll):
					}
				}
			}
			return nil
		})
	}
	return group.Wait()
}

func ParseItem(item map[string]*dynamodb.AttributeValue, v interface{}) error {
	if err := dynamodbattribute.UnmarshalMap(item, v); err != nil {
		return fmt.Errorf("unable to unmarshal item: %w", err)
	}
	return nil
}
