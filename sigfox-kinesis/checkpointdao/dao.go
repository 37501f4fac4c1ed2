// Package checkpointdao stores how far each shard of a Kinesis stream has
// been read, so a tail can resume where it stopped.
package checkpointdao

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"
)

type Record struct {
	Stream string `dynamodbav:"stream" ddb:"hash"`
	Shard  string `dynamodbav:"shard" ddb:"range"`

	SequenceNumber string `dynamodbav:"sequence_number"`
	UpdatedAt      int64  `dynamodbav:"updated_at,omitempty"`
	TTL            int64  `dynamodbav:"ttl,omitempty"`
}

type DAO struct {
	table *ddb.Table
	now   func() time.Time
}

func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		table: ddb.New(api).MustTable(tableName, Record{}),
		now:   time.Now,
	}
}

func (d *DAO) Table() *ddb.Table {
	return d.table
}

// Find returns the checkpoint of a shard, or an empty string when the shard
// has never been read.
func (d *DAO) Find(ctx context.Context, stream, shard string) (string, error) {
	var r Record
	get := d.table.Get(stream).Range(shard).ConsistentRead(true)
	if err := get.ScanWithContext(ctx, &r); err != nil {
		if ddb.IsItemNotFoundError(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find checkpoint for stream, %v, and shard, %v: %w", stream, shard, err)
	}
	return r.SequenceNumber, nil
}

func (d *DAO) Save(ctx context.Context, stream, shard, sequenceNumber string) error {
	now := d.now()
	record := Record{
		Stream:         stream,
		Shard:          shard,
		SequenceNumber: sequenceNumber,
		UpdatedAt:      now.Unix(),
		TTL:            now.AddDate(0, 0, 15).Unix(),
	}
	if err := d.table.Put(record).RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to save checkpoint, %v, for stream, %v, and shard, %v: %w", sequenceNumber, stream, shard, err)
	}
	return nil
}

// GetCheckpoint and SetCheckpoint let the DAO serve as the position store of
// a kinesis consumer.
func (d *DAO) GetCheckpoint(streamName, shardID string) (string, error) {
	return d.Find(context.Background(), streamName, shardID)
}

func (d *DAO) SetCheckpoint(streamName, shardID, sequenceNumber string) error {
	return d.Save(context.Background(), streamName, shardID, sequenceNumber)
}
