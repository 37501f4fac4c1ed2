// Package readingdao reads and writes sensor readings in the readings table.
package readingdao

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/savaki/ddb"

	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

type DAO struct {
	table     *ddb.Table
	api       dynamodbiface.DynamoDBAPI
	tableName string
}

func New(api dynamodbiface.DynamoDBAPI, tableName string) *DAO {
	return &DAO{
		table:     ddb.New(api).MustTable(tableName, reading.SensorReading{}),
		api:       api,
		tableName: tableName,
	}
}

func (d *DAO) TableName() string {
	return d.tableName
}

// Table exposes the underlying table, mostly so tests can create and drop it.
func (d *DAO) Table() *ddb.Table {
	return d.table
}

func (d *DAO) Put(ctx context.Context, r reading.SensorReading) error {
	if err := d.table.Put(r).RunWithContext(ctx); err != nil {
		return fmt.Errorf("failed to put reading %v: %w", r.Key(), err)
	}
	return nil
}

// Get returns the reading stored under deviceID and timestamp, or nil when
// there is none.
func (d *DAO) Get(ctx context.Context, deviceID string, timestamp int64) (*reading.SensorReading, error) {
	var r reading.SensorReading
	get := d.table.Get(deviceID).Range(timestamp).ConsistentRead(true)
	if err := get.ScanWithContext(ctx, &r); err != nil {
		if ddb.IsItemNotFoundError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get reading %v/%v: %w", deviceID, timestamp, err)
	}
	return &r, nil
}

// Query returns the readings of deviceID in timestamp order, starting at since
// when since is positive.
func (d *DAO) Query(ctx context.Context, deviceID string, since int64) ([]reading.SensorReading, error) {
	query := d.table.Query("#DeviceID = ?", deviceID)
	if since > 0 {
		query = d.table.Query("#DeviceID = ? AND #Timestamp >= ?", deviceID, since)
	}

	var readings []reading.SensorReading
	if err := query.FindAllWithContext(ctx, &readings); err != nil {
		return nil, fmt.Errorf("failed to query readings for device %v: %w", deviceID, err)
	}
	return readings, nil
}

// Latest returns the most recent reading of deviceID, or nil when the device
// has none.
func (d *DAO) Latest(ctx context.Context, deviceID string) (*reading.SensorReading, error) {
	output, err := d.api.QueryWithContext(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("deviceId = :deviceId"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":deviceId": {S: aws.String(deviceID)},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int64(1),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to find latest reading for device %v: %w", deviceID, err)
	}
	if len(output.Items) == 0 {
		return nil, nil
	}

	var r reading.SensorReading
	if err := dynamodbattribute.UnmarshalMap(output.Items[0], &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal latest reading for device %v: %w", deviceID, err)
	}
	return &r, nil
}

// Count returns the number of readings stored for deviceID.
func (d *DAO) Count(ctx context.Context, deviceID string) (int64, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(d.tableName),
		KeyConditionExpression: aws.String("deviceId = :deviceId"),
		ExpressionAttributeValues: map[string]*dynamodb.AttributeValue{
			":deviceId": {S: aws.String(deviceID)},
		},
		Select: aws.String(dynamodb.SelectCount),
	}

	var count int64
	for {
		output, err := d.api.QueryWithContext(ctx, input)
		if err != nil {
			return 0, fmt.Errorf("failed to count readings for device %v: %w", deviceID, err)
		}
		count += aws.Int64Value(output.Count)
		if len(output.LastEvaluatedKey) == 0 {
			return count, nil
		}
		input.ExclusiveStartKey = output.LastEvaluatedKey
	}
}
