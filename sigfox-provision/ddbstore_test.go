package sigfoxprovision

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
	"github.com/tj/assert"
)

type fakeDynamoDB struct {
	dynamodbiface.DynamoDBAPI

	err         error
	status      string
	createInput *dynamodb.CreateTableInput
	putInput    *dynamodb.PutItemInput
}

func (f *fakeDynamoDB) CreateTableWithContext(_ aws.Context, input *dynamodb.CreateTableInput, _ ...request.Option) (*dynamodb.CreateTableOutput, error) {
	f.createInput = input
	return &dynamodb.CreateTableOutput{}, f.err
}

func (f *fakeDynamoDB) DeleteTableWithContext(aws.Context, *dynamodb.DeleteTableInput, ...request.Option) (*dynamodb.DeleteTableOutput, error) {
	return &dynamodb.DeleteTableOutput{}, f.err
}

func (f *fakeDynamoDB) PutItemWithContext(_ aws.Context, input *dynamodb.PutItemInput, _ ...request.Option) (*dynamodb.PutItemOutput, error) {
	f.putInput = input
	return &dynamodb.PutItemOutput{}, f.err
}

func (f *fakeDynamoDB) DescribeTableWithContext(aws.Context, *dynamodb.DescribeTableInput, ...request.Option) (*dynamodb.DescribeTableOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dynamodb.DescribeTableOutput{
		Table: &dynamodb.TableDescription{TableStatus: aws.String(f.status)},
	}, nil
}

func awsErr(code string) error {
	return awserr.New(code, "boom", nil)
}

func TestDynamoStore(t *testing.T) {
	ctx := context.Background()

	t.Run("create table input", func(t *testing.T) {
		api := &fakeDynamoDB{}
		err := NewDynamoStore(api).CreateTable(ctx, NewTableDescriptor("sigfox", 10, 10))
		assert.NoError(t, err)

		input := api.createInput
		assert.Equal(t, "sigfox", aws.StringValue(input.TableName))
		assert.Equal(t, "deviceId", aws.StringValue(input.KeySchema[0].AttributeName))
		assert.Equal(t, dynamodb.KeyTypeHash, aws.StringValue(input.KeySchema[0].KeyType))
		assert.Equal(t, "timestamp", aws.StringValue(input.KeySchema[1].AttributeName))
		assert.Equal(t, dynamodb.KeyTypeRange, aws.StringValue(input.KeySchema[1].KeyType))
		assert.Equal(t, "S", aws.StringValue(input.AttributeDefinitions[0].AttributeType))
		assert.Equal(t, "N", aws.StringValue(input.AttributeDefinitions[1].AttributeType))
		assert.EqualValues(t, 10, aws.Int64Value(input.ProvisionedThroughput.ReadCapacityUnits))
		assert.EqualValues(t, 10, aws.Int64Value(input.ProvisionedThroughput.WriteCapacityUnits))
		assert.True(t, aws.BoolValue(input.StreamSpecification.StreamEnabled))
		assert.Equal(t, "NEW_AND_OLD_IMAGES", aws.StringValue(input.StreamSpecification.StreamViewType))
	})

	t.Run("create while deleting", func(t *testing.T) {
		api := &fakeDynamoDB{err: awsErr(dynamodb.ErrCodeResourceInUseException)}
		err := NewDynamoStore(api).CreateTable(ctx, NewTableDescriptor("sigfox", 10, 10))
		assert.True(t, errors.Is(err, ErrAlreadyExists))
		assert.True(t, Retryable(err))
	})

	t.Run("delete missing table", func(t *testing.T) {
		api := &fakeDynamoDB{err: awsErr(dynamodb.ErrCodeResourceNotFoundException)}
		err := NewDynamoStore(api).DeleteTable(ctx, "sigfox")
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("put is conditional on a new key", func(t *testing.T) {
		api := &fakeDynamoDB{}
		r := reading.SensorReading{DeviceID: "12CAC94", Timestamp: 999, Payload: reading.Payload{Data: 50, Temperature: 60, Humidity: 70}}
		err := NewDynamoStore(api).PutItem(ctx, "sigfox", r)
		assert.NoError(t, err)

		input := api.putInput
		assert.Equal(t, "attribute_not_exists(#pk)", aws.StringValue(input.ConditionExpression))
		assert.Equal(t, "12CAC94", aws.StringValue(input.Item["deviceId"].S))
		assert.Equal(t, "999", aws.StringValue(input.Item["timestamp"].N))
		payload := input.Item["payload"].M
		assert.Equal(t, "50", aws.StringValue(payload["data"].N))
		assert.Equal(t, "60", aws.StringValue(payload["temperature"].N))
		assert.Equal(t, "70", aws.StringValue(payload["humidity"].N))
	})

	t.Run("put errors", func(t *testing.T) {
		store := NewDynamoStore(&fakeDynamoDB{err: awsErr(dynamodb.ErrCodeResourceNotFoundException)})
		err := store.PutItem(ctx, "sigfox", reading.SensorReading{DeviceID: "a"})
		assert.True(t, errors.Is(err, ErrNotReady))

		store = NewDynamoStore(&fakeDynamoDB{err: awsErr(dynamodb.ErrCodeConditionalCheckFailedException)})
		err = store.PutItem(ctx, "sigfox", reading.SensorReading{DeviceID: "a"})
		assert.True(t, errors.Is(err, ErrConditionalCheckFailed))
		assert.False(t, Retryable(err))

		store = NewDynamoStore(&fakeDynamoDB{err: awsErr(dynamodb.ErrCodeProvisionedThroughputExceededException)})
		err = store.PutItem(ctx, "sigfox", reading.SensorReading{DeviceID: "a"})
		assert.True(t, errors.Is(err, ErrServiceUnavailable))
		assert.True(t, Retryable(err))
	})

	t.Run("unrecognized errors are fatal", func(t *testing.T) {
		store := NewDynamoStore(&fakeDynamoDB{err: awsErr("AccessDeniedException")})
		err := store.CreateTable(ctx, NewTableDescriptor("sigfox", 10, 10))
		assert.Error(t, err)
		assert.False(t, Retryable(err))

		var aerr awserr.Error
		assert.True(t, errors.As(err, &aerr))
		assert.Equal(t, "AccessDeniedException", aerr.Code())
	})

	t.Run("table status", func(t *testing.T) {
		for _, status := range []TableStatus{StatusCreating, StatusActive, StatusDeleting} {
			got, err := NewDynamoStore(&fakeDynamoDB{status: string(status)}).TableStatus(ctx, "sigfox")
			assert.NoError(t, err)
			assert.Equal(t, status, got)
		}

		got, err := NewDynamoStore(&fakeDynamoDB{status: "UPDATING"}).TableStatus(ctx, "sigfox")
		assert.NoError(t, err)
		assert.Equal(t, StatusUnknown, got)

		got, err = NewDynamoStore(&fakeDynamoDB{err: awsErr(dynamodb.ErrCodeResourceNotFoundException)}).TableStatus(ctx, "sigfox")
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.Equal(t, StatusUnknown, got)
	})
}
