package sigfoxprovision

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

// DynamoStore implements Store on DynamoDB.
type DynamoStore struct {
	api dynamodbiface.DynamoDBAPI
}

func NewDynamoStore(api dynamodbiface.DynamoDBAPI) *DynamoStore {
	return &DynamoStore{api: api}
}

func (s *DynamoStore) CreateTable(ctx context.Context, descriptor TableDescriptor) error {
	if _, err := s.api.CreateTableWithContext(ctx, descriptor.CreateTableInput()); err != nil {
		return fmt.Errorf("failed to create table %v: %w", descriptor.Name, classify(err, ErrAlreadyExists, ErrNotFound))
	}
	return nil
}

func (s *DynamoStore) DeleteTable(ctx context.Context, name string) error {
	_, err := s.api.DeleteTableWithContext(ctx, &dynamodb.DeleteTableInput{
		TableName: aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("failed to delete table %v: %w", name, classify(err, ErrNotReady, ErrNotFound))
	}
	return nil
}

// PutItem writes r only if no item with the same key exists.
func (s *DynamoStore) PutItem(ctx context.Context, tableName string, r reading.SensorReading) error {
	item, err := dynamodbattribute.MarshalMap(r)
	if err != nil {
		return fmt.Errorf("unable to marshal reading %v: %w", r.Key(), err)
	}
	_, err = s.api.PutItemWithContext(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(#pk)"),
		ExpressionAttributeNames: map[string]*string{
			"#pk": aws.String(PartitionKey),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to put reading %v into %v: %w", r.Key(), tableName, classify(err, ErrNotReady, ErrNotReady))
	}
	return nil
}

func (s *DynamoStore) TableStatus(ctx context.Context, name string) (TableStatus, error) {
	out, err := s.api.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(name),
	})
	if err != nil {
		return StatusUnknown, fmt.Errorf("failed to describe table %v: %w", name, classify(err, ErrNotReady, ErrNotFound))
	}
	if out.Table == nil {
		return StatusUnknown, nil
	}
	switch status := TableStatus(aws.StringValue(out.Table.TableStatus)); status {
	case StatusCreating, StatusActive, StatusDeleting:
		return status, nil
	default:
		return StatusUnknown, nil
	}
}

// classify maps DynamoDB error codes onto the store sentinels. inUse and
// notFound are what ResourceInUse and ResourceNotFound mean for the calling
// operation. Anything unrecognized is returned unchanged and treated as
// fatal by the caller.
func classify(err, inUse, notFound error) error {
	var aerr awserr.Error
	if !errors.As(err, &aerr) {
		return err
	}
	switch aerr.Code() {
	case dynamodb.ErrCodeResourceInUseException:
		return fmt.Errorf("%w: %w", inUse, err)
	case dynamodb.ErrCodeResourceNotFoundException:
		return fmt.Errorf("%w: %w", notFound, err)
	case dynamodb.ErrCodeConditionalCheckFailedException:
		return fmt.Errorf("%w: %w", ErrConditionalCheckFailed, err)
	case dynamodb.ErrCodeProvisionedThroughputExceededException,
		dynamodb.ErrCodeLimitExceededException,
		dynamodb.ErrCodeRequestLimitExceeded,
		dynamodb.ErrCodeInternalServerError,
		"ThrottlingException",
		"ServiceUnavailable",
		request.ErrCodeRequestError,
		request.ErrCodeResponseTimeout:
		return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
	}
	return err
}
