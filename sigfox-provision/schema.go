package sigfoxprovision

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

const (
	PartitionKey = "deviceId"
	SortKey      = "timestamp"

	DefaultReadCapacity  int64 = 10
	DefaultWriteCapacity int64 = 10
)

type KeyAttribute struct {
	Name string
	// Type is the DynamoDB scalar type, S or N.
	Type string
}

// TableDescriptor is the schema of the readings table.
type TableDescriptor struct {
	Name           string
	PartitionKey   KeyAttribute
	SortKey        KeyAttribute
	StreamEnabled  bool
	StreamViewType string
	ReadCapacity   int64
	WriteCapacity  int64
}

// NewTableDescriptor returns the readings schema: deviceId (S) partition key,
// timestamp (N) sort key and a change stream carrying new and old images.
func NewTableDescriptor(name string, readCapacity, writeCapacity int64) TableDescriptor {
	return TableDescriptor{
		Name:           name,
		PartitionKey:   KeyAttribute{Name: PartitionKey, Type: dynamodb.ScalarAttributeTypeS},
		SortKey:        KeyAttribute{Name: SortKey, Type: dynamodb.ScalarAttributeTypeN},
		StreamEnabled:  true,
		StreamViewType: dynamodb.StreamViewTypeNewAndOldImages,
		ReadCapacity:   readCapacity,
		WriteCapacity:  writeCapacity,
	}
}

func (d TableDescriptor) CreateTableInput() *dynamodb.CreateTableInput {
	input := &dynamodb.CreateTableInput{
		TableName: aws.String(d.Name),
		KeySchema: []*dynamodb.KeySchemaElement{
			{
				AttributeName: aws.String(d.PartitionKey.Name),
				KeyType:       aws.String(dynamodb.KeyTypeHash),
			},
			{
				AttributeName: aws.String(d.SortKey.Name),
				KeyType:       aws.String(dynamodb.KeyTypeRange),
			},
		},
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{
				AttributeName: aws.String(d.PartitionKey.Name),
				AttributeType: aws.String(d.PartitionKey.Type),
			},
			{
				AttributeName: aws.String(d.SortKey.Name),
				AttributeType: aws.String(d.SortKey.Type),
			},
		},
		ProvisionedThroughput: &dynamodb.ProvisionedThroughput{
			ReadCapacityUnits:  aws.Int64(d.ReadCapacity),
			WriteCapacityUnits: aws.Int64(d.WriteCapacity),
		},
	}
	if d.StreamEnabled {
		input.StreamSpecification = &dynamodb.StreamSpecification{
			StreamEnabled:  aws.Bool(true),
			StreamViewType: aws.String(d.StreamViewType),
		}
	}
	return input
}
