package sigfoxddb

import (
	"fmt"

	"github.com/aws/aws-dax-go/dax"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
	"github.com/aws/aws-sdk-go/service/dynamodbstreams"
	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
)

// DynamoDBConfig points clients either at the managed service in region or,
// when offline, at the emulator listening on endpoint. The emulator accepts
// any credentials.
func DynamoDBConfig(online bool, region, endpoint string) *aws.Config {
	if region == "" {
		region = sigfoxcli.DefaultRegion
	}
	config := aws.NewConfig().WithRegion(region)
	if online {
		return config
	}
	if endpoint == "" {
		endpoint = sigfoxcli.LocalEndpoint
	}
	return config.
		WithEndpoint(endpoint).
		WithCredentials(credentials.NewStaticCredentials("local", "local", ""))
}

func commonConfig() *aws.Config {
	return DynamoDBConfig(sigfoxcli.CommonOpts.Online, sigfoxcli.CommonOpts.Region, sigfoxcli.CommonOpts.Endpoint)
}

// Client returns a plain DynamoDB client. Table management always goes
// through this client since DAX only serves item operations.
func Client(s *session.Session) dynamodbiface.DynamoDBAPI {
	return dynamodb.New(s, commonConfig())
}

// Streams returns a DynamoDB Streams client for the same endpoint as Client.
func Streams(s *session.Session) *dynamodbstreams.DynamoDBStreams {
	return dynamodbstreams.New(s, commonConfig())
}

type DAXWrapper struct {
	*dax.Dax
}

// DynamoDBAPI returns a client for reading items, backed by DAX when a cluster
// is configured and the managed service is targeted.
func DynamoDBAPI(s *session.Session) (dynamodbiface.DynamoDBAPI, error) {
	if DDBOpts.DAXCluster == "" || !sigfoxcli.CommonOpts.Online {
		return Client(s), nil
	}

	config := dax.DefaultConfig()
	config.HostPorts = []string{DDBOpts.DAXCluster}
	config.Region = aws.StringValue(commonConfig().Region)
	daxClient, err := dax.New(config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to dax cluster %v: %w", DDBOpts.DAXCluster, err)
	}
	return DAXWrapper{Dax: daxClient}, nil
}

// The DAX client lacks the resource policy operations, so it does not satisfy
// dynamodbiface on its own. Nothing here manages policies.
func (DAXWrapper) DeleteResourcePolicy(*dynamodb.DeleteResourcePolicyInput) (*dynamodb.DeleteResourcePolicyOutput, error) {
	return nil, fmt.Errorf("unimplemented")
}
func (DAXWrapper) DeleteResourcePolicyWithContext(aws.Context, *dynamodb.DeleteResourcePolicyInput, ...request.Option) (*dynamodb.DeleteResourcePolicyOutput, error) {
	return nil, fmt.Errorf("unimplemented")
}
func (DAXWrapper) DeleteResourcePolicyRequest(*dynamodb.DeleteResourcePolicyInput) (*request.Request, *dynamodb.DeleteResourcePolicyOutput) {
	return nil, nil
}
func (DAXWrapper) GetResourcePolicy(*dynamodb.GetResourcePolicyInput) (*dynamodb.GetResourcePolicyOutput, error) {
	return nil, fmt.Errorf("unimplemented")
}
func (DAXWrapper) GetResourcePolicyWithContext(aws.Context, *dynamodb.GetResourcePolicyInput, ...request.Option) (*dynamodb.GetResourcePolicyOutput, error) {
	return nil, fmt.Errorf("unimplemented")
}
func (DAXWrapper) GetResourcePolicyRequest(*dynamodb.GetResourcePolicyInput) (*request.Request, *dynamodb.GetResourcePolicyOutput) {
	return nil, nil
}
func (DAXWrapper) PutResourcePolicy(*dynamodb.PutResourcePolicyInput) (*dynamodb.PutResourcePolicyOutput, error) {
	return nil, fmt.Errorf("unimplemented")
}
func (DAXWrapper) PutResourcePolicyWithContext(aws.Context, *dynamodb.PutResourcePolicyInput, ...request.Option) (*dynamodb.PutResourcePolicyOutput, error) {
	return nil, fmt.Errorf("unimplemented")
}
func (DAXWrapper) PutResourcePolicyRequest(*dynamodb.PutResourcePolicyInput) (*request.Request, *dynamodb.PutResourcePolicyOutput) {
	return nil, nil
}
