package checkpointdao

import (
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

// Build returns a checkpoint dao for the standard table of env.
func Build(api dynamodbiface.DynamoDBAPI, env string) *DAO {
	return New(api, TableName(env))
}

func TableName(env string) string {
	return env + "-sigfox-tail--checkpoint"
}
