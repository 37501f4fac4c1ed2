package readingdao

import "github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"

// Build returns a readings DAO using the standard table name for env.
func Build(api dynamodbiface.DynamoDBAPI, env string) *DAO {
	return New(api, TableName(env))
}

// TableName returns the readings table name for env. The local environment
// keeps the bare name the dashboard has always used.
func TableName(env string) string {
	if env == "" || env == "local" {
		return "sigfox"
	}
	return env + "-sigfox"
}
