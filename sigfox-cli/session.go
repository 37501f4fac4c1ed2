package sigfoxcli

import (
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
)

// Session builds an AWS session for the configured region. Service specific
// endpoint overrides, such as the local DynamoDB emulator, are applied by the
// client constructors.
func Session() *session.Session {
	region := CommonOpts.Region
	if region == "" {
		region = DefaultRegion
	}
	return session.Must(session.NewSession(aws.NewConfig().WithRegion(region)))
}
