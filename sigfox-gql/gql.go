// Package sigfoxgql serves the readings over GraphQL, with the GraphiQL
// playground outside production.
package sigfoxgql

import (
	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
)

func AllowIntrospection() bool {
	return sigfoxcli.CommonOpts.Env != "prod" || sigfoxcli.CommonOpts.Console
}

type Resolver interface {
	Schema() string
	Config() *BaseConfig
}
