package sigfoxcli

import (
	"strings"
	"time"

	"github.com/urfave/cli/v2"
)

// LocalEndpoint is the address of the local DynamoDB emulator.
const LocalEndpoint = "http://localhost:8000"

// DefaultRegion is used when talking to the managed service.
const DefaultRegion = "us-east-1"

var CommonOpts struct {
	Console  bool
	Dry      bool
	Env      string
	Online   bool
	Region   string
	Endpoint string
	Port     int
}

var ConsoleFlag = cli.BoolFlag{
	Name:        "console",
	Usage:       "whether to run in console mode or lambda mode",
	Value:       false,
	EnvVars:     []string{"CONSOLE"},
	Destination: &CommonOpts.Console,
}
var DryFlag = cli.BoolFlag{
	Name:        "dry",
	Usage:       "whether to actually persist any records or not",
	Value:       false,
	EnvVars:     []string{"DRY"},
	Destination: &CommonOpts.Dry,
}
var EnvFlag = cli.StringFlag{
	Name:        "env",
	Usage:       "environment",
	Value:       "local",
	EnvVars:     []string{"ENV"},
	Destination: &CommonOpts.Env,
}
var OnlineFlag = cli.BoolFlag{
	Name:        "online",
	Usage:       "target the managed DynamoDB service instead of the local emulator",
	Value:       false,
	EnvVars:     []string{"ONLINE"},
	Destination: &CommonOpts.Online,
}
var RegionFlag = cli.StringFlag{
	Name:        "region",
	Usage:       "AWS region of the managed service",
	Value:       DefaultRegion,
	EnvVars:     []string{"AWS_REGION"},
	Destination: &CommonOpts.Region,
}
var EndpointFlag = cli.StringFlag{
	Name:        "endpoint",
	Usage:       "DynamoDB endpoint to use when not online",
	Value:       LocalEndpoint,
	EnvVars:     []string{"DYNAMODB_ENDPOINT"},
	Destination: &CommonOpts.Endpoint,
}
var PortFlag = func(p int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:        "port",
		Usage:       "Port to listen to, if running locally",
		Value:       p,
		EnvVars:     []string{"PORT"},
		Destination: &CommonOpts.Port,
	}
}

var CommonFlags = []cli.Flag{
	&ConsoleFlag,
	&DryFlag,
	&EnvFlag,
	&OnlineFlag,
	&RegionFlag,
	&EndpointFlag,
}

// EnvVar derives the environment variable name for a flag, e.g. table-name
// becomes TABLE_NAME.
func EnvVar(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func StringFlag(name, usage string, destination *string, value ...string) *cli.StringFlag {
	f := &cli.StringFlag{
		Name:        name,
		Usage:       usage,
		EnvVars:     []string{EnvVar(name)},
		Destination: destination,
	}
	if len(value) > 0 {
		f.Value = value[0]
	}
	return f
}

func BoolFlag(name, usage string, destination *bool) *cli.BoolFlag {
	return &cli.BoolFlag{
		Name:        name,
		Usage:       usage,
		EnvVars:     []string{EnvVar(name)},
		Destination: destination,
	}
}

func IntFlag(name, usage string, destination *int, value int) *cli.IntFlag {
	return &cli.IntFlag{
		Name:        name,
		Usage:       usage,
		Value:       value,
		EnvVars:     []string{EnvVar(name)},
		Destination: destination,
	}
}

func Int64Flag(name, usage string, destination *int64, value int64) *cli.Int64Flag {
	return &cli.Int64Flag{
		Name:        name,
		Usage:       usage,
		Value:       value,
		EnvVars:     []string{EnvVar(name)},
		Destination: destination,
	}
}

func DurationFlag(name, usage string, destination *time.Duration, value time.Duration) *cli.DurationFlag {
	return &cli.DurationFlag{
		Name:        name,
		Usage:       usage,
		Value:       value,
		EnvVars:     []string{EnvVar(name)},
		Destination: destination,
	}
}

func TimestampFlag(name, layout, usage string, destination *cli.Timestamp) *cli.TimestampFlag {
	return &cli.TimestampFlag{
		Name:        name,
		Usage:       usage,
		Layout:      layout,
		EnvVars:     []string{EnvVar(name)},
		Destination: destination,
	}
}
