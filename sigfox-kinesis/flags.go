package sigfoxkinesis

import (
	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
)

var KinesisOpts struct {
	StreamName string
	Replay     bool
	ReplayFrom cli.Timestamp
	Checkpoint bool
}

var StreamNameFlag = sigfoxcli.StringFlag("stream-name", "The stream readings are published to and read from", &KinesisOpts.StreamName)
var ReplayFlag = sigfoxcli.BoolFlag("replay", "Whether to replay from the beginning, or start from the next message", &KinesisOpts.Replay)
var ReplayFromFlag = sigfoxcli.TimestampFlag("replay-from", "2006-01-02 15:04:05", "Timestamp to replay from", &KinesisOpts.ReplayFrom)
var CheckpointFlag = sigfoxcli.BoolFlag("checkpoint", "Persist the stream position in DynamoDB and resume from it", &KinesisOpts.Checkpoint)

var PublishFlags = []cli.Flag{
	StreamNameFlag,
}

var KinesisFlags = []cli.Flag{
	StreamNameFlag,
	ReplayFlag,
	ReplayFromFlag,
	CheckpointFlag,
}
