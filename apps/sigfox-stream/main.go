package main

import (
	"context"
	"log"
	"os"
	"slices"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	sigfoxddb "github.com/sigfox-demo/sigfox-telemetry/sigfox-ddb"
	sigfoxkinesis "github.com/sigfox-demo/sigfox-telemetry/sigfox-kinesis"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

var service = sigfoxcli.NewService("sigfox-stream")

func main() {
	app := sigfoxcli.App(
		service,
		action,
		slices.Concat(
			sigfoxcli.CommonFlags,
			sigfoxddb.StreamFlags,
			sigfoxkinesis.PublishFlags,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	publish := func(ctx context.Context, r reading.SensorReading) error {
		zerolog.Ctx(ctx).Info().Str("deviceId", r.DeviceID).Int64("timestamp", r.Timestamp).Msg("reading inserted")
		return nil
	}
	if !sigfoxcli.CommonOpts.Dry {
		publisher := sigfoxkinesis.BuildPublisher(sigfoxcli.Session(), sigfoxcli.CommonOpts.Env)
		publish = publisher.PublishReading
	}

	handler := sigfoxddb.NewReadingHandler(service, publish)

	return handler.Start()
}
