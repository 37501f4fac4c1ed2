package main

import (
	"log"
	"os"
	"slices"

	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	sigfoxkinesis "github.com/sigfox-demo/sigfox-telemetry/sigfox-kinesis"
)

var service = sigfoxcli.NewService("sigfox-tail")

func main() {
	app := sigfoxcli.App(
		service,
		action,
		slices.Concat(
			sigfoxcli.CommonFlags,
			sigfoxkinesis.KinesisFlags,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(c *cli.Context) error {
	handler := sigfoxkinesis.NewHandler(service, sigfoxkinesis.LogReading)

	return handler.Start(c)
}
