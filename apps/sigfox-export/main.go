package main

import (
	"log"
	"os"
	"slices"

	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	sigfoxddb "github.com/sigfox-demo/sigfox-telemetry/sigfox-ddb"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox-ddb/readingdao"
	sigfoxexport "github.com/sigfox-demo/sigfox-telemetry/sigfox-export"
)

var service = sigfoxcli.NewService("sigfox-export")

func main() {
	app := sigfoxcli.App(
		service,
		action,
		slices.Concat(
			sigfoxcli.CommonFlags,
			sigfoxddb.DDBFlags,
			sigfoxexport.ExportFlags,
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(_ *cli.Context) error {
	s := sigfoxcli.Session()
	api, err := sigfoxddb.DynamoDBAPI(s)
	if err != nil {
		return err
	}

	metrics := sigfoxcli.NewMetrics(service, nil)
	if sigfoxcli.CommonOpts.Online && !sigfoxcli.CommonOpts.Dry {
		metrics = sigfoxcli.NewMetrics(service, cloudwatch.New(s))
	}

	readings := readingdao.New(api, sigfoxddb.DDBOpts.TableName)
	handler := sigfoxexport.NewHandler(service, "readings", s3.New(s), metrics, readings.Query)

	return handler.Start()
}
