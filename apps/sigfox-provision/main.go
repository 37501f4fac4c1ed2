package main

import (
	"context"
	"log"
	"os"
	"slices"

	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	sigfoxddb "github.com/sigfox-demo/sigfox-telemetry/sigfox-ddb"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox-ddb/readingdao"
	sigfoxexport "github.com/sigfox-demo/sigfox-telemetry/sigfox-export"
	sigfoxprovision "github.com/sigfox-demo/sigfox-telemetry/sigfox-provision"
)

var service = sigfoxcli.NewService("sigfox-provision")

var opts struct {
	Export bool
}

func main() {
	app := sigfoxcli.App(
		service,
		action,
		slices.Concat(
			sigfoxcli.CommonFlags,
			sigfoxprovision.ProvisionFlags,
			[]cli.Flag{
				sigfoxcli.BoolFlag("export", "Export the fresh readings once the table is populated", &opts.Export),
				sigfoxexport.BucketFlag,
				sigfoxexport.OutFileFlag,
			},
		)...,
	)
	err := app.Run(os.Args)
	if err != nil {
		log.Fatalln(err)
	}
}

func action(c *cli.Context) error {
	config, err := sigfoxprovision.LoadConfig(c)
	if err != nil {
		return err
	}

	var (
		s   = sigfoxcli.Session()
		api = dynamodb.New(s, sigfoxddb.DynamoDBConfig(config.Online, sigfoxcli.CommonOpts.Region, sigfoxcli.CommonOpts.Endpoint))
	)

	metrics := sigfoxcli.NewMetrics(service, nil)
	if config.Online && !sigfoxcli.CommonOpts.Dry {
		metrics = sigfoxcli.NewMetrics(service, cloudwatch.New(s))
	}

	var afterPopulate sigfoxprovision.AfterPopulateCallback
	if opts.Export {
		afterPopulate = func(ctx context.Context, config *sigfoxprovision.Config, _ sigfoxprovision.Result) error {
			readings := readingdao.New(api, config.TableName)
			exporter := sigfoxexport.NewHandler(service, "readings", s3.New(s), metrics, readings.Query)
			_, err := exporter.Export(ctx, config.DeviceID, 0)
			return err
		}
	}

	manager := sigfoxprovision.NewManager(sigfoxprovision.NewDynamoStore(api), sigfoxcli.Logger(service))
	handler := sigfoxprovision.NewHandler(service, manager, config, metrics, afterPopulate)

	return handler.Start()
}
