package main

import (
	"log"
	"os"
	"slices"

	"github.com/aws/aws-sdk-go/service/cloudwatch"
	"github.com/go-chi/chi/v5"
	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	sigfoxddb "github.com/sigfox-demo/sigfox-telemetry/sigfox-ddb"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox-ddb/readingdao"
	sigfoxgql "github.com/sigfox-demo/sigfox-telemetry/sigfox-gql"
	sigfoxprovision "github.com/sigfox-demo/sigfox-telemetry/sigfox-provision"
	sigfoxrest "github.com/sigfox-demo/sigfox-telemetry/sigfox-rest"
)

var service = sigfoxcli.NewService("sigfox-api")

func main() {
	app := sigfoxcli.App(
		service,
		action,
		slices.Concat(
			sigfoxcli.CommonFlags,
			sigfoxddb.DDBFlags,
			[]cli.Flag{sigfoxcli.PortFlag(5001)},
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

	config := sigfoxgql.NewConfig(service)
	if sigfoxcli.CommonOpts.Online && !sigfoxcli.CommonOpts.Dry {
		config.Metrics = sigfoxcli.NewMetrics(service, cloudwatch.New(s))
	}

	var (
		readings = readingdao.New(api, sigfoxddb.DDBOpts.TableName)
		tables   = sigfoxprovision.NewDynamoStore(sigfoxddb.Client(s))
		resolver = sigfoxgql.NewReadingsResolver(config, readings, tables)
	)

	return sigfoxgql.Webserver(resolver, func(router chi.Router) {
		sigfoxrest.Routes(router, readings, tables)
	})
}
