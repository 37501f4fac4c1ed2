package sigfoxddb

import (
	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
)

var DDBOpts struct {
	DAXCluster string
	TableName  string
	FromStart  bool
}

var DAXClusterFlag = sigfoxcli.StringFlag("dax-cluster", "The DAX cluster to read readings through", &DDBOpts.DAXCluster)
var TableNameFlag = sigfoxcli.StringFlag("table-name", "The readings table", &DDBOpts.TableName, "sigfox")
var FromStartFlag = sigfoxcli.BoolFlag("from-start", "In console mode, replay the change stream from the oldest record", &DDBOpts.FromStart)

var DDBFlags = []cli.Flag{
	DAXClusterFlag,
	TableNameFlag,
}

var StreamFlags = []cli.Flag{
	TableNameFlag,
	FromStartFlag,
}
