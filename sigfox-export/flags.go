package sigfoxexport

import (
	"github.com/urfave/cli/v2"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

var ExportOpts struct {
	Bucket string

	OutFile   string
	GetLatest bool

	DeviceID string
	Since    int64
}

var BucketFlag = sigfoxcli.StringFlag("bucket", "The bucket to write the export to", &ExportOpts.Bucket)
var OutFileFlag = sigfoxcli.StringFlag("out-file", "The file to write the export to, when running in dry mode", &ExportOpts.OutFile)
var GetLatestFlag = sigfoxcli.BoolFlag("get-latest", "Get the latest export from the bucket instead of generating a new one", &ExportOpts.GetLatest)
var DeviceIDFlag = sigfoxcli.StringFlag("export-device-id", "The device whose readings are exported", &ExportOpts.DeviceID, reading.DefaultDeviceID)
var SinceFlag = sigfoxcli.Int64Flag("since", "Only export readings at or after this unix timestamp", &ExportOpts.Since, 0)

var ExportFlags = []cli.Flag{
	BucketFlag,
	OutFileFlag,
	GetLatestFlag,
	DeviceIDFlag,
	SinceFlag,
}
