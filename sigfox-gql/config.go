package sigfoxgql

import (
	"github.com/rs/zerolog"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
)

type BaseConfig struct {
	Logger  zerolog.Logger
	Service sigfoxcli.Service
	Metrics sigfoxcli.Metrics
}

func NewConfig(service sigfoxcli.Service) BaseConfig {
	return BaseConfig{
		Logger:  sigfoxcli.Logger(service),
		Service: service,
		Metrics: sigfoxcli.NewMetrics(service, nil),
	}
}
