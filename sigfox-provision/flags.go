package sigfoxprovision

import (
	"fmt"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
	sigfoxsecret "github.com/sigfox-demo/sigfox-telemetry/sigfox-secret"
	"github.com/urfave/cli/v2"
)

var ProvisionOpts = DefaultConfig()

var configSource struct {
	File   string
	Secret string
}

var TableNameFlag = sigfoxcli.StringFlag("table-name", "The table to (re)create and populate", &ProvisionOpts.TableName, ProvisionOpts.TableName)
var NumInitItemsFlag = sigfoxcli.IntFlag("num-init-items", "The number of synthetic readings to insert", &ProvisionOpts.NumInitItems, ProvisionOpts.NumInitItems)
var DeviceIDFlag = sigfoxcli.StringFlag("device-id", "The device the synthetic readings belong to", &ProvisionOpts.DeviceID, ProvisionOpts.DeviceID)
var ReadCapacityFlag = sigfoxcli.Int64Flag("read-capacity", "Provisioned read capacity units", &ProvisionOpts.ReadCapacity, ProvisionOpts.ReadCapacity)
var WriteCapacityFlag = sigfoxcli.Int64Flag("write-capacity", "Provisioned write capacity units", &ProvisionOpts.WriteCapacity, ProvisionOpts.WriteCapacity)
var PollIntervalFlag = sigfoxcli.DurationFlag("poll-interval", "Wait between table state checks", &ProvisionOpts.PollInterval, ProvisionOpts.PollInterval)
var PollMaxAttemptsFlag = sigfoxcli.IntFlag("poll-max-attempts", "Maximum attempts per wait, 0 for no limit", &ProvisionOpts.PollMaxAttempts, ProvisionOpts.PollMaxAttempts)
var PollTimeoutFlag = sigfoxcli.DurationFlag("poll-timeout", "Maximum time per wait, 0 for no limit", &ProvisionOpts.PollTimeout, ProvisionOpts.PollTimeout)
var PollExponentialFlag = sigfoxcli.BoolFlag("poll-exponential", "Double the wait after every attempt", &ProvisionOpts.PollExponential)
var ClampHumidityFlag = sigfoxcli.BoolFlag("clamp-humidity", "Clamp synthetic humidity to [0, 100]", &ProvisionOpts.ClampHumidity)
var ConfigFileFlag = sigfoxcli.StringFlag("config-file", "A setting,value CSV file, e.g. config.txt", &configSource.File)
var ConfigSecretFlag = sigfoxcli.StringFlag("config-secret", "A Secrets Manager secret holding the settings as JSON", &configSource.Secret)

var ProvisionFlags = []cli.Flag{
	TableNameFlag,
	NumInitItemsFlag,
	DeviceIDFlag,
	ReadCapacityFlag,
	WriteCapacityFlag,
	PollIntervalFlag,
	PollMaxAttemptsFlag,
	PollTimeoutFlag,
	PollExponentialFlag,
	ClampHumidityFlag,
	ConfigFileFlag,
	ConfigSecretFlag,
}

var settingFlags = map[string]string{
	TableNameSetting:    TableNameFlag.Name,
	NumInitItemsSetting: NumInitItemsFlag.Name,
	OnlineSetting:       sigfoxcli.OnlineFlag.Name,
	DeviceIDSetting:     DeviceIDFlag.Name,
}

// LoadConfig assembles the provisioning config. Precedence, lowest first:
// defaults, the settings file, the settings secret, flags set explicitly on
// the command line or through the environment.
func LoadConfig(c *cli.Context) (*Config, error) {
	config := ProvisionOpts
	config.Online = sigfoxcli.CommonOpts.Online

	explicit := func(key string) bool {
		name, ok := settingFlags[key]
		return ok && c.IsSet(name)
	}

	if configSource.File != "" {
		settings, err := LoadSettingsFile(configSource.File)
		if err != nil {
			return nil, err
		}
		if err := config.Apply(settings, explicit); err != nil {
			return nil, fmt.Errorf("config file %v: %w", configSource.File, err)
		}
	}

	if configSource.Secret != "" {
		var raw map[string]interface{}
		if err := sigfoxsecret.LoadSecret(sigfoxcli.Session(), configSource.Secret, &raw); err != nil {
			return nil, err
		}
		settings := map[string]string{}
		for k, v := range raw {
			settings[k] = fmt.Sprint(v)
		}
		if err := config.Apply(settings, explicit); err != nil {
			return nil, fmt.Errorf("config secret %v: %w", configSource.Secret, err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}
