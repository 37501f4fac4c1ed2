package sigfoxprovision

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sigfox-demo/sigfox-telemetry/sigfox-provision/poll"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

// Setting keys understood in config files and secrets.
const (
	TableNameSetting    = "tableName"
	NumInitItemsSetting = "numInitItems"
	OnlineSetting       = "online"
	DeviceIDSetting     = "deviceId"
)

// Config is the provisioning configuration, read once at startup.
type Config struct {
	TableName    string
	NumInitItems int
	Online       bool
	DeviceID     string

	ReadCapacity  int64
	WriteCapacity int64

	PollInterval    time.Duration
	PollMaxAttempts int
	PollTimeout     time.Duration
	PollExponential bool

	ClampHumidity bool
}

func DefaultConfig() Config {
	return Config{
		TableName:     "sigfox",
		NumInitItems:  100,
		DeviceID:      reading.DefaultDeviceID,
		ReadCapacity:  DefaultReadCapacity,
		WriteCapacity: DefaultWriteCapacity,
		PollInterval:  time.Second,
		PollTimeout:   5 * time.Minute,
	}
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.TableName) == "" {
		errs = append(errs, errors.New("table name must not be empty"))
	}
	if c.NumInitItems < 0 {
		errs = append(errs, fmt.Errorf("number of initial items must not be negative, got %v", c.NumInitItems))
	}
	if c.DeviceID == "" {
		errs = append(errs, errors.New("device id must not be empty"))
	}
	if c.ReadCapacity <= 0 || c.WriteCapacity <= 0 {
		errs = append(errs, fmt.Errorf("capacity must be positive, got read=%v write=%v", c.ReadCapacity, c.WriteCapacity))
	}
	if c.PollMaxAttempts < 0 {
		errs = append(errs, fmt.Errorf("poll max attempts must not be negative, got %v", c.PollMaxAttempts))
	}
	if c.PollMaxAttempts == 0 && c.PollTimeout <= 0 {
		errs = append(errs, errors.New("polling must be bounded by max attempts or a timeout"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid provisioning config: %w", err)
	}
	return nil
}

func (c Config) TableDescriptor() TableDescriptor {
	return NewTableDescriptor(c.TableName, c.ReadCapacity, c.WriteCapacity)
}

func (c Config) Policy() poll.Policy {
	return poll.Policy{
		MaxAttempts: uint64(max(c.PollMaxAttempts, 0)),
		Interval:    c.PollInterval,
		Exponential: c.PollExponential,
		Timeout:     c.PollTimeout,
	}
}

// Apply overrides fields of c with settings. Keys for which skip returns true
// are left alone; unknown keys are ignored.
func (c *Config) Apply(settings map[string]string, skip func(key string) bool) error {
	for key, value := range settings {
		if skip != nil && skip(key) {
			continue
		}
		value = strings.TrimSpace(value)
		switch key {
		case TableNameSetting:
			c.TableName = value
		case NumInitItemsSetting:
			n, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid %v, %q: %w", key, value, err)
			}
			c.NumInitItems = n
		case OnlineSetting:
			online, err := parseOnline(value)
			if err != nil {
				return fmt.Errorf("invalid %v, %q: %w", key, value, err)
			}
			c.Online = online
		case DeviceIDSetting:
			c.DeviceID = value
		}
	}
	return nil
}

// parseOnline reads legacy integer flags, where any non-zero value is true,
// as well as true/false.
func parseOnline(value string) (bool, error) {
	if n, err := strconv.Atoi(value); err == nil {
		return n != 0, nil
	}
	return strconv.ParseBool(value)
}

// ReadSettings parses a settings file: CSV with a setting,value header.
func ReadSettings(r io.Reader) (map[string]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("unable to read settings: %w", err)
	}
	if len(records) == 0 {
		return map[string]string{}, nil
	}

	settingCol, valueCol := -1, -1
	for i, name := range records[0] {
		switch strings.TrimSpace(name) {
		case "setting":
			settingCol = i
		case "value":
			valueCol = i
		}
	}
	if settingCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("settings header must contain setting and value columns, got %v", records[0])
	}

	settings := map[string]string{}
	for _, record := range records[1:] {
		if len(record) <= max(settingCol, valueCol) {
			continue
		}
		settings[strings.TrimSpace(record[settingCol])] = record[valueCol]
	}
	return settings, nil
}

func LoadSettingsFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open settings file %v: %w", path, err)
	}
	defer f.Close()

	settings, err := ReadSettings(f)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", path, err)
	}
	return settings, nil
}
