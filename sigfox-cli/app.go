// Package sigfoxcli provides common CLI utilities and boilerplate for building
// the sigfox telemetry command-line applications and Lambda functions.
//
// This package includes standardized service configuration, common CLI flags,
// structured logging setup, AWS session construction for the managed service
// or the local emulator, and build information tracking.
package sigfoxcli

import (
	"fmt"
	"runtime/debug"

	"github.com/urfave/cli/v2"
)

func App(service Service, action cli.ActionFunc, flags ...cli.Flag) *cli.App {
	return &cli.App{
		Name:                 service.Name,
		Usage:                fmt.Sprintf("%v sigfox telemetry service", service.Name),
		Version:              service.Version,
		EnableBashCompletion: true,
		Before:               InitCommonOpts,
		Action:               action,
		Flags:                flags,
	}
}

// InitCommonOpts initializes default values for CommonOpts after flag parsing.
// When running against the managed service the local emulator endpoint is
// cleared unless it was explicitly requested.
func InitCommonOpts(c *cli.Context) error {
	if CommonOpts.Online && !c.IsSet(EndpointFlag.Name) {
		return c.Set(EndpointFlag.Name, "")
	}
	return nil
}

func CommitHash() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.revision" {
				return setting.Value
			}
		}
		return info.Main.Version
	}
	return "unknown"
}
