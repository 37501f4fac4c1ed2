// Package sigfoxprovision resets the readings table and seeds it with
// synthetic sensor readings, either from the console or as a Lambda function.
package sigfoxprovision

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"
	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
)

// AfterPopulateCallback runs once the table has been populated, e.g. to
// export the fresh readings for the dashboard.
type AfterPopulateCallback func(ctx context.Context, config *Config, result Result) error

type Handler struct {
	service sigfoxcli.Service
	logger  zerolog.Logger
	metrics sigfoxcli.Metrics

	manager *Manager
	config  *Config

	afterPopulate AfterPopulateCallback
}

func NewHandler(
	service sigfoxcli.Service,
	manager *Manager,
	config *Config,
	metrics sigfoxcli.Metrics,
	afterPopulate AfterPopulateCallback,
) *Handler {
	return &Handler{
		service:       service,
		logger:        sigfoxcli.Logger(service),
		metrics:       metrics,
		manager:       manager,
		config:        config,
		afterPopulate: afterPopulate,
	}
}

func (h *Handler) RunOnce(ctx context.Context, _ json.RawMessage) error {
	ctx = h.logger.WithContext(ctx)

	if sigfoxcli.CommonOpts.Dry {
		readings, err := h.manager.Plan(h.config)
		if err != nil {
			return err
		}
		event := h.logger.Info().
			Str("table", h.config.TableName).
			Bool("online", h.config.Online).
			Int("items", len(readings))
		if len(readings) > 0 {
			event = event.
				Int64("first", readings[0].Timestamp).
				Int64("last", readings[len(readings)-1].Timestamp)
		}
		event.Msg("dry run, table left untouched")
		return nil
	}

	h.logger.Info().Str("table", h.config.TableName).Bool("online", h.config.Online).Msg("provisioning table")
	result, err := h.manager.ResetAndPopulate(ctx, h.config)
	if err != nil {
		h.logger.Warn().Err(err).Str("runId", result.RunID).Msg("failed to provision table")
		return err
	}

	dimensions := map[sigfoxcli.DimensionName]string{sigfoxcli.TableNameDimension: result.TableName}
	h.metrics.Timing(ctx, sigfoxcli.ProvisionTimeMetric, result.Started, dimensions)
	h.metrics.Gauge(ctx, sigfoxcli.ItemsWrittenMetric, float64(result.ItemsWritten), dimensions)
	h.metrics.Gauge(ctx, sigfoxcli.PollAttemptsMetric, float64(result.CreateAttempts), dimensions,
		map[sigfoxcli.DimensionName]string{sigfoxcli.PhaseDimension: createPhase})
	h.metrics.Gauge(ctx, sigfoxcli.PollAttemptsMetric, float64(result.PopulateAttempts), dimensions,
		map[sigfoxcli.DimensionName]string{sigfoxcli.PhaseDimension: populatePhase})

	if h.afterPopulate != nil {
		if err := h.afterPopulate(ctx, h.config, result); err != nil {
			h.logger.Warn().Err(err).Str("runId", result.RunID).Msg("post-provisioning step failed")
			return err
		}
	}
	return nil
}

func (h *Handler) Start() error {
	switch {
	case sigfoxcli.CommonOpts.Console:
		return h.RunOnce(context.Background(), nil)

	default:
		lambda.Start(h.RunOnce)
	}
	return nil
}
