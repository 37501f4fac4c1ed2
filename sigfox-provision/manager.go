package sigfoxprovision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox-provision/poll"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

const (
	deletePhase   = "delete-table"
	createPhase   = "create-table"
	populatePhase = "populate-table"

	statusInitializing TableStatus = "INITIALIZING"
)

// Result describes a completed provisioning run.
type Result struct {
	RunID            string
	TableName        string
	Now              int64
	ItemsWritten     int
	ItemsSkipped     int
	CreateAttempts   uint64
	PopulateAttempts uint64
	Started          time.Time
	Elapsed          time.Duration
}

// Manager resets the readings table and seeds it with synthetic readings.
type Manager struct {
	store         Store
	logger        zerolog.Logger
	generatorOpts []reading.Option
	sleep         func(ctx context.Context, d time.Duration) error
	newRunID      func() string
}

type ManagerOption func(*Manager)

// WithGeneratorOptions is applied to the generator of every run.
func WithGeneratorOptions(opts ...reading.Option) ManagerOption {
	return func(m *Manager) {
		m.generatorOpts = append(m.generatorOpts, opts...)
	}
}

// WithSleep replaces the wait between polling attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) ManagerOption {
	return func(m *Manager) {
		m.sleep = sleep
	}
}

func WithRunID(newRunID func() string) ManagerOption {
	return func(m *Manager) {
		m.newRunID = newRunID
	}
}

func NewManager(store Store, logger zerolog.Logger, opts ...ManagerOption) *Manager {
	m := &Manager{
		store:    store,
		logger:   logger,
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) generator(config *Config) *reading.Generator {
	opts := append([]reading.Option{reading.WithClampHumidity(config.ClampHumidity)}, m.generatorOpts...)
	return reading.NewGenerator(opts...)
}

func (m *Manager) policy(config *Config) poll.Policy {
	p := config.Policy()
	p.Sleep = m.sleep
	return p
}

// Plan generates the readings a run would insert without touching the store.
func (m *Manager) Plan(config *Config) ([]reading.SensorReading, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return m.generator(config).Generate(config.DeviceID, config.NumInitItems), nil
}

// ResetAndPopulate deletes any table named config.TableName, waits until a
// replacement can be created, then inserts config.NumInitItems synthetic
// readings. The readings and their timestamps are generated once per run, so
// retried inserts are idempotent. The previous table is not restored on
// failure.
func (m *Manager) ResetAndPopulate(ctx context.Context, config *Config) (result Result, err error) {
	if err := config.Validate(); err != nil {
		return Result{}, err
	}

	result = Result{
		RunID:     m.newRunID(),
		TableName: config.TableName,
		Started:   time.Now(),
	}
	logger := m.logger.With().
		Str("runId", result.RunID).
		Str("table", config.TableName).
		Logger()
	ctx = logger.WithContext(ctx)

	defer func() {
		result.Elapsed = time.Since(result.Started)
		event := logger.Info()
		if err != nil {
			event = logger.Warn().Err(err)
		}
		event.Dur("elapsed", result.Elapsed).
			Int("written", result.ItemsWritten).
			Int("skipped", result.ItemsSkipped).
			Msg("provisioning finished")
	}()

	if err := m.deleteTable(ctx, config); err != nil {
		return result, err
	}

	if result.CreateAttempts, err = m.createTable(ctx, config); err != nil {
		return result, err
	}

	generator := m.generator(config)
	result.Now = generator.Now()
	readings := generator.GenerateAt(config.DeviceID, config.NumInitItems, result.Now)

	written, skipped, attempts, err := m.populate(ctx, config, readings)
	result.ItemsWritten, result.ItemsSkipped, result.PopulateAttempts = written, skipped, attempts
	if err != nil {
		return result, err
	}

	logger.Info().Int("items", len(readings)).Msg("new table created and populated")
	return result, nil
}

func (m *Manager) deleteTable(ctx context.Context, config *Config) error {
	logger := zerolog.Ctx(ctx)
	policy := m.policy(config)
	policy.OnRetry = func(ctx context.Context, attempt uint64, err error) {
		logger.Info().Err(err).Uint64("attempt", attempt).Msg("previous table busy, retrying delete")
	}

	return policy.Start(ctx, deletePhase, func(ctx context.Context) (bool, error) {
		err := m.store.DeleteTable(ctx, config.TableName)
		switch {
		case err == nil:
			logger.Info().Msg("deleting previous table")
			return false, nil
		case errors.Is(err, ErrNotFound):
			logger.Info().Msg("no previous table exists")
			return false, nil
		case Retryable(err):
			return true, err
		default:
			return false, err
		}
	})
}

func (m *Manager) createTable(ctx context.Context, config *Config) (uint64, error) {
	logger := zerolog.Ctx(ctx)
	var attempts uint64

	policy := m.policy(config)
	policy.OnRetry = func(ctx context.Context, attempt uint64, err error) {
		logger.Info().
			Str("status", string(m.status(ctx, config.TableName, StatusDeleting))).
			Uint64("attempt", attempt).
			Msg("previous table status")
	}

	err := policy.Start(ctx, createPhase, func(ctx context.Context) (bool, error) {
		attempts++
		err := m.store.CreateTable(ctx, config.TableDescriptor())
		switch {
		case err == nil:
			logger.Info().Msg("creating a new table")
			return false, nil
		case Retryable(err):
			return true, err
		default:
			return false, err
		}
	})
	return attempts, err
}

func (m *Manager) populate(ctx context.Context, config *Config, readings []reading.SensorReading) (written, skipped int, attempts uint64, err error) {
	logger := zerolog.Ctx(ctx)

	policy := m.policy(config)
	policy.OnRetry = func(ctx context.Context, attempt uint64, err error) {
		logger.Info().
			Str("status", string(m.status(ctx, config.TableName, statusInitializing))).
			Uint64("attempt", attempt).
			Msg("new table status")
	}

	// ours holds keys this run has written. A conditional failure on a key
	// already tried by an earlier attempt means that put landed even though
	// its response was lost.
	ours := make(map[reading.Key]bool, len(readings))
	existing := map[reading.Key]bool{}
	tried := make(map[reading.Key]bool, len(readings))

	err = policy.Start(ctx, populatePhase, func(ctx context.Context) (bool, error) {
		attempts++
		for _, r := range readings {
			key := r.Key()
			if ours[key] || existing[key] {
				continue
			}
			retried := tried[key]
			tried[key] = true

			err := m.store.PutItem(ctx, config.TableName, r)
			switch {
			case err == nil:
				ours[key] = true
			case errors.Is(err, ErrConditionalCheckFailed) && retried:
				ours[key] = true
			case errors.Is(err, ErrConditionalCheckFailed):
				existing[key] = true
			case Retryable(err):
				return true, err
			default:
				return false, fmt.Errorf("populate failed: %w", err)
			}
		}
		return false, nil
	})
	return len(ours), len(existing), attempts, err
}

// status reports the table status, or fallback when it cannot be determined.
func (m *Manager) status(ctx context.Context, name string, fallback TableStatus) TableStatus {
	status, err := m.store.TableStatus(ctx, name)
	if err != nil || status == StatusUnknown {
		return fallback
	}
	return status
}
