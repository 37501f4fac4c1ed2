package sigfoxgql

import (
	"context"
	"errors"
	"fmt"

	sigfoxprovision "github.com/sigfox-demo/sigfox-telemetry/sigfox-provision"
	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

type ReadingStore interface {
	Query(ctx context.Context, deviceID string, since int64) ([]reading.SensorReading, error)
	Get(ctx context.Context, deviceID string, timestamp int64) (*reading.SensorReading, error)
	Latest(ctx context.Context, deviceID string) (*reading.SensorReading, error)
	Count(ctx context.Context, deviceID string) (int64, error)
}

type TableStatusSource interface {
	TableStatus(ctx context.Context, name string) (sigfoxprovision.TableStatus, error)
}

// ReadingsResolver is the root resolver of the readings API.
type ReadingsResolver struct {
	config   *BaseConfig
	readings ReadingStore
	tables   TableStatusSource
}

func NewReadingsResolver(config BaseConfig, readings ReadingStore, tables TableStatusSource) *ReadingsResolver {
	return &ReadingsResolver{
		config:   &config,
		readings: readings,
		tables:   tables,
	}
}

func (r *ReadingsResolver) Schema() string {
	return MustMergeSchemas(ReadingsPart, CommonPart)
}

func (r *ReadingsResolver) Config() *BaseConfig {
	return r.config
}

func (r *ReadingsResolver) Readings(ctx context.Context, args struct {
	DeviceID string
	Since    *Long
}) ([]*Reading, error) {
	var since int64
	if args.Since != nil {
		since = int64(*args.Since)
	}
	found, err := r.readings.Query(ctx, args.DeviceID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings for %v: %w", args.DeviceID, err)
	}
	resolvers := make([]*Reading, 0, len(found))
	for _, item := range found {
		resolvers = append(resolvers, &Reading{item})
	}
	return resolvers, nil
}

func (r *ReadingsResolver) Reading(ctx context.Context, args struct {
	DeviceID  string
	Timestamp Long
}) (*Reading, error) {
	found, err := r.readings.Get(ctx, args.DeviceID, int64(args.Timestamp))
	if err != nil || found == nil {
		return nil, err
	}
	return &Reading{*found}, nil
}

func (r *ReadingsResolver) LatestReading(ctx context.Context, args struct{ DeviceID string }) (*Reading, error) {
	found, err := r.readings.Latest(ctx, args.DeviceID)
	if err != nil || found == nil {
		return nil, err
	}
	return &Reading{*found}, nil
}

func (r *ReadingsResolver) ReadingCount(ctx context.Context, args struct{ DeviceID string }) (Long, error) {
	n, err := r.readings.Count(ctx, args.DeviceID)
	return Long(n), err
}

func (r *ReadingsResolver) TableStatus(ctx context.Context, args struct{ Name string }) (*TableStatus, error) {
	status, err := r.tables.TableStatus(ctx, args.Name)
	if errors.Is(err, sigfoxprovision.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &TableStatus{Name: args.Name, Status: string(status)}, nil
}

type Reading struct {
	r reading.SensorReading
}

func (r *Reading) DeviceID() string   { return r.r.DeviceID }
func (r *Reading) Timestamp() Long    { return Long(r.r.Timestamp) }
func (r *Reading) Data() int32        { return int32(r.r.Payload.Data) }
func (r *Reading) Temperature() int32 { return int32(r.r.Payload.Temperature) }
func (r *Reading) Humidity() int32    { return int32(r.r.Payload.Humidity) }

func (r *Reading) Payload() (JSON, error) {
	return FromValue(r.r.Payload)
}

func (r *Reading) Rows() []*ChartRow {
	var rows []*ChartRow
	for _, row := range r.r.Rows() {
		rows = append(rows, &ChartRow{Channel: string(row.Channel), Value: row.Value})
	}
	return rows
}

type ChartRow struct {
	Channel string
	Value   float64
}

type TableStatus struct {
	Name   string
	Status string
}
