package sigfoxprovision

import (
	"context"
	"errors"

	"github.com/sigfox-demo/sigfox-telemetry/sigfox/reading"
)

// TableStatus is the lifecycle state reported by the store.
type TableStatus string

const (
	StatusCreating TableStatus = "CREATING"
	StatusActive   TableStatus = "ACTIVE"
	StatusDeleting TableStatus = "DELETING"
	StatusUnknown  TableStatus = "UNKNOWN"
)

var (
	// ErrAlreadyExists means a table with the requested name still exists,
	// usually because an earlier delete has not finished.
	ErrAlreadyExists = errors.New("table already exists")

	// ErrNotFound means the table does not exist.
	ErrNotFound = errors.New("table not found")

	// ErrNotReady means the table exists but cannot take writes yet.
	ErrNotReady = errors.New("table not ready")

	// ErrConditionalCheckFailed means an item with the same key is present.
	ErrConditionalCheckFailed = errors.New("conditional check failed")

	// ErrServiceUnavailable covers throttling and transient service faults.
	ErrServiceUnavailable = errors.New("service unavailable")
)

// Store is the subset of a key-value time-series store that provisioning
// needs.
type Store interface {
	CreateTable(ctx context.Context, descriptor TableDescriptor) error
	DeleteTable(ctx context.Context, name string) error
	PutItem(ctx context.Context, tableName string, r reading.SensorReading) error
	TableStatus(ctx context.Context, name string) (TableStatus, error)
}

// Retryable reports whether err is a state transition that is still pending
// or a transient service fault.
func Retryable(err error) bool {
	return errors.Is(err, ErrAlreadyExists) ||
		errors.Is(err, ErrNotReady) ||
		errors.Is(err, ErrServiceUnavailable)
}
