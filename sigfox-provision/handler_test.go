package sigfoxprovision

import (
	"context"
	"errors"
	"testing"

	"github.com/tj/assert"

	sigfoxcli "github.com/sigfox-demo/sigfox-telemetry/sigfox-cli"
)

func withDry(t *testing.T, dry bool) {
	common := sigfoxcli.CommonOpts
	t.Cleanup(func() { sigfoxcli.CommonOpts = common })
	sigfoxcli.CommonOpts.Dry = dry
}

func TestHandlerRunOnce(t *testing.T) {
	ctx := context.Background()
	service := sigfoxcli.NewService("sigfox-provision-test")
	metrics := sigfoxcli.NewMetrics(service, nil)

	t.Run("dry run leaves the store alone", func(t *testing.T) {
		withDry(t, true)
		store := newMemStore()
		called := false
		h := NewHandler(service, testManager(store, 1000, nil), testConfig(3), metrics,
			func(context.Context, *Config, Result) error {
				called = true
				return nil
			})

		assert.NoError(t, h.RunOnce(ctx, nil))
		assert.Empty(t, store.calls)
		assert.False(t, called)
	})

	t.Run("provisions then runs the hook", func(t *testing.T) {
		withDry(t, false)
		store := newMemStore()
		var got Result
		h := NewHandler(service, testManager(store, 1000, nil), testConfig(3), metrics,
			func(_ context.Context, config *Config, result Result) error {
				assert.Equal(t, "sigfox-test", config.TableName)
				got = result
				return nil
			})

		assert.NoError(t, h.RunOnce(ctx, nil))
		assert.Equal(t, 3, got.ItemsWritten)
		assert.Len(t, store.items("sigfox-test"), 3)
	})

	t.Run("hook failure is reported", func(t *testing.T) {
		withDry(t, false)
		boom := errors.New("boom")
		h := NewHandler(service, testManager(newMemStore(), 1000, nil), testConfig(1), metrics,
			func(context.Context, *Config, Result) error { return boom })

		assert.True(t, errors.Is(h.RunOnce(ctx, nil), boom))
	})

	t.Run("invalid config never reaches the store", func(t *testing.T) {
		withDry(t, false)
		store := newMemStore()
		config := testConfig(1)
		config.TableName = ""
		h := NewHandler(service, testManager(store, 1000, nil), config, metrics, nil)

		assert.Error(t, h.RunOnce(ctx, nil))
		assert.Empty(t, store.calls)
	})
}
