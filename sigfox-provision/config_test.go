package sigfoxprovision

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tj/assert"
)

func TestReadSettings(t *testing.T) {
	t.Run("legacy config.txt", func(t *testing.T) {
		settings, err := ReadSettings(strings.NewReader("setting,value\ntableName,sigfox_table\nnumInitItems,200\nonline,0\n"))
		assert.NoError(t, err)
		assert.Equal(t, map[string]string{
			"tableName":    "sigfox_table",
			"numInitItems": "200",
			"online":       "0",
		}, settings)
	})

	t.Run("columns in any order", func(t *testing.T) {
		settings, err := ReadSettings(strings.NewReader("value, setting\n25, numInitItems\n"))
		assert.NoError(t, err)
		assert.Equal(t, "25", settings["numInitItems"])
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := ReadSettings(strings.NewReader("tableName,sigfox\n"))
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		settings, err := ReadSettings(strings.NewReader(""))
		assert.NoError(t, err)
		assert.Empty(t, settings)
	})

	t.Run("from disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.txt")
		assert.NoError(t, os.WriteFile(path, []byte("setting,value\ntableName,from-file\n"), 0644))

		settings, err := LoadSettingsFile(path)
		assert.NoError(t, err)
		assert.Equal(t, "from-file", settings["tableName"])

		_, err = LoadSettingsFile(filepath.Join(t.TempDir(), "missing.txt"))
		assert.Error(t, err)
	})
}

func TestConfigApply(t *testing.T) {
	t.Run("overrides", func(t *testing.T) {
		config := DefaultConfig()
		err := config.Apply(map[string]string{
			"tableName":    "other",
			"numInitItems": " 42 ",
			"online":       "1",
			"deviceId":     "22229D7",
			"unknown":      "ignored",
		}, nil)
		assert.NoError(t, err)
		assert.Equal(t, "other", config.TableName)
		assert.Equal(t, 42, config.NumInitItems)
		assert.True(t, config.Online)
		assert.Equal(t, "22229D7", config.DeviceID)
	})

	t.Run("skip keeps explicit values", func(t *testing.T) {
		config := DefaultConfig()
		config.TableName = "explicit"
		err := config.Apply(map[string]string{"tableName": "from-file", "numInitItems": "7"}, func(key string) bool {
			return key == TableNameSetting
		})
		assert.NoError(t, err)
		assert.Equal(t, "explicit", config.TableName)
		assert.Equal(t, 7, config.NumInitItems)
	})

	t.Run("online as legacy integer or bool", func(t *testing.T) {
		for value, want := range map[string]bool{"0": false, "1": true, "2": true, "-1": true, "true": true, "false": false} {
			config := DefaultConfig()
			config.Online = !want
			assert.NoError(t, config.Apply(map[string]string{"online": value}, nil))
			assert.Equal(t, want, config.Online, value)
		}
	})

	t.Run("bad values", func(t *testing.T) {
		config := DefaultConfig()
		assert.Error(t, config.Apply(map[string]string{"numInitItems": "many"}, nil))
		assert.Error(t, config.Apply(map[string]string{"online": "maybe"}, nil))
	})
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	tests := map[string]func(c *Config){
		"empty table name":  func(c *Config) { c.TableName = " " },
		"negative items":    func(c *Config) { c.NumInitItems = -1 },
		"empty device":      func(c *Config) { c.DeviceID = "" },
		"zero capacity":     func(c *Config) { c.WriteCapacity = 0 },
		"negative attempts": func(c *Config) { c.PollMaxAttempts = -2 },
		"unbounded polling": func(c *Config) { c.PollMaxAttempts, c.PollTimeout = 0, 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			config := DefaultConfig()
			mutate(&config)
			assert.Error(t, config.Validate())
		})
	}

	config := DefaultConfig()
	config.NumInitItems = 0
	assert.NoError(t, config.Validate())
}

func TestConfigPolicy(t *testing.T) {
	config := DefaultConfig()
	config.PollInterval = 2 * time.Second
	config.PollMaxAttempts = 9
	config.PollExponential = true

	p := config.Policy()
	assert.Equal(t, 2*time.Second, p.Interval)
	assert.EqualValues(t, 9, p.MaxAttempts)
	assert.True(t, p.Exponential)
	assert.Equal(t, 5*time.Minute, p.Timeout)
}
