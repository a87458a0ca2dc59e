package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jgoulah/powerdash/internal/tariff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5000/api/data", cfg.GetSourceURL())
	assert.Equal(t, 10*time.Second, cfg.GetTimeout())
	assert.Equal(t, 0, cfg.GetRetries())
	assert.Equal(t, "₹", cfg.GetCurrency())
	assert.Equal(t, "info", cfg.GetLogLevel())
	assert.Equal(t, "powerdash", cfg.GetTopicPrefix())

	loc, err := cfg.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, time.Local, loc)

	sched, err := cfg.GetSchedule()
	require.NoError(t, err)
	assert.Equal(t, tariff.DefaultSchedule(), sched)
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
source:
  url: http://meter.local/api/data
  timeout_seconds: 3
  retries: 2
  timezone: UTC
tariff:
  overflow: extrapolate
  bands:
    - {up_to: 100, rate: 2.5}
    - {up_to: 200, rate: 4}
currency: "$"
mqtt:
  enabled: true
  broker: broker.local:1883
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://meter.local/api/data", cfg.GetSourceURL())
	assert.Equal(t, 3*time.Second, cfg.GetTimeout())
	assert.Equal(t, 2, cfg.GetRetries())
	assert.Equal(t, "$", cfg.GetCurrency())
	assert.True(t, cfg.MQTT.Enabled)
	assert.Equal(t, "broker.local:1883", cfg.MQTT.Broker)

	loc, err := cfg.GetLocation()
	require.NoError(t, err)
	assert.Equal(t, "UTC", loc.String())

	sched, err := cfg.GetSchedule()
	require.NoError(t, err)
	assert.Equal(t, tariff.OverflowExtrapolate, sched.Overflow)
	assert.Equal(t, []tariff.Band{{UpTo: 100, Rate: 2.5}, {UpTo: 200, Rate: 4}}, sched.Bands)
}

func TestGetScheduleRejectsInvalidBands(t *testing.T) {
	cfg := &Config{Tariff: TariffConfig{Bands: []tariff.Band{{UpTo: 50, Rate: 1}, {UpTo: 20, Rate: 2}}}}
	_, err := cfg.GetSchedule()
	assert.Error(t, err)
}

func TestGetLocationRejectsUnknownZone(t *testing.T) {
	cfg := &Config{Source: SourceConfig{Timezone: "Mars/Olympus"}}
	_, err := cfg.GetLocation()
	assert.Error(t, err)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := &Config{Source: SourceConfig{URL: "http://example.test/data"}, Currency: "€"}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Source.URL, loaded.Source.URL)
	assert.Equal(t, "€", loaded.GetCurrency())
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("source: [unterminated"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}
