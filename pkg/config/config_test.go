package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int      `env:"TEST_CFG_PORT" envDefault:"8010"`
	Host     string   `env:"TEST_CFG_HOST" envDefault:"localhost"`
	Debug    bool     `env:"TEST_CFG_DEBUG" envDefault:"false"`
	Brokers  []string `env:"TEST_CFG_BROKERS" envDefault:"a:9092,b:9092" envSeparator:","`
	Required string   `env:"TEST_CFG_REQUIRED,required"`
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("TEST_CFG_REQUIRED", "x")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8010, cfg.Port)
	assert.Equal(t, "localhost", cfg.Host)
	assert.False(t, cfg.Debug)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_DEBUG", "true")
	t.Setenv("TEST_CFG_REQUIRED", "x")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Debug)
}

func TestLoad_MissingRequired(t *testing.T) {
	var cfg testConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")
	t.Setenv("TEST_CFG_REQUIRED", "x")

	var cfg testConfig
	assert.Error(t, Load(&cfg))
}
