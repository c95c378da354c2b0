package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
)

func TestLoadConfig_Defaults(t *testing.T) {
	config, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, configuration.Default(), config)
}

func TestLoadConfig_EnvOverridesDefaults(t *testing.T) {
	// Keys without a bound flag must still honour their environment
	// variable.
	t.Setenv("DOCSTORM_LOGS_COLLECTION", "env-logs")
	t.Setenv("DOCSTORM_ELASTICSEARCH_CACERT", "/etc/ssl/ca.pem")
	t.Setenv("DOCSTORM_ELASTICSEARCH_VERIFYCERTS", "false")
	t.Setenv("DOCSTORM_ELASTICSEARCH_TIMEOUT", "45s")
	t.Setenv("DOCSTORM_INJECTION_BATCHSIZE", "77")

	config, err := LoadConfig(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "env-logs", config.Logs.Collection)
	assert.Equal(t, "/etc/ssl/ca.pem", config.Elasticsearch.CACert)
	assert.False(t, config.Elasticsearch.VerifyCerts)
	assert.Equal(t, 45*time.Second, config.Elasticsearch.Timeout)
	assert.Equal(t, 77, config.Injection.BatchSize)
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
elasticsearch:
  host: es.internal
injection:
  batchSize: 250
logs:
  collection: file-logs
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "es.internal", config.Elasticsearch.Host)
	assert.Equal(t, 250, config.Injection.BatchSize)
	assert.Equal(t, "file-logs", config.Logs.Collection)
	// Untouched keys keep their defaults.
	assert.Equal(t, 9200, config.Elasticsearch.Port)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logs:\n  collection: file-logs\n"), 0o644))
	t.Setenv("DOCSTORM_LOGS_COLLECTION", "env-logs")

	config, err := LoadConfig(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "env-logs", config.Logs.Collection)
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	t.Setenv("DOCSTORM_INJECTION_BATCHSIZE", "77")

	v := viper.New()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Int("batch-size", 1000, "")
	require.NoError(t, flags.Set("batch-size", "33"))
	require.NoError(t, v.BindPFlag("injection.batchsize", flags.Lookup("batch-size")))

	config, err := LoadConfig(v, "")
	require.NoError(t, err)
	assert.Equal(t, 33, config.Injection.BatchSize)
}

func TestLoadConfig_MissingFileFails(t *testing.T) {
	_, err := LoadConfig(viper.New(), "/does/not/exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file")
}
