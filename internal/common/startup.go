package common

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/docstorm/docstorm/internal/common/logging"
	"github.com/docstorm/docstorm/internal/docstorm/configuration"
)

// LoadConfig resolves the effective configuration from the given viper
// instance. Precedence, highest first: command line flags bound to v,
// DOCSTORM_* environment variables, the YAML file at configPath (if any),
// built-in defaults.
func LoadConfig(v *viper.Viper, configPath string) (configuration.Config, error) {
	config := configuration.Default()
	setDefaults(v, config)

	v.SetEnvPrefix("DOCSTORM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return config, errors.Wrapf(err, "reading config file %s", configPath)
		}
	}

	if err := v.Unmarshal(&config); err != nil {
		return config, errors.Wrap(err, "unmarshalling config")
	}
	return config, nil
}

// setDefaults registers every config key with viper. Unmarshal only visits
// keys viper knows about, so a key left unregistered here would silently
// ignore its environment variable.
func setDefaults(v *viper.Viper, config configuration.Config) {
	v.SetDefault("elasticsearch.host", config.Elasticsearch.Host)
	v.SetDefault("elasticsearch.port", config.Elasticsearch.Port)
	v.SetDefault("elasticsearch.scheme", config.Elasticsearch.Scheme)
	v.SetDefault("elasticsearch.username", config.Elasticsearch.Username)
	v.SetDefault("elasticsearch.password", config.Elasticsearch.Password)
	v.SetDefault("elasticsearch.apikey", config.Elasticsearch.APIKey)
	v.SetDefault("elasticsearch.cacert", config.Elasticsearch.CACert)
	v.SetDefault("elasticsearch.verifycerts", config.Elasticsearch.VerifyCerts)
	v.SetDefault("elasticsearch.timeout", config.Elasticsearch.Timeout)
	v.SetDefault("injection.batchsize", config.Injection.BatchSize)
	v.SetDefault("injection.interval", config.Injection.Interval)
	v.SetDefault("injection.totaldocuments", config.Injection.TotalDocuments)
	v.SetDefault("injection.continuous", config.Injection.Continuous)
	v.SetDefault("injection.indexprefix", config.Injection.IndexPrefix)
	v.SetDefault("injection.maxattempts", config.Injection.MaxAttempts)
	v.SetDefault("injection.retrydelay", config.Injection.RetryDelay)
	v.SetDefault("logs.enabled", config.Logs.Enabled)
	v.SetDefault("logs.collection", config.Logs.Collection)
	v.SetDefault("logs.services", config.Logs.Services)
	v.SetDefault("logs.stacktraceprobability", config.Logs.StackTraceProbability)
	v.SetDefault("metrics.enabled", config.Metrics.Enabled)
	v.SetDefault("metrics.collection", config.Metrics.Collection)
	v.SetDefault("metrics.hosts", config.Metrics.Hosts)
	v.SetDefault("custom.enabled", config.Custom.Enabled)
	v.SetDefault("custom.collection", config.Custom.Collection)
	v.SetDefault("custom.template", config.Custom.Template)
	v.SetDefault("custom.templatefile", config.Custom.TemplateFile)
	v.SetDefault("metricsport", config.MetricsPort)
}

func ConfigureLogging() {
	log.SetFormatter(&log.TextFormatter{ForceColors: true, FullTimestamp: true})
	log.SetOutput(os.Stdout)
}

func ConfigureCommandLineLogging() {
	log.SetFormatter(&logging.CommandLineFormatter{})
	log.SetOutput(os.Stdout)
}
