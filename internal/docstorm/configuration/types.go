package configuration

import (
	"fmt"
	"time"
)

// DocumentType identifies one kind of synthesized document stream.
type DocumentType string

const (
	DocumentTypeLogs    DocumentType = "logs"
	DocumentTypeMetrics DocumentType = "metrics"
	DocumentTypeCustom  DocumentType = "custom"
)

// InjectionTarget is one independently scheduled document stream: a
// document type paired with the collection it is written to.
type InjectionTarget struct {
	Type       DocumentType
	Collection string
	Enabled    bool
}

// ElasticsearchConfig holds connection parameters for the target cluster.
type ElasticsearchConfig struct {
	Host        string
	Port        int
	Scheme      string
	Username    string
	Password    string
	APIKey      string
	CACert      string
	VerifyCerts bool
	Timeout     time.Duration
}

// URL returns the full address of the cluster.
func (c ElasticsearchConfig) URL() string {
	return fmt.Sprintf("%s://%s:%d", c.Scheme, c.Host, c.Port)
}

// InjectionConfig controls the pacing and sizing of the injection run.
//
// TotalDocuments is the overall workload across all enabled streams;
// zero means unbounded. When Continuous is set, TotalDocuments is ignored
// and the run ends only on external cancellation.
type InjectionConfig struct {
	BatchSize      int
	Interval       time.Duration
	TotalDocuments int
	Continuous     bool
	IndexPrefix    string
	MaxAttempts    int
	RetryDelay     time.Duration
}

// LogsConfig configures the log document stream.
type LogsConfig struct {
	Enabled               bool
	Collection            string
	Services              []string
	StackTraceProbability float64
}

// MetricsConfig configures the metrics document stream.
type MetricsConfig struct {
	Enabled    bool
	Collection string
	Hosts      []string
}

// CustomConfig configures the templated JSON document stream. Template is
// an inline JSON template; TemplateFile points at a file containing one.
// Template takes precedence when both are set.
type CustomConfig struct {
	Enabled      bool
	Collection   string
	Template     string
	TemplateFile string
}

// Config is the root docstorm configuration.
type Config struct {
	Elasticsearch ElasticsearchConfig
	Injection     InjectionConfig
	Logs          LogsConfig
	Metrics       MetricsConfig
	Custom        CustomConfig
	MetricsPort   uint16
}

// Targets returns the document streams in their fixed scheduling order.
func (c Config) Targets() []InjectionTarget {
	return []InjectionTarget{
		{Type: DocumentTypeLogs, Collection: c.Logs.Collection, Enabled: c.Logs.Enabled},
		{Type: DocumentTypeMetrics, Collection: c.Metrics.Collection, Enabled: c.Metrics.Enabled},
		{Type: DocumentTypeCustom, Collection: c.Custom.Collection, Enabled: c.Custom.Enabled},
	}
}

// EnabledTargets returns only the streams that are switched on.
func (c Config) EnabledTargets() []InjectionTarget {
	var enabled []InjectionTarget
	for _, target := range c.Targets() {
		if target.Enabled {
			enabled = append(enabled, target)
		}
	}
	return enabled
}

// Default returns the configuration used when no value is supplied from
// flags, environment or file.
func Default() Config {
	return Config{
		Elasticsearch: ElasticsearchConfig{
			Host:        "localhost",
			Port:        9200,
			Scheme:      "http",
			VerifyCerts: true,
			Timeout:     30 * time.Second,
		},
		Injection: InjectionConfig{
			BatchSize:   1000,
			Interval:    time.Second,
			IndexPrefix: "docstorm",
			MaxAttempts: 5,
			RetryDelay:  5 * time.Second,
		},
		Logs: LogsConfig{
			Enabled:               true,
			Collection:            "logs",
			Services:              []string{"api-gateway", "auth-service", "user-service", "payment-service"},
			StackTraceProbability: 0.1,
		},
		Metrics: MetricsConfig{
			Enabled:    true,
			Collection: "metrics",
			Hosts:      []string{"server-01", "server-02", "server-03", "server-04"},
		},
		Custom: CustomConfig{
			Enabled:    false,
			Collection: "documents",
		},
	}
}
