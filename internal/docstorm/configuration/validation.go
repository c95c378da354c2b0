package configuration

import "fmt"

// Validate checks the entire configuration tree. It returns the first
// problem found; a non-nil error means the run must not start.
func (c Config) Validate() error {
	if err := c.Elasticsearch.Validate(); err != nil {
		return err
	}
	if err := c.Injection.Validate(); err != nil {
		return err
	}
	for _, target := range c.Targets() {
		if target.Enabled && target.Collection == "" {
			return fmt.Errorf("%s stream is enabled but has no collection name", target.Type)
		}
	}
	if len(c.EnabledTargets()) == 0 {
		return fmt.Errorf("no document streams enabled")
	}
	return nil
}

// Validate checks the Elasticsearch connection parameters.
func (c ElasticsearchConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("elasticsearch.host must not be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("elasticsearch.port must be in range 1-65535, got %d", c.Port)
	}
	if c.Scheme != "http" && c.Scheme != "https" {
		return fmt.Errorf("elasticsearch.scheme must be http or https, got %q", c.Scheme)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("elasticsearch.timeout must be non-negative")
	}
	return nil
}

// Validate checks the injection parameters.
func (c InjectionConfig) Validate() error {
	if c.BatchSize < 1 {
		return fmt.Errorf("injection.batchSize must be positive, got %d", c.BatchSize)
	}
	if c.Interval < 0 {
		return fmt.Errorf("injection.interval must be non-negative")
	}
	if c.TotalDocuments < 0 {
		return fmt.Errorf("injection.totalDocuments must be non-negative, got %d", c.TotalDocuments)
	}
	if c.IndexPrefix == "" {
		return fmt.Errorf("injection.indexPrefix must not be empty")
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("injection.maxAttempts must be positive, got %d", c.MaxAttempts)
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("injection.retryDelay must be non-negative")
	}
	return nil
}
