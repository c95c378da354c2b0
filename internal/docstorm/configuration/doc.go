/*
Package configuration defines the input configuration for docstorm.

The main configuration type is Config, which defines:

  - Elasticsearch connection parameters (host, port, scheme, credentials)
  - Injection parameters (batch size, pacing interval, total document
    count or continuous mode, retry policy, index prefix)
  - One section per document stream (logs, metrics, custom), each with an
    enabled flag and a collection name

# Example YAML Configuration

	elasticsearch:
	  host: localhost
	  port: 9200
	  scheme: http
	  timeout: 30s
	injection:
	  batchSize: 1000
	  interval: 1s
	  totalDocuments: 100000
	  continuous: false
	  indexPrefix: docstorm
	  maxAttempts: 5
	  retryDelay: 5s
	logs:
	  enabled: true
	  collection: logs
	metrics:
	  enabled: true
	  collection: metrics
	custom:
	  enabled: false
	  collection: documents
	  templateFile: template.json

# Validation

Each configuration struct has a Validate() method. Config.Validate()
validates the entire tree: batch size and retry attempts must be positive,
interval and retry delay non-negative, exactly http or https as scheme,
every enabled stream must name a collection, and at least one stream must
be enabled. Validation failures abort a run before any batch is scheduled.

Values are resolved externally (flags over environment variables over the
YAML file over defaults) and decoded into one Config before the engine is
constructed. The engine treats the Config as immutable and never reads
ambient process state mid-run.
*/
package configuration
