package generator

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/model"
)

var (
	logLevels       = []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"}
	logLevelWeights = []int{10, 50, 25, 10, 5}

	logMessages = map[string][]string{
		"DEBUG": {
			"Cache lookup for key cache:%s",
			"Database query executed in %dms",
			"Thread %d started processing",
			"Memory usage: %dMB",
		},
		"INFO": {
			"User %s logged in successfully",
			"Request completed: GET /api/v1/%s - 200",
			"Processing batch of %d items",
			"Connection established to %s:9200",
			"Scheduled job %q completed",
		},
		"WARNING": {
			"High memory usage detected: %d%%",
			"Slow query detected: %dms",
			"Retry attempt %d for database_write",
			"Connection pool running low: %d/100",
		},
		"ERROR": {
			"Failed to connect to database: %s",
			"Request timeout after %dms",
			"Service %s is unreachable",
			"Failed to process message: %s",
		},
		"CRITICAL": {
			"Database connection lost - initiating failover",
			"Out of memory - system unstable",
			"Cluster node node-%d has failed",
			"Service crashed - automatic restart initiated",
		},
	}

	exceptionTypes = []string{
		"ConnectionError", "TimeoutError", "ValueError", "RuntimeError",
		"IOError", "DatabaseError", "AuthenticationError", "ValidationError",
	}

	environments = []string{"production", "staging", "development"}

	loggerWords = []string{"auth", "billing", "catalog", "orders", "search", "session", "storage"}
)

// LogsProducer generates application log documents with weighted severity
// levels and probabilistic stack traces on errors.
type LogsProducer struct {
	config configuration.LogsConfig
	rnd    *rand.Rand
}

func NewLogsProducer(config configuration.LogsConfig, rnd *rand.Rand) *LogsProducer {
	if len(config.Services) == 0 {
		config.Services = configuration.Default().Logs.Services
	}
	return &LogsProducer{config: config, rnd: rnd}
}

func (p *LogsProducer) GenerateOne() model.Document {
	level := weightedChoice(p.rnd, logLevels, logLevelWeights)
	message := p.message(level)

	document := model.Document{
		"@timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":      level,
		"logger":     fmt.Sprintf("com.app.%s.%s", choice(p.rnd, loggerWords), capitalize(choice(p.rnd, loggerWords))),
		"message":    message,
		"service": map[string]any{
			"name":        choice(p.rnd, p.config.Services),
			"version":     fmt.Sprintf("%d.%d.%d", 1+p.rnd.Intn(5), p.rnd.Intn(21), p.rnd.Intn(101)),
			"environment": choice(p.rnd, environments),
		},
		"host": map[string]any{
			"name": fmt.Sprintf("host-%02d", 1+p.rnd.Intn(40)),
			"ip":   randomIP(p.rnd),
		},
		"process": map[string]any{
			"pid": 1000 + p.rnd.Intn(64536),
			"thread": map[string]any{
				"id":   1 + p.rnd.Intn(100),
				"name": fmt.Sprintf("worker-%d", 1+p.rnd.Intn(20)),
			},
		},
		"trace": map[string]any{
			"id":      strings.ReplaceAll(uuid.NewString(), "-", ""),
			"span_id": fmt.Sprintf("%016x", p.rnd.Uint64()),
		},
	}

	if (level == "ERROR" || level == "CRITICAL") && p.rnd.Float64() < p.config.StackTraceProbability {
		document["error"] = map[string]any{
			"type":        choice(p.rnd, exceptionTypes),
			"message":     message,
			"stack_trace": p.stackTrace(),
		}
	}

	return document
}

func (p *LogsProducer) GenerateBatch(n int) []model.Document {
	return generateBatch(p, n)
}

func (p *LogsProducer) message(level string) string {
	templates := logMessages[level]
	template := choice(p.rnd, templates)
	switch strings.Count(template, "%") {
	case 0:
		return template
	default:
		if strings.Contains(template, "%d") {
			return fmt.Sprintf(template, 1+p.rnd.Intn(5000))
		}
		if strings.Contains(template, "%q") {
			return fmt.Sprintf(template, choice(p.rnd, loggerWords)+"_job")
		}
		return fmt.Sprintf(template, shortID(p.rnd))
	}
}

func (p *LogsProducer) stackTrace() string {
	var b strings.Builder
	b.WriteString("Traceback (most recent call last):\n")
	frames := 3 + p.rnd.Intn(6)
	for i := 0; i < frames; i++ {
		fmt.Fprintf(&b, "  File \"/app/%s/%s.py\", line %d, in %s_handler\n",
			choice(p.rnd, loggerWords), choice(p.rnd, loggerWords), 10+p.rnd.Intn(491), choice(p.rnd, loggerWords))
	}
	fmt.Fprintf(&b, "%s: request could not be completed", choice(p.rnd, exceptionTypes))
	return b.String()
}

func choice(rnd *rand.Rand, values []string) string {
	return values[rnd.Intn(len(values))]
}

func weightedChoice(rnd *rand.Rand, values []string, weights []int) string {
	total := 0
	for _, w := range weights {
		total += w
	}
	pick := rnd.Intn(total)
	for i, w := range weights {
		if pick < w {
			return values[i]
		}
		pick -= w
	}
	return values[len(values)-1]
}

func randomIP(rnd *rand.Rand) string {
	return fmt.Sprintf("10.%d.%d.%d", rnd.Intn(256), rnd.Intn(256), 1+rnd.Intn(254))
}

func shortID(rnd *rand.Rand) string {
	return fmt.Sprintf("%08x", rnd.Uint32())
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
