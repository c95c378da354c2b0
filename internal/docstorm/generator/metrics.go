package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/model"
)

type metricDefinition struct {
	family  string
	name    string
	min     float64
	max     float64
	unit    string
	decimal bool
}

var metricDefinitions = []metricDefinition{
	{family: "cpu", name: "cpu.usage.percent", min: 0, max: 100, unit: "percent"},
	{family: "cpu", name: "cpu.load.1m", min: 0, max: 16, unit: "load", decimal: true},
	{family: "cpu", name: "cpu.load.5m", min: 0, max: 16, unit: "load", decimal: true},
	{family: "memory", name: "memory.usage.percent", min: 20, max: 95, unit: "percent"},
	{family: "memory", name: "memory.used.bytes", min: 1e9, max: 32e9, unit: "bytes"},
	{family: "memory", name: "memory.free.bytes", min: 1e8, max: 16e9, unit: "bytes"},
	{family: "disk", name: "disk.usage.percent", min: 10, max: 90, unit: "percent"},
	{family: "disk", name: "disk.read.bytes_per_sec", min: 0, max: 500e6, unit: "bytes/s"},
	{family: "disk", name: "disk.write.bytes_per_sec", min: 0, max: 200e6, unit: "bytes/s"},
	{family: "network", name: "network.in.bytes_per_sec", min: 0, max: 1e9, unit: "bytes/s"},
	{family: "network", name: "network.out.bytes_per_sec", min: 0, max: 1e9, unit: "bytes/s"},
	{family: "network", name: "network.connections.active", min: 0, max: 10000, unit: "count"},
	{family: "request_latency", name: "request.latency.p50", min: 1, max: 500, unit: "ms", decimal: true},
	{family: "request_latency", name: "request.latency.p99", min: 10, max: 5000, unit: "ms", decimal: true},
}

var regions = []string{"eu-west-1", "eu-west-2", "us-east-1", "us-west-2"}

// MetricsProducer generates host metric documents drawn from a fixed set
// of metric families with realistic value ranges.
type MetricsProducer struct {
	config configuration.MetricsConfig
	rnd    *rand.Rand
}

func NewMetricsProducer(config configuration.MetricsConfig, rnd *rand.Rand) *MetricsProducer {
	if len(config.Hosts) == 0 {
		config.Hosts = configuration.Default().Metrics.Hosts
	}
	return &MetricsProducer{config: config, rnd: rnd}
}

func (p *MetricsProducer) GenerateOne() model.Document {
	def := metricDefinitions[p.rnd.Intn(len(metricDefinitions))]

	value := def.min + p.rnd.Float64()*(def.max-def.min)
	if !def.decimal {
		value = math.Round(value)
	} else {
		value = math.Round(value*100) / 100
	}

	return model.Document{
		"@timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"metric": map[string]any{
			"family": def.family,
			"name":   def.name,
			"value":  value,
			"unit":   def.unit,
		},
		"host": map[string]any{
			"name": choice(p.rnd, p.config.Hosts),
			"ip":   randomIP(p.rnd),
		},
		"tags": map[string]any{
			"region":      choice(p.rnd, regions),
			"environment": choice(p.rnd, environments),
		},
	}
}

func (p *MetricsProducer) GenerateBatch(n int) []model.Document {
	return generateBatch(p, n)
}
