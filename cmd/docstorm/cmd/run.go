package cmd

import (
	"context"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/docstorm/docstorm/internal/common"
	"github.com/docstorm/docstorm/internal/docstorm/generator"
	"github.com/docstorm/docstorm/internal/docstorm/injector"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().Int("count", 0, "Total number of documents to inject, 0 for unbounded")
	runCmd.Flags().Int("batch-size", 1000, "Number of documents per bulk request")
	runCmd.Flags().Duration("interval", time.Second, "Pacing interval between batches, measured from batch start")
	runCmd.Flags().Bool("continuous", false, "Run until interrupted, ignoring --count")
	runCmd.Flags().String("prefix", "docstorm", "Index name prefix")
	runCmd.Flags().Int("max-attempts", 5, "Maximum delivery attempts per batch")
	runCmd.Flags().Duration("retry-delay", 5*time.Second, "Constant delay between delivery attempts")
	runCmd.Flags().Bool("logs", true, "Enable the log document stream")
	runCmd.Flags().Bool("metrics", true, "Enable the metric document stream")
	runCmd.Flags().Bool("custom", false, "Enable the custom document stream")
	runCmd.Flags().String("template", "", "Inline JSON template for custom documents")
	runCmd.Flags().String("template-file", "", "Path to a JSON template for custom documents")
	runCmd.Flags().Uint16("metrics-port", 0, "Serve prometheus metrics on this port, 0 to disable")

	bindFlags(runCmd.Flags(), map[string]string{
		"injection.totaldocuments": "count",
		"injection.batchsize":      "batch-size",
		"injection.interval":       "interval",
		"injection.continuous":     "continuous",
		"injection.indexprefix":    "prefix",
		"injection.maxattempts":    "max-attempts",
		"injection.retrydelay":     "retry-delay",
		"logs.enabled":             "logs",
		"metrics.enabled":          "metrics",
		"custom.enabled":           "custom",
		"custom.template":          "template",
		"custom.templatefile":      "template-file",
		"metricsport":              "metrics-port",
	})
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Inject documents on a schedule until the workload is exhausted",
	Long: `Inject documents on a schedule.

Each enabled document stream gets a batch per cycle, round-robin. With
--count the run stops once that many document slots are consumed; with
--continuous it runs until SIGINT or SIGTERM. Interrupting the run lets
the in-flight batch finish before reporting final statistics.
`,
	Run: func(cmd *cobra.Command, args []string) {
		config, err := common.LoadConfig(v, cfgFile)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store, err := sink.NewElasticsearch(config.Elasticsearch, config.Injection.IndexPrefix)
		if err != nil {
			log.WithError(err).Error("Failed to create Elasticsearch client")
			os.Exit(1)
		}
		info, err := store.Info(ctx)
		if err != nil {
			log.WithError(err).Errorf("Cannot reach Elasticsearch at %s", config.Elasticsearch.URL())
			os.Exit(1)
		}
		log.Infof("Connected to cluster %q (version %s)", info.ClusterName, info.Version.Number)

		registry, err := generator.NewRegistry(config, rand.New(rand.NewSource(time.Now().UnixNano())))
		if err != nil {
			log.WithError(err).Error("Failed to construct document producers")
			os.Exit(1)
		}
		inj, err := injector.New(config, store, registry)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}

		if config.MetricsPort > 0 {
			shutdownMetricServer := common.ServeMetrics(int(config.MetricsPort))
			defer shutdownMetricServer()
		}

		inj.Run(ctx)
	},
}
