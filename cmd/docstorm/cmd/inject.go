package cmd

import (
	"context"
	"math/rand"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/docstorm/docstorm/internal/common"
	"github.com/docstorm/docstorm/internal/docstorm/configuration"
	"github.com/docstorm/docstorm/internal/docstorm/generator"
	"github.com/docstorm/docstorm/internal/docstorm/injector"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

func init() {
	rootCmd.AddCommand(injectCmd)
	injectCmd.Flags().String("type", "", "Inject only this document type (logs, metrics or custom)")
	injectCmd.Flags().Int("size", 0, "Documents per batch, defaults to the configured batch size")
}

var injectCmd = &cobra.Command{
	Use:   "inject",
	Short: "Inject a single ad-hoc batch per enabled document stream",
	Run: func(cmd *cobra.Command, args []string) {
		common.ConfigureCommandLineLogging()
		config, err := common.LoadConfig(v, cfgFile)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}

		only, _ := cmd.Flags().GetString("type")
		size, _ := cmd.Flags().GetInt("size")
		if size <= 0 {
			size = config.Injection.BatchSize
		}

		store, err := sink.NewElasticsearch(config.Elasticsearch, config.Injection.IndexPrefix)
		if err != nil {
			log.WithError(err).Error("Failed to create Elasticsearch client")
			os.Exit(1)
		}
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

		ctx := context.Background()
		exitCode := 0
		matched := false
		for _, target := range config.EnabledTargets() {
			if only != "" && target.Type != configuration.DocumentType(only) {
				continue
			}
			matched = true
			succeeded, failed, err := inj.InjectBatch(ctx, target.Type, size)
			if err != nil {
				log.WithError(err).Errorf("Batch of %d %s documents failed", size, target.Type)
				exitCode = 1
				continue
			}
			log.Infof("Injected %d %s documents into %q (%d failed)",
				succeeded, target.Type, target.Collection, failed)
			if failed > 0 {
				exitCode = 1
			}
		}
		if only != "" && !matched {
			log.Errorf("Document type %q is not enabled", only)
			exitCode = 1
		}
		os.Exit(exitCode)
	},
}
