package cmd

import (
	"context"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/docstorm/docstorm/internal/common"
	"github.com/docstorm/docstorm/internal/docstorm/sink"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the target cluster is reachable",
	Run: func(cmd *cobra.Command, args []string) {
		common.ConfigureCommandLineLogging()
		config, err := common.LoadConfig(v, cfgFile)
		if err != nil {
			log.Error(err)
			os.Exit(1)
		}

		store, err := sink.NewElasticsearch(config.Elasticsearch, config.Injection.IndexPrefix)
		if err != nil {
			log.WithError(err).Error("Failed to create Elasticsearch client")
			os.Exit(1)
		}

		ctx := context.Background()
		if err := store.Ping(ctx); err != nil {
			log.WithError(err).Errorf("Cannot reach Elasticsearch at %s", config.Elasticsearch.URL())
			os.Exit(1)
		}
		info, err := store.Info(ctx)
		if err != nil {
			log.WithError(err).Error("Cluster is reachable but did not identify itself")
			os.Exit(1)
		}
		log.Infof("Cluster %q is up (version %s)", info.ClusterName, info.Version.Number)
	},
}
