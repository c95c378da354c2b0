package cmd

import (
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	v       = viper.New()
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("host", "localhost", "Elasticsearch host")
	rootCmd.PersistentFlags().Int("port", 9200, "Elasticsearch port")
	rootCmd.PersistentFlags().String("scheme", "http", "Connection scheme (http or https)")
	rootCmd.PersistentFlags().String("username", "", "Basic auth username")
	rootCmd.PersistentFlags().String("password", "", "Basic auth password")
	rootCmd.PersistentFlags().String("api-key", "", "API key, takes precedence over basic auth")
	rootCmd.PersistentFlags().Duration("timeout", 30*time.Second, "Request timeout")

	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		"elasticsearch.host":     "host",
		"elasticsearch.port":     "port",
		"elasticsearch.scheme":   "scheme",
		"elasticsearch.username": "username",
		"elasticsearch.password": "password",
		"elasticsearch.apikey":   "api-key",
		"elasticsearch.timeout":  "timeout",
	})
}

// bindFlags binds config keys to the flags that override them.
func bindFlags(flags *pflag.FlagSet, mapping map[string]string) {
	for key, flag := range mapping {
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "docstorm command",
	Short: "Command line utility to bulk load synthetic documents into Elasticsearch",
	Long: `
Command line utility to bulk load synthetic documents into Elasticsearch.

Synthesizes structured log, metric and custom JSON documents and delivers
them in paced bulk batches, with constant-delay retries on connection
failures.

Persistent config can be saved in a YAML file so it doesn't have to be
specified on every command:

elasticsearch:
  host: localhost
  port: 9200
injection:
  batchSize: 1000
  interval: 1s
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
