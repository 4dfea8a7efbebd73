package main

import (
	"fmt"
	"os"

	"github.com/pg-sharding/shardgate/pkg"
	"github.com/spf13/cobra"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
)

var (
	cfgPath  string
	logLevel string
	format   string
)

var rootCmd = &cobra.Command{
	Use:   "shardctl --config `path-to-config` <command>",
	Short: "shardctl",
	Long:  "Route, explain and run statements against sharded databases",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	Version:       pkg.ShardgateVersionRevision,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "/etc/shardgate/shardgate.yaml", "path to config file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "overrides log_level of the config file")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "yaml", "output format: yaml or json")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(routeCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
