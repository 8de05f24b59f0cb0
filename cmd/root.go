// Package cmd implements the command-line interface for webwatch.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/webwatch/cmd/crawl"
	"github.com/jonesrussell/webwatch/cmd/httpd"
	"github.com/jonesrussell/webwatch/cmd/logs"
	"github.com/jonesrussell/webwatch/cmd/tasks"
	"github.com/jonesrussell/webwatch/cmd/watch"
)

// version is set at build time via -ldflags.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "webwatch",
		Short: "A website change monitor",
		Long: `Polls configured sites for newly published links, scores them
against watch topics and notifies on matches.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are available to viper.
	_ = godotenv.Load()
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("webwatch version %s\n", version)
		},
	})

	rootCmd.AddCommand(watch.Command(&cfgFile))
	rootCmd.AddCommand(crawl.Command(&cfgFile))
	rootCmd.AddCommand(tasks.Command(&cfgFile))
	rootCmd.AddCommand(logs.Command(&cfgFile))
	rootCmd.AddCommand(httpd.Command(&cfgFile))
}
