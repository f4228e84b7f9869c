// Package app provides the entry point for the federated resolver API
// application.
package app

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bibliofed/bibliofed/pkg/logger"
	"github.com/bibliofed/bibliofed/pkg/versions"
)

var rootCmd = &cobra.Command{
	Use:               "bibliofed-api",
	DisableAutoGenTag: true,
	Short:             "Federated library-catalog resolver API server",
	Long: `bibliofed-api serves one uniform query interface over multiple independent
library-catalog backends: list every library across all backends, or search a
term and stream the merged results.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.Initialize(viper.GetBool("debug"))
	},
	Run: func(cmd *cobra.Command, _ []string) {
		// If no subcommand is provided, print help
		if err := cmd.Help(); err != nil {
			logger.Errorf("Error displaying help: %v", err)
		}
	},
}

// NewRootCmd creates a new root command for the resolver API.
func NewRootCmd() *cobra.Command {
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug mode")
	if err := viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		logger.Errorf("Error binding debug flag: %v", err)
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		info := versions.GetVersionInfo()
		format, err := cmd.Flags().GetString("format")
		if err != nil {
			logger.Errorf("Error retrieving format flag: %v", err)
			return
		}

		if format == "json" {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				logger.Errorf("Error formatting version info as JSON: %v", err)
				return
			}
			fmt.Println(string(output))
		} else {
			fmt.Printf("bibliofed-api %s (commit %s, built %s, %s, %s)\n",
				info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
		}
	},
}

func init() {
	versionCmd.Flags().String("format", "", "Output format (json)")
}
