// Command enrichctl is the operator CLI for the enrichment service. It runs
// contact matching and directory enrichment against local JSON files without
// going through the HTTP API.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "enrichctl",
	Short: "Contact matching and enrichment toolkit",
	Long:  `enrichctl matches local contacts against directory exports and enriches them with relationship data from the directory API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yml", "path to the service config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newMatchCommand())
	rootCmd.AddCommand(newEnrichCommand())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
