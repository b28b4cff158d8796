package cmd

import (
	"github.com/spf13/cobra"
)

var outputFormat string

var rootCmd = &cobra.Command{
	Use:   "coupler",
	Short: "Coupler — build, test, and ship integration connectors",
	Long:  "A CLI for the integration connector lifecycle: validate a connector descriptor, exercise its actions against recorded HTTP fixtures, and push it to a registry.",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table or json")
}

func Execute() error {
	return rootCmd.Execute()
}
