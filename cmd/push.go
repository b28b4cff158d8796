package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coupler/internal/config"
	"coupler/internal/descriptor"
	"coupler/internal/push"
	"coupler/internal/schema"
)

var (
	pushToken    string
	pushFile     string
	pushEndpoint string
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload a validated connector descriptor to the registry",
	Args:  cobra.NoArgs,
	RunE:  pushConnector,
}

func init() {
	pushCmd.Flags().StringVarP(&pushToken, "token", "t", "", "bearer token (defaults to COUPLER_API_TOKEN)")
	pushCmd.Flags().StringVarP(&pushFile, "file", "f", "", "connector file to push (required)")
	pushCmd.Flags().StringVar(&pushEndpoint, "endpoint", "https://registry.coupler.dev/v1/connectors", "registry endpoint")
	pushCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(pushCmd)
}

func pushConnector(cmd *cobra.Command, args []string) error {
	d, err := descriptor.Load(pushFile)
	if err != nil {
		return err
	}

	// A descriptor with hard findings never leaves the machine.
	if err := schema.Validate(d).Err(); err != nil {
		return err
	}

	token := pushToken
	if token == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		token = cfg.APIToken
	}

	data, err := os.ReadFile(pushFile)
	if err != nil {
		return fmt.Errorf("reading connector file: %w", err)
	}

	result, err := push.New(nil).Push(context.Background(), data, pushEndpoint, token)
	if err != nil {
		return err
	}

	fmt.Printf("Pushed connector %q (status %d, request %s)\n", d.Name, result.Status, result.RequestID)
	if result.Message != "" {
		fmt.Println(result.Message)
	}
	return nil
}
