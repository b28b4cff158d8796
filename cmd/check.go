package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"coupler/internal/descriptor"
	"coupler/internal/schema"
)

var checkCmd = &cobra.Command{
	Use:   "check <connector-file>",
	Short: "Validate a connector descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  checkConnector,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func checkConnector(cmd *cobra.Command, args []string) error {
	d, err := descriptor.Load(args[0])
	if err != nil {
		return err
	}

	result := schema.Validate(d)

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
		return result.Err()
	}

	for _, f := range result.Findings {
		fmt.Println(f.String())
	}
	if err := result.Err(); err != nil {
		return fmt.Errorf("connector %q is invalid", d.Name)
	}
	fmt.Printf("Connector %q is valid.\n", d.Name)
	return nil
}
