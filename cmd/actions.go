package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coupler/internal/descriptor"
)

var actionsCmd = &cobra.Command{
	Use:   "actions <connector-file>",
	Short: "List the actions a connector exposes",
	Args:  cobra.ExactArgs(1),
	RunE:  listActions,
}

func init() {
	rootCmd.AddCommand(actionsCmd)
}

func listActions(cmd *cobra.Command, args []string) error {
	d, err := descriptor.Load(args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		type actionSummary struct {
			Name   string `json:"name"`
			Title  string `json:"title,omitempty"`
			Output string `json:"output,omitempty"`
			Inputs int    `json:"inputs"`
		}
		summaries := make([]actionSummary, 0, len(d.Actions))
		for _, name := range d.ActionNames() {
			a := d.Actions[name]
			summaries = append(summaries, actionSummary{
				Name:   name,
				Title:  a.Title,
				Output: a.Output.Object,
				Inputs: len(a.Input),
			})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tTITLE\tOUTPUT\tINPUTS")
	for _, name := range d.ActionNames() {
		a := d.Actions[name]
		output := a.Output.Object
		if output == "" {
			output = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", name, a.Title, output, len(a.Input))
	}
	return w.Flush()
}
