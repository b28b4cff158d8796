package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"coupler/internal/descriptor"
)

var describeCmd = &cobra.Command{
	Use:   "describe <connector-file>",
	Short: "Show details of a connector descriptor",
	Args:  cobra.ExactArgs(1),
	RunE:  describeConnector,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func describeConnector(cmd *cobra.Command, args []string) error {
	d, err := descriptor.Load(args[0])
	if err != nil {
		return err
	}

	if outputFormat == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}

	fmt.Printf("Name:     %s\n", d.Name)
	fmt.Printf("Version:  %s\n", d.Version)
	fmt.Printf("Base URI: %s\n", d.Connection.BaseURI)
	fmt.Printf("Auth:     %s\n", d.Connection.Authorization.Type)

	if len(d.Connection.Fields) > 0 {
		fmt.Println("\nConnection Fields:")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tCONTROL\tOPTIONAL\tLABEL")
		for _, f := range d.Connection.Fields {
			control := f.Control
			if control == "" {
				control = descriptor.ControlText
			}
			fmt.Fprintf(w, "  %s\t%s\t%v\t%s\n", f.Name, control, f.Optional, f.Label)
		}
		w.Flush()
	}

	fmt.Println("\nActions:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  NAME\tTITLE\tOUTPUT\tINPUTS")
	for _, name := range d.ActionNames() {
		a := d.Actions[name]
		fmt.Fprintf(w, "  %s\t%s\t%s\t%d\n", name, a.Title, a.Output.Object, len(a.Input))
	}
	w.Flush()

	if len(d.Triggers) > 0 {
		fmt.Println("\nTriggers:")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tTITLE\tSTRATEGY\tOUTPUT")
		for _, name := range d.TriggerNames() {
			tr := d.Triggers[name]
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\n", name, tr.Title, tr.Strategy, tr.Output.Object)
		}
		w.Flush()
	}

	if len(d.Objects) > 0 {
		fmt.Println("\nObject Definitions:")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "  NAME\tFIELDS")
		for name, obj := range d.Objects {
			fmt.Fprintf(w, "  %s\t%d\n", name, len(obj.Fields))
		}
		w.Flush()
	}

	return nil
}
