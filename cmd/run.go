package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"coupler/internal/config"
	"coupler/internal/descriptor"
	"coupler/internal/fixture"
	"coupler/internal/harness"
)

var (
	runAction  string
	inputJSON  string
	fixtureArg string
	modeArg    string
)

var runCmd = &cobra.Command{
	Use:   "run <connector-file>",
	Short: "Execute a connector action against recorded or live HTTP",
	Args:  cobra.ExactArgs(1),
	RunE:  runConnector,
}

func init() {
	runCmd.Flags().StringVarP(&runAction, "action", "a", "", "action name to execute (required)")
	runCmd.Flags().StringVar(&inputJSON, "input", "{}", "JSON input for the action")
	runCmd.Flags().StringVar(&fixtureArg, "fixture", "", "fixture file path (defaults to fixtures/<connector>.yaml)")
	runCmd.Flags().StringVar(&modeArg, "mode", "", "record mode: record, replay, or once (overrides COUPLER_RECORD_MODE)")
	runCmd.MarkFlagRequired("action")
	rootCmd.AddCommand(runCmd)
}

func runConnector(cmd *cobra.Command, args []string) error {
	path := args[0]

	d, err := descriptor.Load(path)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	mode := cfg.RecordMode
	if modeArg != "" {
		mode, err = fixture.ParseMode(modeArg)
		if err != nil {
			return err
		}
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
		return fmt.Errorf("parsing input JSON: %w", err)
	}

	fixturePath := fixtureArg
	if fixturePath == "" {
		fixturePath = defaultFixturePath(path)
	}
	store, err := fixture.Open(fixturePath)
	if err != nil {
		return err
	}

	// Only sensitive connection values are scrubbed from fixtures.
	secrets := make(map[string]string)
	for _, name := range d.SensitiveFields() {
		if v, ok := cfg.Credentials[name]; ok {
			secrets[name] = v
		}
	}

	transport := &fixture.Transport{
		Mode:     mode,
		Store:    store,
		Scrubber: fixture.NewScrubber(secrets),
	}

	h := harness.New(defaultRegistry(), transport)
	result, err := h.Run(context.Background(), d, runAction, cfg.Credentials, input)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func defaultFixturePath(connectorPath string) string {
	base := connectorPath
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	base = strings.TrimSuffix(strings.TrimSuffix(base, ".yaml"), ".yml")
	return "fixtures/" + base + ".yaml"
}
