package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"debugctl/internal/config"
	"debugctl/internal/scenario"
)

var (
	validateSet        string
	validateScenarios  string
	validateMaxWorkers int
	validateBasePort   int
	validatePortRange  int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate scenario definitions and resource configuration",
	Long: `The validate command loads scenario definitions and checks them
against the resource configuration without running anything: unknown test
types, missing fields, duplicate names, port shortages and memory pressure
are all reported up front.

Example usage:
  debugctl validate --scenarios=./scenarios
  debugctl validate --set=standard --max-workers=8 --port-range=10`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVar(&validateSet, "set", "", "Builtin scenario set to validate")
	validateCmd.Flags().StringVar(&validateScenarios, "scenarios", "", "Path to a scenario YAML file or directory")
	validateCmd.Flags().IntVar(&validateMaxWorkers, "max-workers", 0, "Maximum concurrent workers (default: 75% of CPU cores)")
	validateCmd.Flags().IntVar(&validateBasePort, "base-port", 3100, "Starting port number for worker port allocation")
	validateCmd.Flags().IntVar(&validatePortRange, "port-range", 100, "Number of ports available above base-port")

	validateCmd.MarkFlagsOneRequired("set", "scenarios")

	_ = validateCmd.RegisterFlagCompletionFunc("set", completeSetNames)
}

func runValidate(cmd *cobra.Command, args []string) error {
	var scenarios []scenario.TestScenario

	if validateSet != "" {
		constructor, ok := scenario.BuiltinSets()[validateSet]
		if !ok {
			return fmt.Errorf("unknown scenario set %q (valid: %v)", validateSet, scenario.SetNames())
		}
		scenarios = append(scenarios, constructor()...)
	}

	if validateScenarios != "" {
		loaded, err := scenario.Load(validateScenarios)
		if err != nil {
			return fmt.Errorf("scenario validation failed: %w", err)
		}
		scenarios = append(scenarios, loaded...)
	}

	rc := config.DefaultResourceConfig()
	if validateMaxWorkers > 0 {
		rc.MaxWorkers = validateMaxWorkers
	}
	rc.BasePort = validateBasePort
	rc.PortRange = validatePortRange

	cfg := config.New(rc)
	cfg.AddScenarios(scenarios)

	warnings := cfg.Validate()
	for _, warning := range warnings {
		fmt.Printf("warning: %s\n", warning)
	}

	fmt.Printf("%d scenarios valid (%d warnings)\n", len(scenarios), len(warnings))
	return nil
}
