package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"debugctl/internal/scenario"
)

var (
	listScenarios string
	listType      string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List available test scenarios",
	Long: `The list command shows the scenarios that a run would execute: the
builtin sets, plus any scenarios loaded from a YAML file or directory.

Example usage:
  debugctl list                          # Show all builtin sets
  debugctl list --scenarios=./scenarios  # Show scenarios from YAML
  debugctl list --type=api_test          # Only API test scenarios`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listScenarios, "scenarios", "", "Path to a scenario YAML file or directory")
	listCmd.Flags().StringVar(&listType, "type", "", "Show only scenarios of this test type")

	_ = listCmd.RegisterFlagCompletionFunc("type", completeTestTypes)
}

func runList(cmd *cobra.Command, args []string) error {
	var filter scenario.TestType
	if listType != "" {
		parsed, err := scenario.ParseTestType(listType)
		if err != nil {
			return err
		}
		filter = parsed
	}

	if listScenarios != "" {
		loaded, err := scenario.Load(listScenarios)
		if err != nil {
			return err
		}
		if filter != "" {
			loaded = scenario.FilterByType(loaded, filter)
		}
		fmt.Printf("Scenarios from %s:\n", listScenarios)
		printScenarioTable(loaded)
		return nil
	}

	sets := scenario.BuiltinSets()
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		scenarios := sets[name]()
		if filter != "" {
			scenarios = scenario.FilterByType(scenarios, filter)
		}
		if len(scenarios) == 0 {
			continue
		}
		fmt.Printf("Set: %s\n", name)
		printScenarioTable(scenarios)
		fmt.Println()
	}
	return nil
}

func printScenarioTable(scenarios []scenario.TestScenario) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"NAME", "TYPE", "TIMEOUT", "USER", "DATA SET", "RETRY"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "TIMEOUT", Align: text.AlignRight},
	})

	for _, s := range scenarios {
		retry := "no"
		if s.RetryOnFailure {
			retry = fmt.Sprintf("up to %d", s.MaxRetries)
		}
		t.AppendRow(table.Row{s.Name, string(s.TestType), s.Timeout.Std().String(), s.UserType, s.DataSet, retry})
	}
	t.Render()
}
