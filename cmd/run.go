package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"debugctl/internal/aggregator"
	"debugctl/internal/config"
	"debugctl/internal/orchestrator"
	"debugctl/internal/scenario"
	"debugctl/internal/worker"
	"debugctl/pkg/logging"
)

var (
	runSet         string
	runScenarios   string
	runOnly        []string
	runType        string
	runIssueType   string
	runMaxWorkers  int
	runBasePort    int
	runPortRange   int
	runReportPath  string
	runJSONPath    string
	runNoMonitor   bool
	runVerbose     bool
	runDebug       bool
	runScriptRoots []string
	runSessionDir  string
	runSkipCleanup bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute test scenarios in parallel and aggregate the results",
	Long: `The run command executes debugging test scenarios in parallel. Each
scenario runs in an isolated worker with exclusive ports and its own session
state; results are collected, aggregated and rendered as a report.

Scenarios come from a builtin set (--set), a YAML file or directory
(--scenarios), or both. The scenario list can be narrowed by name (--only)
or by test type (--type).

Example usage:
  debugctl run --set=auth                       # Run the builtin auth set
  debugctl run --scenarios=./scenarios          # Run scenarios from YAML
  debugctl run --set=standard --only=database_queries
  debugctl run --scenarios=s.yaml --max-workers=4 --base-port=4000
  debugctl run --set=performance --report=report.txt --json=results.json
  debugctl run --set=standard --no-monitor --verbose`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	// Scenario selection
	runCmd.Flags().StringVar(&runSet, "set", "", "Builtin scenario set (standard, auth, performance)")
	runCmd.Flags().StringVar(&runScenarios, "scenarios", "", "Path to a scenario YAML file or directory")
	runCmd.Flags().StringSliceVar(&runOnly, "only", nil, "Run only the named scenarios")
	runCmd.Flags().StringVar(&runType, "type", "", "Run only scenarios of this test type")

	// Resource configuration
	runCmd.Flags().IntVar(&runMaxWorkers, "max-workers", 0, "Maximum concurrent workers (default: 75% of CPU cores)")
	runCmd.Flags().IntVar(&runBasePort, "base-port", 3100, "Starting port number for worker port allocation")
	runCmd.Flags().IntVar(&runPortRange, "port-range", 100, "Number of ports available above base-port")

	// Session and scripts
	runCmd.Flags().StringVar(&runIssueType, "issue", "debug", "Issue type label for the master session")
	runCmd.Flags().StringVar(&runSessionDir, "session-dir", "", "Directory for session state files (default: temp dir)")
	runCmd.Flags().StringSliceVar(&runScriptRoots, "script-root", nil, "Directories searched for test scripts")
	runCmd.Flags().BoolVar(&runSkipCleanup, "skip-cleanup", false, "Skip killing stale worker processes from previous runs")

	// Output and reporting
	runCmd.Flags().StringVar(&runReportPath, "report", "", "Path to save the text report (default: stdout only)")
	runCmd.Flags().StringVar(&runJSONPath, "json", "", "Path to save aggregated results as JSON")
	runCmd.Flags().BoolVar(&runNoMonitor, "no-monitor", false, "Disable the live monitor")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Enable verbose output")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug logging")

	runCmd.MarkFlagsOneRequired("set", "scenarios")

	_ = runCmd.RegisterFlagCompletionFunc("set", completeSetNames)
	_ = runCmd.RegisterFlagCompletionFunc("type", completeTestTypes)
}

func completeSetNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return scenario.SetNames(), cobra.ShellCompDirectiveNoFileComp
}

func completeTestTypes(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	types := make([]string, 0, len(scenario.AllTestTypes))
	for _, t := range scenario.AllTestTypes {
		types = append(types, string(t))
	}
	return types, cobra.ShellCompDirectiveNoFileComp
}

func logLevel() logging.LogLevel {
	switch {
	case runDebug:
		return logging.LevelDebug
	case runVerbose:
		return logging.LevelInfo
	default:
		return logging.LevelWarn
	}
}

// gatherScenarios builds the scenario list from the builtin set and/or the
// YAML path, then applies the name and type filters.
func gatherScenarios() ([]scenario.TestScenario, error) {
	var scenarios []scenario.TestScenario

	if runSet != "" {
		constructor, ok := scenario.BuiltinSets()[runSet]
		if !ok {
			return nil, fmt.Errorf("unknown scenario set %q (valid: %v)", runSet, scenario.SetNames())
		}
		scenarios = append(scenarios, constructor()...)
	}

	if runScenarios != "" {
		loaded, err := scenario.Load(runScenarios)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, loaded...)
	}

	scenarios = scenario.FilterByNames(scenarios, runOnly)
	if runType != "" {
		testType, err := scenario.ParseTestType(runType)
		if err != nil {
			return nil, err
		}
		scenarios = scenario.FilterByType(scenarios, testType)
	}
	return scenarios, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	useDashboard := !runNoMonitor && isatty.IsTerminal(os.Stdout.Fd())

	// The dashboard owns the terminal, so log entries are diverted to a
	// channel and replayed after the run.
	var deferred chan logging.LogEntry
	if useDashboard {
		entries := logging.InitForDashboard(logLevel())
		deferred = make(chan logging.LogEntry, cap(entries))
		go func() {
			for entry := range entries {
				select {
				case deferred <- entry:
				default:
				}
			}
			close(deferred)
		}()
	} else {
		logging.InitForCLI(logLevel(), os.Stderr)
	}

	scenarios, err := gatherScenarios()
	if err != nil {
		return err
	}
	if len(scenarios) == 0 {
		return fmt.Errorf("no scenarios matched the given filters")
	}

	if !runSkipCleanup {
		worker.CleanupStaleWorkers()
	}

	rc := config.DefaultResourceConfig()
	if runMaxWorkers > 0 {
		rc.MaxWorkers = runMaxWorkers
	}
	rc.BasePort = runBasePort
	rc.PortRange = runPortRange

	cfg := config.New(rc)
	cfg.AddScenarios(scenarios)

	o, err := orchestrator.New(cfg, orchestrator.Options{
		IssueType:     runIssueType,
		SessionDir:    runSessionDir,
		ScriptRoots:   runScriptRoots,
		WithMonitor:   !runNoMonitor,
		SimpleMonitor: !useDashboard,
		MonitorOut:    os.Stdout,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var spin *spinner.Spinner
	if runNoMonitor && isatty.IsTerminal(os.Stdout.Fd()) {
		spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond,
			spinner.WithSuffix(fmt.Sprintf(" running %d scenarios", len(scenarios))))
		spin.Start()
	}

	aggregated, runErr := o.Run(ctx, scenarios)

	if spin != nil {
		spin.Stop()
	}
	if useDashboard {
		logging.CloseDashboardChannel()
		replayDeferredLogs(deferred)
	}
	if runErr != nil {
		return runErr
	}

	report, err := o.Aggregator().GenerateReport(aggregated, runReportPath)
	if err != nil {
		return err
	}
	fmt.Println(report)
	if runReportPath != "" {
		fmt.Printf("Report saved to: %s\n", runReportPath)
	}

	if runJSONPath != "" {
		if err := aggregator.WriteJSON(aggregated, runJSONPath); err != nil {
			return err
		}
		fmt.Printf("Results saved to: %s\n", runJSONPath)
	}

	if aggregated.FailedScenarios > 0 {
		return fmt.Errorf("%d of %d scenarios failed", aggregated.FailedScenarios, aggregated.TotalScenarios)
	}
	if aggregated.TotalScenarios < len(scenarios) {
		return fmt.Errorf("only %d of %d scenarios reported results", aggregated.TotalScenarios, len(scenarios))
	}
	return nil
}

// replayDeferredLogs prints warnings and errors that were captured while the
// dashboard owned the terminal.
func replayDeferredLogs(deferred <-chan logging.LogEntry) {
	for entry := range deferred {
		if entry.Level < logging.LevelWarn && !runDebug {
			continue
		}
		if entry.Err != nil {
			fmt.Fprintf(os.Stderr, "%s [%s] %s: %s (%v)\n",
				entry.Timestamp.Format("15:04:05"), entry.Level, entry.Subsystem, entry.Message, entry.Err)
			continue
		}
		fmt.Fprintf(os.Stderr, "%s [%s] %s: %s\n",
			entry.Timestamp.Format("15:04:05"), entry.Level, entry.Subsystem, entry.Message)
	}
}
