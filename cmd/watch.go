package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"debugctl/internal/scenario"
	"debugctl/pkg/logging"
)

var watchDebounce = 300 * time.Millisecond

var watchCmd = &cobra.Command{
	Use:   "watch <path>",
	Short: "Watch scenario files and re-validate on change",
	Long: `The watch command monitors a scenario YAML file or directory and
re-validates the definitions whenever they change. Useful while authoring
scenarios: keep it running in a terminal and see validation errors as you
save.

Example usage:
  debugctl watch ./scenarios
  debugctl watch scenarios/auth.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(logging.LevelWarn, os.Stderr)

	path := args[0]
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Watching the directory rather than the file survives editors that
	// replace files on save.
	watchTarget := path
	if !info.IsDir() {
		watchTarget = filepath.Dir(path)
	}
	if err := watcher.Add(watchTarget); err != nil {
		return fmt.Errorf("failed to watch %s: %w", watchTarget, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching %s for changes (Ctrl-C to stop)\n", path)
	revalidate(path)

	var timer *time.Timer
	pending := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isScenarioFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			// Editors fire bursts of events per save; coalesce them.
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(watchDebounce, func() {
				select {
				case pending <- struct{}{}:
				default:
				}
			})
		case <-pending:
			revalidate(path)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.Warn("Watch", "watcher error: %v", err)
		}
	}
}

func isScenarioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

func revalidate(path string) {
	scenarios, err := scenario.Load(path)
	if err != nil {
		fmt.Printf("[%s] invalid: %v\n", time.Now().Format("15:04:05"), err)
		return
	}
	fmt.Printf("[%s] ok: %d scenarios\n", time.Now().Format("15:04:05"), len(scenarios))
}
