// Package orchestrator drives a parallel debugging run: it schedules
// scenarios onto a bounded worker pool, allocates exclusive ports per worker,
// collects results into the aggregator and coordinates shutdown.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"debugctl/internal/aggregator"
	"debugctl/internal/config"
	"debugctl/internal/monitor"
	"debugctl/internal/scenario"
	"debugctl/internal/session"
	"debugctl/internal/worker"
	"debugctl/pkg/logging"
)

// ErrNoScenarios is returned when a run is requested with nothing to do.
// This is the only orchestrator-level error raised before workers start.
var ErrNoScenarios = errors.New("no scenarios provided for parallel execution")

const (
	// resultPollTimeout bounds each read from the result channel
	resultPollTimeout = 5 * time.Second
	// maxResultTimeouts caps consecutive empty reads before giving up on
	// missing results
	maxResultTimeouts = 10
	// shutdownGrace bounds how long shutdown waits for workers to finish
	shutdownGrace = 5 * time.Second
)

// Options configures a run beyond the resource limits.
type Options struct {
	// IssueType labels the master session
	IssueType string
	// SessionDir overrides where session files are written
	SessionDir string
	// ScriptRoots overrides the test-script search path
	ScriptRoots []string
	// WithMonitor enables the live dashboard
	WithMonitor bool
	// SimpleMonitor selects line-per-event output instead of the redrawing
	// dashboard
	SimpleMonitor bool
	// MonitorOut is the dashboard's writer; nil uses os.Stdout
	MonitorOut io.Writer
}

// Orchestrator owns one parallel run end to end. All shared state is carried
// here explicitly and passed to components by reference; there are no
// process-wide singletons.
type Orchestrator struct {
	cfg  *config.DebugConfig
	opts Options

	masterSession *session.Session
	masterState   *session.State
	agg           *aggregator.Aggregator
	mon           *monitor.Monitor

	results chan worker.Result
	status  chan worker.StatusUpdate

	mu      sync.Mutex
	cancel  context.CancelFunc
	workers sync.WaitGroup
	started int

	shutdownOnce sync.Once
}

// New creates an orchestrator and its master session.
func New(cfg *config.DebugConfig, opts Options) (*Orchestrator, error) {
	if opts.MonitorOut == nil {
		opts.MonitorOut = os.Stdout
	}

	masterSession, err := session.New("parallel-"+opts.IssueType, opts.SessionDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create master session: %w", err)
	}

	o := &Orchestrator{
		cfg:           cfg,
		opts:          opts,
		masterSession: masterSession,
		masterState:   session.NewState(masterSession.ID, opts.SessionDir),
		agg:           aggregator.New(masterSession.ID, opts.SessionDir),
	}

	logging.Info("Orchestrator", "parallel debugger initialized: session=%s max_workers=%d issue=%s",
		masterSession.ID, cfg.Resources.MaxWorkers, opts.IssueType)
	return o, nil
}

// MasterSessionID returns the run's master session identifier.
func (o *Orchestrator) MasterSessionID() string {
	return o.masterSession.ID
}

// Aggregator exposes the run's result aggregator, for report generation.
func (o *Orchestrator) Aggregator() *aggregator.Aggregator {
	return o.agg
}

// Monitor returns the live monitor, nil unless WithMonitor was set.
func (o *Orchestrator) Monitor() *monitor.Monitor {
	return o.mon
}

// Run executes the scenarios and returns the aggregated results. The run
// always completes best effort: individual scenario failures lower the
// success rate but never abort the batch. Only an empty scenario list fails
// before workers start.
func (o *Orchestrator) Run(ctx context.Context, scenarios []scenario.TestScenario) (*aggregator.AggregatedResults, error) {
	if len(scenarios) == 0 {
		return nil, ErrNoScenarios
	}

	for _, warning := range o.cfg.Validate() {
		logging.Warn("Config", "%s", warning)
	}

	o.masterState.SetCurrentStep("initialization", "Preparing parallel execution")
	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	o.masterState.Metadata["scenarios"] = names
	o.masterState.Metadata["max_workers"] = o.cfg.Resources.MaxWorkers
	if err := o.masterState.Save(); err != nil {
		logging.Warn("Orchestrator", "could not save master state: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer o.Shutdown()

	o.results = make(chan worker.Result, len(scenarios))
	o.status = make(chan worker.StatusUpdate, 256)

	g, monCtx := errgroup.WithContext(runCtx)
	if o.opts.WithMonitor {
		o.mon = monitor.New(o.status, len(scenarios), o.opts.MonitorOut, o.opts.SimpleMonitor)
		g.Go(func() error {
			o.mon.Run(monCtx)
			return nil
		})
	}

	logging.Info("Orchestrator", "executing %d scenarios with up to %d workers",
		len(scenarios), o.cfg.Resources.MaxWorkers)

	o.masterState.SetCurrentStep("execution", "Running scenarios in parallel")
	launched := o.schedule(runCtx, scenarios)

	collected := o.collectResults(launched)
	if collected < len(scenarios) {
		logging.Warn("Orchestrator", "received %d results for %d scenarios; missing scenarios were never started or never reported",
			collected, len(scenarios))
	}

	o.masterState.SetCurrentStep("aggregation", "Aggregating results from all workers")
	aggregated := o.agg.Aggregate()

	o.masterState.CreateCheckpoint("parallel_execution_complete",
		fmt.Sprintf("Completed %d scenarios", aggregated.TotalScenarios))

	if o.mon != nil {
		o.mon.Stop()
	}
	_ = g.Wait()

	return aggregated, nil
}

// schedule runs the FIFO scheduling loop: start workers up to the
// concurrency limit, wait for one to finish, repeat. Returns the number of
// workers actually launched.
func (o *Orchestrator) schedule(ctx context.Context, scenarios []scenario.TestScenario) int {
	queue := make([]scenario.TestScenario, len(scenarios))
	copy(queue, scenarios)

	active := map[string]scenario.TestScenario{}
	done := make(chan string, len(scenarios))
	completed := 0

	for len(queue) > 0 || len(active) > 0 {
		for len(queue) > 0 && len(active) < o.cfg.Resources.MaxWorkers {
			next := queue[0]
			queue = queue[1:]

			workerID := fmt.Sprintf("worker_%d", o.started)
			if !o.launchWorker(ctx, workerID, next, done) {
				continue
			}
			o.started++
			active[workerID] = next
		}

		if len(active) == 0 {
			// Every remaining scenario failed to launch.
			break
		}

		select {
		case workerID := <-done:
			s := active[workerID]
			delete(active, workerID)
			o.cfg.Ports().Release(workerID)
			completed++
			logging.Info("Orchestrator", "completed %s (%d/%d)", s.Name, completed, len(scenarios))
		case <-ctx.Done():
			logging.Warn("Orchestrator", "run cancelled with %d workers active", len(active))
			return o.started
		}
	}
	return o.started
}

// launchWorker allocates ports and starts a worker goroutine. On failure the
// scenario is logged as a start failure and any partially allocated ports are
// released; it will be surfaced as a missing result, not a failed one.
func (o *Orchestrator) launchWorker(ctx context.Context, workerID string, s scenario.TestScenario, done chan<- string) bool {
	ports, err := o.cfg.Ports().Allocate(workerID, 2)
	if err != nil {
		logging.Warn("Orchestrator", "failed to start worker for %s: %v", s.Name, err)
		o.cfg.Ports().Release(workerID)
		return false
	}

	env := o.cfg.WorkerEnv(workerID, s)
	w := worker.New(workerID, s, env, o.results, o.status, worker.Options{
		ScriptRoots: o.opts.ScriptRoots,
		SessionDir:  o.opts.SessionDir,
	})

	o.workers.Add(1)
	go func() {
		defer o.workers.Done()
		w.Run(ctx)
		done <- workerID
	}()

	logging.Info("Orchestrator", "started %s for scenario '%s' (ports: %v)", workerID, s.Name, ports)
	return true
}

// collectResults drains the result channel into the aggregator: one result
// per launched worker, with a bounded timeout per read and a cap on
// consecutive empty reads so a vanished worker cannot hang the run.
func (o *Orchestrator) collectResults(expected int) int {
	logging.Info("Orchestrator", "collecting results from workers")

	collected := 0
	timeouts := 0
	for collected < expected {
		select {
		case result := <-o.results:
			o.agg.AddResult(result)
			collected++
			timeouts = 0
		case <-time.After(resultPollTimeout):
			timeouts++
			if timeouts >= maxResultTimeouts {
				logging.Warn("Orchestrator", "timeout waiting for results: got %d/%d", collected, expected)
				return collected
			}
		}
	}
	return collected
}

// Shutdown stops the run: cancels worker contexts (killing their child
// process groups), waits briefly for workers to drain, stops the monitor,
// releases every held port and persists the master session. Idempotent.
func (o *Orchestrator) Shutdown() {
	o.shutdownOnce.Do(func() {
		logging.Info("Orchestrator", "shutting down parallel debugger")

		o.mu.Lock()
		cancel := o.cancel
		o.mu.Unlock()
		if cancel != nil {
			cancel()
		}

		finished := make(chan struct{})
		go func() {
			o.workers.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(shutdownGrace):
			logging.Warn("Orchestrator", "workers did not finish within %s", shutdownGrace)
		}

		if o.mon != nil {
			o.mon.Stop()
		}

		for _, workerID := range o.cfg.Ports().ActiveWorkers() {
			o.cfg.Ports().Release(workerID)
		}

		o.masterState.CompleteCurrentStep()
		if err := o.masterState.Save(); err != nil {
			logging.Debug("Orchestrator", "final master state save failed: %v", err)
		}
		if err := o.masterSession.Close(); err != nil {
			logging.Debug("Orchestrator", "master session close failed: %v", err)
		}

		logging.Info("Orchestrator", "shutdown complete")
	})
}
