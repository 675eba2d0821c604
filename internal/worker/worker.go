// Package worker executes a single test scenario in an isolated child
// process, captures its output, and reports one structured result plus a
// stream of status events.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"debugctl/internal/scenario"
	"debugctl/internal/session"
	"debugctl/pkg/logging"
)

// Options configures worker behavior beyond the scenario itself.
type Options struct {
	// ScriptRoots are the directories searched when resolving a test
	// function name to a script file. Empty uses DefaultScriptRoots.
	ScriptRoots []string
	// SessionDir is where session metadata and state files are written.
	SessionDir string
}

// Worker runs exactly one scenario attempt. Retry fields on the scenario are
// advisory for external wrappers; the worker never retries on its own.
type Worker struct {
	ID       string
	Scenario scenario.TestScenario

	env     []string
	results chan<- Result
	status  chan<- StatusUpdate
	opts    Options

	result Result
	sess   *session.Session
	state  *session.State
}

// New creates a worker for one scenario. The result channel should be
// buffered by the caller; the worker blocks until its single result is
// accepted. Status sends never block.
func New(id string, s scenario.TestScenario, env []string,
	results chan<- Result, status chan<- StatusUpdate, opts Options) *Worker {
	return &Worker{
		ID:       id,
		Scenario: s,
		env:      env,
		results:  results,
		status:   status,
		opts:     opts,
		result:   NewResult(id, s.Name),
	}
}

// strategyFunc executes one scenario kind. Every TestType has exactly one
// entry in strategies; adding a type without a handler fails at dispatch.
type strategyFunc func(ctx context.Context, w *Worker) error

var strategies = map[scenario.TestType]strategyFunc{
	scenario.TestTypeUIFlow:      runUITest,
	scenario.TestTypeAPITest:     runAPITest,
	scenario.TestTypeDatabase:    runDatabaseTest,
	scenario.TestTypeIntegration: runIntegrationTest,
	scenario.TestTypePerformance: runPerformanceTest,
	scenario.TestTypeSecurity:    runSecurityTest,
}

// Run executes the scenario to completion. All failures, including panics in
// strategy code, are captured into the result; Run never propagates an error
// to the orchestrator. Exactly one result is sent, always.
func (w *Worker) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			w.result.complete(false, fmt.Sprintf("panic: %v", r))
			w.result.Stack = string(debug.Stack())
			w.sendStatus(StatusFailed, "Failed: panic: %v", r)
		}
		w.cleanup()
		w.sendFinalResult()
	}()

	w.initSession()
	w.sendStatus(StatusStarting, "Initializing %s", w.Scenario.Name)

	strategy, ok := strategies[w.Scenario.TestType]
	if !ok {
		w.fail(fmt.Errorf("unknown test type: %s", w.Scenario.TestType))
		return
	}

	if err := strategy(ctx, w); err != nil {
		w.fail(err)
		return
	}

	w.result.complete(true, "")
	w.sendStatus(StatusCompleted, "Successfully completed %s", w.Scenario.Name)
}

func (w *Worker) fail(err error) {
	w.result.complete(false, err.Error())
	w.sendStatus(StatusFailed, "Failed: %v", err)

	if w.state != nil {
		w.state.RecordFailedAttempt(
			fmt.Sprintf("Worker %s test execution", w.ID),
			err.Error(),
			map[string]any{
				"scenario":  w.Scenario.Name,
				"test_type": string(w.Scenario.TestType),
			},
			"Worker process failed during test execution")
	}
}

func (w *Worker) initSession() {
	sess, err := session.New(fmt.Sprintf("%s-%s", w.Scenario.Name, w.ID), w.opts.SessionDir)
	if err != nil {
		// The worker can still run without persistent session files.
		logging.Warn("Worker", "%s: session init failed: %v", w.ID, err)
		return
	}
	w.sess = sess
	w.result.SessionID = sess.ID

	w.state = session.NewState(sess.ID, w.opts.SessionDir)
	w.state.Metadata["worker_id"] = w.ID
	w.state.Metadata["scenario"] = w.Scenario.Name
	w.state.Metadata["test_type"] = string(w.Scenario.TestType)
	if err := w.state.Save(); err != nil {
		logging.Warn("Worker", "%s: state save failed: %v", w.ID, err)
	}

	w.state.SetCurrentStep("initialization", fmt.Sprintf("Starting %s", w.Scenario.Name))
}

// sendStatus emits a progress event. A full or closed channel never aborts
// the worker; drops are logged at debug level only.
func (w *Worker) sendStatus(status Status, format string, args ...any) {
	if w.status == nil {
		return
	}
	update := StatusUpdate{
		WorkerID:  w.ID,
		Scenario:  w.Scenario.Name,
		Status:    status,
		Message:   fmt.Sprintf(format, args...),
		Timestamp: time.Now(),
	}
	select {
	case w.status <- update:
	default:
		logging.Debug("Worker", "%s: status channel full, dropped %s", w.ID, status)
	}
}

func (w *Worker) cleanup() {
	if w.sess != nil {
		if err := w.sess.Close(); err != nil {
			logging.Debug("Worker", "%s: session close failed: %v", w.ID, err)
		}
	}
	if w.state != nil {
		w.state.CompleteCurrentStep()
		if err := w.state.Save(); err != nil {
			logging.Debug("Worker", "%s: final state save failed: %v", w.ID, err)
		}
	}
	w.sendStatus(StatusCleanup, "Cleaning up resources")
}

// sendFinalResult folds the session state into the result and delivers it.
func (w *Worker) sendFinalResult() {
	if w.state != nil {
		for _, cp := range w.state.Checkpoints {
			w.result.Checkpoints = append(w.result.Checkpoints, cp.Name)
		}
		w.result.Findings = append(w.result.Findings, w.state.Findings...)

		testData := map[string][]string{}
		for category, items := range w.state.TestData {
			keys := make([]string, 0, len(items))
			for k := range items {
				keys = append(keys, k)
			}
			testData[category] = keys
		}
		w.result.Metrics["test_data"] = testData
		w.result.Metrics["cache_hit_rate"] = cacheHitRatio(w.state)
	}

	if w.results != nil {
		w.results <- w.result
	}
}

// cacheHitRatio is the share of cache entries that were hit at least once.
func cacheHitRatio(st *session.State) float64 {
	if len(st.APICache) == 0 {
		return 0
	}
	hits := 0
	for _, entry := range st.APICache {
		if entry.HitCount > 0 {
			hits++
		}
	}
	return float64(hits) / float64(len(st.APICache))
}
