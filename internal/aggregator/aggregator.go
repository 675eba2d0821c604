// Package aggregator collects worker results and synthesizes them into
// cross-scenario statistics, error patterns, finding clusters, a timeline and
// actionable recommendations.
package aggregator

import (
	"fmt"
	"time"

	"debugctl/internal/session"
	"debugctl/internal/worker"
	"debugctl/pkg/logging"
)

// Aggregator accumulates worker results for one parallel run.
type Aggregator struct {
	masterSessionID string
	sessionDir      string
	results         []worker.Result
}

// New creates an aggregator bound to the run's master session. sessionDir is
// where the master session state is persisted; empty uses the default session
// directory.
func New(masterSessionID, sessionDir string) *Aggregator {
	return &Aggregator{
		masterSessionID: masterSessionID,
		sessionDir:      sessionDir,
	}
}

// AddResult records one worker result.
func (a *Aggregator) AddResult(r worker.Result) {
	a.results = append(a.results, r)
}

// Results returns the raw results collected so far.
func (a *Aggregator) Results() []worker.Result {
	return a.results
}

// Aggregate analyzes everything collected so far. It rebuilds the aggregate
// from scratch each call, so calling it repeatedly as results stream in is
// safe and always consistent.
func (a *Aggregator) Aggregate() *AggregatedResults {
	agg := newAggregatedResults()
	if len(a.results) == 0 {
		return agg
	}

	a.basicStats(agg)
	agg.CommonErrors, agg.ErrorPatterns = analyzeErrors(a.results)
	agg.CommonFindings, agg.RootCauses = analyzeFindings(a.results)
	agg.PerformanceMetrics, agg.TestDataUsage = analyzePerformance(a.results)
	agg.Timeline = buildTimeline(a.results)
	agg.Recommendations = generateRecommendations(agg)

	a.saveToMasterSession(agg)
	return agg
}

func (a *Aggregator) basicStats(agg *AggregatedResults) {
	agg.TotalScenarios = len(a.results)

	first := true
	for _, r := range a.results {
		if r.Success {
			agg.SuccessfulScenarios++
		} else {
			agg.FailedScenarios++
		}

		if r.Duration > 0 {
			agg.TotalDuration += r.Duration
			if first || r.Duration < agg.MinDuration {
				agg.MinDuration = r.Duration
			}
			if r.Duration > agg.MaxDuration {
				agg.MaxDuration = r.Duration
			}
			first = false
		}

		agg.ScenarioResults[r.ScenarioName] = ScenarioSummary{
			Success:     r.Success,
			Duration:    r.Duration,
			Error:       r.Error,
			WorkerID:    r.WorkerID,
			SessionID:   r.SessionID,
			Checkpoints: r.Checkpoints,
			Artifacts:   r.Artifacts,
		}
	}

	agg.SuccessRate = float64(agg.SuccessfulScenarios) / float64(agg.TotalScenarios)
	agg.AverageDuration = agg.TotalDuration / time.Duration(agg.TotalScenarios)
}

// saveToMasterSession folds the aggregate into the run's master session state
// so later sessions can pick up where this run left off. Best effort.
func (a *Aggregator) saveToMasterSession(agg *AggregatedResults) {
	if a.masterSessionID == "" {
		return
	}

	state := session.NewState(a.masterSessionID, a.sessionDir)
	state.Metadata["parallel_execution"] = map[string]any{
		"aggregated_at": time.Now().Format(time.RFC3339Nano),
		"total_workers": len(a.results),
		"summary":       agg,
	}
	state.CreateCheckpoint("parallel_execution_complete",
		fmt.Sprintf("Completed parallel execution of %d scenarios", agg.TotalScenarios))

	for _, rc := range agg.RootCauses {
		state.AddFinding("root_cause",
			fmt.Sprintf("[Aggregated] %s", rc.Description),
			rc.Evidence, rc.FixSuggestion)
	}

	if err := state.Save(); err != nil {
		logging.Warn("Aggregator", "could not save master session state: %v", err)
	}
}
