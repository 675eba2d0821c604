package aggregator

import (
	"time"

	"debugctl/internal/session"
)

// ErrorCount is one error message with the number of workers reporting it.
type ErrorCount struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ErrorOccurrence records where a categorized error showed up: either a
// worker's final error or a matching log line.
type ErrorOccurrence struct {
	Scenario string `json:"scenario"`
	Error    string `json:"error,omitempty"`
	Log      string `json:"log,omitempty"`
}

// CommonFinding is a cluster of near-duplicate findings across workers.
type CommonFinding struct {
	Description string   `json:"description"`
	Count       int      `json:"count"`
	Scenarios   []string `json:"scenarios"`
	Evidence    []string `json:"evidence,omitempty"`
}

// MetricStats summarizes one numeric metric collected across workers.
type MetricStats struct {
	Min    float64   `json:"min"`
	Max    float64   `json:"max"`
	Avg    float64   `json:"avg"`
	Values []float64 `json:"values"`
}

// ScenarioSummary is the per-scenario entry in the aggregated results.
type ScenarioSummary struct {
	Success     bool          `json:"success"`
	Duration    time.Duration `json:"duration"`
	Error       string        `json:"error,omitempty"`
	WorkerID    string        `json:"worker_id"`
	SessionID   string        `json:"session_id,omitempty"`
	Checkpoints []string      `json:"checkpoints"`
	Artifacts   []string      `json:"artifacts"`
}

// TimelineEvent is one entry in the cross-worker execution timeline.
// Checkpoint events carry the worker's start time as an approximation, since
// results only record checkpoint names.
type TimelineEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	Event      string    `json:"event"`
	Scenario   string    `json:"scenario"`
	WorkerID   string    `json:"worker_id"`
	Checkpoint string    `json:"checkpoint,omitempty"`
	Success    *bool     `json:"success,omitempty"`
}

// AggregatedResults is the synthesized outcome of a parallel run.
type AggregatedResults struct {
	TotalScenarios      int     `json:"total_scenarios"`
	SuccessfulScenarios int     `json:"successful_scenarios"`
	FailedScenarios     int     `json:"failed_scenarios"`
	SuccessRate         float64 `json:"success_rate"`

	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
	// MinDuration is 0 when no worker reported a duration
	MinDuration time.Duration `json:"min_duration"`
	MaxDuration time.Duration `json:"max_duration"`

	CommonErrors  []ErrorCount                 `json:"common_errors"`
	ErrorPatterns map[string][]ErrorOccurrence `json:"error_patterns"`

	CommonFindings map[string][]CommonFinding `json:"common_findings"`
	RootCauses     []session.Finding          `json:"root_causes"`

	PerformanceMetrics map[string]MetricStats `json:"performance_metrics"`
	TestDataUsage      map[string]int         `json:"test_data_usage"`

	ScenarioResults map[string]ScenarioSummary `json:"scenario_results"`
	Timeline        []TimelineEvent            `json:"timeline"`

	Recommendations []string `json:"recommendations"`
}

func newAggregatedResults() *AggregatedResults {
	return &AggregatedResults{
		CommonErrors:       []ErrorCount{},
		ErrorPatterns:      map[string][]ErrorOccurrence{},
		CommonFindings:     map[string][]CommonFinding{},
		RootCauses:         []session.Finding{},
		PerformanceMetrics: map[string]MetricStats{},
		TestDataUsage:      map[string]int{},
		ScenarioResults:    map[string]ScenarioSummary{},
		Timeline:           []TimelineEvent{},
		Recommendations:    []string{},
	}
}
