package worker

import (
	"time"

	"debugctl/internal/session"
)

// Status is the lifecycle phase a worker reports. Transitions are linear:
// starting, running, executing, then completed or failed, then cleanup.
type Status string

const (
	StatusStarting  Status = "starting"
	StatusRunning   Status = "running"
	StatusExecuting Status = "executing"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCleanup   Status = "cleanup"
)

// StatusUpdate is a fire-and-forget progress event for the live monitor.
type StatusUpdate struct {
	WorkerID  string    `json:"worker_id"`
	Scenario  string    `json:"scenario"`
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Result is the single structured outcome a worker reports for its scenario.
type Result struct {
	WorkerID     string            `json:"worker_id"`
	ScenarioName string            `json:"scenario_name"`
	Success      bool              `json:"success"`
	StartTime    time.Time         `json:"start_time"`
	EndTime      time.Time         `json:"end_time"`
	Duration     time.Duration     `json:"duration"`
	Error        string            `json:"error,omitempty"`
	Stack        string            `json:"stack,omitempty"`
	Logs         []string          `json:"logs"`
	Findings     []session.Finding `json:"findings"`
	Metrics      map[string]any    `json:"metrics"`
	Artifacts    []string          `json:"artifacts"`
	SessionID    string            `json:"session_id,omitempty"`
	Checkpoints  []string          `json:"checkpoints"`
}

// NewResult creates an empty result with the start time set.
func NewResult(workerID, scenarioName string) Result {
	return Result{
		WorkerID:     workerID,
		ScenarioName: scenarioName,
		StartTime:    time.Now(),
		Logs:         []string{},
		Findings:     []session.Finding{},
		Metrics:      map[string]any{},
		Artifacts:    []string{},
		Checkpoints:  []string{},
	}
}

// complete marks the result finished and records its duration.
func (r *Result) complete(success bool, errMsg string) {
	r.Success = success
	r.Error = errMsg
	r.EndTime = time.Now()
	r.Duration = r.EndTime.Sub(r.StartTime)
}
