package monitor

import (
	"fmt"
	"time"

	"debugctl/internal/worker"
)

// WorkerStatus tracks the latest known state of one worker.
type WorkerStatus struct {
	WorkerID     string
	ScenarioName string
	Status       worker.Status
	Message      string
	StartTime    time.Time
	LastUpdate   time.Time
	Error        string
}

func newWorkerStatus(workerID, scenarioName string) *WorkerStatus {
	return &WorkerStatus{
		WorkerID:     workerID,
		ScenarioName: scenarioName,
		Status:       "pending",
		Message:      "Waiting to start",
		LastUpdate:   time.Now(),
	}
}

// Update applies a status event to the tracked state.
func (w *WorkerStatus) Update(status worker.Status, message string) {
	w.Status = status
	w.Message = message
	w.LastUpdate = time.Now()

	if status == worker.StatusStarting && w.StartTime.IsZero() {
		w.StartTime = time.Now()
	}
	if status == worker.StatusFailed {
		w.Error = message
	}
}

// Elapsed formats the time since the worker started as m:ss.
func (w *WorkerStatus) Elapsed() string {
	if w.StartTime.IsZero() {
		return "0:00"
	}
	elapsed := int(time.Since(w.StartTime).Seconds())
	return fmt.Sprintf("%d:%02d", elapsed/60, elapsed%60)
}

func (w *WorkerStatus) active() bool {
	switch w.Status {
	case worker.StatusStarting, worker.StatusRunning, worker.StatusExecuting:
		return true
	}
	return false
}

// Stats summarizes the run for the dashboard header and final summary line.
type Stats struct {
	Total     int
	Completed int
	Failed    int
	Running   int
	Elapsed   time.Duration
}
