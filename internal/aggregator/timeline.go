package aggregator

import (
	"sort"

	"debugctl/internal/worker"
)

// buildTimeline merges start, end and checkpoint events from all workers
// into one chronological view. Checkpoints use the worker's start time since
// results record only checkpoint names; the relative ordering within a worker
// is preserved by the stable sort.
func buildTimeline(results []worker.Result) []TimelineEvent {
	var events []TimelineEvent

	for _, r := range results {
		if !r.StartTime.IsZero() {
			events = append(events, TimelineEvent{
				Timestamp: r.StartTime,
				Event:     "start",
				Scenario:  r.ScenarioName,
				WorkerID:  r.WorkerID,
			})
		}

		if !r.EndTime.IsZero() {
			success := r.Success
			events = append(events, TimelineEvent{
				Timestamp: r.EndTime,
				Event:     "end",
				Scenario:  r.ScenarioName,
				WorkerID:  r.WorkerID,
				Success:   &success,
			})
		}

		for _, checkpoint := range r.Checkpoints {
			events = append(events, TimelineEvent{
				Timestamp:  r.StartTime,
				Event:      "checkpoint",
				Checkpoint: checkpoint,
				Scenario:   r.ScenarioName,
				WorkerID:   r.WorkerID,
			})
		}
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Timestamp.Before(events[j].Timestamp)
	})
	return events
}
