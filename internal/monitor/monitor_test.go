package monitor

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugctl/internal/worker"
)

func update(workerID, scenario string, status worker.Status, message string) worker.StatusUpdate {
	return worker.StatusUpdate{
		WorkerID:  workerID,
		Scenario:  scenario,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func TestWorkerStatusTransitions(t *testing.T) {
	ws := newWorkerStatus("worker_0", "login")
	assert.Equal(t, worker.Status("pending"), ws.Status)
	assert.Equal(t, "0:00", ws.Elapsed())

	ws.Update(worker.StatusStarting, "Initializing login")
	assert.False(t, ws.StartTime.IsZero())
	started := ws.StartTime

	ws.Update(worker.StatusStarting, "again")
	assert.Equal(t, started, ws.StartTime, "start time set only once")

	ws.Update(worker.StatusFailed, "boom")
	assert.Equal(t, "boom", ws.Error)
}

func TestSimpleModePrintsEachUpdate(t *testing.T) {
	updates := make(chan worker.StatusUpdate, 8)
	var buf bytes.Buffer
	m := New(updates, 2, &buf, true)

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()

	updates <- update("worker_0", "login", worker.StatusStarting, "Initializing login")
	updates <- update("worker_0", "login", worker.StatusCompleted, "Successfully completed login")
	updates <- update("worker_1", "search", worker.StatusFailed, "Failed: timeout")
	close(updates)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop when channel closed")
	}

	out := buf.String()
	assert.Contains(t, out, "worker_0: login - Initializing login")
	assert.Contains(t, out, "worker_1: search - Failed: timeout")

	stats := m.Snapshot()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Running)
}

func TestStopTerminatesRun(t *testing.T) {
	updates := make(chan worker.StatusUpdate)
	m := New(updates, 1, &bytes.Buffer{}, true)

	done := make(chan struct{})
	go func() {
		m.Run(context.Background())
		close(done)
	}()

	m.Stop()
	m.Stop() // idempotent

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestContextCancelTerminatesRun(t *testing.T) {
	updates := make(chan worker.StatusUpdate)
	m := New(updates, 1, &bytes.Buffer{}, true)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("monitor did not stop on context cancel")
	}
}

func TestSnapshotCountsRunning(t *testing.T) {
	m := New(nil, 3, &bytes.Buffer{}, true)
	m.apply(update("worker_0", "a", worker.StatusExecuting, "running script"))
	m.apply(update("worker_1", "b", worker.StatusRunning, "starting test"))
	m.apply(update("worker_2", "c", worker.StatusCompleted, "done"))

	stats := m.Snapshot()
	assert.Equal(t, 2, stats.Running)
	assert.Equal(t, 1, stats.Completed)
}

func TestDashboardRenderContainsSections(t *testing.T) {
	var buf bytes.Buffer
	m := New(nil, 2, &buf, false)
	m.apply(update("worker_0", "very_long_scenario_name_that_should_be_truncated_here", worker.StatusExecuting, "running"))
	m.render()

	out := buf.String()
	require.NotEmpty(t, out)
	assert.Contains(t, out, "PARALLEL DEBUG MONITOR")
	assert.Contains(t, out, "WORKER STATUS:")
	assert.Contains(t, out, "worker_0")
	assert.Contains(t, out, "...")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "0123456789...", truncate("0123456789abcdef", 10))
}
