// Package monitor renders live progress of a parallel run from the worker
// status channel, either as a redrawing terminal dashboard or as plain
// line-per-event output for non-terminal environments.
package monitor

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"debugctl/internal/worker"
)

const refreshInterval = 500 * time.Millisecond

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
	pendingStyle  = dimStyle
	startingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	runningStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	workingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	passedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func statusStyle(s worker.Status) lipgloss.Style {
	switch s {
	case worker.StatusStarting:
		return startingStyle
	case worker.StatusRunning:
		return runningStyle
	case worker.StatusExecuting:
		return workingStyle
	case worker.StatusCompleted:
		return passedStyle
	case worker.StatusFailed:
		return failedStyle
	case worker.StatusCleanup:
		return dimStyle
	default:
		return pendingStyle
	}
}

// Monitor consumes worker status updates and renders progress. In dashboard
// mode the terminal is redrawn every 500ms; in simple mode each update is
// printed as one line.
type Monitor struct {
	mu        sync.Mutex
	out       io.Writer
	updates   <-chan worker.StatusUpdate
	workers   map[string]*WorkerStatus
	total     int
	width     int
	simple    bool
	startTime time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a monitor over the given status channel. total is the number of
// scenarios in the run; simple selects line-per-event output.
func New(updates <-chan worker.StatusUpdate, total int, out io.Writer, simple bool) *Monitor {
	return &Monitor{
		out:       out,
		updates:   updates,
		workers:   map[string]*WorkerStatus{},
		total:     total,
		width:     80,
		simple:    simple,
		startTime: time.Now(),
		stop:      make(chan struct{}),
	}
}

// Run consumes updates and renders until the context is cancelled, Stop is
// called, or the status channel closes.
func (m *Monitor) Run(ctx context.Context) {
	if !m.simple {
		fmt.Fprint(m.out, "\033[?25l\033[2J") // hide cursor, clear screen
		defer fmt.Fprint(m.out, "\033[?25h")  // show cursor
	}

	ticker := time.NewTicker(refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stop:
			return
		case update, ok := <-m.updates:
			if !ok {
				return
			}
			m.apply(update)
			if m.simple {
				m.printUpdate(update)
			}
		case <-ticker.C:
			if !m.simple {
				m.render()
			}
		}
	}
}

// Stop terminates the render loop. Safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) apply(update worker.StatusUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ws, ok := m.workers[update.WorkerID]
	if !ok {
		ws = newWorkerStatus(update.WorkerID, update.Scenario)
		m.workers[update.WorkerID] = ws
	}
	ws.Update(update.Status, update.Message)
}

// Snapshot returns current run statistics.
func (m *Monitor) Snapshot() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsLocked()
}

func (m *Monitor) statsLocked() Stats {
	stats := Stats{Total: m.total, Elapsed: time.Since(m.startTime)}
	for _, w := range m.workers {
		switch {
		case w.Status == worker.StatusCompleted:
			stats.Completed++
		case w.Status == worker.StatusFailed:
			stats.Failed++
		case w.active():
			stats.Running++
		}
	}
	return stats
}

func (m *Monitor) printUpdate(update worker.StatusUpdate) {
	fmt.Fprintf(m.out, "[%s] %s: %s - %s\n",
		update.Timestamp.Format("15:04:05"), update.WorkerID, update.Scenario, update.Message)
}

func (m *Monitor) render() {
	m.mu.Lock()
	defer m.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("\033[H") // cursor home

	stats := m.statsLocked()
	m.renderHeader(&sb, stats)
	m.renderProgressBar(&sb, stats)
	m.renderWorkers(&sb)
	sb.WriteString("\n" + strings.Repeat("=", m.width) + "\n")
	sb.WriteString(dimStyle.Render("Press Ctrl+C to stop") + "\n")

	fmt.Fprint(m.out, sb.String())
}

func (m *Monitor) renderHeader(sb *strings.Builder, stats Stats) {
	title := titleStyle.Render("PARALLEL DEBUG MONITOR")
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, title) + "\n")
	sb.WriteString(strings.Repeat("=", m.width) + "\n")

	elapsed := int(stats.Elapsed.Seconds())
	line := fmt.Sprintf("Total: %d | %s | %s | %s | Time: %d:%02d",
		stats.Total,
		passedStyle.Render(fmt.Sprintf("Completed: %d", stats.Completed)),
		failedStyle.Render(fmt.Sprintf("Failed: %d", stats.Failed)),
		workingStyle.Render(fmt.Sprintf("Running: %d", stats.Running)),
		elapsed/60, elapsed%60)
	sb.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, line) + "\n")
	sb.WriteString(strings.Repeat("=", m.width) + "\n\n")
}

func (m *Monitor) renderProgressBar(sb *strings.Builder, stats Stats) {
	done := stats.Completed + stats.Failed
	progress := 0.0
	if stats.Total > 0 {
		progress = float64(done) / float64(stats.Total)
	}

	barWidth := m.width - 20
	filled := int(float64(barWidth) * progress)
	bar := fmt.Sprintf("[%s%s] %.1f%%",
		strings.Repeat("#", filled),
		strings.Repeat("-", barWidth-filled),
		progress*100)

	style := runningStyle
	if stats.Failed > 0 {
		style = workingStyle
	} else if progress >= 1.0 {
		style = passedStyle
	}
	sb.WriteString(style.Render(bar) + "\n\n")
}

func (m *Monitor) renderWorkers(sb *strings.Builder) {
	sb.WriteString(titleStyle.Render("WORKER STATUS:") + "\n")
	sb.WriteString(strings.Repeat("-", m.width) + "\n")

	// Active workers first, finished ones last, stable by worker ID.
	sorted := make([]*WorkerStatus, 0, len(m.workers))
	for _, w := range m.workers {
		sorted = append(sorted, w)
	}
	sort.Slice(sorted, func(i, j int) bool {
		ri, rj := workerRank(sorted[i]), workerRank(sorted[j])
		if ri != rj {
			return ri < rj
		}
		return sorted[i].WorkerID < sorted[j].WorkerID
	})

	for _, w := range sorted {
		scenario := truncate(w.ScenarioName, 30)
		message := truncate(w.Message, max(10, m.width-60))
		line := fmt.Sprintf("%-12s %-35s [%5s] %s", w.WorkerID, scenario, w.Elapsed(), message)
		sb.WriteString("\033[2K" + statusStyle(w.Status).Render(line) + "\n")
	}
}

func workerRank(w *WorkerStatus) int {
	switch w.Status {
	case worker.StatusCompleted:
		return 1
	case worker.StatusFailed:
		return 2
	default:
		return 0
	}
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
