package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"debugctl/internal/session"
	"debugctl/pkg/logging"
)

func interpreterFor(script string) (string, error) {
	switch strings.ToLower(filepath.Ext(script)) {
	case ".py":
		return "python3", nil
	case ".js":
		return "node", nil
	case ".sh":
		return "bash", nil
	default:
		return "", fmt.Errorf("unsupported script type: %s", script)
	}
}

// executeScript runs the resolved script as a child process with the derived
// environment, bounded by the scenario timeout. Stdout and stderr are
// captured line by line into the result logs, stderr lines tagged, and
// marker lines are parsed for metrics, findings and artifacts.
func (w *Worker) executeScript(parent context.Context, script string, env []string) error {
	w.sendStatus(StatusExecuting, "Running %s", script)

	interpreter, err := interpreterFor(script)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, w.Scenario.Timeout.Std())
	defer cancel()

	cmd := exec.Command(interpreter, script)
	cmd.Env = env
	configureProcAttr(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to execute test script: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to execute test script: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to execute test script: %w", err)
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if err := killProcessGroup(cmd.Process.Pid, syscall.SIGKILL); err != nil {
				logging.Debug("Worker", "%s: kill after timeout failed: %v", w.ID, err)
			}
		case <-done:
		}
	}()

	var mu sync.Mutex
	var stdoutLines, stderrLines []string
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			mu.Lock()
			stdoutLines = append(stdoutLines, scanner.Text())
			mu.Unlock()
		}
	}()
	go func() {
		defer wg.Done()
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			mu.Lock()
			stderrLines = append(stderrLines, scanner.Text())
			mu.Unlock()
		}
	}()

	wg.Wait()
	waitErr := cmd.Wait()
	close(done)

	w.result.Logs = append(w.result.Logs, stdoutLines...)
	for _, line := range stderrLines {
		w.result.Logs = append(w.result.Logs, "STDERR: "+line)
	}
	w.parseOutput(append(stdoutLines, stderrLines...))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("test exceeded timeout of %gs", w.Scenario.Timeout.Std().Seconds())
	}
	if ctx.Err() != nil {
		return fmt.Errorf("test aborted: %w", context.Cause(ctx))
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return fmt.Errorf("test script failed with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("failed to execute test script: %w", waitErr)
	}
	return nil
}

type findingMarker struct {
	Type          string `json:"type"`
	Description   string `json:"description"`
	Evidence      string `json:"evidence"`
	FixSuggestion string `json:"fix_suggestion"`
}

// parseOutput extracts structured markers from script output. Scripts emit
// lines of the form
//
//	METRIC: {"page_load_ms": 420}
//	FINDING: {"type": "root_cause", "description": "..."}
//	ARTIFACT: /tmp/worker_0/screenshot.png
//
// Malformed marker payloads are skipped; markers are best effort and must
// never fail the worker.
func (w *Worker) parseOutput(lines []string) {
	for _, line := range lines {
		if _, payload, ok := strings.Cut(line, "METRIC:"); ok {
			metric := map[string]any{}
			if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &metric); err != nil {
				logging.Debug("Worker", "%s: bad METRIC payload: %v", w.ID, err)
				continue
			}
			for k, v := range metric {
				w.result.Metrics[k] = v
			}
		} else if _, payload, ok := strings.Cut(line, "FINDING:"); ok {
			var finding findingMarker
			if err := json.Unmarshal([]byte(strings.TrimSpace(payload)), &finding); err != nil {
				logging.Debug("Worker", "%s: bad FINDING payload: %v", w.ID, err)
				continue
			}
			w.addFinding(finding)
		} else if _, payload, ok := strings.Cut(line, "ARTIFACT:"); ok {
			if path := strings.TrimSpace(payload); path != "" {
				w.result.Artifacts = append(w.result.Artifacts, path)
			}
		}
	}
}

func (w *Worker) addFinding(f findingMarker) {
	if w.state != nil {
		w.state.AddFinding(f.Type, f.Description, f.Evidence, f.FixSuggestion)
		return
	}
	w.result.Findings = append(w.result.Findings, session.Finding{
		Type:          f.Type,
		Description:   f.Description,
		Evidence:      f.Evidence,
		FixSuggestion: f.FixSuggestion,
		Timestamp:     time.Now(),
	})
}
