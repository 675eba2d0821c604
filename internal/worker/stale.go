package worker

import (
	"errors"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"debugctl/pkg/logging"
)

// CleanupStaleWorkers kills script processes left behind by previous parallel
// runs. Stale workers are identified by their command line: an interpreter
// executing a script out of one of the parallel test directories.
//
// Called at the start of a run; best effort, cleanup failures never block
// execution. Returns the number of processes signalled.
func CleanupStaleWorkers() int {
	currentPID := os.Getpid()

	cmd := exec.Command("pgrep", "-f", `(python3|node|bash) .*(tests/parallel|test_scripts)/`)
	output, err := cmd.Output()
	if err != nil {
		// pgrep exits 1 when nothing matches
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			logging.Debug("Worker", "no stale worker processes found")
			return 0
		}
		logging.Debug("Worker", "could not check for stale processes: %v", err)
		return 0
	}

	killed := 0
	for _, line := range strings.Split(strings.TrimSpace(string(output)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pid, err := strconv.Atoi(line)
		if err != nil || pid == currentPID {
			continue
		}

		process, err := os.FindProcess(pid)
		if err != nil {
			continue
		}
		if err := process.Signal(syscall.SIGTERM); err != nil {
			logging.Debug("Worker", "could not signal stale PID %d: %v", pid, err)
			continue
		}
		killed++
		logging.Debug("Worker", "killed stale worker process PID %d", pid)
	}

	if killed > 0 {
		logging.Info("Worker", "cleaned up %d stale worker process(es)", killed)
	}
	return killed
}
