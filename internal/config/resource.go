package config

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// ResourceConfig bounds the resources a parallel run may consume.
type ResourceConfig struct {
	// MaxWorkers caps concurrent workers
	MaxWorkers int
	// MaxBrowsersPerWorker caps browser instances a UI worker may open
	MaxBrowsersPerWorker int
	// BasePort is the first port handed out to workers
	BasePort int
	// PortRange is the number of ports available above BasePort
	PortRange int
	// DatabasePoolSize is the shared connection pool hint
	DatabasePoolSize int
	// MemoryLimitPerWorkerMB is the per-worker memory budget
	MemoryLimitPerWorkerMB int
	// CPUCoresPerWorker is the per-worker CPU budget
	CPUCoresPerWorker float64
}

// DefaultResourceConfig returns the standard resource limits. MaxWorkers
// defaults to 75% of the available CPU cores, minimum 1.
func DefaultResourceConfig() ResourceConfig {
	return ResourceConfig{
		MaxWorkers:             defaultMaxWorkers(),
		MaxBrowsersPerWorker:   1,
		BasePort:               3100,
		PortRange:              100,
		DatabasePoolSize:       10,
		MemoryLimitPerWorkerMB: 1024,
		CPUCoresPerWorker:      1.0,
	}
}

func defaultMaxWorkers() int {
	workers := runtime.NumCPU() * 3 / 4
	if workers < 1 {
		workers = 1
	}
	return workers
}

// availableMemoryMB reports available system memory in MB, best effort. It
// returns 0 when the value cannot be determined, in which case memory checks
// are skipped.
func availableMemoryMB() int {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemAvailable:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}
