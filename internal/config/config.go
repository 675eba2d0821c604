// Package config holds the resource limits, port allocation and environment
// derivation for a parallel debugging run.
package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"debugctl/internal/scenario"
)

// DebugConfig is the root configuration for a parallel run: resource limits,
// the ordered scenario list and the port allocation table.
type DebugConfig struct {
	Resources ResourceConfig
	Scenarios []scenario.TestScenario

	ports *PortAllocator
}

// New creates a DebugConfig with the given resource limits.
func New(resources ResourceConfig) *DebugConfig {
	return &DebugConfig{
		Resources: resources,
		ports:     NewPortAllocator(resources.BasePort, resources.PortRange),
	}
}

// AddScenario appends a scenario to the run. Order is preserved and
// duplicates are not rejected; Validate reports duplicate names as a warning.
func (c *DebugConfig) AddScenario(s scenario.TestScenario) {
	c.Scenarios = append(c.Scenarios, s)
}

// AddScenarios appends multiple scenarios in order.
func (c *DebugConfig) AddScenarios(scenarios []scenario.TestScenario) {
	c.Scenarios = append(c.Scenarios, scenarios...)
}

// Ports exposes the run's port allocator.
func (c *DebugConfig) Ports() *PortAllocator {
	return c.ports
}

// WorkerEnv derives the full environment for a worker process: the parent
// environment, the worker's allocated ports as APP_PORT/API_PORT, the
// scenario's own variables, and the parallel-run markers.
func (c *DebugConfig) WorkerEnv(workerID string, s scenario.TestScenario) []string {
	env := environMap()

	if ports, ok := c.ports.Ports(workerID); ok && len(ports) > 0 {
		env["APP_PORT"] = strconv.Itoa(ports[0])
		if len(ports) > 1 {
			env["API_PORT"] = strconv.Itoa(ports[1])
		} else {
			env["API_PORT"] = strconv.Itoa(ports[0] + 1)
		}
	}

	for k, v := range s.EnvironmentVars {
		env[k] = v
	}

	env["PARALLEL_WORKER_ID"] = workerID
	env["PARALLEL_SCENARIO"] = s.Name
	env["DEBUG_MODE"] = "parallel"

	return flattenEnv(env)
}

// Validate performs non-fatal configuration checks and returns warnings. The
// memory check is skipped silently when system memory cannot be queried.
func (c *DebugConfig) Validate() []string {
	var warnings []string

	portsNeeded := len(c.Scenarios) * 2
	if portsNeeded > c.Resources.PortRange {
		warnings = append(warnings, fmt.Sprintf(
			"port range (%d) may be insufficient for %d scenarios",
			c.Resources.PortRange, len(c.Scenarios)))
	}

	memoryNeeded := c.Resources.MaxWorkers * c.Resources.MemoryLimitPerWorkerMB
	if available := availableMemoryMB(); available > 0 {
		if float64(memoryNeeded) > float64(available)*0.8 {
			warnings = append(warnings, fmt.Sprintf(
				"memory requirements (%dMB) exceed 80%% of available memory (%dMB)",
				memoryNeeded, available))
		}
	}

	counts := map[string]int{}
	for _, s := range c.Scenarios {
		counts[s.Name]++
	}
	var duplicates []string
	for name, n := range counts {
		if n > 1 {
			duplicates = append(duplicates, name)
		}
	}
	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		warnings = append(warnings, fmt.Sprintf(
			"duplicate scenario names found: %s", strings.Join(duplicates, ", ")))
	}

	return warnings
}

func environMap() map[string]string {
	env := map[string]string{}
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}

func flattenEnv(env map[string]string) []string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	flat := make([]string, 0, len(env))
	for _, k := range keys {
		flat = append(flat, k+"="+env[k])
	}
	return flat
}
