package config

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrPortsAlreadyAllocated is returned when a worker that already holds
	// ports requests another allocation.
	ErrPortsAlreadyAllocated = errors.New("ports already allocated for worker")
	// ErrPortRangeExhausted is returned when the configured port range has no
	// ports left.
	ErrPortRangeExhausted = errors.New("port range exhausted")
)

// PortAllocator hands out exclusive ports from a fixed range. The cursor only
// moves forward; released ports are not reused within a run, which keeps two
// workers from ever sharing a port even across release races.
type PortAllocator struct {
	mu        sync.Mutex
	basePort  int
	portRange int
	nextPort  int
	allocated map[string][]int
}

// NewPortAllocator creates an allocator over [basePort, basePort+portRange).
func NewPortAllocator(basePort, portRange int) *PortAllocator {
	return &PortAllocator{
		basePort:  basePort,
		portRange: portRange,
		nextPort:  basePort,
		allocated: map[string][]int{},
	}
}

// Allocate reserves count consecutive ports for workerID. On failure nothing
// is recorded and the cursor is left unchanged.
func (a *PortAllocator) Allocate(workerID string, count int) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.allocated[workerID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrPortsAlreadyAllocated, workerID)
	}
	if a.nextPort+count > a.basePort+a.portRange {
		return nil, fmt.Errorf("%w: need %d, %d left", ErrPortRangeExhausted,
			count, a.basePort+a.portRange-a.nextPort)
	}

	ports := make([]int, count)
	for i := range ports {
		ports[i] = a.nextPort + i
	}
	a.nextPort += count
	a.allocated[workerID] = ports
	return ports, nil
}

// Release frees the ports held by workerID. Releasing an unknown worker is a
// no-op.
func (a *PortAllocator) Release(workerID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.allocated, workerID)
}

// Ports returns the ports currently held by workerID.
func (a *PortAllocator) Ports(workerID string) ([]int, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	ports, ok := a.allocated[workerID]
	return ports, ok
}

// ActiveWorkers returns the IDs currently holding ports, sorted.
func (a *PortAllocator) ActiveWorkers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	workers := make([]string, 0, len(a.allocated))
	for id := range a.allocated {
		workers = append(workers, id)
	}
	sort.Strings(workers)
	return workers
}
