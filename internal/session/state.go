package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Finding is a single discovery made while debugging, either emitted by a test
// script or recorded programmatically.
type Finding struct {
	Type          string    `json:"type"`
	Description   string    `json:"description"`
	Evidence      string    `json:"evidence,omitempty"`
	FixSuggestion string    `json:"fix_suggestion,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Checkpoint marks a named point in a debugging run.
type Checkpoint struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CacheEntry stores one cached API response together with its hit count.
type CacheEntry struct {
	Value    any       `json:"value,omitempty"`
	HitCount int       `json:"hit_count"`
	CachedAt time.Time `json:"cached_at"`
}

// FailedAttempt records an approach that was tried and did not work, so that
// later workers and reports do not repeat it.
type FailedAttempt struct {
	Operation string         `json:"operation"`
	Error     string         `json:"error"`
	Context   map[string]any `json:"context,omitempty"`
	Impact    string         `json:"impact,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

type currentStep struct {
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	StartedAt   time.Time `json:"started_at"`
}

// State is the persistent working memory of one session. It accumulates
// checkpoints, findings, shared test data and cached API responses, and can be
// saved to and loaded from a JSON file in the session directory.
//
// State is owned by a single worker goroutine and is not safe for concurrent
// use.
type State struct {
	SessionID      string                    `json:"session_id"`
	Metadata       map[string]any            `json:"metadata"`
	Checkpoints    []Checkpoint              `json:"checkpoints"`
	Findings       []Finding                 `json:"findings"`
	TestData       map[string]map[string]any `json:"test_data"`
	APICache       map[string]CacheEntry     `json:"api_cache"`
	FailedAttempts []FailedAttempt           `json:"failed_attempts"`
	CurrentStep    *currentStep              `json:"current_step,omitempty"`
	CompletedSteps []string                  `json:"completed_steps"`

	dir string
}

// NewState creates an empty state store for the given session ID, persisted
// under dir.
func NewState(sessionID, dir string) *State {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "debugctl-sessions")
	}
	return &State{
		SessionID:      sessionID,
		Metadata:       map[string]any{},
		Checkpoints:    []Checkpoint{},
		Findings:       []Finding{},
		TestData:       map[string]map[string]any{},
		APICache:       map[string]CacheEntry{},
		FailedAttempts: []FailedAttempt{},
		CompletedSteps: []string{},
		dir:            dir,
	}
}

// LoadState reads a previously saved state file for sessionID from dir.
func LoadState(sessionID, dir string) (*State, error) {
	path := filepath.Join(dir, sessionID+"-state.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	st := NewState(sessionID, dir)
	if err := json.Unmarshal(data, st); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}
	st.dir = dir
	return st, nil
}

// AddFinding records a discovery. Evidence and fix may be empty.
func (s *State) AddFinding(findingType, description, evidence, fix string) {
	s.Findings = append(s.Findings, Finding{
		Type:          findingType,
		Description:   description,
		Evidence:      evidence,
		FixSuggestion: fix,
		Timestamp:     time.Now(),
	})
}

// CreateCheckpoint records a named milestone.
func (s *State) CreateCheckpoint(name, description string) {
	s.Checkpoints = append(s.Checkpoints, Checkpoint{
		Name:        name,
		Description: description,
		CreatedAt:   time.Now(),
	})
}

// SetCurrentStep marks the step the worker is currently performing.
func (s *State) SetCurrentStep(name, description string) {
	s.CurrentStep = &currentStep{
		Name:        name,
		Description: description,
		StartedAt:   time.Now(),
	}
}

// CompleteCurrentStep moves the current step to the completed list.
func (s *State) CompleteCurrentStep() {
	if s.CurrentStep == nil {
		return
	}
	s.CompletedSteps = append(s.CompletedSteps, s.CurrentStep.Name)
	s.CurrentStep = nil
}

// AddTestData stores a shared value under a category, e.g. credentials or
// created entity IDs that other steps need.
func (s *State) AddTestData(category, key string, value any) {
	if s.TestData[category] == nil {
		s.TestData[category] = map[string]any{}
	}
	s.TestData[category][key] = value
}

// CacheAPIResponse stores an API response for reuse within the session.
func (s *State) CacheAPIResponse(key string, value any) {
	s.APICache[key] = CacheEntry{Value: value, CachedAt: time.Now()}
}

// CachedAPIResponse returns a cached response and records the hit.
func (s *State) CachedAPIResponse(key string) (any, bool) {
	entry, ok := s.APICache[key]
	if !ok {
		return nil, false
	}
	entry.HitCount++
	s.APICache[key] = entry
	return entry.Value, true
}

// CacheHitRate returns the ratio of cache hits to total cache lookups
// (hits plus the initial miss that populated each entry).
func (s *State) CacheHitRate() float64 {
	hits := 0
	for _, entry := range s.APICache {
		hits += entry.HitCount
	}
	total := hits + len(s.APICache)
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// RecordFailedAttempt notes an approach that did not work.
func (s *State) RecordFailedAttempt(operation, errMsg string, context map[string]any, impact string) {
	s.FailedAttempts = append(s.FailedAttempts, FailedAttempt{
		Operation: operation,
		Error:     errMsg,
		Context:   context,
		Impact:    impact,
		Timestamp: time.Now(),
	})
}

// File returns the path the state is saved to.
func (s *State) File() string {
	return filepath.Join(s.dir, s.SessionID+"-state.json")
}

// Save writes the state to its JSON file.
func (s *State) Save() error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session state: %w", err)
	}
	if err := os.WriteFile(s.File(), data, 0644); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}
