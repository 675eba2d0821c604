package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Modules recognised in structured log prefixes.
var Modules = []string{"UI", "API", "DB", "LAMBDA", "AUTH"}

// Categories recognised in structured log prefixes.
var Categories = []string{"STATE", "FLOW", "ERROR", "TIMING", "DATA", "VALIDATE"}

// Session identifies one debugging run. Every session owns a metadata file in
// the session directory so that runs can be correlated with the log prefixes
// they injected into the application under test.
type Session struct {
	// ID is the unique identifier for this session
	ID string
	// IssueType is the human-supplied classification the session was opened for
	IssueType string
	// StartTime when the session was created
	StartTime time.Time

	dir         string
	file        string
	logPrefixes []string
	closed      bool
}

type sessionMetadata struct {
	SessionID   string   `json:"session_id"`
	StartTime   string   `json:"start_time"`
	EndTime     string   `json:"end_time,omitempty"`
	IssueType   string   `json:"issue_type,omitempty"`
	LogPrefixes []string `json:"log_prefixes"`
	Status      string   `json:"status"`
	Duration    string   `json:"duration,omitempty"`
}

// New creates a session with a readable unique ID and persists its metadata
// file under dir. An empty dir falls back to a debugctl-sessions directory in
// the system temp dir.
func New(issueType, dir string) (*Session, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "debugctl-sessions")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	s := &Session{
		ID:        generateID(issueType),
		IssueType: issueType,
		StartTime: time.Now(),
		dir:       dir,
	}
	s.file = filepath.Join(dir, s.ID+".json")

	if err := s.save("active", nil); err != nil {
		return nil, err
	}
	return s, nil
}

// generateID builds a readable session ID: an issue-type prefix plus a short
// random suffix for uniqueness.
func generateID(issueType string) string {
	prefix := "DBG"
	if issueType != "" {
		cleaned := strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' {
				return r
			}
			return -1
		}, issueType)
		if len(cleaned) >= 4 {
			cleaned = cleaned[:4]
		}
		if cleaned != "" {
			prefix = strings.ToUpper(cleaned)
		}
	}
	return fmt.Sprintf("%s-%s", prefix, uuid.NewString()[:8])
}

// Prefix returns a standardized log prefix for the given module and category,
// e.g. [DEBUG-AUTH-1a2b3c4d-API-FLOW]. Unknown modules map to MISC and unknown
// categories to FLOW. Prefixes are tracked in the session metadata.
func (s *Session) Prefix(module, category string) string {
	module = strings.ToUpper(module)
	category = strings.ToUpper(category)

	if !contains(Modules, module) {
		module = "MISC"
	}
	if !contains(Categories, category) {
		category = "FLOW"
	}

	prefix := fmt.Sprintf("[DEBUG-%s-%s-%s]", s.ID, module, category)
	if !contains(s.logPrefixes, prefix) {
		s.logPrefixes = append(s.logPrefixes, prefix)
		// Best effort; the prefix is still usable when persistence fails.
		_ = s.save("active", nil)
	}
	return prefix
}

// Close marks the session as completed and records its duration. Closing an
// already closed session is a no-op.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	end := time.Now()
	return s.save("completed", &end)
}

// File returns the path of the session metadata file.
func (s *Session) File() string {
	return s.file
}

func (s *Session) save(status string, end *time.Time) error {
	meta := sessionMetadata{
		SessionID:   s.ID,
		StartTime:   s.StartTime.Format(time.RFC3339Nano),
		IssueType:   s.IssueType,
		LogPrefixes: s.logPrefixes,
		Status:      status,
	}
	if meta.LogPrefixes == nil {
		meta.LogPrefixes = []string{}
	}
	if end != nil {
		meta.EndTime = end.Format(time.RFC3339Nano)
		meta.Duration = end.Sub(s.StartTime).String()
	}

	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session metadata: %w", err)
	}
	if err := os.WriteFile(s.file, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func contains(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}
