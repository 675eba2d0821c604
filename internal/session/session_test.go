package session

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSessionCreatesMetadataFile(t *testing.T) {
	dir := t.TempDir()

	s, err := New("auth-loop", dir)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(s.ID, "AUTH-"), "ID should start with issue type prefix, got %s", s.ID)

	data, err := os.ReadFile(s.File())
	require.NoError(t, err)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, s.ID, meta["session_id"])
	assert.Equal(t, "active", meta["status"])
}

func TestSessionIDFallbackPrefix(t *testing.T) {
	s, err := New("", t.TempDir())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(s.ID, "DBG-"))
}

func TestSessionIDsAreUnique(t *testing.T) {
	dir := t.TempDir()
	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		s, err := New("perf", dir)
		require.NoError(t, err)
		assert.False(t, seen[s.ID], "duplicate session ID %s", s.ID)
		seen[s.ID] = true
	}
}

func TestPrefixNormalizesModuleAndCategory(t *testing.T) {
	s, err := New("auth", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "[DEBUG-"+s.ID+"-API-FLOW]", s.Prefix("api", "flow"))
	assert.Equal(t, "[DEBUG-"+s.ID+"-MISC-FLOW]", s.Prefix("frontend", "whatever"))
	assert.Equal(t, "[DEBUG-"+s.ID+"-DB-ERROR]", s.Prefix("DB", "ERROR"))
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := New("auth", t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	data, err := os.ReadFile(s.File())
	require.NoError(t, err)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(data, &meta))
	assert.Equal(t, "completed", meta["status"])
	assert.NotEmpty(t, meta["end_time"])
	assert.NotEmpty(t, meta["duration"])
}

func TestStateSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()

	st := NewState("AUTH-12345678", dir)
	st.CreateCheckpoint("login_started", "beginning login flow")
	st.AddFinding("root_cause", "token expiry not handled", "401 after refresh", "renew before expiry")
	st.AddTestData("credentials", "email", "qa@example.com")
	st.RecordFailedAttempt("direct_db_write", "permission denied", nil, "had to use the API instead")
	require.NoError(t, st.Save())

	loaded, err := LoadState("AUTH-12345678", dir)
	require.NoError(t, err)

	assert.Equal(t, st.SessionID, loaded.SessionID)
	require.Len(t, loaded.Checkpoints, 1)
	assert.Equal(t, "login_started", loaded.Checkpoints[0].Name)
	require.Len(t, loaded.Findings, 1)
	assert.Equal(t, "root_cause", loaded.Findings[0].Type)
	assert.Equal(t, "qa@example.com", loaded.TestData["credentials"]["email"])
	require.Len(t, loaded.FailedAttempts, 1)
	assert.Equal(t, "direct_db_write", loaded.FailedAttempts[0].Operation)
}

func TestCurrentStepLifecycle(t *testing.T) {
	st := NewState("DBG-1", t.TempDir())

	st.CompleteCurrentStep()
	assert.Empty(t, st.CompletedSteps)

	st.SetCurrentStep("seed_data", "create test users")
	require.NotNil(t, st.CurrentStep)
	st.CompleteCurrentStep()
	assert.Nil(t, st.CurrentStep)
	assert.Equal(t, []string{"seed_data"}, st.CompletedSteps)
}

func TestCacheHitRate(t *testing.T) {
	st := NewState("DBG-2", t.TempDir())

	assert.Equal(t, 0.0, st.CacheHitRate())

	st.CacheAPIResponse("GET /users", []string{"alice"})
	_, ok := st.CachedAPIResponse("GET /users")
	require.True(t, ok)
	_, ok = st.CachedAPIResponse("GET /users")
	require.True(t, ok)
	_, ok = st.CachedAPIResponse("GET /missing")
	assert.False(t, ok)

	// 2 hits, 1 populating miss
	assert.InDelta(t, 2.0/3.0, st.CacheHitRate(), 1e-9)
}
