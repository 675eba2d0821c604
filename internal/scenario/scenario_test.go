package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenarioFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadSingleFileAppliesDefaults(t *testing.T) {
	path := writeScenarioFile(t, t.TempDir(), "basic.yaml", `
scenarios:
  - name: login_check
    test_type: api_test
    test_function: test_login
`)

	scenarios, err := Load(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	s := scenarios[0]
	assert.Equal(t, "login_check", s.Name)
	assert.Equal(t, TestTypeAPITest, s.TestType)
	assert.Equal(t, 120*time.Second, s.Timeout.Std())
	assert.True(t, s.RetryOnFailure)
	assert.Equal(t, 2, s.MaxRetries)
	assert.Equal(t, "standard", s.DataSet)
	assert.NotNil(t, s.EnvironmentVars)
}

func TestLoadRespectsExplicitValues(t *testing.T) {
	path := writeScenarioFile(t, t.TempDir(), "explicit.yaml", `
scenarios:
  - name: slow_search
    test_type: performance
    test_function: test_search_performance
    timeout: 5m
    retry_on_failure: false
    data_set: large
    environment_vars:
      SEARCH_DEPTH: "3"
`)

	scenarios, err := Load(path)
	require.NoError(t, err)
	require.Len(t, scenarios, 1)

	s := scenarios[0]
	assert.Equal(t, 5*time.Minute, s.Timeout.Std())
	assert.False(t, s.RetryOnFailure)
	assert.Equal(t, "large", s.DataSet)
	assert.Equal(t, "3", s.EnvironmentVars["SEARCH_DEPTH"])
}

func TestLoadTimeoutAcceptsPlainSeconds(t *testing.T) {
	path := writeScenarioFile(t, t.TempDir(), "seconds.yaml", `
scenarios:
  - name: quick
    test_type: api_test
    test_function: test_quick
    timeout: 45
`)

	scenarios, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, scenarios[0].Timeout.Std())
}

func TestLoadDirectoryCollectsAllFiles(t *testing.T) {
	dir := t.TempDir()
	writeScenarioFile(t, dir, "a.yaml", `
scenarios:
  - name: first
    test_type: ui_flow
    test_function: test_first
`)
	writeScenarioFile(t, dir, "b.yml", `
scenarios:
  - name: second
    test_type: database
    test_function: test_second
  - name: third
    test_type: security
    test_function: test_third
`)
	writeScenarioFile(t, dir, "notes.txt", "not a scenario")

	scenarios, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, scenarios, 3)
}

func TestLoadRejectsUnknownTestType(t *testing.T) {
	path := writeScenarioFile(t, t.TempDir(), "bad.yaml", `
scenarios:
  - name: bad
    test_type: chaos
    test_function: test_bad
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown test type")
}

func TestLoadRejectsMissingFields(t *testing.T) {
	path := writeScenarioFile(t, t.TempDir(), "missing.yaml", `
scenarios:
  - test_type: api_test
    test_function: test_anon
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestLoadMissingPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestFilterByNames(t *testing.T) {
	scenarios := StandardSet()

	filtered := FilterByNames(scenarios, []string{"database_queries", "recruiter_job_creation"})
	require.Len(t, filtered, 2)
	assert.Equal(t, "recruiter_job_creation", filtered[0].Name)
	assert.Equal(t, "database_queries", filtered[1].Name)

	assert.Equal(t, scenarios, FilterByNames(scenarios, nil))
	assert.Empty(t, FilterByNames(scenarios, []string{"unknown"}))
}

func TestFilterByType(t *testing.T) {
	scenarios := StandardSet()

	filtered := FilterByType(scenarios, TestTypeUIFlow)
	require.Len(t, filtered, 2)
	for _, s := range filtered {
		assert.Equal(t, TestTypeUIFlow, s.TestType)
	}

	assert.Equal(t, scenarios, FilterByType(scenarios, ""))
}

func TestBuiltinSetsAreValid(t *testing.T) {
	for _, name := range SetNames() {
		constructor, ok := BuiltinSets()[name]
		require.True(t, ok, "set %s missing from BuiltinSets", name)
		for _, s := range constructor() {
			assert.NoError(t, s.Validate(), "scenario %s in set %s", s.Name, name)
		}
	}
}
