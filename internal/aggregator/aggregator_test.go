package aggregator

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"debugctl/internal/session"
	"debugctl/internal/worker"
)

func makeResult(workerID, scenarioName string, success bool, duration time.Duration, errMsg string) worker.Result {
	start := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	r := worker.NewResult(workerID, scenarioName)
	r.StartTime = start
	r.EndTime = start.Add(duration)
	r.Duration = duration
	r.Success = success
	r.Error = errMsg
	return r
}

func TestAggregateEmpty(t *testing.T) {
	a := New("MASTER-1", t.TempDir())
	agg := a.Aggregate()

	assert.Equal(t, 0, agg.TotalScenarios)
	assert.Equal(t, 0.0, agg.SuccessRate)
	assert.Empty(t, agg.Recommendations)
}

func TestAggregateDurationStats(t *testing.T) {
	a := New("MASTER-1", t.TempDir())
	a.AddResult(makeResult("worker_0", "a", true, 5*time.Second, ""))
	a.AddResult(makeResult("worker_1", "b", true, 3*time.Second, ""))
	a.AddResult(makeResult("worker_2", "c", true, 4*time.Second, ""))

	agg := a.Aggregate()

	assert.Equal(t, 12*time.Second, agg.TotalDuration)
	assert.Equal(t, 4*time.Second, agg.AverageDuration)
	assert.Equal(t, 3*time.Second, agg.MinDuration)
	assert.Equal(t, 5*time.Second, agg.MaxDuration)
	assert.Equal(t, 1.0, agg.SuccessRate)
}

func TestAggregateIsIdempotent(t *testing.T) {
	a := New("MASTER-1", t.TempDir())
	a.AddResult(makeResult("worker_0", "a", true, 2*time.Second, ""))
	a.AddResult(makeResult("worker_1", "b", false, 3*time.Second, "Timeout exceeded waiting for page"))

	first := a.Aggregate()
	second := a.Aggregate()

	assert.Equal(t, first.TotalScenarios, second.TotalScenarios)
	assert.Equal(t, first.TotalDuration, second.TotalDuration)
	assert.Equal(t, first.CommonErrors, second.CommonErrors)
	assert.Equal(t, first.ErrorPatterns, second.ErrorPatterns)
	assert.Equal(t, first.Recommendations, second.Recommendations)
}

func TestErrorClassification(t *testing.T) {
	a := New("MASTER-1", t.TempDir())
	a.AddResult(makeResult("worker_0", "slow", false, time.Second, "Timeout exceeded waiting for selector"))
	a.AddResult(makeResult("worker_1", "login", false, time.Second, "401 Unauthorized"))
	a.AddResult(makeResult("worker_2", "db", false, time.Second, "Database connection failed"))

	agg := a.Aggregate()

	require.Contains(t, agg.ErrorPatterns, "timeout")
	assert.Equal(t, "slow", agg.ErrorPatterns["timeout"][0].Scenario)

	require.Contains(t, agg.ErrorPatterns, "authentication")
	assert.Equal(t, "login", agg.ErrorPatterns["authentication"][0].Scenario)

	require.Contains(t, agg.ErrorPatterns, "database")
	assert.Equal(t, "db", agg.ErrorPatterns["database"][0].Scenario)
	// "connection failed" also matches the connection category
	require.Contains(t, agg.ErrorPatterns, "connection")
}

func TestErrorLogLinesAreCategorized(t *testing.T) {
	a := New("MASTER-1", t.TempDir())
	r := makeResult("worker_0", "checkout", false, time.Second, "script failed")
	r.Logs = []string{
		"request started",
		"ERROR: connection refused by upstream",
	}
	a.AddResult(r)

	agg := a.Aggregate()

	require.Contains(t, agg.ErrorPatterns, "connection")
	found := false
	for _, occ := range agg.ErrorPatterns["connection"] {
		if occ.Log != "" {
			found = true
			assert.Equal(t, "checkout", occ.Scenario)
		}
	}
	assert.True(t, found, "expected a log-based occurrence")
}

func TestCommonErrorsRankedAndCapped(t *testing.T) {
	a := New("MASTER-1", t.TempDir())
	for i := 0; i < 3; i++ {
		a.AddResult(makeResult("worker_a", "s", false, time.Second, "repeated failure"))
	}
	a.AddResult(makeResult("worker_b", "t", false, time.Second, "one-off failure"))
	for _, msg := range []string{"e1", "e2", "e3", "e4"} {
		a.AddResult(makeResult("worker_c", "u", false, time.Second, msg))
	}

	agg := a.Aggregate()

	require.Len(t, agg.CommonErrors, 5)
	assert.Equal(t, ErrorCount{Message: "repeated failure", Count: 3}, agg.CommonErrors[0])
}

func TestFindingsClusterNearDuplicates(t *testing.T) {
	a := New("MASTER-1", t.TempDir())

	r1 := makeResult("worker_0", "login_a", false, time.Second, "auth failed")
	r1.Findings = []session.Finding{{Type: "observation", Description: "Token Expired After Refresh"}}
	r2 := makeResult("worker_1", "login_b", false, time.Second, "auth failed")
	r2.Findings = []session.Finding{{Type: "observation", Description: "token expired after refresh"}}
	a.AddResult(r1)
	a.AddResult(r2)

	agg := a.Aggregate()

	require.Contains(t, agg.CommonFindings, "observation")
	clusters := agg.CommonFindings["observation"]
	require.Len(t, clusters, 1)
	assert.Equal(t, 2, clusters[0].Count)
	assert.ElementsMatch(t, []string{"login_a", "login_b"}, clusters[0].Scenarios)
}

func TestRootCausesCollectedVerbatim(t *testing.T) {
	a := New("MASTER-1", t.TempDir())

	r := makeResult("worker_0", "login", false, time.Second, "auth failed")
	r.Findings = []session.Finding{
		{Type: "root_cause", Description: "refresh token never persisted", FixSuggestion: "persist on login"},
		{Type: "observation", Description: "slow response"},
	}
	a.AddResult(r)

	agg := a.Aggregate()

	require.Len(t, agg.RootCauses, 1)
	assert.Equal(t, "refresh token never persisted", agg.RootCauses[0].Description)
}

func TestPerformanceStats(t *testing.T) {
	a := New("MASTER-1", t.TempDir())

	r1 := makeResult("worker_0", "perf_a", true, time.Second, "")
	r1.Metrics["performance"] = map[string]any{"throughput": 100.0}
	r1.Metrics["cache_hit_rate"] = 0.5
	r2 := makeResult("worker_1", "perf_b", true, time.Second, "")
	r2.Metrics["performance"] = map[string]any{"throughput": 200.0}
	r2.Metrics["test_data"] = map[string][]string{"users": {"u1", "u2"}}
	a.AddResult(r1)
	a.AddResult(r2)

	agg := a.Aggregate()

	stats, ok := agg.PerformanceMetrics["throughput"]
	require.True(t, ok)
	assert.Equal(t, 100.0, stats.Min)
	assert.Equal(t, 200.0, stats.Max)
	assert.Equal(t, 150.0, stats.Avg)

	rates, ok := agg.PerformanceMetrics["cache_hit_rates"]
	require.True(t, ok)
	assert.Equal(t, []float64{0.5}, rates.Values)

	assert.Equal(t, 2, agg.TestDataUsage["users"])
}

func TestTimelineIsChronological(t *testing.T) {
	a := New("MASTER-1", t.TempDir())

	r1 := makeResult("worker_0", "first", true, 2*time.Second, "")
	r1.Checkpoints = []string{"step_done"}
	r2 := makeResult("worker_1", "second", true, time.Second, "")
	r2.StartTime = r1.StartTime.Add(500 * time.Millisecond)
	r2.EndTime = r2.StartTime.Add(time.Second)
	a.AddResult(r1)
	a.AddResult(r2)

	agg := a.Aggregate()

	require.Len(t, agg.Timeline, 5)
	for i := 1; i < len(agg.Timeline); i++ {
		assert.False(t, agg.Timeline[i].Timestamp.Before(agg.Timeline[i-1].Timestamp),
			"timeline out of order at %d", i)
	}
	assert.Equal(t, "start", agg.Timeline[0].Event)
	last := agg.Timeline[len(agg.Timeline)-1]
	assert.Equal(t, "end", last.Event)
	assert.Equal(t, "first", last.Scenario)
}

func TestEndToEndAggregation(t *testing.T) {
	a := New("MASTER-1", t.TempDir())
	a.AddResult(makeResult("worker_0", "scenario_a", true, 2*time.Second, ""))
	a.AddResult(makeResult("worker_1", "scenario_b", false, time.Second, "Database connection failed"))
	a.AddResult(makeResult("worker_2", "scenario_c", true, 3*time.Second, ""))

	agg := a.Aggregate()

	assert.Equal(t, 3, agg.TotalScenarios)
	assert.Equal(t, 2, agg.SuccessfulScenarios)
	assert.Equal(t, 1, agg.FailedScenarios)
	assert.InDelta(t, 0.667, agg.SuccessRate, 0.001)

	require.Contains(t, agg.ErrorPatterns, "database")
	assert.Equal(t, "scenario_b", agg.ErrorPatterns["database"][0].Scenario)

	found := false
	for _, rec := range agg.Recommendations {
		if strings.Contains(strings.ToLower(rec), "database") {
			found = true
		}
	}
	assert.True(t, found, "expected a database recommendation, got %v", agg.Recommendations)
}

func TestVarianceRecommendation(t *testing.T) {
	a := New("MASTER-1", t.TempDir())
	for i := 0; i < 6; i++ {
		a.AddResult(makeResult("worker_0", "fast_"+string(rune('a'+i)), true, time.Second, ""))
	}
	a.AddResult(makeResult("worker_6", "slow", true, 30*time.Second, ""))

	agg := a.Aggregate()

	found := false
	for _, rec := range agg.Recommendations {
		if strings.Contains(rec, "variance") {
			found = true
		}
	}
	assert.True(t, found, "expected a variance recommendation, got %v", agg.Recommendations)
}

func TestGenerateReportSections(t *testing.T) {
	a := New("MASTER-42", t.TempDir())
	a.AddResult(makeResult("worker_0", "scenario_a", true, 2*time.Second, ""))
	a.AddResult(makeResult("worker_1", "scenario_b", false, time.Second, "Database connection failed"))

	agg := a.Aggregate()
	report, err := a.GenerateReport(agg, "")
	require.NoError(t, err)

	assert.Contains(t, report, "PARALLEL DEBUG EXECUTION REPORT")
	assert.Contains(t, report, "Master Session: MASTER-42")
	assert.Contains(t, report, "EXECUTION SUMMARY")
	assert.Contains(t, report, "Total Scenarios: 2")
	assert.Contains(t, report, "Success Rate: 50.0%")
	assert.Contains(t, report, "scenario_a")
	assert.Contains(t, report, "FAILED")
	assert.Contains(t, report, "COMMON ERRORS")
	assert.Contains(t, report, "(1x) Database connection failed")
	assert.Contains(t, report, "DATABASE:")
	assert.Contains(t, report, "RECOMMENDATIONS")
	assert.Contains(t, report, "END OF REPORT")
}

func TestGenerateReportWritesFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/report.txt"

	a := New("MASTER-1", dir)
	a.AddResult(makeResult("worker_0", "only", true, time.Second, ""))
	agg := a.Aggregate()

	_, err := a.GenerateReport(agg, path)
	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestWriteJSONRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/results.json"

	a := New("MASTER-1", dir)
	a.AddResult(makeResult("worker_0", "only", true, time.Second, ""))
	agg := a.Aggregate()

	require.NoError(t, WriteJSON(agg, path))
	assert.FileExists(t, path)
}

func TestAreSimilar(t *testing.T) {
	assert.True(t, areSimilar("Token expired", "token expired"))
	assert.True(t, areSimilar("token expired", "token expired after refresh"))
	assert.True(t, areSimilar("user login failed badly here", "user login failed badly there"))
	assert.False(t, areSimilar("slow query on jobs table", "missing index on users"))
	assert.False(t, areSimilar("one two three four five", "one two six seven eight"))
}
