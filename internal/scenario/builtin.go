package scenario

import "time"

// Builtin scenario sets mirror the debugging suites most runs start from.
// Each returns freshly constructed scenarios so callers may mutate them.

// StandardSet covers the main user flows plus API and database checks.
func StandardSet() []TestScenario {
	jobCreation := New("recruiter_job_creation", TestTypeUIFlow, "test_job_creation_flow")
	jobCreation.UserType = "recruiter"

	jobSearch := New("candidate_job_search", TestTypeUIFlow, "test_job_search_flow")
	jobSearch.UserType = "candidate"

	apiValidation := New("api_endpoints_validation", TestTypeAPITest, "test_api_endpoints")
	apiValidation.DataSet = "edge_cases"
	apiValidation.Timeout = Duration(60 * time.Second)

	dbQueries := New("database_queries", TestTypeDatabase, "test_database_operations")
	dbQueries.DataSet = "large"
	dbQueries.RequiredResources["database_connections"] = 5

	return []TestScenario{jobCreation, jobSearch, apiValidation, dbQueries}
}

// AuthSet focuses on login, token and session handling.
func AuthSet() []TestScenario {
	loginRecruiter := New("auth_login_recruiter", TestTypeUIFlow, "test_login_flow")
	loginRecruiter.UserType = "recruiter"

	loginCandidate := New("auth_login_candidate", TestTypeUIFlow, "test_login_flow")
	loginCandidate.UserType = "candidate"

	tokenValidation := New("auth_token_validation", TestTypeAPITest, "test_token_validation")
	tokenValidation.Timeout = Duration(30 * time.Second)

	sessionTimeout := New("auth_session_timeout", TestTypeIntegration, "test_session_timeout")
	sessionTimeout.Timeout = Duration(180 * time.Second)
	sessionTimeout.EnvironmentVars["SESSION_TIMEOUT"] = "60"

	return []TestScenario{loginRecruiter, loginCandidate, tokenValidation, sessionTimeout}
}

// PerformanceSet stresses list loading, search and API throughput.
func PerformanceSet() []TestScenario {
	listLoading := New("perf_job_list_loading", TestTypePerformance, "test_job_list_performance")
	listLoading.DataSet = "large"
	listLoading.Timeout = Duration(300 * time.Second)
	listLoading.RequiredResources["concurrent_users"] = 10

	searchResponse := New("perf_search_response", TestTypePerformance, "test_search_performance")
	searchResponse.DataSet = "large"
	searchResponse.Timeout = Duration(180 * time.Second)

	apiThroughput := New("perf_api_throughput", TestTypePerformance, "test_api_throughput")
	apiThroughput.Timeout = Duration(300 * time.Second)
	apiThroughput.RequiredResources["requests_per_second"] = 100

	return []TestScenario{listLoading, searchResponse, apiThroughput}
}

// BuiltinSets maps set names to their constructors, in the order the list
// command presents them.
func BuiltinSets() map[string]func() []TestScenario {
	return map[string]func() []TestScenario{
		"standard":    StandardSet,
		"auth":        AuthSet,
		"performance": PerformanceSet,
	}
}

// SetNames returns the builtin set names in presentation order.
func SetNames() []string {
	return []string{"standard", "auth", "performance"}
}
