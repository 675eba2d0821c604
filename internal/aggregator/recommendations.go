package aggregator

import "fmt"

// generateRecommendations derives actionable advice from the aggregate.
// Rules fire in a fixed order so reports are stable across runs.
func generateRecommendations(agg *AggregatedResults) []string {
	var recommendations []string

	if agg.SuccessRate < 0.5 {
		recommendations = append(recommendations,
			"Low success rate indicates systemic issues. Review common errors and root causes.")
	}

	if _, ok := agg.ErrorPatterns["timeout"]; ok {
		recommendations = append(recommendations,
			"Multiple timeout errors detected. Consider increasing timeouts or optimizing slow operations.")
	}
	if _, ok := agg.ErrorPatterns["authentication"]; ok {
		recommendations = append(recommendations,
			"Authentication errors across scenarios. Check credentials and session management.")
	}
	if _, ok := agg.ErrorPatterns["database"]; ok {
		recommendations = append(recommendations,
			"Database errors detected. Verify migrations are up-to-date and connections are properly configured.")
	}

	if agg.MaxDuration > agg.AverageDuration*3 {
		recommendations = append(recommendations,
			"Large variance in execution times. Some scenarios are significantly slower than others.")
	}

	if len(agg.RootCauses) > 0 {
		recommendations = append(recommendations, fmt.Sprintf(
			"%d root causes identified. Prioritize fixing these issues.", len(agg.RootCauses)))
	}
	if len(agg.CommonFindings) > 0 {
		recommendations = append(recommendations,
			"Common findings across scenarios suggest shared underlying issues.")
	}

	return recommendations
}
