package aggregator

import (
	"debugctl/internal/worker"
)

// analyzePerformance collects numeric performance metrics and test-data usage
// counts across workers. Metric values survive a JSON round trip as float64,
// so both native numeric types and decoded values are accepted.
func analyzePerformance(results []worker.Result) (map[string]MetricStats, map[string]int) {
	series := map[string][]float64{}
	order := []string{}
	usage := map[string]int{}

	record := func(key string, value float64) {
		if _, seen := series[key]; !seen {
			order = append(order, key)
		}
		series[key] = append(series[key], value)
	}

	for _, r := range results {
		if perf, ok := r.Metrics["performance"].(map[string]any); ok {
			for key, raw := range perf {
				if v, ok := toFloat(raw); ok {
					record(key, v)
				}
			}
		}

		if data, ok := r.Metrics["test_data"]; ok {
			for category, count := range testDataCounts(data) {
				usage[category] += count
			}
		}

		if rate, ok := toFloat(r.Metrics["cache_hit_rate"]); ok {
			record("cache_hit_rates", rate)
		}
	}

	stats := map[string]MetricStats{}
	for _, key := range order {
		values := series[key]
		s := MetricStats{Min: values[0], Max: values[0], Values: values}
		sum := 0.0
		for _, v := range values {
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
			sum += v
		}
		s.Avg = sum / float64(len(values))
		stats[key] = s
	}

	return stats, usage
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

// testDataCounts extracts per-category key counts from the test_data metric,
// in both its native map[string][]string form and its JSON-decoded form.
func testDataCounts(data any) map[string]int {
	counts := map[string]int{}
	switch typed := data.(type) {
	case map[string][]string:
		for category, keys := range typed {
			counts[category] = len(keys)
		}
	case map[string]any:
		for category, keys := range typed {
			if list, ok := keys.([]any); ok {
				counts[category] = len(list)
			}
		}
	}
	return counts
}
