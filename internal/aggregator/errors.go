package aggregator

import (
	"regexp"
	"sort"
	"strings"

	"debugctl/internal/worker"
)

// errorCategory pairs a category name with the pattern that detects it.
// Categories are checked in order so occurrence lists are deterministic.
type errorCategory struct {
	name    string
	pattern *regexp.Regexp
}

var errorCategories = []errorCategory{
	{"null_reference", regexp.MustCompile(`(?i)(null|undefined|nil|None).*?(reference|property|attribute)`)},
	{"timeout", regexp.MustCompile(`(?i)(timeout|timed out|exceeded.*?timeout)`)},
	{"connection", regexp.MustCompile(`(?i)(connection.*?(refused|failed|error)|ECONNREFUSED)`)},
	{"authentication", regexp.MustCompile(`(?i)(401|403|unauthorized|forbidden|auth.*?fail)`)},
	{"validation", regexp.MustCompile(`(?i)(validation.*?(error|fail)|invalid.*?data)`)},
	{"database", regexp.MustCompile(`(?i)(database|sql|query).*?(error|fail|exception)`)},
	{"api_error", regexp.MustCompile(`(?i)(4\d{2}|5\d{2}).*?(error|fail)|api.*?error`)},
}

const maxCommonErrors = 5

// analyzeErrors categorizes errors from failed workers and counts repeated
// error messages. Worker error strings are categorized, and log lines that
// look error-like are checked against the same patterns.
func analyzeErrors(results []worker.Result) ([]ErrorCount, map[string][]ErrorOccurrence) {
	messageCounts := map[string]int{}
	patterns := map[string][]ErrorOccurrence{}

	for _, r := range results {
		if r.Success || r.Error == "" {
			continue
		}
		messageCounts[r.Error]++

		for _, cat := range errorCategories {
			if cat.pattern.MatchString(r.Error) {
				patterns[cat.name] = append(patterns[cat.name], ErrorOccurrence{
					Scenario: r.ScenarioName,
					Error:    r.Error,
				})
			}
		}

		for _, line := range r.Logs {
			lower := strings.ToLower(line)
			if !strings.Contains(lower, "error") && !strings.Contains(lower, "fail") {
				continue
			}
			for _, cat := range errorCategories {
				if cat.pattern.MatchString(line) {
					patterns[cat.name] = append(patterns[cat.name], ErrorOccurrence{
						Scenario: r.ScenarioName,
						Log:      line,
					})
				}
			}
		}
	}

	common := make([]ErrorCount, 0, len(messageCounts))
	for msg, count := range messageCounts {
		common = append(common, ErrorCount{Message: msg, Count: count})
	}
	sort.Slice(common, func(i, j int) bool {
		if common[i].Count != common[j].Count {
			return common[i].Count > common[j].Count
		}
		return common[i].Message < common[j].Message
	})
	if len(common) > maxCommonErrors {
		common = common[:maxCommonErrors]
	}

	return common, patterns
}
