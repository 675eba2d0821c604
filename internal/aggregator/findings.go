package aggregator

import (
	"strings"

	"debugctl/internal/session"
	"debugctl/internal/worker"
)

const similarityThreshold = 0.7

type taggedFinding struct {
	scenario string
	finding  session.Finding
}

// analyzeFindings groups findings by type across workers, clusters
// near-duplicate descriptions, and collects every root_cause finding verbatim
// regardless of clustering.
func analyzeFindings(results []worker.Result) (map[string][]CommonFinding, []session.Finding) {
	byType := map[string][]taggedFinding{}
	typeOrder := []string{}
	var rootCauses []session.Finding

	for _, r := range results {
		for _, f := range r.Findings {
			findingType := f.Type
			if findingType == "" {
				findingType = "observation"
			}
			if _, seen := byType[findingType]; !seen {
				typeOrder = append(typeOrder, findingType)
			}
			byType[findingType] = append(byType[findingType], taggedFinding{
				scenario: r.ScenarioName,
				finding:  f,
			})
			if findingType == "root_cause" {
				rootCauses = append(rootCauses, f)
			}
		}
	}

	common := map[string][]CommonFinding{}
	for _, findingType := range typeOrder {
		findings := byType[findingType]
		if len(findings) < 2 {
			continue
		}
		if grouped := groupSimilarFindings(findings); len(grouped) > 0 {
			common[findingType] = grouped
		}
	}

	return common, rootCauses
}

// groupSimilarFindings clusters findings whose descriptions are similar.
// Only clusters with more than one member are reported.
func groupSimilarFindings(findings []taggedFinding) []CommonFinding {
	var grouped []CommonFinding
	used := make([]bool, len(findings))

	for i, tf := range findings {
		if used[i] {
			continue
		}
		cluster := []taggedFinding{tf}
		for j := i + 1; j < len(findings); j++ {
			if used[j] {
				continue
			}
			if areSimilar(tf.finding.Description, findings[j].finding.Description) {
				cluster = append(cluster, findings[j])
				used[j] = true
			}
		}
		if len(cluster) < 2 {
			continue
		}

		cf := CommonFinding{
			Description: tf.finding.Description,
			Count:       len(cluster),
		}
		for _, member := range cluster {
			cf.Scenarios = append(cf.Scenarios, member.scenario)
			if member.finding.Evidence != "" {
				cf.Evidence = append(cf.Evidence, member.finding.Evidence)
			}
		}
		grouped = append(grouped, cf)
	}
	return grouped
}

// areSimilar reports whether two descriptions are near-duplicates: equal
// after normalization, one containing the other, or sharing more than 70% of
// the smaller description's words.
func areSimilar(text1, text2 string) bool {
	text1 = strings.ToLower(strings.TrimSpace(text1))
	text2 = strings.ToLower(strings.TrimSpace(text2))

	if text1 == text2 {
		return true
	}
	if strings.Contains(text1, text2) || strings.Contains(text2, text1) {
		return true
	}

	words1 := wordSet(text1)
	words2 := wordSet(text2)
	if len(words1) == 0 || len(words2) == 0 {
		return false
	}

	overlap := 0
	for w := range words1 {
		if words2[w] {
			overlap++
		}
	}
	smaller := len(words1)
	if len(words2) < smaller {
		smaller = len(words2)
	}
	return float64(overlap)/float64(smaller) > similarityThreshold
}

func wordSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, w := range strings.Fields(text) {
		set[w] = true
	}
	return set
}
