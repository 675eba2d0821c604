package aggregator

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const reportTemplate = `{{ repeat 80 "=" }}
PARALLEL DEBUG EXECUTION REPORT
{{ repeat 80 "=" }}
Generated: {{ .Generated }}
Master Session: {{ .MasterSessionID }}

EXECUTION SUMMARY
{{ repeat 40 "-" }}
Total Scenarios: {{ .Results.TotalScenarios }}
Successful: {{ .Results.SuccessfulScenarios }}
Failed: {{ .Results.FailedScenarios }}
Success Rate: {{ printf "%.1f%%" (mulf .Results.SuccessRate 100.0) }}
Total Duration: {{ printf "%.2fs" .TotalSeconds }}
Average Duration: {{ printf "%.2fs" .AverageSeconds }}

SCENARIO RESULTS
{{ repeat 40 "-" }}
{{ .ScenarioTable }}
{{- if .Results.CommonErrors }}

COMMON ERRORS
{{ repeat 40 "-" }}
{{- range .Results.CommonErrors }}
({{ .Count }}x) {{ .Message }}
{{- end }}
{{- end }}
{{- if .ErrorPatternLines }}

ERROR PATTERNS
{{ repeat 40 "-" }}
{{- range .ErrorPatternLines }}
{{ . }}
{{- end }}
{{- end }}
{{- if .Results.RootCauses }}

ROOT CAUSES IDENTIFIED
{{ repeat 40 "-" }}
{{- range $i, $cause := .Results.RootCauses }}
{{ add $i 1 }}. {{ default "Unknown" $cause.Description }}
{{- if $cause.FixSuggestion }}
   Fix: {{ $cause.FixSuggestion }}
{{- end }}
{{- end }}
{{- end }}
{{- if .Results.Recommendations }}

RECOMMENDATIONS
{{ repeat 40 "-" }}
{{- range .Results.Recommendations }}
- {{ . }}
{{- end }}
{{- end }}

{{ repeat 80 "=" }}
END OF REPORT
{{ repeat 80 "=" }}
`

type reportData struct {
	Generated         string
	MasterSessionID   string
	Results           *AggregatedResults
	TotalSeconds      float64
	AverageSeconds    float64
	ScenarioTable     string
	ErrorPatternLines []string
}

// GenerateReport renders the aggregate as a human-readable text report and
// optionally writes it to outputPath.
func (a *Aggregator) GenerateReport(agg *AggregatedResults, outputPath string) (string, error) {
	tmpl, err := template.New("report").Funcs(sprig.FuncMap()).Parse(reportTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse report template: %w", err)
	}

	data := reportData{
		Generated:         time.Now().Format("2006-01-02 15:04:05"),
		MasterSessionID:   a.masterSessionID,
		Results:           agg,
		TotalSeconds:      agg.TotalDuration.Seconds(),
		AverageSeconds:    agg.AverageDuration.Seconds(),
		ScenarioTable:     renderScenarioTable(agg),
		ErrorPatternLines: errorPatternLines(agg),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	report := sb.String()

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(report), 0644); err != nil {
			return "", fmt.Errorf("failed to write report to %s: %w", outputPath, err)
		}
	}
	return report, nil
}

// WriteJSON dumps the aggregate as indented JSON to outputPath.
func WriteJSON(agg *AggregatedResults, outputPath string) error {
	data, err := json.MarshalIndent(agg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal aggregated results: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON results to %s: %w", outputPath, err)
	}
	return nil
}

func renderScenarioTable(agg *AggregatedResults) string {
	names := make([]string, 0, len(agg.ScenarioResults))
	for name := range agg.ScenarioResults {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatUpper
	t.AppendHeader(table.Row{"Scenario", "Status", "Duration", "Worker", "Error"})

	for _, name := range names {
		r := agg.ScenarioResults[name]
		status := "PASSED"
		if !r.Success {
			status = "FAILED"
		}
		t.AppendRow(table.Row{
			name,
			status,
			fmt.Sprintf("%.2fs", r.Duration.Seconds()),
			r.WorkerID,
			r.Error,
		})
	}
	return t.Render()
}

func errorPatternLines(agg *AggregatedResults) []string {
	categories := make([]string, 0, len(agg.ErrorPatterns))
	for cat := range agg.ErrorPatterns {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	lines := make([]string, 0, len(categories))
	for _, cat := range categories {
		lines = append(lines, fmt.Sprintf("%s: %d occurrences",
			strings.ToUpper(cat), len(agg.ErrorPatterns[cat])))
	}
	return lines
}
