package scenario

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"debugctl/pkg/logging"
)

// scenarioFile is the YAML document format: a file holds one or more
// scenarios under a top-level "scenarios" key.
type scenarioFile struct {
	Scenarios []TestScenario `yaml:"scenarios"`
}

// Load reads scenarios from path. A directory is walked recursively and every
// .yaml/.yml file in it is loaded; a single file is loaded directly.
func Load(path string) ([]TestScenario, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("scenario path does not exist: %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario path: %w", err)
	}

	if info.IsDir() {
		return loadDirectory(path)
	}
	return loadFile(path)
}

func loadDirectory(dir string) ([]TestScenario, error) {
	var scenarios []TestScenario

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAMLFile(path) {
			return nil
		}
		logging.Debug("Scenario", "loading scenario file: %s", path)
		loaded, err := loadFile(path)
		if err != nil {
			return err
		}
		scenarios = append(scenarios, loaded...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load scenarios from %s: %w", dir, err)
	}
	return scenarios, nil
}

func loadFile(path string) ([]TestScenario, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	var doc scenarioFile
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in %s: %w", path, err)
	}
	if len(doc.Scenarios) == 0 {
		return nil, fmt.Errorf("no scenarios defined in %s", path)
	}

	for i, s := range doc.Scenarios {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("invalid scenario %d in %s: %w", i+1, path, err)
		}
	}
	return doc.Scenarios, nil
}

func isYAMLFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// FilterByNames keeps scenarios whose name appears in names. An empty names
// list keeps everything.
func FilterByNames(scenarios []TestScenario, names []string) []TestScenario {
	if len(names) == 0 {
		return scenarios
	}
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[strings.TrimSpace(n)] = true
	}

	var filtered []TestScenario
	for _, s := range scenarios {
		if wanted[s.Name] {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// FilterByType keeps scenarios of the given test type. An empty type keeps
// everything.
func FilterByType(scenarios []TestScenario, testType TestType) []TestScenario {
	if testType == "" {
		return scenarios
	}
	var filtered []TestScenario
	for _, s := range scenarios {
		if s.TestType == testType {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
