package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"debugctl/internal/scenario"
	"debugctl/pkg/logging"
)

func resetRunFlags() {
	runSet = ""
	runScenarios = ""
	runOnly = nil
	runType = ""
	runVerbose = false
	runDebug = false
}

func TestGatherScenariosFromBuiltinSet(t *testing.T) {
	resetRunFlags()
	defer resetRunFlags()

	runSet = "auth"
	scenarios, err := gatherScenarios()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatal("auth set should not be empty")
	}
	for _, s := range scenarios {
		if err := s.Validate(); err != nil {
			t.Errorf("builtin scenario %s invalid: %v", s.Name, err)
		}
	}
}

func TestGatherScenariosUnknownSet(t *testing.T) {
	resetRunFlags()
	defer resetRunFlags()

	runSet = "nonsense"
	if _, err := gatherScenarios(); err == nil {
		t.Fatal("expected an error for unknown set")
	}
}

func TestGatherScenariosCombinesSetAndFile(t *testing.T) {
	resetRunFlags()
	defer resetRunFlags()

	dir := t.TempDir()
	path := filepath.Join(dir, "extra.yaml")
	content := `scenarios:
  - name: extra_check
    test_type: api_test
    test_function: extra_check.sh
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	runSet = "auth"
	runScenarios = path
	scenarios, err := gatherScenarios()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	found := false
	for _, s := range scenarios {
		if s.Name == "extra_check" {
			found = true
		}
	}
	if !found {
		t.Error("scenario from file should be appended to the set")
	}
	if len(scenarios) != len(scenario.AuthSet())+1 {
		t.Errorf("expected %d scenarios, got %d", len(scenario.AuthSet())+1, len(scenarios))
	}
}

func TestGatherScenariosTypeFilter(t *testing.T) {
	resetRunFlags()
	defer resetRunFlags()

	runSet = "standard"
	runType = "database"
	scenarios, err := gatherScenarios()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, s := range scenarios {
		if s.TestType != scenario.TestTypeDatabase {
			t.Errorf("filter leaked scenario %s of type %s", s.Name, s.TestType)
		}
	}
}

func TestLogLevelSelection(t *testing.T) {
	resetRunFlags()
	defer resetRunFlags()

	if logLevel() != logging.LevelWarn {
		t.Error("default level should be warn")
	}
	runVerbose = true
	if logLevel() != logging.LevelInfo {
		t.Error("verbose should select info")
	}
	runDebug = true
	if logLevel() != logging.LevelDebug {
		t.Error("debug should win over verbose")
	}
}
