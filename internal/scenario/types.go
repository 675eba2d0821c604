package scenario

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// TestType classifies what kind of test a scenario runs. The set is closed;
// every type has exactly one execution strategy registered for it.
type TestType string

const (
	TestTypeUIFlow      TestType = "ui_flow"
	TestTypeAPITest     TestType = "api_test"
	TestTypeDatabase    TestType = "database"
	TestTypeIntegration TestType = "integration"
	TestTypePerformance TestType = "performance"
	TestTypeSecurity    TestType = "security"
)

// AllTestTypes lists every valid test type.
var AllTestTypes = []TestType{
	TestTypeUIFlow,
	TestTypeAPITest,
	TestTypeDatabase,
	TestTypeIntegration,
	TestTypePerformance,
	TestTypeSecurity,
}

// ParseTestType converts a string into a TestType, rejecting unknown values.
func ParseTestType(s string) (TestType, error) {
	for _, t := range AllTestTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown test type %q (valid: %v)", s, AllTestTypes)
}

// Duration parses from YAML either as a plain number of seconds or as a Go
// duration string like "2m30s".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if seconds, err := strconv.Atoi(node.Value); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a standard time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// TestScenario defines a single unit of test work for parallel execution.
type TestScenario struct {
	// Name uniquely identifies the scenario within a run
	Name string `yaml:"name"`
	// TestType selects the execution strategy
	TestType TestType `yaml:"test_type"`
	// TestFunction is a function name or path of the test script to execute
	TestFunction string `yaml:"test_function"`
	// UserType selects role-specific credentials for UI flows (recruiter,
	// candidate, admin)
	UserType string `yaml:"user_type,omitempty"`
	// Locale the scenario runs under
	Locale string `yaml:"locale,omitempty"`
	// DataSet selects the fixture size: standard, edge_cases, minimal, large
	DataSet string `yaml:"data_set,omitempty"`
	// Timeout is the wall-clock budget for the scenario's child process
	Timeout Duration `yaml:"timeout,omitempty"`
	// RetryOnFailure and MaxRetries are advisory for external retry wrappers;
	// a worker always performs exactly one attempt
	RetryOnFailure bool `yaml:"retry_on_failure"`
	MaxRetries     int  `yaml:"max_retries"`
	// RequiredResources are free-form resource hints (connection counts, rps)
	RequiredResources map[string]any `yaml:"required_resources,omitempty"`
	// EnvironmentVars are added verbatim to the worker environment
	EnvironmentVars map[string]string `yaml:"environment_vars,omitempty"`
}

const (
	defaultTimeout    = 120 * time.Second
	defaultDataSet    = "standard"
	defaultLocale     = "en"
	defaultMaxRetries = 2
)

// UnmarshalYAML decodes a scenario and applies defaults for omitted fields.
func (s *TestScenario) UnmarshalYAML(node *yaml.Node) error {
	type plain TestScenario
	if err := node.Decode((*plain)(s)); err != nil {
		return err
	}
	// Decode again through a pointer so an omitted retry_on_failure can be
	// told apart from an explicit false.
	var flags struct {
		RetryOnFailure *bool `yaml:"retry_on_failure"`
	}
	if err := node.Decode(&flags); err != nil {
		return err
	}
	if flags.RetryOnFailure == nil {
		s.RetryOnFailure = true
	}
	s.applyDefaults()
	return nil
}

func (s *TestScenario) applyDefaults() {
	if s.Timeout == 0 {
		s.Timeout = Duration(defaultTimeout)
	}
	if s.DataSet == "" {
		s.DataSet = defaultDataSet
	}
	if s.Locale == "" {
		s.Locale = defaultLocale
	}
	if s.MaxRetries == 0 {
		s.MaxRetries = defaultMaxRetries
	}
	if s.RequiredResources == nil {
		s.RequiredResources = map[string]any{}
	}
	if s.EnvironmentVars == nil {
		s.EnvironmentVars = map[string]string{}
	}
}

// New creates a scenario with defaults applied, for programmatic construction.
func New(name string, testType TestType, testFunction string) TestScenario {
	s := TestScenario{
		Name:           name,
		TestType:       testType,
		TestFunction:   testFunction,
		RetryOnFailure: true,
	}
	s.applyDefaults()
	return s
}

// Validate checks the scenario's required fields.
func (s TestScenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	if s.TestFunction == "" {
		return fmt.Errorf("scenario test_function is required")
	}
	if _, err := ParseTestType(string(s.TestType)); err != nil {
		return err
	}
	if s.Timeout <= 0 {
		return fmt.Errorf("scenario timeout must be positive")
	}
	return nil
}
