package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/cauldron/internal/engine"
	"github.com/roach88/cauldron/internal/testutil"
	"github.com/roach88/cauldron/internal/world"
)

// LoadScenario loads and validates a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates a scenario.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos in field names.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ScenarioFiles returns the .yaml and .yml files in dir, sorted by name.
func ScenarioFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yaml", ".yml":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i := 1; i < len(s.Steps); i++ {
		if s.Steps[i].At < s.Steps[i-1].At {
			return fmt.Errorf("steps[%d]: at goes backwards", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, s *Step) error {
	if s.Kind == "" {
		return fmt.Errorf("steps[%d]: kind is required", index)
	}
	if s.Pos.IsZero() {
		return fmt.Errorf("steps[%d]: pos is required", index)
	}
	if s.At < 0 {
		return fmt.Errorf("steps[%d]: at must not be negative", index)
	}
	// Broken events are allowed when the step expects the error.
	if s.Expect != nil && s.Expect.Error != "" {
		return nil
	}
	if err := s.Event(testutil.Epoch).Validate(); err != nil {
		return fmt.Errorf("steps[%d]: %w", index, err)
	}
	if s.Kind == engine.KindAdd && s.Amount == 0 {
		return fmt.Errorf("steps[%d]: add needs an amount", index)
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertBrewExists, AssertNoBrew, AssertIngredientCount, AssertColor, AssertBlock:
		if a.Station.IsZero() {
			return fmt.Errorf("assertions[%d]: station is required for %s", index, a.Type)
		}
	}

	switch a.Type {
	case AssertBrewExists, AssertNoBrew:
	case AssertIngredientCount, AssertBrewCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertColor:
		if a.Color == "" {
			return fmt.Errorf("assertions[%d]: color is required for color", index)
		}
	case AssertBlock:
		if a.Block == nil {
			return fmt.Errorf("assertions[%d]: block is required for block", index)
		}
		if _, err := world.ParseKind(string(a.Block.Kind)); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
