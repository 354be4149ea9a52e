package evaluation

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadGoldenCases reads and parses a golden case corpus from a JSON file.
func LoadGoldenCases(path string) ([]GoldenCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read golden cases file: %w", err)
	}

	var cases []GoldenCase
	if err := json.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse golden cases: %w", err)
	}

	return cases, nil
}

// ValidateGoldenCases checks that all golden cases have required fields and
// valid expected values.
func ValidateGoldenCases(cases []GoldenCase) error {
	seen := make(map[string]struct{}, len(cases))

	for i, gc := range cases {
		if gc.ID == "" {
			return fmt.Errorf("case at index %d: missing id", i)
		}
		if _, dup := seen[gc.ID]; dup {
			return fmt.Errorf("case at index %d: duplicate id %q", i, gc.ID)
		}
		seen[gc.ID] = struct{}{}

		if gc.Case.StudyID == "" {
			return fmt.Errorf("case %q: missing study_id", gc.ID)
		}
		if gc.Expected.Priority < 1 || gc.Expected.Priority > 4 {
			return fmt.Errorf("case %q: expected priority %d out of range 1-4", gc.ID, gc.Expected.Priority)
		}
		if gc.Expected.Protocol == "" {
			return fmt.Errorf("case %q: missing expected protocol", gc.ID)
		}
	}

	return nil
}
