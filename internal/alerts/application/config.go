package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	alerts "genset-cloud/internal/alerts/domain"
)

type thresholdsFile struct {
	Thresholds alerts.RuleSet `yaml:"thresholds"`
}

// LoadDefaultRules reads factory limits from a YAML file. An empty path
// returns the built-in defaults.
func LoadDefaultRules(path string) (alerts.RuleSet, error) {
	defaults := alerts.DefaultRules()
	if path == "" {
		return defaults, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %s: %w", path, err)
	}
	var file thresholdsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("rules: parse %s: %w", path, err)
	}
	if len(file.Thresholds) == 0 {
		return defaults, nil
	}
	return defaults.Merge(file.Thresholds), nil
}
