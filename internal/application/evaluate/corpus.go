package evaluate

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/smartos-go/assets"
	"github.com/doeshing/smartos-go/internal/domain"
)

type corpusFile struct {
	Cases []domain.TestCase `yaml:"cases"`
}

// DefaultCorpus returns the embedded 50-case corpus.
func DefaultCorpus() ([]domain.TestCase, error) {
	return ParseCorpus(assets.DefaultCorpusYAML)
}

// LoadCorpus reads a corpus YAML file.
func LoadCorpus(path string) ([]domain.TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	cases, err := ParseCorpus(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// ParseCorpus decodes and validates corpus YAML.
func ParseCorpus(data []byte) ([]domain.TestCase, error) {
	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse corpus: %w", err)
	}
	if len(file.Cases) == 0 {
		return nil, fmt.Errorf("corpus has no cases")
	}

	seen := make(map[string]bool, len(file.Cases))
	for i, c := range file.Cases {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("case %d: name is required", i+1)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("case %s: duplicate name", c.Name)
		}
		seen[c.Name] = true
		if _, err := domain.ParseTier(string(c.Tier)); err != nil {
			return nil, fmt.Errorf("case %s: %w", c.Name, err)
		}
		if strings.TrimSpace(c.Input) == "" {
			return nil, fmt.Errorf("case %s: input is required", c.Name)
		}
		if c.ExpectedAction == "" {
			return nil, fmt.Errorf("case %s: expected_action is required", c.Name)
		}
	}
	return file.Cases, nil
}

// FilterTier keeps the cases of one tier.
func FilterTier(cases []domain.TestCase, tier domain.Tier) []domain.TestCase {
	var out []domain.TestCase
	for _, c := range cases {
		if c.Tier == tier {
			out = append(out, c)
		}
	}
	return out
}
