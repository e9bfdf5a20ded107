package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dgallion1/docmock/internal/classify"
)

// RulesFile is the optional YAML file tuning the section classifier and the
// response cache signature.
type RulesFile struct {
	Keywords      []string `yaml:"keywords"`
	URLPattern    string   `yaml:"url_pattern"`
	SignatureKeys []string `yaml:"signature_keys"`
}

// LoadRules reads a rules file. An empty path yields empty rules.
func LoadRules(path string) (RulesFile, error) {
	var rf RulesFile
	if strings.TrimSpace(path) == "" {
		return rf, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return rf, fmt.Errorf("read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return rf, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return rf, nil
}

// Rules builds classifier rules from FILTER_KEYWORDS, FILTER_URL_REGEX and
// the rules file. Environment keywords come first; an environment URL
// pattern overrides the file's. The file's signature keys are returned too.
func (c Config) Rules() (classify.Rules, []string, error) {
	rf, err := LoadRules(c.RulesFile)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return classify.Rules{}, nil, err
	}
	keywords := append(classify.ParseKeywords(c.FilterKeywords), rf.Keywords...)
	pattern := c.FilterURLRegex
	if strings.TrimSpace(pattern) == "" {
		pattern = rf.URLPattern
	}
	rules, err := classify.NewRules(keywords, pattern)
	if err != nil {
		return classify.Rules{}, nil, err
	}
	return rules, rf.SignatureKeys, nil
}
