package normalize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/ayatsearch/configs"
	aerrors "github.com/Aman-CERP/ayatsearch/internal/errors"
)

// Rule is one literal rewrite applied to the whole string.
type Rule struct {
	Find    string `yaml:"find" json:"find"`
	Replace string `yaml:"replace" json:"replace"`
}

// RuleSet is the injectable part of normalization: the ordered rewrite table
// and the spoken letter-name dictionary.
type RuleSet struct {
	Version     int               `yaml:"version" json:"version"`
	Rules       []Rule            `yaml:"rules" json:"rules"`
	LetterNames map[string]string `yaml:"letter_names" json:"letter_names"`
}

// DefaultRuleSet returns the rule set embedded at build time.
func DefaultRuleSet() RuleSet {
	rs, err := ParseRuleSet([]byte(configs.NormalizationRules))
	if err != nil {
		panic(fmt.Sprintf("normalize: embedded rule set is invalid: %v", err))
	}
	return rs
}

// ParseRuleSet decodes a YAML rule set.
func ParseRuleSet(data []byte) (RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return RuleSet{}, aerrors.New(aerrors.ErrCodeRulesInvalid,
			fmt.Sprintf("failed to parse rule set: %v", err), err)
	}
	return rs, nil
}

// LoadRuleSet reads a YAML rule set from disk.
func LoadRuleSet(path string) (RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := aerrors.ErrCodeFileNotFound
		if os.IsPermission(err) {
			code = aerrors.ErrCodeFilePermission
		}
		return RuleSet{}, aerrors.New(code, fmt.Sprintf("failed to read rule set %s", path), err).
			WithDetail("path", path)
	}

	rs, err := ParseRuleSet(data)
	if err != nil {
		if se, ok := aerrors.As(err); ok {
			se.WithDetail("path", path)
		}
		return RuleSet{}, err
	}
	return rs, nil
}
