package canonical

import (
	_ "embed"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

var defaultTaxonomy = mustLoadTaxonomy(taxonomyYAML)

type taxonomyRule struct {
	Canonical string   `yaml:"canonical"`
	Words     []string `yaml:"words"`
	Phrases   []string `yaml:"phrases"`
}

// Taxonomy maps free-form report type labels onto canonical names.
type Taxonomy struct {
	rules []taxonomyRule
}

func LoadTaxonomy(data []byte) (*Taxonomy, error) {
	var doc struct {
		Rules []taxonomyRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse taxonomy: %w", err)
	}
	for i, rule := range doc.Rules {
		if strings.TrimSpace(rule.Canonical) == "" {
			return nil, fmt.Errorf("taxonomy rule %d: canonical name is empty", i)
		}
		if len(rule.Words) == 0 && len(rule.Phrases) == 0 {
			return nil, fmt.Errorf("taxonomy rule %q has no keywords", rule.Canonical)
		}
		for j := range rule.Words {
			doc.Rules[i].Words[j] = strings.ToLower(strings.TrimSpace(rule.Words[j]))
		}
		for j := range rule.Phrases {
			doc.Rules[i].Phrases[j] = strings.ToLower(strings.TrimSpace(rule.Phrases[j]))
		}
	}
	return &Taxonomy{rules: doc.Rules}, nil
}

func mustLoadTaxonomy(data []byte) *Taxonomy {
	tx, err := LoadTaxonomy(data)
	if err != nil {
		panic(err)
	}
	return tx
}

// Canonicalize returns the canonical name of the first matching rule, the
// trimmed input when nothing matches, or the unknown marker for blank input.
func (tx *Taxonomy) Canonicalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return domain.UnknownReportType
	}

	lower := strings.ToLower(trimmed)
	tokens := make(map[string]struct{})
	for _, token := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		tokens[token] = struct{}{}
	}

	for _, rule := range tx.rules {
		for _, word := range rule.Words {
			if _, ok := tokens[word]; ok {
				return rule.Canonical
			}
		}
		for _, phrase := range rule.Phrases {
			if strings.Contains(lower, phrase) {
				return rule.Canonical
			}
		}
	}
	return trimmed
}

func (tx *Taxonomy) CanonicalNames() []string {
	names := make([]string, 0, len(tx.rules))
	for _, rule := range tx.rules {
		names = append(names, rule.Canonical)
	}
	return names
}

func CanonicalizeReportType(input string) string {
	return defaultTaxonomy.Canonicalize(input)
}

func ReportTypes() []string {
	return defaultTaxonomy.CanonicalNames()
}
