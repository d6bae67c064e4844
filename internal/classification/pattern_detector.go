// Package classification assigns transactions to revenue and expense categories
// using per-user rules, an ordered pattern taxonomy and side defaults.
package classification

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/config"
	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/model"
)

// Taxonomy is the ordered category table for each side of the P&L.
type Taxonomy struct {
	Revenue []model.CategoryPattern `yaml:"revenue"`
	Expense []model.CategoryPattern `yaml:"expense"`
}

// LoadTaxonomy reads a taxonomy from a YAML file. An empty path returns the defaults.
func LoadTaxonomy(path string) (Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}

	data, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return Taxonomy{}, fmt.Errorf("failed to read taxonomy: %w", err)
	}

	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Taxonomy{}, fmt.Errorf("failed to parse taxonomy %s: %w", path, err)
	}
	if len(t.Revenue) == 0 && len(t.Expense) == 0 {
		return Taxonomy{}, fmt.Errorf("%w: taxonomy %s has no categories", common.ErrInvalidConfig, path)
	}
	return t, nil
}

// compiledPattern is one category with its regular expressions compiled.
type compiledPattern struct {
	category string
	regexes  []*regexp.Regexp
}

// PatternDetector matches descriptions against a compiled taxonomy.
// It is immutable after construction.
type PatternDetector struct {
	revenue []compiledPattern
	expense []compiledPattern
}

// NewPatternDetector compiles every pattern case-insensitively.
func NewPatternDetector(t Taxonomy) (*PatternDetector, error) {
	revenue, err := compileSide(t.Revenue)
	if err != nil {
		return nil, err
	}
	expense, err := compileSide(t.Expense)
	if err != nil {
		return nil, err
	}
	return &PatternDetector{revenue: revenue, expense: expense}, nil
}

func compileSide(patterns []model.CategoryPattern) ([]compiledPattern, error) {
	out := make([]compiledPattern, 0, len(patterns))
	for _, p := range patterns {
		if p.Category == "" {
			return nil, fmt.Errorf("%w: category pattern without a name", common.ErrInvalidConfig)
		}
		cp := compiledPattern{category: p.Category, regexes: make([]*regexp.Regexp, 0, len(p.Patterns))}
		for _, expr := range p.Patterns {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("failed to compile pattern for %s: %w", p.Category, err)
			}
			cp.regexes = append(cp.regexes, re)
		}
		out = append(out, cp)
	}
	return out, nil
}

// Match returns the first category on the given side whose patterns match description.
func (pd *PatternDetector) Match(side model.CategoryType, description string) (string, bool) {
	table := pd.expense
	if side == model.CategoryTypeRevenue {
		table = pd.revenue
	}
	for _, cp := range table {
		for _, re := range cp.regexes {
			if re.MatchString(description) {
				return cp.category, true
			}
		}
	}
	return "", false
}

// Categories lists the category names on one side in table order.
func (pd *PatternDetector) Categories(side model.CategoryType) []string {
	table := pd.expense
	if side == model.CategoryTypeRevenue {
		table = pd.revenue
	}
	names := make([]string, 0, len(table))
	for _, cp := range table {
		names = append(names, cp.category)
	}
	return names
}
