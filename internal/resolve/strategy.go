package resolve

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/unalkalkan/PaperSlides/pkg/types"
)

// Strategy matches a parsed reference against the available figures
type Strategy interface {
	// Name identifies the strategy in logs and configuration
	Name() string

	// Match returns the figure the reference points at, if any
	Match(ref types.FigureReference, figures []types.Figure) (types.Figure, bool)
}

// PatternGenerator builds one filename pattern from a figure number
type PatternGenerator func(number string) string

// DefaultPatterns lists the filename conventions in priority order
var DefaultPatterns = []PatternGenerator{
	func(n string) string { return "figure_" + n },
	func(n string) string { return "fig_" + n },
	func(n string) string { return "fig" + n },
	func(n string) string { return "figure" + n },
	func(n string) string { return "_" + n + "_" },
	func(n string) string { return "_" + n + "." },
}

// PatternStrategy matches case-insensitive substrings of the figure file identifiers.
// The first pattern with any match wins; within it the earliest figure wins.
type PatternStrategy struct {
	patterns []PatternGenerator
}

// NewPatternStrategy creates a pattern strategy, using DefaultPatterns when none are given
func NewPatternStrategy(patterns ...PatternGenerator) *PatternStrategy {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	return &PatternStrategy{patterns: patterns}
}

func (p *PatternStrategy) Name() string {
	return "pattern"
}

// Match evaluates the patterns in order
func (p *PatternStrategy) Match(ref types.FigureReference, figures []types.Figure) (types.Figure, bool) {
	if !ref.Resolvable() || len(figures) == 0 {
		return types.Figure{}, false
	}

	ids := make([]string, len(figures))
	for i, fig := range figures {
		ids[i] = strings.ToLower(fig.FileID)
	}

	for _, gen := range p.patterns {
		pattern := strings.ToLower(gen(ref.Number))
		for i, id := range ids {
			if strings.Contains(id, pattern) {
				return figures[i], true
			}
		}
	}

	return types.Figure{}, false
}

// FuzzyStrategy ranks figure basenames with a fuzzy matcher. Only candidates
// carrying exactly the referenced number are accepted, so "fig1" never
// resolves to figure_10.png.
type FuzzyStrategy struct{}

// NewFuzzyStrategy creates a fuzzy strategy
func NewFuzzyStrategy() *FuzzyStrategy {
	return &FuzzyStrategy{}
}

func (f *FuzzyStrategy) Name() string {
	return "fuzzy"
}

// Match returns the best-scoring candidate with the same number
func (f *FuzzyStrategy) Match(ref types.FigureReference, figures []types.Figure) (types.Figure, bool) {
	if !ref.Resolvable() || len(figures) == 0 {
		return types.Figure{}, false
	}

	names := make([]string, len(figures))
	for i, fig := range figures {
		names[i] = strings.ToLower(filepath.Base(fig.FileID))
	}

	for _, query := range []string{"fig" + ref.Number, ref.Number} {
		for _, match := range fuzzy.Find(query, names) {
			if hasNumber(match.Str, ref.Number) {
				return figures[match.Index], true
			}
		}
	}

	return types.Figure{}, false
}

// hasNumber reports whether any digit run in s equals number
func hasNumber(s, number string) bool {
	for i := 0; i < len(s); {
		if !isDigit(s[i]) {
			i++
			continue
		}
		j := i
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if s[i:j] == number {
			return true
		}
		i = j
	}
	return false
}

// ChainStrategy tries each strategy in turn
type ChainStrategy struct {
	strategies []Strategy
}

// NewChainStrategy creates a strategy that returns the first successful match
func NewChainStrategy(strategies ...Strategy) *ChainStrategy {
	return &ChainStrategy{strategies: strategies}
}

func (c *ChainStrategy) Name() string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name()
	}
	return strings.Join(names, "+")
}

// Match returns the first match any strategy finds
func (c *ChainStrategy) Match(ref types.FigureReference, figures []types.Figure) (types.Figure, bool) {
	for _, s := range c.strategies {
		if fig, ok := s.Match(ref, figures); ok {
			return fig, true
		}
	}
	return types.Figure{}, false
}

// NewStrategy maps a pipeline.figure_matching value to a strategy
func NewStrategy(name string) (Strategy, error) {
	switch name {
	case "", "pattern":
		return NewPatternStrategy(), nil
	case "fuzzy":
		return NewFuzzyStrategy(), nil
	case "pattern+fuzzy":
		return NewChainStrategy(NewPatternStrategy(), NewFuzzyStrategy()), nil
	default:
		return nil, fmt.Errorf("unknown figure matching strategy: %s", name)
	}
}
