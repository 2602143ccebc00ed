package extraction

import (
	"context"
	"regexp"
)

// Strategy is one heuristic for extracting a single field
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, text string) (string, bool)
}

// Chain tries strategies in order. The first one that succeeds wins.
type Chain []Strategy

// Run returns the first successful result and the name of the strategy that produced it
func (c Chain) Run(ctx context.Context, text string) (value, strategy string, ok bool) {
	for _, s := range c {
		if v, ok := s.Attempt(ctx, text); ok {
			return v, s.Name(), true
		}
	}
	return "", "", false
}

// PatternStrategy returns the first match of a regular expression anywhere in the text
type PatternStrategy struct {
	name string
	re   *regexp.Regexp
}

// NewPatternStrategy creates a strategy around a compiled expression
func NewPatternStrategy(name string, re *regexp.Regexp) PatternStrategy {
	return PatternStrategy{name: name, re: re}
}

func (p PatternStrategy) Name() string { return p.name }

func (p PatternStrategy) Attempt(_ context.Context, text string) (string, bool) {
	m := p.re.FindString(text)
	return m, m != ""
}
