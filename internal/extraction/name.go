package extraction

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
)

// HeaderLines is how many non-empty lines are searched for a name at the top of a CV
const HeaderLines = 6

var headerNamePattern = regexp.MustCompile(`^[A-Z][a-z]+ [A-Z][a-z]+$`)

// HeaderNameStrategy matches a "Firstname Lastname" line in the CV header
type HeaderNameStrategy struct{}

func (HeaderNameStrategy) Name() string { return "header-pattern" }

func (HeaderNameStrategy) Attempt(_ context.Context, text string) (string, bool) {
	seen := 0
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if headerNamePattern.MatchString(line) {
			return line, true
		}
		seen++
		if seen == HeaderLines {
			break
		}
	}
	return "", false
}

// EntityStrategy asks a named-entity recognizer for the first person in the text
type EntityStrategy struct {
	recognizer EntityRecognizer
	logger     *zap.Logger
}

// NewEntityStrategy wraps a recognizer as a name strategy
func NewEntityStrategy(recognizer EntityRecognizer, log *zap.Logger) EntityStrategy {
	return EntityStrategy{recognizer: recognizer, logger: logger.OrNop(log)}
}

func (s EntityStrategy) Name() string { return "named-entity" }

func (s EntityStrategy) Attempt(ctx context.Context, text string) (string, bool) {
	if s.recognizer == nil || strings.TrimSpace(text) == "" {
		return "", false
	}

	people, err := s.recognizer.People(ctx, text)
	if err != nil {
		s.logger.Warn("named-entity recognition failed", zap.Error(err))
		return "", false
	}

	for _, p := range people {
		if p = strings.TrimSpace(p); p != "" {
			return p, true
		}
	}
	return "", false
}
