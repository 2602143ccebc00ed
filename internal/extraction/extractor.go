// Package extraction derives structured candidate fields from CV text.
package extraction

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/logger"
	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// Extractor builds a CandidateProfile from plain text.
// Given a deterministic recognizer and clock, identical text yields an identical profile.
type Extractor struct {
	recognizer EntityRecognizer
	name       Chain
	email      Chain
	phone      Chain
	now        func() time.Time
	logger     *zap.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithClock overrides the clock used to resolve "present" in experience ranges
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// New creates an extractor. A nil recognizer disables the named-entity fallback for names.
func New(recognizer EntityRecognizer, opts ...Option) *Extractor {
	e := &Extractor{
		recognizer: recognizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logger.OrNop(e.logger)

	e.name = Chain{HeaderNameStrategy{}}
	if recognizer != nil {
		e.name = append(e.name, NewEntityStrategy(recognizer, e.logger))
	}
	e.email = Chain{EmailStrategy()}
	e.phone = Chain{PhoneStrategy()}

	return e
}

// Preflight verifies the named-entity model can be loaded
func (e *Extractor) Preflight(ctx context.Context) error {
	if e.recognizer == nil {
		return nil
	}
	return e.recognizer.Check(ctx)
}

// Extract derives every field. Fields that cannot be found are left nil or zero.
func (e *Extractor) Extract(ctx context.Context, text string) models.CandidateProfile {
	return models.CandidateProfile{
		Name:            e.run(ctx, "name", e.name, text),
		Email:           e.run(ctx, "email", e.email, text),
		Phone:           e.run(ctx, "phone", e.phone, text),
		Skills:          ExtractSkills(text),
		ExperienceYears: ExperienceYears(text, e.now().Year()),
	}
}

func (e *Extractor) run(ctx context.Context, field string, chain Chain, text string) *string {
	v, strategy, ok := chain.Run(ctx, text)
	if !ok {
		e.logger.Debug("field not found", zap.String("field", field))
		return nil
	}
	e.logger.Debug("field extracted", zap.String("field", field), zap.String("strategy", strategy))
	return &v
}
