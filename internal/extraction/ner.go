package extraction

import (
	"context"
	"fmt"

	"github.com/jdkato/prose/v2"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// EntityRecognizer finds person names in free text, in order of appearance
type EntityRecognizer interface {
	People(ctx context.Context, text string) ([]string, error)
	Check(ctx context.Context) error
}

// ProseRecognizer uses the averaged-perceptron model bundled with prose
type ProseRecognizer struct{}

// NewProseRecognizer creates the default offline recognizer
func NewProseRecognizer() *ProseRecognizer {
	return &ProseRecognizer{}
}

func (ProseRecognizer) People(_ context.Context, text string) ([]string, error) {
	doc, err := prose.NewDocument(text, prose.WithSegmentation(false))
	if err != nil {
		return nil, fmt.Errorf("failed to tag document: %w", err)
	}

	var people []string
	for _, ent := range doc.Entities() {
		if ent.Label == "PERSON" {
			people = append(people, ent.Text)
		}
	}
	return people, nil
}

// Check loads the model once on a probe sentence
func (r ProseRecognizer) Check(ctx context.Context) error {
	if _, err := r.People(ctx, "Jane Doe joined Acme in 2020."); err != nil {
		return &models.ConfigurationError{Capability: "named-entity model", Err: err}
	}
	return nil
}
