package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"cloud.google.com/go/vertexai/genai"

	"github.com/ZouhairMK888/cv-analysis-and-ranking/internal/models"
)

// maxPromptRunes bounds the CV excerpt sent to the model; names sit at the top of a CV
const maxPromptRunes = 4000

const peoplePrompt = `List the full names of the people mentioned in the following CV text, in order of appearance.
Respond with a JSON array of strings only, for example ["Jane Doe"]. Respond with [] if there are none.

CV text:
%s`

// VertexAIClient wraps the Vertex AI Gemini API
type VertexAIClient struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	projectID string
	location  string
}

// NewVertexAIClient creates a new Vertex AI client
func NewVertexAIClient(ctx context.Context, projectID, location, modelName string) (*VertexAIClient, error) {
	if projectID == "" {
		return nil, &models.ConfigurationError{Capability: "named-entity model", Err: fmt.Errorf("google cloud project not set")}
	}
	if location == "" {
		location = "us-central1"
	}

	client, err := genai.NewClient(ctx, projectID, location)
	if err != nil {
		return nil, &models.ConfigurationError{Capability: "named-entity model", Err: fmt.Errorf("failed to create Vertex AI client: %w", err)}
	}

	model := client.GenerativeModel(modelName)

	// Zero temperature keeps answers stable for identical CVs
	model.SetTemperature(0)
	model.SetTopK(1)
	model.SetMaxOutputTokens(256)
	model.ResponseMIMEType = "application/json"

	return &VertexAIClient{
		client:    client,
		model:     model,
		projectID: projectID,
		location:  location,
	}, nil
}

// GenerateContent sends a prompt to the model and returns the response
func (v *VertexAIClient) GenerateContent(ctx context.Context, prompt string) (string, error) {
	resp, err := v.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates returned")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	return sb.String(), nil
}

// People asks the model for the person names found in the text
func (v *VertexAIClient) People(ctx context.Context, text string) ([]string, error) {
	resp, err := v.GenerateContent(ctx, fmt.Sprintf(peoplePrompt, truncate(text, maxPromptRunes)))
	if err != nil {
		return nil, err
	}
	return ParsePeople(resp)
}

// Check sends a probe request so a broken setup is reported before any CV is processed
func (v *VertexAIClient) Check(ctx context.Context) error {
	if _, err := v.People(ctx, "Jane Doe joined Acme in 2020."); err != nil {
		return &models.ConfigurationError{Capability: "named-entity model", Err: err}
	}
	return nil
}

// Close closes the Vertex AI client
func (v *VertexAIClient) Close() error {
	return v.client.Close()
}

// ParsePeople decodes the model answer, tolerating markdown code fences
func ParsePeople(resp string) ([]string, error) {
	resp = strings.TrimSpace(resp)
	resp = strings.TrimPrefix(resp, "```json")
	resp = strings.TrimPrefix(resp, "```")
	resp = strings.TrimSuffix(resp, "```")

	var people []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(resp)), &people); err != nil {
		return nil, fmt.Errorf("failed to parse model response: %w", err)
	}
	return people, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
