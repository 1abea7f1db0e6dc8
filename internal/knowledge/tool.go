package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ToolVectorSearch is the name of the single tool exposed to the evaluator model
const ToolVectorSearch = "vector_search"

// Tools returns the machine-readable tool schema offered to the model
func (s *Store) Tools() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ToolVectorSearch,
				Description: "Searches the factual local knowledge base for a specific query to verify a claim.",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "The specific factual question or keywords to search for.",
						},
					},
					"required": []string{"query"},
				},
			},
		},
	}
}

// ExecuteTool routes a model-initiated tool call to the store by name.
// Arguments arrive as the JSON string from the tool call.
func (s *Store) ExecuteTool(ctx context.Context, name, argsJSON string) (string, error) {
	switch name {
	case ToolVectorSearch:
		var args struct {
			Query string `json:"query"`
		}
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return s.SearchText(ctx, args.Query)
	}
	return "", fmt.Errorf("unknown tool requested by model: %s", name)
}

// SearchText executes a semantic search and renders the result for the
// model: newline-joined top matches, or the no-match sentinel.
func (s *Store) SearchText(ctx context.Context, query string) (string, error) {
	matches, err := s.Query(ctx, query, s.topK)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return NoMatchResult, nil
	}

	texts := make([]string, len(matches))
	for i, m := range matches {
		texts[i] = m.Text
	}
	return strings.Join(texts, "\n"), nil
}
