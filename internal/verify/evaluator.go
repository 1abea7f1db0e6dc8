package verify

import (
	"context"
	"fmt"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veridraft/veridraft/internal/llm"
	"github.com/veridraft/veridraft/internal/model"
	"github.com/veridraft/veridraft/internal/util"
)

const systemPrompt = `You are an Evaluator Agent. Your task is to check if a claim is factually grounded in the source context.
First, if you don't have the context yet, you MUST use the ` + "`vector_search`" + ` tool to search the local knowledge base for information related to the claim.
Once you have the context, you must evaluate the claim based ONLY on the source context. Do not use external knowledge.

When evaluating, return a JSON object with:
- faithfulness_score (float between 0.0 and 1.0)
- requires_revision (boolean)
- rationale (string explaining your decision)

A score of 1.0 means perfectly faithful to the source. 0.0 means completely unsupported or hallucinated.`

const verdictInstruction = "Now use the tool results to output the evaluation JSON object as previously instructed. Ensure the output is valid JSON."

// ToolExecutor is the surface of the knowledge store the evaluator needs
type ToolExecutor interface {
	Tools() []openai.Tool
	ExecuteTool(ctx context.Context, name, argsJSON string) (string, error)
}

// Evaluator produces a faithfulness verdict for a single claim through a
// tool-augmented model round-trip: first the model decides whether to call
// vector_search, then it emits the strict JSON verdict.
type Evaluator struct {
	client llm.Client
	tools  ToolExecutor
	model  string
	policy llm.Policy
}

// NewEvaluator creates a new claim evaluator
func NewEvaluator(client llm.Client, tools ToolExecutor, modelName string, policy llm.Policy) *Evaluator {
	return &Evaluator{
		client: client,
		tools:  tools,
		model:  modelName,
		policy: policy,
	}
}

// Evaluate checks one claim against the knowledge store. It always returns
// a verdict: terminal failures become a zero-score revision verdict rather
// than an error, so one bad claim never takes the pipeline down.
func (e *Evaluator) Evaluate(ctx context.Context, claim string) model.Verdict {
	verdict, err := e.evaluate(ctx, claim)
	if err != nil {
		slog.Error("claim evaluation failed",
			"model", e.model,
			"claim", claim,
			"error", err)
		return model.FallbackVerdict(fmt.Sprintf("evaluation error: %v", err))
	}
	return verdict
}

func (e *Evaluator) evaluate(ctx context.Context, claim string) (model.Verdict, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: "Claim payload: " + claim},
	}

	assistant, err := e.requestToolDecision(ctx, messages)
	if err != nil {
		return model.Verdict{}, err
	}

	var content string
	if len(assistant.ToolCalls) > 0 {
		content, err = e.requestVerdict(ctx, messages, assistant)
		if err != nil {
			return model.Verdict{}, err
		}
	} else {
		// Degraded path: the model skipped the tool, try its answer as-is
		slog.Warn("model answered without using a tool, parsing response directly", "claim", claim)
		content = assistant.Content
	}

	return parseVerdict(content), nil
}

// requestToolDecision is the first state: offer the vector_search tool and
// let the model decide whether to use it
func (e *Evaluator) requestToolDecision(ctx context.Context, messages []openai.ChatCompletionMessage) (openai.ChatCompletionMessage, error) {
	resp, err := llm.Retry(ctx, e.policy, func() (openai.ChatCompletionResponse, error) {
		return e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:      e.model,
			Messages:   messages,
			Tools:      e.tools.Tools(),
			ToolChoice: "auto",
		})
	})
	if err != nil {
		return openai.ChatCompletionMessage{}, fmt.Errorf("tool decision call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return openai.ChatCompletionMessage{}, fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message, nil
}

// requestVerdict is the second state: execute the requested tool calls,
// feed their results back, and ask for the strict JSON verdict
func (e *Evaluator) requestVerdict(ctx context.Context, messages []openai.ChatCompletionMessage, assistant openai.ChatCompletionMessage) (string, error) {
	messages = append(messages, assistant)

	for _, call := range assistant.ToolCalls {
		result, toolErr := e.tools.ExecuteTool(ctx, call.Function.Name, call.Function.Arguments)
		if toolErr != nil {
			// Feed the failure back as the tool result so the model can
			// still produce a (low-confidence) verdict
			slog.Error("tool execution failed", "tool", call.Function.Name, "error", toolErr)
			result = fmt.Sprintf("Error: %v", toolErr)
		}
		messages = append(messages, openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    result,
			Name:       call.Function.Name,
			ToolCallID: call.ID,
		})
	}

	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: verdictInstruction,
	})

	resp, err := llm.Retry(ctx, e.policy, func() (openai.ChatCompletionResponse, error) {
		return e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:    e.model,
			Messages: messages,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
	})
	if err != nil {
		return "", fmt.Errorf("verdict call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// parseVerdict extracts the verdict object from model output, falling back
// to a zero-score verdict when no valid JSON is present
func parseVerdict(content string) model.Verdict {
	var verdict model.Verdict
	if err := util.ExtractObject(content, &verdict); err != nil {
		return model.FallbackVerdict("failed to parse evaluation JSON")
	}
	return verdict
}
