package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veridraft/veridraft/internal/llm"
	"github.com/veridraft/veridraft/internal/model"
	"github.com/veridraft/veridraft/internal/util"
)

const generatorSystemPrompt = `You are an AI assistant tasked with generating a comprehensive report based STRICTLY on the provided source knowledge.

Your report should be well-structured, professional, and detailed.
Do not include any external information. If the source knowledge does not contain the answer, do not make it up.`

// DefaultOutline is the fallback used when outline generation fails
var DefaultOutline = []string{"Introduction", "Main Body", "Conclusion"}

// FragmentKind distinguishes stream fragments for the dispatcher: only
// content fragments carry sentences worth verifying
type FragmentKind int

const (
	KindContent FragmentKind = iota
	KindHeading
	KindError
)

// Fragment is one incremental piece of the generated document
type Fragment struct {
	Text string
	Kind FragmentKind
}

// Generator produces a document outline and then streams section content
// one section at a time, carrying a bounded window of recent output between
// sections for continuity.
type Generator struct {
	client        llm.Client
	model         string
	policy        llm.Policy
	numSections   int
	contextWindow int
}

// NewGenerator creates a new document generator
func NewGenerator(client llm.Client, modelName string, policy llm.Policy, cfg model.GenerationConfig) *Generator {
	numSections := cfg.NumSections
	if numSections <= 0 {
		numSections = 5
	}
	contextWindow := cfg.ContextWindow
	if contextWindow <= 0 {
		contextWindow = 2000
	}

	return &Generator{
		client:        client,
		model:         modelName,
		policy:        policy,
		numSections:   numSections,
		contextWindow: contextWindow,
	}
}

// BuildOutline asks the model for an ordered list of section titles as a
// JSON array of strings. Any failure, including retry exhaustion, falls
// back to the default three-section outline.
func (g *Generator) BuildOutline(ctx context.Context, sourceText, userRequest string) []string {
	system := fmt.Sprintf("You are an AI assistant orchestrating a long-form document. The outline must contain roughly %d sections.", g.numSections)
	user := fmt.Sprintf("Based on the following source knowledge and request, generate a detailed outline (section titles only) as a JSON array of strings.\n\nSource: %s\n\nUser Request: %s\n\nJSON array format: [\"Section 1\", \"Section 2\"]",
		sourceText, userRequest)

	slog.Info("generating document outline", "model", g.model, "target_sections", g.numSections)

	resp, err := llm.Retry(ctx, g.policy, func() (openai.ChatCompletionResponse, error) {
		return g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: system},
				{Role: openai.ChatMessageRoleUser, Content: user},
			},
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
	})
	if err != nil {
		slog.Error("outline generation failed, using default outline", "error", err)
		return DefaultOutline
	}
	if len(resp.Choices) == 0 {
		slog.Error("outline generation returned no choices, using default outline")
		return DefaultOutline
	}

	sections, err := util.ExtractStringArray(resp.Choices[0].Message.Content)
	if err != nil || len(sections) == 0 {
		slog.Error("outline response not a JSON array, using default outline", "error", err)
		return DefaultOutline
	}

	return sections
}

// StreamDocument generates the whole document as a finite, non-restartable
// stream of fragments. Each section gets a heading fragment followed by
// streamed content; a section that fails terminally yields an in-band error
// marker and generation moves on to the next section.
func (g *Generator) StreamDocument(ctx context.Context, sourceText, userRequest string) <-chan Fragment {
	out := make(chan Fragment)

	go func() {
		defer close(out)

		outline := g.BuildOutline(ctx, sourceText, userRequest)
		slog.Info("outline ready", "sections", len(outline))

		tail := newTailBuffer(g.contextWindow)

		for _, section := range outline {
			heading := fmt.Sprintf("\n\n## %s\n\n", section)
			if !emit(ctx, out, Fragment{Text: heading, Kind: KindHeading}) {
				return
			}
			tail.WriteString(heading)

			slog.Info("generating section", "section", section)

			if err := g.streamSection(ctx, sourceText, userRequest, section, tail, out); err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Error("section generation failed", "section", section, "error", err)
				marker := fmt.Sprintf("\n[error generating section %q]\n", section)
				if !emit(ctx, out, Fragment{Text: marker, Kind: KindError}) {
					return
				}
				tail.WriteString(marker)
			}
		}
	}()

	return out
}

// streamSection streams one section's content. The rate-limit retry wraps
// starting the streaming call; once deltas are flowing, a mid-stream failure
// is terminal for this section only.
func (g *Generator) streamSection(ctx context.Context, sourceText, userRequest, section string, tail *tailBuffer, out chan<- Fragment) error {
	prompt := fmt.Sprintf("Source Knowledge:\n%s\n\nUser Request: %s\n\nTask: Generate the content for the section titled %q. Write several comprehensive paragraphs with deep, specific details from the source knowledge.\n\nPrevious context in this document (for continuity):\n%s\n\nReturn ONLY the detailed content for this section, formatted in Markdown.",
		sourceText, userRequest, section, tail.String())

	stream, err := llm.Retry(ctx, g.policy, func() (llm.Stream, error) {
		return g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
			Model: g.model,
			Messages: []openai.ChatCompletionMessage{
				{Role: openai.ChatMessageRoleSystem, Content: generatorSystemPrompt},
				{Role: openai.ChatMessageRoleUser, Content: prompt},
			},
			Stream: true,
		})
	})
	if err != nil {
		return fmt.Errorf("start section stream: %w", err)
	}
	defer stream.Close()

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receive delta: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		if !emit(ctx, out, Fragment{Text: delta, Kind: KindContent}) {
			return ctx.Err()
		}
		tail.WriteString(delta)
	}
}

// emit sends a fragment unless the context is done
func emit(ctx context.Context, out chan<- Fragment, frag Fragment) bool {
	select {
	case out <- frag:
		return true
	case <-ctx.Done():
		return false
	}
}
