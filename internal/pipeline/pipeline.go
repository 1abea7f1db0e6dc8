package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/veridraft/veridraft/internal/cache"
	"github.com/veridraft/veridraft/internal/extract"
	"github.com/veridraft/veridraft/internal/generate"
	"github.com/veridraft/veridraft/internal/knowledge"
	"github.com/veridraft/veridraft/internal/llm"
	"github.com/veridraft/veridraft/internal/model"
	"github.com/veridraft/veridraft/internal/verify"
)

// Evaluator judges a single claim against the knowledge store
type Evaluator interface {
	Evaluate(ctx context.Context, claim string) model.Verdict
}

// Pipeline orchestrates document generation and concurrent claim verification
type Pipeline struct {
	generator      *generate.Generator
	store          *knowledge.Store
	evaluator      Evaluator
	sem            *semaphore.Weighted
	minClaimLength int
	windowSize     int
}

// New assembles a pipeline from pre-built components. Zero verification
// settings get the same defaults DefaultConfig carries.
func New(generator *generate.Generator, store *knowledge.Store, evaluator Evaluator, cfg *model.Config) *Pipeline {
	maxConcurrency := cfg.Verification.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 50
	}
	minClaimLength := cfg.Verification.MinClaimLength
	if minClaimLength <= 0 {
		minClaimLength = extract.MinClaimLength
	}
	windowSize := cfg.Verification.WindowSize
	if windowSize < 1 {
		windowSize = 2
	}

	return &Pipeline{
		generator:      generator,
		store:          store,
		evaluator:      evaluator,
		sem:            semaphore.NewWeighted(int64(maxConcurrency)),
		minClaimLength: minClaimLength,
		windowSize:     windowSize,
	}
}

// NewFromConfig wires the production pipeline: rate-limited OpenAI client,
// cached embedder, in-memory vector store, and the tool-calling evaluator.
func NewFromConfig(cfg *model.Config) (*Pipeline, error) {
	client, err := llm.NewOpenAIClient(llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create LLM client: %w", err)
	}

	embCache := cache.NewMemoryCache(cfg.Knowledge.CacheTTL, cfg.Knowledge.CacheTTL)
	embedder, err := knowledge.NewOpenAIEmbedder(cfg.LLM.APIKey, cfg.Knowledge.EmbeddingModel, embCache, cfg.Knowledge.CacheTTL)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	policy := llm.PolicyFromModel(cfg.Retry)
	store := knowledge.NewStore(embedder, cfg.Knowledge.TopK)
	generator := generate.NewGenerator(client, cfg.LLM.Model, policy, cfg.Generation)
	evaluator := verify.NewEvaluator(client, store, cfg.LLM.Model, policy)

	return New(generator, store, evaluator, cfg), nil
}

// LoadSource splits the source text into paragraphs and indexes them in the
// knowledge store. Loading an empty source leaves the store empty; every
// claim then falls back to a flagged verdict.
func (p *Pipeline) LoadSource(ctx context.Context, sourceText string) error {
	paragraphs := SplitParagraphs(sourceText)
	if err := p.store.Load(ctx, paragraphs); err != nil {
		return fmt.Errorf("index source: %w", err)
	}
	slog.Info("source knowledge indexed", "fragments", p.store.Size())
	return nil
}

// GenerateAndVerify streams the document, dispatches each complete sentence
// for verification as soon as it is emitted, and returns the full document
// text along with one verdict per dispatched claim. The draft is written to
// outputPath (if non-empty) before waiting for in-flight verifications.
func (p *Pipeline) GenerateAndVerify(ctx context.Context, sourceText, userRequest, outputPath string) (string, []model.Result, error) {
	if err := p.LoadSource(ctx, sourceText); err != nil {
		return "", nil, err
	}

	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		results    []model.Result
		dispatched int
	)

	dispatch := func(claim string) {
		dispatched++
		wg.Add(1)
		go func() {
			defer wg.Done()
			verdict := p.evaluateGated(ctx, claim)
			mu.Lock()
			results = append(results, model.Result{Claim: claim, Verdict: verdict})
			mu.Unlock()
		}()
	}

	var doc strings.Builder
	buf := extract.NewSentenceBuffer()
	minLength := p.minClaimLength

	for frag := range p.generator.StreamDocument(ctx, sourceText, userRequest) {
		doc.WriteString(frag.Text)

		if frag.Kind != generate.KindContent {
			// Section boundary: whatever is still buffered will never be
			// completed by later fragments
			if residue := buf.Flush(); len(strings.TrimSpace(residue)) > minLength {
				dispatch(residue)
			}
			continue
		}

		for _, sentence := range buf.Feed(frag.Text) {
			if len(strings.TrimSpace(sentence)) > minLength {
				dispatch(sentence)
			}
		}
	}

	if residue := buf.Flush(); len(strings.TrimSpace(residue)) > minLength {
		dispatch(residue)
	}

	// A failed draft write must not skip the barrier: in-flight
	// verifications still complete and their verdicts are returned
	// alongside the error
	document := doc.String()
	var writeErr error
	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(document), 0o644); err != nil {
			writeErr = fmt.Errorf("write draft: %w", err)
			slog.Error("draft write failed", "path", outputPath, "error", err)
		} else {
			slog.Info("draft written", "path", outputPath, "bytes", len(document))
		}
	}

	slog.Info("generation complete, waiting for verification", "dispatched", dispatched)
	wg.Wait()

	return document, results, writeErr
}

// EvaluateClaims verifies a batch of claims concurrently, bounded by the
// pipeline's concurrency cap. Results keep the order of the input claims.
func (p *Pipeline) EvaluateClaims(ctx context.Context, claims []string) []model.Result {
	results := make([]model.Result, len(claims))

	var wg sync.WaitGroup
	for i, claim := range claims {
		wg.Add(1)
		go func(i int, claim string) {
			defer wg.Done()
			results[i] = model.Result{Claim: claim, Verdict: p.evaluateGated(ctx, claim)}
		}(i, claim)
	}
	wg.Wait()

	return results
}

// ScoreClaims verifies a batch of claims with the direct vector-distance
// scorer: no model round-trips, just an embedding per claim. Cheaper and
// deterministic, but blind to paraphrase and negation.
func (p *Pipeline) ScoreClaims(ctx context.Context, claims []string) []model.Result {
	results := make([]model.Result, len(claims))

	var wg sync.WaitGroup
	for i, claim := range claims {
		wg.Add(1)
		go func(i int, claim string) {
			defer wg.Done()
			if err := p.sem.Acquire(ctx, 1); err != nil {
				results[i] = model.Result{Claim: claim, Verdict: model.FallbackVerdict("verification cancelled: " + err.Error())}
				return
			}
			defer p.sem.Release(1)

			verdict, err := p.store.ScoreByDistance(ctx, claim)
			if err != nil {
				verdict = model.FallbackVerdict("scoring error: " + err.Error())
			}
			results[i] = model.Result{Claim: claim, Verdict: verdict}
		}(i, claim)
	}
	wg.Wait()

	return results
}

// VerifyDocument reads an existing document and verifies it in overlapping
// sentence windows against the already-loaded knowledge store.
func (p *Pipeline) VerifyDocument(ctx context.Context, documentPath string) ([]model.Result, error) {
	windows, err := p.documentWindows(documentPath)
	if err != nil {
		return nil, err
	}
	return p.EvaluateClaims(ctx, windows), nil
}

// ScoreDocument is VerifyDocument on the direct vector-distance scorer
func (p *Pipeline) ScoreDocument(ctx context.Context, documentPath string) ([]model.Result, error) {
	windows, err := p.documentWindows(documentPath)
	if err != nil {
		return nil, err
	}
	return p.ScoreClaims(ctx, windows), nil
}

func (p *Pipeline) documentWindows(documentPath string) ([]string, error) {
	data, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	windows := extract.SlidingWindows(string(data), p.windowSize, p.minClaimLength)
	slog.Info("verifying document", "path", documentPath, "windows", len(windows))

	return windows, nil
}

// evaluateGated runs one evaluation under the concurrency semaphore and
// logs flagged verdicts. A failed acquire (cancelled context) yields a
// flagged fallback verdict rather than a silent gap in the results.
func (p *Pipeline) evaluateGated(ctx context.Context, claim string) model.Verdict {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return model.FallbackVerdict("verification cancelled: " + err.Error())
	}
	defer p.sem.Release(1)

	verdict := p.evaluator.Evaluate(ctx, claim)
	if verdict.Flagged() {
		slog.Warn("claim flagged",
			"claim", claim,
			"score", verdict.FaithfulnessScore,
			"rationale", verdict.Rationale)
	} else {
		slog.Debug("claim verified", "claim", claim, "score", verdict.FaithfulnessScore)
	}
	return verdict
}

// LoadSourceFile reads a source knowledge file. A missing file is reported
// and treated as empty, so generation still runs and every claim flags.
func LoadSourceFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Error("source file unavailable, continuing with empty knowledge", "path", path, "error", err)
		return ""
	}
	return string(data)
}

// SplitParagraphs splits text into non-empty trimmed paragraphs
func SplitParagraphs(text string) []string {
	var paragraphs []string
	for _, part := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}
	return paragraphs
}
