package extract

import (
	"strings"
)

// MinClaimLength is the default minimum trimmed length for a sentence to be
// worth verifying. Shorter fragments are headings or stray punctuation.
const MinClaimLength = 20

// SentenceBuffer incrementally segments an irregularly-chunked text stream
// into complete sentences. Fragments arrive at arbitrary boundaries; a
// sentence is complete once a period followed by a space or line break
// appears in the buffered text.
type SentenceBuffer struct {
	buf strings.Builder
}

// NewSentenceBuffer creates an empty sentence buffer
func NewSentenceBuffer() *SentenceBuffer {
	return &SentenceBuffer{}
}

// Feed appends a fragment and returns every complete sentence now available,
// trimmed and terminated with a period. Text after the last terminator stays
// buffered for future fragments.
func (b *SentenceBuffer) Feed(fragment string) []string {
	b.buf.WriteString(fragment)

	text := b.buf.String()
	var sentences []string

	for {
		idx := terminatorIndex(text)
		if idx == -1 {
			break
		}

		candidate := strings.TrimSpace(text[:idx+1])
		if candidate != "" {
			sentences = append(sentences, candidate)
		}
		// Skip the terminator's trailing whitespace character
		text = text[idx+2:]
	}

	b.buf.Reset()
	b.buf.WriteString(text)

	return sentences
}

// Flush returns any residual buffered text, trimmed, and empties the buffer.
// Call once after the stream ends.
func (b *SentenceBuffer) Flush() string {
	residue := strings.TrimSpace(b.buf.String())
	b.buf.Reset()
	return residue
}

// Pending returns the current buffered text without consuming it
func (b *SentenceBuffer) Pending() string {
	return b.buf.String()
}

// terminatorIndex returns the index of the first sentence-terminating period,
// or -1. A period only terminates a sentence when followed by a space or a
// line break; a trailing period stays buffered until more text arrives.
func terminatorIndex(text string) int {
	for i := 0; i < len(text)-1; i++ {
		if text[i] == '.' && (text[i+1] == ' ' || text[i+1] == '\n') {
			return i
		}
	}
	return -1
}

// SplitSentences splits a complete text into sentences using the same
// heuristic as the streaming buffer, keeping only those at least minLength
// characters long.
func SplitSentences(text string, minLength int) []string {
	text = strings.ReplaceAll(text, "\n", " ")

	var sentences []string
	for _, part := range strings.Split(text, ". ") {
		s := strings.TrimSpace(part)
		if len(s) <= minLength {
			continue
		}
		if !strings.HasSuffix(s, ".") {
			s += "."
		}
		sentences = append(sentences, s)
	}

	return sentences
}

// SlidingWindows resplits a complete document into overlapping windows of
// sentences. Each window re-includes the previous windowSize-1 sentences so
// the verifier sees enough context to judge pronouns and references.
func SlidingWindows(text string, windowSize, minLength int) []string {
	if windowSize < 1 {
		windowSize = 1
	}

	sentences := SplitSentences(text, minLength)

	windows := make([]string, 0, len(sentences))
	for i := range sentences {
		start := i - windowSize + 1
		if start < 0 {
			start = 0
		}
		windows = append(windows, strings.Join(sentences[start:i+1], " "))
	}

	return windows
}
