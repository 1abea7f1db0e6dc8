package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veridraft/veridraft/internal/model"
)

const (
	defaultMaxAttempts = 5
	defaultBaseDelay   = 2 * time.Second
	defaultWaitMargin  = time.Second
)

// retrySleep is the sleep function used between retries (injectable for tests)
var retrySleep = sleepContext

// suggestedWaitRe matches the wait hint some services embed in 429 messages
var suggestedWaitRe = regexp.MustCompile(`try again in ([0-9.]+)s`)

// Policy describes the bounded retry behavior shared by all remote calls.
// The same policy applies to generation and verification calls alike.
type Policy struct {
	MaxAttempts int           // Total attempts before giving up
	BaseDelay   time.Duration // Exponential backoff base (doubles per attempt)
	WaitMargin  time.Duration // Added on top of a server-suggested wait
}

// PolicyFromModel converts the application-level retry config
func PolicyFromModel(cfg model.RetryConfig) Policy {
	return Policy{
		MaxAttempts: cfg.MaxAttempts,
		BaseDelay:   cfg.BaseDelay,
		WaitMargin:  cfg.WaitMargin,
	}
}

// Retry runs fn, retrying rate-limited failures with bounded backoff.
// When the error carries a server-suggested wait, that wait plus the margin
// is used; otherwise the delay doubles from BaseDelay per attempt. Sleeps
// respect ctx so concurrent callers keep making progress. Non-retryable
// errors and retry exhaustion propagate to the caller, which decides the
// fallback behavior.
func Retry[T any](ctx context.Context, policy Policy, fn func() (T, error)) (T, error) {
	var zero T

	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	base := policy.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	margin := policy.WaitMargin
	if margin <= 0 {
		margin = defaultWaitMargin
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		resp, err := fn()
		if err == nil {
			return resp, nil
		}
		if !IsRateLimit(err) {
			return zero, err
		}
		lastErr = err

		if attempt == attempts-1 {
			break
		}

		delay := base * (1 << attempt)
		if wait, ok := SuggestedWait(err); ok {
			delay = wait + margin
		}

		slog.Warn("rate limit reached, backing off",
			"delay", delay,
			"attempt", attempt+1,
			"max_attempts", attempts)

		if err := retrySleep(ctx, delay); err != nil {
			return zero, err
		}
	}

	return zero, fmt.Errorf("rate limit retries exhausted after %d attempts: %w", attempts, lastErr)
}

// IsRateLimit reports whether err is a rate-limit signal from the service
func IsRateLimit(err error) bool {
	if err == nil {
		return false
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") || strings.Contains(msg, "rate limit")
}

// SuggestedWait extracts the server-suggested wait duration from a
// rate-limit error, if present
func SuggestedWait(err error) (time.Duration, bool) {
	m := suggestedWaitRe.FindStringSubmatch(strings.ToLower(err.Error()))
	if m == nil {
		return 0, false
	}
	secs, parseErr := strconv.ParseFloat(m[1], 64)
	if parseErr != nil {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

// sleepContext sleeps for d or until ctx is cancelled
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
