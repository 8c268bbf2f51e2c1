package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/callcoachhq/callcoach/internal/anthropic"
	"github.com/callcoachhq/callcoach/internal/ratelimit"
)

// ErrNotConfigured means the vendor credential is absent. Raised before any
// network attempt.
var ErrNotConfigured = errors.New("anthropic API key not configured")

const (
	analysisTemperature = 0.2
	analysisMaxTokens   = 4000

	// Vendor 429/500 get one bounded retry pass; everything else fails
	// immediately and retry is a manual user action.
	maxDispatchAttempts = 3
)

// Analyzer sequences one analysis attempt: rate limit, prompt, dispatch, parse.
type Analyzer struct {
	llm     *anthropic.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

func New(llm *anthropic.Client, limiter *ratelimit.Limiter, logger *slog.Logger) *Analyzer {
	return &Analyzer{llm: llm, limiter: limiter, logger: logger}
}

// Analyze runs the full transcript analysis and returns the typed result.
func (a *Analyzer) Analyze(ctx context.Context, transcript string, meta Metadata) (*Result, error) {
	if !a.llm.Configured() {
		return nil, ErrNotConfigured
	}
	if err := a.limiter.Allow(); err != nil {
		return nil, err
	}

	truncated := Truncate(transcript)
	system, user := BuildPrompt(truncated, meta)

	a.logger.Info("dispatching analysis",
		"customer", meta.CustomerName,
		"call_type", meta.CallType,
		"transcript_len", len(transcript),
		"truncated_len", len(truncated),
		"model", a.llm.Model(),
	)

	raw, err := a.dispatch(ctx, system, []anthropic.Message{{Role: "user", Content: user}})
	if err != nil {
		return nil, fmt.Errorf("llm analysis: %w", err)
	}

	result, err := ParseResult(raw)
	if err != nil {
		a.logger.Error("failed to parse analysis response", "error", err, "raw_len", len(raw))
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	a.logger.Info("analysis complete",
		"customer", meta.CustomerName,
		"score", result.Summary.Score,
	)
	return result, nil
}

// dispatch performs the vendor call, retrying only transient vendor failures
// (429, 500) with exponential backoff, capped at maxDispatchAttempts.
func (a *Analyzer) dispatch(ctx context.Context, system string, messages []anthropic.Message) (string, error) {
	op := func() (string, error) {
		raw, err := a.llm.Complete(ctx, system, messages, analysisMaxTokens, analysisTemperature)
		if err != nil {
			var apiErr *anthropic.APIError
			if errors.As(err, &apiErr) && apiErr.Retryable() {
				a.logger.Warn("transient vendor error, will retry", "status", apiErr.Status)
				return "", err
			}
			return "", backoff.Permanent(err)
		}
		return raw, nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	return backoff.RetryWithData(op, backoff.WithContext(
		backoff.WithMaxRetries(b, maxDispatchAttempts-1), ctx))
}
