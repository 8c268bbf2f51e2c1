// Package coach drives the follow-up coaching conversation seeded with a
// completed call analysis.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/callcoachhq/callcoach/internal/analysis"
	"github.com/callcoachhq/callcoach/internal/anthropic"
	"github.com/callcoachhq/callcoach/internal/ratelimit"
)

const (
	// Conversation favours variety over structural fidelity, so the coaching
	// turn runs hotter than the analysis call.
	chatTemperature = 0.7
	chatMaxTokens   = 1000
)

const baseSystemPrompt = `You are an expert Customer Success Manager coach, providing feedback and guidance.
Your goal is to help the CSM improve their client conversations through constructive coaching.
Be supportive but direct, and provide specific, actionable advice.`

// Message is one turn of the coaching conversation. Ephemeral: held by the
// browser session, never persisted here.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Valid reports whether the message has a usable role and content.
func (m Message) Valid() bool {
	return (m.Role == "user" || m.Role == "assistant") && m.Content != ""
}

// Coach generates coaching replies with the analysis result as context.
type Coach struct {
	llm     *anthropic.Client
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

func New(llm *anthropic.Client, limiter *ratelimit.Limiter, logger *slog.Logger) *Coach {
	return &Coach{llm: llm, limiter: limiter, logger: logger}
}

// Respond forwards the accumulated conversation to the model with a condensed
// recap of the analysis injected as the system instruction, and returns the
// model's plain-text reply.
func (c *Coach) Respond(ctx context.Context, messages []Message, result *analysis.Result) (string, error) {
	if !c.llm.Configured() {
		return "", analysis.ErrNotConfigured
	}
	if err := c.limiter.Allow(); err != nil {
		return "", err
	}

	wire := make([]anthropic.Message, len(messages))
	for i, m := range messages {
		wire[i] = anthropic.Message{Role: m.Role, Content: m.Content}
	}

	c.logger.Info("dispatching coaching turn", "messages", len(messages))

	reply, err := c.llm.Complete(ctx, systemPrompt(result), wire, chatMaxTokens, chatTemperature)
	if err != nil {
		return "", fmt.Errorf("llm coaching: %w", err)
	}
	return reply, nil
}

// systemPrompt builds the coach instruction with a recap of the stored
// analysis: overall summary, then strengths and opportunities per category.
func systemPrompt(result *analysis.Result) string {
	if result == nil {
		return baseSystemPrompt
	}

	var b strings.Builder
	b.WriteString(baseSystemPrompt)
	b.WriteString("\n\nCONTEXT FROM PREVIOUS CALL ANALYSIS:\n\n")
	fmt.Fprintf(&b, "Overall assessment (score %.1f/5): %s\n", result.Summary.Score, result.Summary.Text)

	for _, cat := range result.Categories() {
		title := analysis.CategoryTitle(cat.Name)
		writeEntries(&b, title+" strengths:", cat.Section.Strengths)
		writeEntries(&b, title+" opportunities:", cat.Section.Opportunities)
	}

	writeEntries(&b, "Top 3 strengths:", result.Top3Strengths)
	writeEntries(&b, "Top 3 opportunities:", result.Top3Opportunities)
	writeEntries(&b, "Role playing focus:", result.RolePlayingSummary)

	return b.String()
}

func writeEntries(b *strings.Builder, heading string, entries []analysis.Entry) {
	if len(entries) == 0 {
		return
	}
	b.WriteString("\n" + heading + "\n")
	for _, e := range entries {
		b.WriteString("- " + e.Text + "\n")
	}
}

// ValidateMessages checks the conversation payload before any dispatch.
func ValidateMessages(messages []Message) error {
	if len(messages) == 0 {
		return errors.New("messages must be a non-empty array")
	}
	for i, m := range messages {
		if !m.Valid() {
			return fmt.Errorf("message %d: role must be user or assistant and content non-empty", i)
		}
	}
	return nil
}
