package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"smartscheduler/internal/llm"
)

// PhraseRequest carries a finished turn to a Phraser.
type PhraseRequest struct {
	Input  string
	Action string
	Draft  string
	State  State
}

// Phraser rewrites a deterministic reply into friendlier language.
type Phraser interface {
	Phrase(ctx context.Context, req PhraseRequest) (string, error)
}

const phraseSystemPrompt = `You are a friendly scheduling assistant. Rewrite the draft reply so it sounds natural and concise.
Keep every title, day, date, time and number exactly as written in the draft. Do not add facts, offers or questions the draft does not contain.
Answer with the rewritten reply only.`

type LLMPhraser struct {
	completer llm.Completer
}

func NewLLMPhraser(c llm.Completer) *LLMPhraser {
	return &LLMPhraser{completer: c}
}

func (p *LLMPhraser) Phrase(ctx context.Context, req PhraseRequest) (string, error) {
	prompt := fmt.Sprintf("User said: %q\nAction: %s\nState: duration=%d min, day=%q, time=%q, title=%q\nDraft reply: %q",
		req.Input, req.Action, req.State.DurationMinutes, req.State.Day, req.State.Time, req.State.Title, req.Draft)
	out, err := p.completer.Complete(ctx, llm.Request{System: phraseSystemPrompt, Prompt: prompt})
	if err != nil {
		return "", err
	}
	return strings.Trim(strings.TrimSpace(out), `"`), nil
}

// phrase runs the optional phraser and falls back to the draft when it fails
// or answers with nothing.
func (a *Assistant) phrase(ctx context.Context, input string, out Outcome) string {
	if a.phraser == nil || out.Reply == "" {
		return out.Reply
	}
	rewritten, err := a.phraser.Phrase(ctx, PhraseRequest{
		Input:  input,
		Action: string(out.Action),
		Draft:  out.Reply,
		State:  out.State,
	})
	if err != nil {
		a.logger.Warn("reply phrasing failed, using draft", slog.Any("err", err))
		return out.Reply
	}
	if rewritten == "" {
		return out.Reply
	}
	return rewritten
}
