// Package llm is the Language Understanding Service contract: a prompt in, a
// completion out. Provider packages live underneath it.
package llm

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrEmptyResponse means the provider answered with no usable text.
	ErrEmptyResponse = errors.New("llm: empty response")
	// ErrUnavailable means the provider is rate limited locally or shed by
	// the circuit breaker.
	ErrUnavailable = errors.New("llm: unavailable")
)

type Request struct {
	System string
	Prompt string
	// JSON asks the provider for a bare JSON object.
	JSON bool
}

type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// StripCodeFence removes a surrounding Markdown code fence, with or without a
// language tag. Models wrap JSON in one even when asked not to.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
