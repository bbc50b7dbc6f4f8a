package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"

	"smartscheduler/internal/assistant"
	"smartscheduler/internal/speech"
)

const (
	greeting    = "Hello! Let's schedule a meeting."
	brokenReply = "Sorry, something went wrong. Please try again."
)

type turner interface {
	Turn(ctx context.Context, state assistant.State, in assistant.Input) (assistant.Outcome, error)
}

// Listener yields the next utterance. An empty string is skipped; io.EOF
// ends the session.
type Listener func(ctx context.Context) (string, error)

// Session drives a conversation. It owns the state between turns, which the
// assistant itself never keeps.
type Session struct {
	assistant turner
	speaker   speech.Synthesizer
	log       *slog.Logger
	state     assistant.State
}

func NewSession(a turner, speaker speech.Synthesizer, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	return &Session{assistant: a, speaker: speaker, log: log.With(slog.String("component", "cli"))}
}

func (s *Session) say(ctx context.Context, text string) {
	// Wait for the reply to finish so the microphone does not pick it up.
	<-speech.Announce(ctx, s.speaker, text, s.log)
}

func (s *Session) Run(ctx context.Context, listen Listener) error {
	s.say(ctx, greeting)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		text, err := listen(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		out, err := s.assistant.Turn(ctx, s.state, assistant.Input{Text: text})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("turn failed", slog.Any("err", err))
			s.say(ctx, brokenReply)
			continue
		}
		s.state = out.State
		s.say(ctx, out.Reply)
		if out.Done {
			return nil
		}
	}
}

// State returns the conversation state carried into the next turn.
func (s *Session) State() assistant.State {
	return s.state
}
