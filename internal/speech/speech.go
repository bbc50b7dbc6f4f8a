// Package speech covers the audio edges of the assistant: turning a recorded
// utterance into text and speaking replies back.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrNoSpeech means the audio held nothing the recognizer could transcribe.
var ErrNoSpeech = errors.New("speech: no speech recognized")

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Synthesizer interface {
	Speak(ctx context.Context, text string) error
}

// Announce speaks text in the background. Failures are logged and never
// reach the caller; the returned channel closes when speaking is done.
func Announce(ctx context.Context, s Synthesizer, text string, logger *slog.Logger) <-chan struct{} {
	done := make(chan struct{})
	if s == nil || strings.TrimSpace(text) == "" {
		close(done)
		return done
	}
	if logger == nil {
		logger = slog.Default()
	}
	go func() {
		defer close(done)
		if err := s.Speak(context.WithoutCancel(ctx), text); err != nil {
			logger.Warn("speak failed", slog.String("component", "speech"), slog.Any("err", err))
		}
	}()
	return done
}

// WriterSynthesizer "speaks" by writing the text as a line to W.
type WriterSynthesizer struct {
	W      io.Writer
	Prefix string

	mu sync.Mutex
}

func NewWriterSynthesizer(w io.Writer, prefix string) *WriterSynthesizer {
	return &WriterSynthesizer{W: w, Prefix: prefix}
}

func (s *WriterSynthesizer) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.W, "%s%s\n", s.Prefix, text)
	return err
}

// CommandSynthesizer pipes the text to an external text-to-speech program on
// stdin, for example "espeak -s 175 --stdin".
type CommandSynthesizer struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

func NewCommandSynthesizer(command string, timeout time.Duration) (*CommandSynthesizer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("speech: empty tts command")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CommandSynthesizer{Name: fields[0], Args: fields[1:], Timeout: timeout}, nil
}

func (s *CommandSynthesizer) Speak(ctx context.Context, text string) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, s.Name, s.Args...)
	cmd.Stdin = strings.NewReader(text)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("speech: %s: %w: %s", s.Name, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// MultiSynthesizer speaks through every synthesizer in order and joins their
// errors.
type MultiSynthesizer []Synthesizer

func (m MultiSynthesizer) Speak(ctx context.Context, text string) error {
	var errs []error
	for _, s := range m {
		if err := s.Speak(ctx, text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
