package speech

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultRecordCommand captures five seconds of 16 kHz mono audio as WAV on
// stdout.
const DefaultRecordCommand = "arecord -q -d 5 -f S16_LE -r 16000 -c 1 -t wav -"

type Recorder interface {
	Record(ctx context.Context) ([]byte, error)
}

// CommandRecorder runs an external recorder and returns what it wrote to
// stdout. The output must be PCM WAV.
type CommandRecorder struct {
	Name string
	Args []string
}

func NewCommandRecorder(command string) (*CommandRecorder, error) {
	if strings.TrimSpace(command) == "" {
		command = DefaultRecordCommand
	}
	fields := strings.Fields(command)
	return &CommandRecorder{Name: fields[0], Args: fields[1:]}, nil
}

func (r *CommandRecorder) Record(ctx context.Context) ([]byte, error) {
	cmd := exec.CommandContext(ctx, r.Name, r.Args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("speech: record with %s: %w: %s", r.Name, err, strings.TrimSpace(stderr.String()))
	}

	audio := stdout.Bytes()
	h, err := ParseWAVHeader(audio)
	if err != nil {
		return nil, err
	}
	if h.DataSize == 0 {
		return nil, errors.Join(ErrNoSpeech, errors.New("speech: recorder produced no samples"))
	}
	return audio, nil
}
