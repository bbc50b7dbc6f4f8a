package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"smartscheduler/internal/app"
	"smartscheduler/internal/speech"
)

func newVoiceCmd(opts *rootOptions) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Talk to the scheduler through the microphone",
		Long: `voice records a short clip, transcribes it with Google Speech-to-Text, runs a
conversational turn and speaks the reply. Say "exit" to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd, app.WithSpeech(true))
			if err != nil {
				return err
			}
			defer closeApp(a)

			recorder, err := speech.NewCommandRecorder(a.Config.RecordCommand)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			var echo speech.Synthesizer
			if !quiet {
				echo = speech.NewWriterSynthesizer(out, "Assistant: ")
			}
			speaker, err := a.Synthesizer(echo)
			if err != nil {
				return err
			}

			session := NewSession(a.Assistant, speaker, a.Logger)
			return session.Run(cmd.Context(), voiceListener(recorder, a.Transcriber, out, a.Logger))
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "do not print the conversation")
	return cmd
}

// voiceListener records and transcribes one clip per utterance. A clip with
// no speech yields an empty utterance, which the session skips.
func voiceListener(rec speech.Recorder, tr speech.Transcriber, w io.Writer, log *slog.Logger) Listener {
	return func(ctx context.Context) (string, error) {
		fmt.Fprintln(w, "Recording...")
		audio, err := rec.Record(ctx)
		switch {
		case errors.Is(err, speech.ErrNoSpeech):
			return "", nil
		case err != nil:
			return "", err
		}

		text, err := tr.Transcribe(ctx, audio)
		switch {
		case errors.Is(err, speech.ErrNoSpeech):
			return "", nil
		case err != nil:
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			log.Warn("transcription failed", slog.Any("err", err))
			return "", nil
		}
		fmt.Fprintf(w, "You said: %s\n", text)
		return text, nil
	}
}
