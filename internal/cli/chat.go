package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"smartscheduler/internal/speech"
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	var speak bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the scheduler by typing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			out := cmd.OutOrStdout()
			echo := speech.NewWriterSynthesizer(out, "Assistant: ")
			var speaker speech.Synthesizer = echo
			if speak {
				if speaker, err = a.Synthesizer(echo); err != nil {
					return err
				}
			}

			session := NewSession(a.Assistant, speaker, a.Logger)
			return session.Run(cmd.Context(), lineListener(cmd.InOrStdin(), out))
		},
	}
	cmd.Flags().BoolVar(&speak, "speak", false, "also speak replies through the configured text-to-speech command")
	return cmd
}

// lineListener prompts on w and reads one line per utterance from r.
func lineListener(r io.Reader, w io.Writer) Listener {
	scanner := bufio.NewScanner(r)
	return func(ctx context.Context) (string, error) {
		fmt.Fprint(w, "You: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", err
			}
			return "", io.EOF
		}
		return scanner.Text(), nil
	}
}
