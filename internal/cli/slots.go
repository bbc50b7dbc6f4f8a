package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"smartscheduler/internal/assistant"
	"smartscheduler/internal/intent"
	"smartscheduler/internal/service/scheduling"
)

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	var (
		day      string
		at       string
		duration time.Duration
		step     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "List free slots on a day",
		Example: `  smartscheduler slots --day tomorrow
  smartscheduler slots --day "next friday" --time afternoon --duration 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer closeApp(a)

			target, ok := intent.ResolveDay(a.Scheduling.Now(), day)
			if !ok {
				return fmt.Errorf("unknown day %q", day)
			}
			hours := assistant.WorkHours{Start: a.Config.WorkdayStartHour, End: a.Config.WorkdayEndHour}
			window := assistant.SearchWindow(target, at, duration, hours)

			slots, err := a.Scheduling.FindSlots(cmd.Context(), scheduling.FindSlotsInput{
				CalendarID:  a.Config.CalendarID,
				WindowStart: window.Start,
				WindowEnd:   window.End,
				Duration:    duration,
				Step:        step,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s, %s to %s UTC\n", target.Format("Monday, January 2"),
				window.Start.Format("03:04 PM"), window.End.Format("03:04 PM"))
			if len(slots) == 0 {
				fmt.Fprintln(out, "  no free slots")
				return nil
			}
			for _, s := range slots {
				fmt.Fprintf(out, "  %s\n", assistant.FormatSlot(s))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&day, "day", "today", `day to search ("today", "tuesday", "next friday", "june 20")`)
	cmd.Flags().StringVar(&at, "time", "", `time or part of day ("2pm", "morning", "afternoon")`)
	cmd.Flags().DurationVar(&duration, "duration", assistant.DefaultDuration, "meeting length")
	cmd.Flags().DurationVar(&step, "step", 0, "spacing between candidate starts (default from config)")
	return cmd
}
