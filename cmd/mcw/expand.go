package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/recurrence"
	"github.com/mushahidahmed76/MCW-Practice-Management-Software/internal/timeparse"
	"github.com/spf13/cobra"
)

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Print the occurrences a recurrence rule produces",
	Example: `  mcw expand --rule "FREQ=WEEKLY;BYDAY=MO,WE;COUNT=4" --start 2026-02-02T10:00 --end 2026-02-02T10:50
  mcw expand --rule "FREQ=MONTHLY;COUNT=3" --start 2026-01-31T09:00 --tz America/Chicago`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rule, _ := cmd.Flags().GetString("rule")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		tz, _ := cmd.Flags().GetString("tz")
		return runExpand(cmd.OutOrStdout(), rule, start, end, tz)
	},
}

func init() {
	expandCmd.Flags().String("rule", "", "recurrence rule, e.g. FREQ=WEEKLY;BYDAY=MO,WE")
	expandCmd.Flags().String("start", "", "first occurrence start (YYYY-MM-DDTHH:MM[:SS] or RFC 3339)")
	expandCmd.Flags().String("end", "", "first occurrence end (defaults to start)")
	expandCmd.Flags().String("tz", "UTC", "timezone for times without an offset")
	expandCmd.MarkFlagRequired("rule")
	expandCmd.MarkFlagRequired("start")
}

type expandOutput struct {
	Rule        string                  `json:"rule"`
	Description string                  `json:"description"`
	Occurrences []recurrence.Occurrence `json:"occurrences"`
}

func runExpand(w io.Writer, rule, start, end, tz string) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	spec, err := recurrence.Parse(rule)
	if err != nil {
		return err
	}

	s, err := timeparse.Parse(start, loc)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}
	e := s
	if end != "" {
		if e, err = timeparse.Parse(end, loc); err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
	}
	if e.Before(s) {
		return fmt.Errorf("--end is before --start")
	}

	out := expandOutput{
		Rule:        spec.String(),
		Description: spec.Describe(),
		Occurrences: recurrence.Expand(spec, s, e),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
