package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/studygate/internal/tracing"
)

// ReplayResult reports a replay of a user's practice log.
type ReplayResult struct {
	UserID     string             `json:"user_id"`
	Events     int                `json:"events"`
	Skills     int                `json:"skills"`
	Mismatches []tracing.Mismatch `json:"mismatches,omitempty"`
	Drift      []tracing.Drift    `json:"drift,omitempty"`
}

// Consistent reports whether the log reproduces the stored state.
func (r ReplayResult) Consistent() bool {
	return len(r.Mismatches) == 0 && len(r.Drift) == 0
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <user>",
		Short: "Recompute mastery from the practice log and compare",
		Long: `Recompute a user's latent mastery from the practice log, in log order,
and compare each step with the value recorded at the time and each final
value with the stored record.

Replay uses the configured rates, so it only agrees with stored records
created under the same configuration.

Exit codes:
  0 - Log and stored state agree
  1 - Mismatch or drift found
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(rootOpts, args[0], cmd)
		},
	}
}

func runReplay(opts *RootOptions, userID string, cmd *cobra.Command) (err error) {
	f := newFormatter(opts, cmd)

	a, err := openApp(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	ctx := cmd.Context()
	events, rerr := a.store.ReadPracticeEvents(ctx, userID)
	if rerr != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, rerr.Error(), nil)
	}
	records, lerr := a.store.ListMastery(ctx, userID)
	if lerr != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, lerr.Error(), nil)
	}

	res, perr := tracing.Replay(events, a.cfg.Mastery)
	if perr != nil {
		return f.Fail(ExitCommandError, ErrCodeConfig, perr.Error(), nil)
	}

	result := ReplayResult{
		UserID:     userID,
		Events:     res.Events,
		Skills:     len(res.Latent),
		Mismatches: res.Mismatches,
		Drift:      tracing.CompareRecords(res, records),
	}
	f.VerboseLog("Replayed %d event(s) across %d skill(s)", result.Events, result.Skills)

	if !result.Consistent() {
		if f.Format != "json" {
			printReplayProblems(f.Writer, result)
		}
		return f.Fail(ExitFailure, ErrCodeReplayDrift,
			fmt.Sprintf("replay disagrees with stored state: %d mismatch(es), %d drifted record(s)",
				len(result.Mismatches), len(result.Drift)),
			result)
	}

	return f.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Replayed %d event(s) across %d skill(s) for %s: consistent\n",
			result.Events, result.Skills, userID)
	})
}

func printReplayProblems(w io.Writer, r ReplayResult) {
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "  ✗ event %s (seq %d) %s: recorded %.6f, replayed %.6f\n",
			m.EventID, m.Seq, m.SkillID, m.Recorded, m.Replayed)
	}
	for _, d := range r.Drift {
		fmt.Fprintf(w, "  ✗ record %s: stored %.6f, replayed %.6f\n", d.SkillID, d.Stored, d.Replayed)
	}
}
