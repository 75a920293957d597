package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/studygate/internal/curriculum"
	"github.com/roach88/studygate/internal/store"
	"github.com/roach88/studygate/internal/tracing"
)

// StatusResult is the gating state of one node. Effective is zero when the
// node is not part of the curriculum.
type StatusResult struct {
	UserID    string            `json:"user_id"`
	SkillID   string            `json:"skill_id"`
	Known     bool              `json:"known"`
	Status    curriculum.Status `json:"status"`
	Effective float64           `json:"p_mastery_effective"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(opts *RootOptions) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "status <user> <skill>",
		Short: "Show the gating status of a curriculum node",
		Long: `Show whether a curriculum node is locked, available or mastered for a
user, with the user's effective mastery of it. Unknown nodes are locked,
and reading one records nothing.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, args[0], args[1], cmd)
		},
	}
	return cmd
}

func runStatus(opts *RootOptions, userID, skillID string, cmd *cobra.Command) (err error) {
	f := newFormatter(opts, cmd)

	a, err := openApp(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	ctx := cmd.Context()
	result := StatusResult{UserID: userID, SkillID: skillID, Status: curriculum.StatusLocked}

	_, nerr := a.store.ReadNode(ctx, skillID)
	switch {
	case errors.Is(nerr, store.ErrNotFound):
		// Reading mastery would create a record for a node that does not exist.
	case nerr != nil:
		return f.Fail(ExitCommandError, ErrCodeStorage, nerr.Error(), nil)
	default:
		result.Known = true
		status, serr := a.gate.ComputeStatus(ctx, userID, skillID, a.cfg.Mastery)
		if serr != nil {
			return f.Fail(ExitCommandError, ErrCodeStorage, serr.Error(), nil)
		}
		eff, eerr := a.tracer.EffectiveMastery(ctx, userID, skillID, a.cfg.Mastery)
		if eerr != nil {
			return f.Fail(ExitCommandError, ErrCodeStorage, eerr.Error(), nil)
		}
		result.Status = status
		result.Effective = eff
	}

	return f.Success(result, func(w io.Writer) {
		if !result.Known {
			fmt.Fprintf(w, "%s: %s (not in the curriculum)\n", skillID, result.Status)
			return
		}
		fmt.Fprintf(w, "%s: %s (effective mastery %.4f)\n", skillID, result.Status, result.Effective)
	})
}

// OrganizerOptions holds flags for the organizer command.
type OrganizerOptions struct {
	*RootOptions
	Anchors []string
}

// OrganizerResult is an organizer view.
type OrganizerResult struct {
	UserID  string                      `json:"user_id"`
	Entries []curriculum.OrganizerEntry `json:"entries"`
}

// NewOrganizerCommand creates the organizer command.
func NewOrganizerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OrganizerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "organizer <user>",
		Short: "Show the curriculum nodes a user can see",
		Long: `Show the curriculum nodes that are available or mastered for a user,
plus any anchor nodes, which are shown whatever their status.

Examples:
  studygate organizer alice
  studygate organizer alice --anchor fractions --anchor percentages`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrganizer(opts, args[0], cmd)
		},
	}
	cmd.Flags().StringArrayVar(&opts.Anchors, "anchor", nil, "node always shown (repeatable)")
	return cmd
}

func runOrganizer(opts *OrganizerOptions, userID string, cmd *cobra.Command) (err error) {
	f := newFormatter(opts.RootOptions, cmd)

	a, err := openApp(opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	entries, verr := a.gate.OrganizerView(cmd.Context(), userID, a.cfg.Mastery, opts.Anchors)
	if verr != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, verr.Error(), nil)
	}

	return f.Success(OrganizerResult{UserID: userID, Entries: entries}, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No visible nodes.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, e := range entries {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", e.SkillID, e.Status, e.Name)
		}
		tw.Flush()
	})
}

// MasteryResult lists mastery records for a user.
type MasteryResult struct {
	UserID string               `json:"user_id"`
	Skills []tracing.SkillState `json:"skills"`
}

// NewMasteryCommand creates the mastery command.
func NewMasteryCommand(opts *RootOptions) *cobra.Command {

	cmd := &cobra.Command{
		Use:   "mastery <user> [skill]",
		Short: "Show latent and effective mastery",
		Long: `Show latent and effective mastery for every skill a user has a record
for, or for one skill. Reading a single skill creates its record from the
configured prior if none exists.`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			skillID := ""
			if len(args) == 2 {
				skillID = args[1]
			}
			return runMastery(opts, args[0], skillID, cmd)
		},
	}
	return cmd
}

func runMastery(opts *RootOptions, userID, skillID string, cmd *cobra.Command) (err error) {
	f := newFormatter(opts, cmd)

	a, err := openApp(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	ctx := cmd.Context()
	if skillID != "" {
		// Creates the record if missing so the snapshot below includes it.
		if _, gerr := a.tracer.GetOrInit(ctx, userID, skillID, a.cfg.Mastery); gerr != nil {
			return f.Fail(ExitCommandError, ErrCodeStorage, gerr.Error(), nil)
		}
	}

	states, serr := a.tracer.Snapshot(ctx, userID, a.cfg.Mastery)
	if serr != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, serr.Error(), nil)
	}
	if skillID != "" {
		states = filterSkill(states, skillID)
	}

	return f.Success(MasteryResult{UserID: userID, Skills: states}, func(w io.Writer) {
		if len(states) == 0 {
			fmt.Fprintf(w, "No mastery records for %s.\n", userID)
			return
		}
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SKILL\tLATENT\tEFFECTIVE\tLAST PRACTICED")
		for _, s := range states {
			last := "-"
			if s.LastPracticedAt != nil {
				last = s.LastPracticedAt.UTC().Format(time.RFC3339)
			}
			fmt.Fprintf(tw, "%s\t%.4f\t%.4f\t%s\n", s.SkillID, s.Latent, s.Effective, last)
		}
		tw.Flush()
	})
}

func filterSkill(states []tracing.SkillState, skillID string) []tracing.SkillState {
	out := []tracing.SkillState{}
	for _, s := range states {
		if s.SkillID == skillID {
			out = append(out, s)
		}
	}
	return out
}
