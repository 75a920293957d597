package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/studygate/internal/practice"
	"github.com/roach88/studygate/internal/schema"
)

// PracticeOptions holds flags for the practice command.
type PracticeOptions struct {
	*RootOptions
	Correct    bool
	Incorrect  bool
	Source     string
	HintLevel  int
	Confidence float64
	LatencyMS  int64
	At         string
}

// NewPracticeCommand creates the practice command.
func NewPracticeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PracticeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "practice <user> <skill>",
		Short: "Record one graded practice attempt",
		Long: `Record one graded practice attempt.

The attempt is always recorded. If the skill is locked for the user the
attempt is flagged out of sequence.

Examples:
  studygate practice alice fractions --correct
  studygate practice alice ratios --incorrect --hint-level 2 --source tutor`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPractice(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Correct, "correct", false, "the attempt was correct")
	cmd.Flags().BoolVar(&opts.Incorrect, "incorrect", false, "the attempt was incorrect")
	cmd.MarkFlagsMutuallyExclusive("correct", "incorrect")
	cmd.MarkFlagsOneRequired("correct", "incorrect")
	cmd.Flags().StringVar(&opts.Source, "source", "cli", "where the attempt came from")
	cmd.Flags().IntVar(&opts.HintLevel, "hint-level", 0, "hints used before answering")
	cmd.Flags().Float64Var(&opts.Confidence, "confidence", 0, "self-reported confidence in [0,1]")
	cmd.Flags().Int64Var(&opts.LatencyMS, "latency-ms", 0, "time to answer in milliseconds")
	cmd.Flags().StringVar(&opts.At, "at", "", "when the attempt happened (RFC 3339, default now)")

	return cmd
}

func runPractice(opts *PracticeOptions, userID, skillID string, cmd *cobra.Command) (err error) {
	f := newFormatter(opts.RootOptions, cmd)

	obs := practice.Observation{
		UserID:    userID,
		SkillID:   skillID,
		Correct:   opts.Correct,
		HintLevel: opts.HintLevel,
		Source:    opts.Source,
	}
	if cmd.Flags().Changed("confidence") {
		obs.Confidence = &opts.Confidence
	}
	if cmd.Flags().Changed("latency-ms") {
		obs.LatencyMS = &opts.LatencyMS
	}
	if opts.At != "" {
		at, perr := time.Parse(time.RFC3339, opts.At)
		if perr != nil {
			return f.Fail(ExitCommandError, ErrCodeInvalidInput, fmt.Sprintf("invalid --at: %v", perr), nil)
		}
		obs.OccurredAt = &at
	}
	if verr := obs.Validate(); verr != nil {
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, verr.Error(), nil)
	}

	a, err := openApp(opts.RootOptions, cmd, f)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	res, rerr := a.recorder.Record(cmd.Context(), obs, a.cfg.Mastery)
	if rerr != nil {
		return failRecord(f, rerr)
	}

	return f.Success(res, func(w io.Writer) {
		printPracticeResult(w, obs, res)
	})
}

// IngestResult reports a batch ingest.
type IngestResult struct {
	Recorded      int               `json:"recorded"`
	OutOfSequence int               `json:"out_of_sequence"`
	Results       []practice.Result `json:"results"`
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <events.yaml>",
		Short: "Record a YAML batch of practice attempts",
		Long: `Record a YAML batch of practice attempts in file order.

The file has a single "observations" list. Every observation is validated
before any is recorded; recording stops at the first failure.

Example file:
  observations:
    - { user_id: alice, skill_id: fractions, correct: true }
    - { user_id: alice, skill_id: ratios, correct: false, hint_level: 1 }`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(rootOpts, args[0], cmd)
		},
	}
}

func runIngest(opts *RootOptions, path string, cmd *cobra.Command) (err error) {
	f := newFormatter(opts, cmd)

	batch, lerr := practice.LoadBatch(path)
	if lerr != nil {
		if errors.Is(lerr, os.ErrNotExist) {
			return f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("batch file not found: %s", path), nil)
		}
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, lerr.Error(), nil)
	}

	a, err := openApp(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	results, rerr := a.recorder.RecordAll(cmd.Context(), batch, a.cfg.Mastery)
	if rerr != nil {
		return failRecord(f, rerr)
	}

	out := IngestResult{Recorded: len(results), Results: results}
	for _, r := range results {
		if r.Decision.OutOfSequence {
			out.OutOfSequence++
		}
	}
	return f.Success(out, func(w io.Writer) {
		for i, r := range results {
			printPracticeResult(w, batch[i], r)
		}
		fmt.Fprintf(w, "✓ Recorded %d attempt(s), %d out of sequence\n", out.Recorded, out.OutOfSequence)
	})
}

func failRecord(f *OutputFormatter, err error) error {
	switch {
	case errors.Is(err, practice.ErrInvalidObservation):
		return f.Fail(ExitCommandError, ErrCodeInvalidInput, err.Error(), nil)
	case errors.Is(err, schema.ErrInvalidConfig):
		return f.Fail(ExitCommandError, ErrCodeConfig, err.Error(), nil)
	default:
		return f.Fail(ExitCommandError, ErrCodeStorage, err.Error(), nil)
	}
}

func printPracticeResult(w io.Writer, obs practice.Observation, res practice.Result) {
	outcome := "incorrect"
	if obs.Correct {
		outcome = "correct"
	}
	fmt.Fprintf(w, "✓ %s: %s/%s %s, latent mastery %.4f\n",
		res.EventID, obs.UserID, obs.SkillID, outcome, res.PMasteryLatent)
	if res.Decision.OutOfSequence {
		fmt.Fprintf(w, "  ! out of sequence (%s was %s)\n", obs.SkillID, res.Decision.Status)
	}
}
