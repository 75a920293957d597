package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/studygate/internal/content"
	"github.com/roach88/studygate/internal/curriculum"
)

// ValidationResult holds content validation results.
type ValidationResult struct {
	Valid      bool              `json:"valid"`
	Skills     int               `json:"skills"`
	Edges      int               `json:"edges"`
	Epitomes   int               `json:"epitomes"`
	Organizers int               `json:"organizers"`
	Problems   []content.Problem `json:"problems,omitempty"`
}

// LoadResult reports a content load into the database.
type LoadResult struct {
	Nodes    int               `json:"nodes"`
	Problems []content.Problem `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <content-dir>",
		Short: "Validate a CUE content package",
		Long: `Validate a CUE content package without touching the database.

Checks every skill, edge, epitome and advance organizer against the schema,
then cross-checks references and the prerequisite graph for cycles.
Warnings are reported but do not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	bundle, problems, err := loadContent(f, dir)
	if err != nil {
		return err
	}
	f.VerboseLog("Found %d CUE file(s) in %s", bundle.FileCount, dir)

	result := ValidationResult{
		Valid:      !content.HasErrors(problems),
		Skills:     len(bundle.Skills),
		Edges:      len(bundle.Edges),
		Epitomes:   len(bundle.Epitomes),
		Organizers: len(bundle.Organizers),
		Problems:   problems,
	}
	if !result.Valid {
		return failContent(f, problems)
	}

	return f.Success(result, func(w io.Writer) {
		printProblems(w, problems)
		fmt.Fprintf(w, "✓ Content valid: %d skills, %d edges, %d epitomes, %d organizers\n",
			result.Skills, result.Edges, result.Epitomes, result.Organizers)
	})
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <content-dir>",
		Short: "Validate a CUE content package and upsert its curriculum nodes",
		Long: `Validate a CUE content package and upsert one curriculum node per skill.

Nothing is written when validation reports errors. Each node is checked
against the stored graph, so a node that would close a prerequisite cycle
with existing nodes is rejected.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(rootOpts, args[0], cmd)
		},
	}
}

func runLoad(opts *RootOptions, dir string, cmd *cobra.Command) (err error) {
	f := newFormatter(opts, cmd)

	bundle, problems, err := loadContent(f, dir)
	if err != nil {
		return err
	}
	if content.HasErrors(problems) {
		return failContent(f, problems)
	}

	a, err := openApp(opts, cmd, f)
	if err != nil {
		return err
	}
	defer closeApp(a, &err)

	nodes := bundle.Nodes()
	for _, node := range nodes {
		if uerr := a.gate.UpsertNode(cmd.Context(), node); uerr != nil {
			if errors.Is(uerr, curriculum.ErrPrerequisiteCycle) {
				return f.Fail(ExitFailure, ErrCodeCycle, uerr.Error(), nil)
			}
			return f.Fail(ExitCommandError, ErrCodeStorage, uerr.Error(), nil)
		}
		f.VerboseLog("Upserted %s", node.SkillID)
	}

	result := LoadResult{Nodes: len(nodes), Problems: problems}
	return f.Success(result, func(w io.Writer) {
		printProblems(w, problems)
		fmt.Fprintf(w, "✓ Loaded %d curriculum node(s) from %s\n", result.Nodes, dir)
	})
}

// loadContent reads the package in dir, mapping read failures to exit errors.
func loadContent(f *OutputFormatter, dir string) (*content.Bundle, []content.Problem, error) {
	bundle, problems, err := content.LoadDir(dir)
	switch {
	case err == nil:
		return bundle, problems, nil
	case errors.Is(err, os.ErrNotExist):
		return nil, nil, f.Fail(ExitCommandError, ErrCodeNotFound, fmt.Sprintf("content directory not found: %s", dir), nil)
	case errors.Is(err, content.ErrNoContent):
		return nil, nil, f.Fail(ExitCommandError, ErrCodeNoContent, err.Error(), nil)
	case errors.Is(err, content.ErrBuild):
		return nil, nil, f.Fail(ExitFailure, ErrCodeInvalidContent, err.Error(), nil)
	default:
		return nil, nil, f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil)
	}
}

func failContent(f *OutputFormatter, problems []content.Problem) error {
	if f.Format != "json" {
		printProblems(f.Writer, problems)
	}
	return f.Fail(ExitFailure, ErrCodeInvalidContent, problemSummary(problems), problems)
}

func problemSummary(problems []content.Problem) string {
	errs, warnings := content.Count(problems)
	return fmt.Sprintf("content has %d error(s), %d warning(s)", errs, warnings)
}

func printProblems(w io.Writer, problems []content.Problem) {
	for _, p := range problems {
		fmt.Fprintf(w, "  %s\n", p.Error())
	}
}
