package content

import (
	"fmt"

	"cuelang.org/go/cue/token"
)

// Severity grades a Problem.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem is one issue found while loading content.
type Problem struct {
	Severity Severity  `json:"severity"`
	Path     string    `json:"path"`
	Message  string    `json:"message"`
	Pos      token.Pos `json:"-"`
}

func (p Problem) Error() string {
	if p.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s: %s",
			p.Pos.Filename(), p.Pos.Line(), p.Pos.Column(),
			p.Severity, p.Path, p.Message)
	}
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.Path, p.Message)
}

// HasErrors reports whether any problem has error severity.
func HasErrors(problems []Problem) bool {
	for _, p := range problems {
		if p.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Count returns the number of errors and warnings.
func Count(problems []Problem) (errs, warnings int) {
	for _, p := range problems {
		if p.Severity == SeverityError {
			errs++
		} else {
			warnings++
		}
	}
	return errs, warnings
}

type collector struct {
	problems []Problem
}

func (c *collector) errorf(pos token.Pos, path, format string, args ...any) {
	c.problems = append(c.problems, Problem{
		Severity: SeverityError,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

func (c *collector) warnf(pos token.Pos, path, format string, args ...any) {
	c.problems = append(c.problems, Problem{
		Severity: SeverityWarning,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}
