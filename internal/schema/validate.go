package schema

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SlugPattern is the shape of every skill identifier.
var SlugPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidationResult reports the outcome of a structural check.
// Errors is empty iff Valid is true.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

func newResult(errs []string) ValidationResult {
	if errs == nil {
		errs = []string{}
	}
	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// schemaValidate is the shared validator instance for schema value objects.
var schemaValidate *validator.Validate

func init() {
	schemaValidate = validator.New()

	// Report fields by their serialized names.
	schemaValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = schemaValidate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsSlug(fl.Field().String())
	})
	_ = schemaValidate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = schemaValidate.RegisterValidation("relation", func(fl validator.FieldLevel) bool {
		return Relation(fl.Field().String()).IsKnown()
	})
	_ = schemaValidate.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsNaN(f) && !math.IsInf(f, 0)
	})
}

// IsSlug reports whether s is a valid skill identifier.
func IsSlug(s string) bool {
	return SlugPattern.MatchString(s)
}

// ValidateSkill checks an authored skill.
func ValidateSkill(s Skill) ValidationResult {
	return newResult(structErrors(s))
}

// ValidateEdge checks a single typed edge.
func ValidateEdge(e Edge) ValidationResult {
	return newResult(structErrors(e))
}

// ValidateEpitome checks a topic epitome. It needs 3 to 7 core nodes.
func ValidateEpitome(e Epitome) ValidationResult {
	return newResult(structErrors(e))
}

// ValidateAdvanceOrganizer checks an organizer: at least 5 anchors and at
// least one edge, every edge valid on its own.
func ValidateAdvanceOrganizer(o AdvanceOrganizer) ValidationResult {
	return newResult(structErrors(o))
}

// ValidateMasteryConfig range-checks every config field.
func ValidateMasteryConfig(c MasteryConfig) ValidationResult {
	return newResult(structErrors(c))
}

// ValidateStruct runs the schema tag validators, custom tags included, over
// any struct and renders failures like the typed validators do.
func ValidateStruct(v any) ValidationResult {
	return newResult(structErrors(v))
}

// ValidateMove checks that move is a known tutor move permitted in phase.
// An unknown phase is reported on its own, before the move is looked at.
func ValidateMove(phase Phase, move MoveType) ValidationResult {
	if !phase.IsKnown() {
		return newResult([]string{fmt.Sprintf("Unknown phase: %q", string(phase))})
	}
	if !move.IsKnown() {
		return newResult([]string{fmt.Sprintf("Unknown move type: %q", string(move))})
	}
	if !phase.Allows(move) {
		return newResult([]string{fmt.Sprintf("Move %q is not allowed in phase %q", string(move), string(phase))})
	}
	return newResult(nil)
}

// structErrors runs the tag validators over v and renders each failure as a
// single human-readable line.
func structErrors(v any) []string {
	err := schemaValidate.Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, describe(fe))
	}
	return out
}

// describe renders one field error. The path drops the root struct name,
// e.g. "edges[0].relation".
func describe(fe validator.FieldError) string {
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", path)
	case "notblank":
		return fmt.Sprintf("%s must not be blank", path)
	case "slug":
		return fmt.Sprintf("%s %q must match %s", path, fe.Value(), SlugPattern.String())
	case "relation":
		return fmt.Sprintf("%s %q is not a known relation", path, fe.Value())
	case "finite":
		return fmt.Sprintf("%s must be a finite number (got %v)", path, fe.Value())
	case "min":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("%s must contain at least %s entries (got %d)", path, fe.Param(), lenOf(fe.Value()))
		}
		return fmt.Sprintf("%s must be at least %s (got %v)", path, fe.Param(), fe.Value())
	case "max":
		if isCollection(fe.Kind()) {
			return fmt.Sprintf("%s must contain at most %s entries (got %d)", path, fe.Param(), lenOf(fe.Value()))
		}
		return fmt.Sprintf("%s must be at most %s (got %v)", path, fe.Param(), fe.Value())
	case "gte":
		return fmt.Sprintf("%s must be >= %s (got %v)", path, fe.Param(), fe.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s (got %v)", path, fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q check", path, fe.Tag())
	}
}

func isCollection(k reflect.Kind) bool {
	return k == reflect.Slice || k == reflect.Array || k == reflect.Map
}

func lenOf(v any) int {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || !isCollection(rv.Kind()) {
		return 0
	}
	return rv.Len()
}
