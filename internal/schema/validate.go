// Package schema validates normalized generation payloads against named
// entity schemas. Validation always runs in collect-all-errors mode: a
// payload with five problems reports five violations, each as a structural
// path plus a reason. Schemas are closed: unknown fields are violations.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/even/showrunner/pkg/models"
)

// Violation is one schema problem at one structural path.
type Violation struct {
	// Path locates the problem (e.g., "characters[2].relationships[0].axis").
	Path string `json:"path"`
	// Reason is a human-readable description of the problem.
	Reason string `json:"reason"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Reason)
}

// ValidationError is a failed validation after the repair pass. It is a
// distinct error kind from transient generation failures: a payload that
// fails twice will not fix itself on blind retry, but the caller may still
// retry the stage with a fresh generation.
type ValidationError struct {
	// Schema is the schema name the payload failed against.
	Schema string
	// Violations lists every problem found.
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "payload failed %q schema with %d violation(s)", e.Schema, len(e.Violations))
	for _, v := range e.Violations {
		b.WriteString("\n  - ")
		b.WriteString(v.String())
	}
	return b.String()
}

// Checker validates one value at one path and returns every violation.
type Checker func(path string, value any) []Violation

// Validate runs the named schema against candidate, collecting all
// violations. An unknown schema name is itself reported as a violation.
func Validate(schemaName string, candidate map[string]any) []Violation {
	checker, ok := Schemas[schemaName]
	if !ok {
		return []Violation{{Path: "$", Reason: fmt.Sprintf("unknown schema %q", schemaName)}}
	}
	return checker("$", candidate)
}

// Decode strictly decodes a validated payload into the typed entity.
// Unknown fields fail the decode; a payload that passed Validate will not
// trip this.
func Decode(candidate map[string]any, out any) error {
	raw, err := json.Marshal(candidate)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

func one(path, reason string) []Violation {
	return []Violation{{Path: path, Reason: reason}}
}

// Object builds a checker for a closed object: every listed field is
// checked, fields named in required must be present, and any field not in
// the schema is a violation.
func Object(fields map[string]Checker, required ...string) Checker {
	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[r] = true
	}
	return func(path string, value any) []Violation {
		obj, ok := value.(map[string]any)
		if !ok {
			return one(path, fmt.Sprintf("expected object, got %s", typeName(value)))
		}

		var out []Violation
		for _, name := range sortedKeys(fields) {
			child, present := obj[name]
			childPath := path + "." + name
			if !present {
				if requiredSet[name] {
					out = append(out, Violation{Path: childPath, Reason: "required field is missing"})
				}
				continue
			}
			out = append(out, fields[name](childPath, child)...)
		}
		for _, name := range sortedKeys(obj) {
			if _, known := fields[name]; !known {
				out = append(out, Violation{Path: path + "." + name, Reason: "unknown field"})
			}
		}
		return out
	}
}

// Str accepts any string.
func Str() Checker {
	return func(path string, value any) []Violation {
		if _, ok := value.(string); !ok {
			return one(path, fmt.Sprintf("expected string, got %s", typeName(value)))
		}
		return nil
	}
}

// NonEmptyStr accepts a non-empty string.
func NonEmptyStr() Checker {
	return func(path string, value any) []Violation {
		s, ok := value.(string)
		if !ok {
			return one(path, fmt.Sprintf("expected string, got %s", typeName(value)))
		}
		if strings.TrimSpace(s) == "" {
			return one(path, "string is empty")
		}
		return nil
	}
}

// Slug accepts a well-formed id slug.
func Slug() Checker {
	return func(path string, value any) []Violation {
		s, ok := value.(string)
		if !ok {
			return one(path, fmt.Sprintf("expected id slug, got %s", typeName(value)))
		}
		if err := models.CheckSlug(s); err != nil {
			return one(path, err.Error())
		}
		return nil
	}
}

// Num accepts a number within [min, max].
func Num(min, max float64) Checker {
	return func(path string, value any) []Violation {
		n, ok := value.(float64)
		if !ok {
			return one(path, fmt.Sprintf("expected number, got %s", typeName(value)))
		}
		if n < min || n > max {
			return one(path, fmt.Sprintf("value %v outside [%v, %v]", n, min, max))
		}
		return nil
	}
}

// Int accepts a whole number of at least min.
func Int(min int) Checker {
	return func(path string, value any) []Violation {
		n, ok := value.(float64)
		if !ok {
			return one(path, fmt.Sprintf("expected integer, got %s", typeName(value)))
		}
		if n != math.Trunc(n) {
			return one(path, fmt.Sprintf("value %v is not an integer", n))
		}
		if int(n) < min {
			return one(path, fmt.Sprintf("value %d below minimum %d", int(n), min))
		}
		return nil
	}
}

// ArrayOf accepts an array whose length is within [min, max] (max < 0
// means unbounded) and whose every element passes elem.
func ArrayOf(elem Checker, min, max int) Checker {
	return func(path string, value any) []Violation {
		arr, ok := value.([]any)
		if !ok {
			return one(path, fmt.Sprintf("expected array, got %s", typeName(value)))
		}
		var out []Violation
		if len(arr) < min {
			out = append(out, Violation{Path: path, Reason: fmt.Sprintf("expected at least %d item(s), got %d", min, len(arr))})
		}
		if max >= 0 && len(arr) > max {
			out = append(out, Violation{Path: path, Reason: fmt.Sprintf("expected at most %d item(s), got %d", max, len(arr))})
		}
		for i, item := range arr {
			out = append(out, elem(fmt.Sprintf("%s[%d]", path, i), item)...)
		}
		return out
	}
}

// StrArray accepts an array of non-empty strings with at least min items.
func StrArray(min int) Checker {
	return ArrayOf(NonEmptyStr(), min, -1)
}

// SlugArray accepts an array of id slugs with a bounded length.
func SlugArray(min, max int) Checker {
	return ArrayOf(Slug(), min, max)
}

// AxisPositions accepts a non-empty object mapping axis slugs to numbers
// in [-1, 1].
func AxisPositions() Checker {
	return func(path string, value any) []Violation {
		obj, ok := value.(map[string]any)
		if !ok {
			return one(path, fmt.Sprintf("expected object of axis positions, got %s", typeName(value)))
		}
		var out []Violation
		if len(obj) == 0 {
			out = append(out, Violation{Path: path, Reason: "no axis positions given"})
		}
		for _, axis := range sortedKeys(obj) {
			childPath := path + "." + axis
			if err := models.CheckSlug(axis); err != nil {
				out = append(out, Violation{Path: childPath, Reason: err.Error()})
			}
			out = append(out, Num(-1, 1)(childPath, obj[axis])...)
		}
		return out
	}
}

// UniqueSlugs wraps a checker for slug arrays, additionally requiring all
// entries to be pairwise distinct.
func UniqueSlugs(inner Checker) Checker {
	return func(path string, value any) []Violation {
		out := inner(path, value)
		arr, ok := value.([]any)
		if !ok {
			return out
		}
		seen := make(map[string]bool, len(arr))
		for i, item := range arr {
			s, ok := item.(string)
			if !ok {
				continue
			}
			if seen[s] {
				out = append(out, Violation{
					Path:   fmt.Sprintf("%s[%d]", path, i),
					Reason: fmt.Sprintf("duplicate entry %q", s),
				})
			}
			seen[s] = true
		}
		return out
	}
}

// Also composes checkers on the same value.
func Also(checkers ...Checker) Checker {
	return func(path string, value any) []Violation {
		var out []Violation
		for _, c := range checkers {
			out = append(out, c(path, value)...)
		}
		return out
	}
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", value)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
