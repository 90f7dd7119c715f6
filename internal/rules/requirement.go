package rules

import (
	"strings"
)

// Requirement is a prerequisite expression attached to a class. The
// variant set is closed: SuperClass, LevelPrefix and And.
type Requirement interface {
	isRequirement()
}

// SuperClass is satisfied when the candidate holds a class with exactly
// this name.
type SuperClass struct {
	Name string
}

// LevelPrefix is satisfied when the candidate holds any class whose
// name starts with Prefix and whose own level is at least MinLevel.
// The match is a plain string-prefix test, not a structural subclass
// relation; two class families sharing a prefix are indistinguishable.
type LevelPrefix struct {
	MinLevel int
	Prefix   string
}

// And is satisfied when both children are satisfied.
type And struct {
	Left  Requirement
	Right Requirement
}

func (SuperClass) isRequirement()  {}
func (LevelPrefix) isRequirement() {}
func (And) isRequirement()         {}

// anyLevelMarker introduces a level-gated prefix requirement, e.g.
// `Any Level II "Warrior"`.
const anyLevelMarker = "Any Level"

// ParseRequirement parses a requirement expression from the rules
// document into its expression tree.
//
// The grammar is comma-conjunction, right-recursive: the expression is
// split at the first comma and the remainder re-parsed, so
// `A, B, C` becomes And(A, And(B, C)). A fragment containing the
// "Any Level" marker yields a LevelPrefix from the numeral token and
// double-quoted name that follow it. Anything else is taken verbatim
// as a superclass name, which makes the parser total: malformed
// fragments degrade to a name requirement instead of failing. Comma
// splitting happens before the marker check, so a comma inside a
// quoted prefix would split the expression; the document never quotes
// commas.
func ParseRequirement(expr string) Requirement {
	if i := strings.Index(expr, ","); i >= 0 {
		left := ParseRequirement(expr[:i])
		right := ParseRequirement(strings.TrimLeft(expr[i+1:], " \t"))
		return And{Left: left, Right: right}
	}

	if i := strings.Index(expr, anyLevelMarker); i >= 0 {
		rest := expr[i+len(anyLevelMarker):]

		minLevel := 0
		if fields := strings.Fields(rest); len(fields) > 0 {
			if level, ok := ParseRoman(fields[0]); ok {
				minLevel = level
			}
		}

		prefix := ""
		if open := strings.Index(rest, `"`); open >= 0 {
			quoted := rest[open+1:]
			if close := strings.Index(quoted, `"`); close >= 0 {
				prefix = quoted[:close]
			} else {
				prefix = quoted
			}
		}

		return LevelPrefix{MinLevel: minLevel, Prefix: prefix}
	}

	return SuperClass{Name: strings.TrimSpace(expr)}
}

// Meets reports whether the held classes satisfy the requirement. It is
// a pure fold over the tree: no state, no side effects.
func Meets(req Requirement, held []ClassRecord) bool {
	switch r := req.(type) {
	case SuperClass:
		for _, class := range held {
			if class.Name == r.Name {
				return true
			}
		}
		return false
	case LevelPrefix:
		for _, class := range held {
			if !strings.HasPrefix(class.Name, r.Prefix) {
				continue
			}
			if class.Level != nil && *class.Level >= r.MinLevel {
				return true
			}
		}
		return false
	case And:
		return Meets(r.Left, held) && Meets(r.Right, held)
	default:
		return false
	}
}
