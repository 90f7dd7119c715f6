package rules

import (
	"reflect"
	"testing"
)

func TestParseRequirementShapes(t *testing.T) {
	tests := []struct {
		expr string
		want Requirement
	}{
		{"Knight", SuperClass{Name: "Knight"}},
		{"  Knight  ", SuperClass{Name: "Knight"}},
		{`Any Level II "Warrior"`, LevelPrefix{MinLevel: 2, Prefix: "Warrior"}},
		{`Any Level "Warrior"`, LevelPrefix{MinLevel: 0, Prefix: "Warrior"}},
		{`Any Level II`, LevelPrefix{MinLevel: 2, Prefix: ""}},
		// Unterminated quote runs to end of fragment.
		{`Any Level II "Warrior`, LevelPrefix{MinLevel: 2, Prefix: "Warrior"}},
		{
			"Knight, Squire",
			And{Left: SuperClass{Name: "Knight"}, Right: SuperClass{Name: "Squire"}},
		},
		{
			`Knight, Any Level II "Mage"`,
			And{Left: SuperClass{Name: "Knight"}, Right: LevelPrefix{MinLevel: 2, Prefix: "Mage"}},
		},
	}

	for _, tt := range tests {
		got := ParseRequirement(tt.expr)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseRequirement(%q) = %#v, want %#v", tt.expr, got, tt.want)
		}
	}
}

func TestParseRequirementRightNesting(t *testing.T) {
	got := ParseRequirement("A, B, C")
	want := And{
		Left: SuperClass{Name: "A"},
		Right: And{
			Left:  SuperClass{Name: "B"},
			Right: SuperClass{Name: "C"},
		},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseRequirement right nesting: got %#v, want %#v", got, want)
	}
}

func intPtr(n int) *int { return &n }

func TestMeets(t *testing.T) {
	held := []ClassRecord{
		{Name: "Knight", Level: intPtr(1)},
		{Name: "Warrior Adept", Level: intPtr(3)},
	}

	tests := []struct {
		name string
		req  Requirement
		want bool
	}{
		{"exact name match", SuperClass{Name: "Knight"}, true},
		{"missing name", SuperClass{Name: "Paladin"}, false},
		{"prefix with enough level", LevelPrefix{MinLevel: 2, Prefix: "Warrior"}, true},
		{"prefix below level", LevelPrefix{MinLevel: 2, Prefix: "Knight"}, false},
		{"prefix no match", LevelPrefix{MinLevel: 1, Prefix: "Mage"}, false},
		{
			"and both satisfied",
			And{Left: SuperClass{Name: "Knight"}, Right: LevelPrefix{MinLevel: 3, Prefix: "Warrior"}},
			true,
		},
		{
			"and one unsatisfied",
			And{Left: SuperClass{Name: "Knight"}, Right: SuperClass{Name: "Paladin"}},
			false,
		},
	}

	for _, tt := range tests {
		if got := Meets(tt.req, held); got != tt.want {
			t.Errorf("%s: Meets = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestMeetsIgnoresUnleveledClassesForPrefix(t *testing.T) {
	held := []ClassRecord{{Name: "Warrior"}} // no level parsed
	if Meets(LevelPrefix{MinLevel: 1, Prefix: "Warrior"}, held) {
		t.Error("class without a level must not satisfy a level-gated prefix")
	}
}

func TestRequiresRoundTrip(t *testing.T) {
	class := ClassRecord{Name: "Paladin", Requirement: `Knight, Any Level II "Mage"`}

	first := class.Requires()
	second := class.Requires()
	if !reflect.DeepEqual(first, second) {
		t.Error("Requires must be deterministic")
	}

	unconditional := ClassRecord{Name: "Knight"}
	if unconditional.Requires() != nil {
		t.Error("empty requirement text must yield nil tree")
	}
}
