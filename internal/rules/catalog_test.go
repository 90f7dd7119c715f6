package rules

import (
	"errors"
	"testing"
	"time"
)

// catalogLines is a compact but structurally faithful rules document,
// already segmented: three origins (including the bodyless Human entry)
// terminated by the template section, then two classes terminated by
// the idea bank.
func catalogLines() []string {
	return []string{
		"",
		"Elf",
		"Origin actions",
		"Keen Senses",
		"\tSee in dim light.",
		"Passive abilities",
		"Trance",
		"Primary",
		"Longbow",
		"Loose an arrow at range.",
		"Secondary",
		"Dodge",
		"Step aside from one attack.",
		"Special",
		"Heartseeker",
		"A single unerring shot.",
		"",
		"Human",
		"Humans pick any class at level one.",
		"",
		"Dwarf",
		"Origin actions",
		"Stonecunning",
		"Passive abilities",
		"Hardy",
		"Primary",
		"Warhammer",
		"A heavy overhead swing.",
		"Secondary",
		"Shield Wall",
		"Brace behind the shield.",
		"Special",
		"Avalanche",
		"An unstoppable charge.",
		"",
		"Template for new origins",
		"",
		"Knight (I)",
		"Class actions",
		"Rally",
		"Passive abilities",
		"Armored",
		"Primary",
		"Longsword",
		"A measured strike.",
		"Secondary",
		"Parry",
		"Turn a blow aside.",
		"Special",
		"Banner Call",
		"Allies advance.",
		"Subclasses",
		"",
		"Paladin (II) Req: Knight",
		"Class actions",
		"Lay on Hands",
		"Passive abilities",
		"Aura of Courage",
		"Primary",
		"Smite",
		"Deal heavy radiant damage.",
		"Secondary",
		"Guard",
		"Shield an ally.",
		"Special",
		"Judgement",
		"Call down the verdict.",
		"Subclasses",
		"",
		"Idea Bank",
		"Scratch ideas live here.",
	}
}

func TestBuildCatalog(t *testing.T) {
	modified := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	catalog, err := BuildCatalog(catalogLines(), modified)
	if err != nil {
		t.Fatalf("BuildCatalog failed: %v", err)
	}

	if !catalog.LastModified.Equal(modified) {
		t.Errorf("last modified = %v, want %v", catalog.LastModified, modified)
	}

	if len(catalog.Origins) != 3 {
		t.Fatalf("origin count = %d, want 3", len(catalog.Origins))
	}
	for _, name := range []string{"Elf", "Human", "Dwarf"} {
		if _, ok := catalog.GetOrigin(name); !ok {
			t.Errorf("origin %q missing", name)
		}
	}

	human, _ := catalog.GetOrigin("Human")
	if human.Primary.Name != "" || len(human.Utilities) != 0 {
		t.Errorf("human must be the empty record, got %#v", human)
	}

	elf, _ := catalog.GetOrigin("Elf")
	if elf.Special.Name != "Heartseeker" {
		t.Errorf("elf special = %q, want Heartseeker", elf.Special.Name)
	}

	if len(catalog.Classes) != 2 {
		t.Fatalf("class count = %d, want 2", len(catalog.Classes))
	}

	knight, ok := catalog.GetClass("Knight")
	if !ok {
		t.Fatal("class Knight missing")
	}
	if knight.Level == nil || *knight.Level != 1 {
		t.Errorf("knight level = %v, want 1", knight.Level)
	}
	if knight.Requirement != "" {
		t.Errorf("knight requirement = %q, want empty", knight.Requirement)
	}

	paladin, ok := catalog.GetClass("Paladin")
	if !ok {
		t.Fatal("class Paladin missing")
	}
	if paladin.Level == nil || *paladin.Level != 2 {
		t.Errorf("paladin level = %v, want 2", paladin.Level)
	}
	if paladin.Requirement != "Knight" {
		t.Errorf("paladin requirement = %q, want Knight", paladin.Requirement)
	}
}

func TestBuildCatalogEmptyStream(t *testing.T) {
	_, err := BuildCatalog(nil, time.Now())
	if !errors.Is(err, ErrFormatChanged) {
		t.Errorf("err = %v, want ErrFormatChanged", err)
	}
}

func TestBuildCatalogMissingTerminator(t *testing.T) {
	lines := []string{
		"Dwarf",
		// Origin body cut off: no template section follows.
	}

	_, err := BuildCatalog(lines, time.Now())
	if !errors.Is(err, ErrFormatChanged) {
		t.Errorf("err = %v, want ErrFormatChanged", err)
	}
}

func TestCatalogLists(t *testing.T) {
	catalog, err := BuildCatalog(catalogLines(), time.Now())
	if err != nil {
		t.Fatalf("BuildCatalog failed: %v", err)
	}

	origins := catalog.OriginList()
	if len(origins) != 3 || origins[0].Name != "Dwarf" || origins[1].Name != "Elf" || origins[2].Name != "Human" {
		t.Errorf("OriginList order wrong: %v", originNames(origins))
	}

	classes := catalog.ClassList()
	if len(classes) != 2 || classes[0].Name != "Knight" || classes[1].Name != "Paladin" {
		names := make([]string, 0, len(classes))
		for _, c := range classes {
			names = append(names, c.Name)
		}
		t.Errorf("ClassList order wrong: %v", names)
	}
}

func originNames(origins []OriginRecord) []string {
	names := make([]string, 0, len(origins))
	for _, o := range origins {
		names = append(names, o.Name)
	}
	return names
}

func TestClassAvailable(t *testing.T) {
	catalog, err := BuildCatalog(catalogLines(), time.Now())
	if err != nil {
		t.Fatalf("BuildCatalog failed: %v", err)
	}

	knight, _ := catalog.GetClass("Knight")
	paladin, _ := catalog.GetClass("Paladin")

	if !catalog.ClassAvailable(knight, nil) {
		t.Error("unconditional class must always be available")
	}
	if catalog.ClassAvailable(paladin, nil) {
		t.Error("paladin must not be available without knight")
	}

	held, err := catalog.ResolveHeld([]string{"Knight"})
	if err != nil {
		t.Fatalf("ResolveHeld failed: %v", err)
	}
	if !catalog.ClassAvailable(paladin, held) {
		t.Error("paladin must be available to a knight")
	}

	if _, err := catalog.ResolveHeld([]string{"Necromancer"}); err == nil {
		t.Error("ResolveHeld must reject unknown class names")
	}
}
