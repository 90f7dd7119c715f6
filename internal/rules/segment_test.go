package rules

import (
	"reflect"
	"testing"
)

func TestDocumentFromText(t *testing.T) {
	doc := DocumentFromText("first\r\nsecond\nthird")
	want := Document{Paragraphs: []Paragraph{
		{Text: "first"},
		{Text: "second"},
		{Text: "third"},
	}}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("DocumentFromText = %#v, want %#v", doc, want)
	}
}

func TestSegmentDropsPreamble(t *testing.T) {
	doc := Document{Paragraphs: []Paragraph{
		{Text: "Greed Rules"},
		{Text: "Changelog"},
		{Text: "Origins"},
		{Text: "Elf"},
		{Text: "swift", Bullet: true},
		{Text: "nimble", Bullet: true, Nesting: 1},
		{Text: "deep note", Bullet: true, Nesting: 2},
	}}

	got := Segment(doc)
	want := []string{"Elf", "- swift", "\t- nimble", "\t\t- deep note"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %#v, want %#v", got, want)
	}
}

func TestSegmentWithoutSentinel(t *testing.T) {
	doc := Document{Paragraphs: []Paragraph{
		{Text: "Greed Rules"},
		{Text: "Elf"},
	}}

	if got := Segment(doc); got != nil {
		t.Errorf("Segment without sentinel = %#v, want nil", got)
	}
}

func TestSegmentSentinelIsPrefixMatch(t *testing.T) {
	doc := Document{Paragraphs: []Paragraph{
		{Text: "Origins of Greed"},
		{Text: "Elf"},
	}}

	got := Segment(doc)
	want := []string{"Elf"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Segment = %#v, want %#v", got, want)
	}
}
