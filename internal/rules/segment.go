package rules

import "strings"

// sentinelOrigins marks the start of parseable content; everything
// before it (title page, changelog, table of contents) is preamble.
const sentinelOrigins = "Origins"

// Paragraph is one block of exported document text plus the bullet
// structure a plain-text export loses.
type Paragraph struct {
	Text    string
	Bullet  bool
	Nesting int
}

// Document is the fetched rules document, paragraph by paragraph, in
// original order.
type Document struct {
	Paragraphs []Paragraph
}

// DocumentFromText wraps an opaque text blob as a document, one
// paragraph per line. No bullet structure can be recovered from plain
// text; lines keep whatever markers survived the export.
func DocumentFromText(raw string) Document {
	split := strings.Split(raw, "\n")
	paragraphs := make([]Paragraph, 0, len(split))
	for _, line := range split {
		paragraphs = append(paragraphs, Paragraph{Text: strings.TrimSuffix(line, "\r")})
	}
	return Document{Paragraphs: paragraphs}
}

// Segment renders the document as the ordered line stream the
// extractors consume. Bullet paragraphs get their nesting depth
// rendered back as a tab-repeated "- " prefix so the extractors'
// indentation test stays meaningful. Every line up to and including
// the first one starting with the "Origins" sentinel is discarded; the
// rest is returned in original order, nothing duplicated or dropped.
// A document without the sentinel segments to an empty stream, which
// catalog assembly rejects.
func Segment(doc Document) []string {
	lines := make([]string, 0, len(doc.Paragraphs))
	for _, p := range doc.Paragraphs {
		text := strings.TrimRight(p.Text, "\r\n")
		if p.Bullet {
			text = strings.Repeat("\t", p.Nesting) + "- " + text
		}
		lines = append(lines, text)
	}

	for i, line := range lines {
		if strings.HasPrefix(line, sentinelOrigins) {
			return lines[i+1:]
		}
	}
	return nil
}
