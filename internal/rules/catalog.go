// Package rules converts the exported Greed rules document into a
// typed catalog of origins and classes.
//
// The document is human-authored and loosely structured: records are
// delimited by positional and textual sentinels rather than a grammar,
// and class prerequisites are written in a small comma-conjunction
// expression language. The pipeline is pure and synchronous — raw text
// in, catalog out — and fails loudly as a whole when the document
// drifts from the dialect it understands; there is no partial catalog.
package rules

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Sentinels used by catalog assembly to delimit the two record
// sections inside the segmented line stream.
const (
	// sentinelTemplate terminates the origin section.
	sentinelTemplate = "Template"

	// sentinelIdeaBank terminates the class catalog.
	sentinelIdeaBank = "Idea Bank"

	// classStartMarker locates the first class header: classes are
	// listed from level I upward, so the first header carries "(I)".
	classStartMarker = "(I)"

	// postHumanOrigin is the origin listed immediately after Human.
	// The Human entry has no parseable body, so the stream is
	// realigned by scanning for this header.
	postHumanOrigin = "Dwarf"
)

// Catalog is the name-keyed result of one successful ingestion run,
// stamped with the source document's modification time for cheap
// freshness checks. It is never mutated after assembly; a refresh
// builds a new one and replaces it wholesale.
type Catalog struct {
	Origins      map[string]OriginRecord `json:"origins"`
	Classes      map[string]ClassRecord  `json:"classes"`
	LastModified time.Time               `json:"last_modified"`
}

// BuildCatalog drives the extractors across the whole segmented line
// stream. Origins are parsed from the start until the template-section
// sentinel; classes are located independently, on a second cursor over
// the stream's own copy, by scanning for the class-start marker and
// then for each following header's opening parenthesis. Any extraction
// error aborts the build: the document either parses completely or not
// at all.
func BuildCatalog(lines []string, modified time.Time) (*Catalog, error) {
	catalog := &Catalog{
		Origins:      make(map[string]OriginRecord),
		Classes:      make(map[string]ClassRecord),
		LastModified: modified,
	}

	if err := buildOrigins(catalog, NewLineReader(copyLines(lines))); err != nil {
		return nil, err
	}
	if err := buildClasses(catalog, NewLineReader(copyLines(lines))); err != nil {
		return nil, err
	}

	return catalog, nil
}

func buildOrigins(catalog *Catalog, r *LineReader) error {
	header, ok := r.SkipUntil(notBlank)
	for {
		if !ok {
			return fmt.Errorf("%w: origin section has no %q terminator", ErrFormatChanged, sentinelTemplate)
		}
		if strings.HasPrefix(header, sentinelTemplate) || strings.HasPrefix(header, sentinelIdeaBank) {
			return nil
		}

		origin, err := ExtractOrigin(header, r)
		if err != nil {
			return err
		}
		catalog.Origins[origin.Name] = origin

		if origin.Name == originHuman {
			// Human consumed nothing; skip its body by scanning for
			// the next origin the document lists.
			header, ok = r.SkipUntil(prefixStop(postHumanOrigin))
		} else {
			header, ok = r.SkipUntil(notBlank)
		}
	}
}

func buildClasses(catalog *Catalog, r *LineReader) error {
	header, ok := r.SkipUntil(func(line string) bool {
		return strings.Contains(line, classStartMarker)
	})

	for ok && !strings.HasPrefix(header, sentinelIdeaBank) {
		class, err := ExtractClass(header, r)
		if err != nil {
			return err
		}
		catalog.Classes[class.Name] = class

		header, ok = r.SkipUntil(func(line string) bool {
			return strings.Contains(line, "(") || strings.HasPrefix(line, sentinelIdeaBank)
		})
	}
	return nil
}

// GetOrigin looks up an origin by name.
func (c *Catalog) GetOrigin(name string) (OriginRecord, bool) {
	origin, ok := c.Origins[name]
	return origin, ok
}

// GetClass looks up a class by name.
func (c *Catalog) GetClass(name string) (ClassRecord, bool) {
	class, ok := c.Classes[name]
	return class, ok
}

// OriginList returns all origins sorted by name.
func (c *Catalog) OriginList() []OriginRecord {
	origins := make([]OriginRecord, 0, len(c.Origins))
	for _, origin := range c.Origins {
		origins = append(origins, origin)
	}
	sort.Slice(origins, func(i, j int) bool { return origins[i].Name < origins[j].Name })
	return origins
}

// ClassList returns all classes sorted by level then name.
func (c *Catalog) ClassList() []ClassRecord {
	classes := make([]ClassRecord, 0, len(c.Classes))
	for _, class := range c.Classes {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		li, lj := 0, 0
		if classes[i].Level != nil {
			li = *classes[i].Level
		}
		if classes[j].Level != nil {
			lj = *classes[j].Level
		}
		if li != lj {
			return li < lj
		}
		return classes[i].Name < classes[j].Name
	})
	return classes
}

// ClassAvailable reports whether a candidate holding the given classes
// may acquire the class. Unconditional classes are always available.
func (c *Catalog) ClassAvailable(class ClassRecord, held []ClassRecord) bool {
	req := class.Requires()
	if req == nil {
		return true
	}
	return Meets(req, held)
}

// ResolveHeld maps held class names to their catalog records.
func (c *Catalog) ResolveHeld(names []string) ([]ClassRecord, error) {
	held := make([]ClassRecord, 0, len(names))
	for _, name := range names {
		class, ok := c.Classes[name]
		if !ok {
			return nil, fmt.Errorf("unknown class %q", name)
		}
		held = append(held, class)
	}
	return held, nil
}

func copyLines(lines []string) []string {
	dup := make([]string, len(lines))
	copy(dup, lines)
	return dup
}

func notBlank(line string) bool {
	return strings.TrimSpace(line) != ""
}
