package rules

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel keywords delimiting record sections in the exported
// document. Each section runs until a line starts with the next
// section's keyword.
const (
	sentinelPassive    = "Passive"
	sentinelPrimary    = "Primary"
	sentinelSecondary  = "Secondary"
	sentinelSpecial    = "Special"
	sentinelSubclasses = "Subclasses"

	requirementMarker = "Req:"

	// originHuman is the degenerate origin: the document gives it no
	// body, so extraction short-circuits without consuming lines.
	originHuman = "Human"
)

var (
	// ErrFormatChanged indicates a structural sentinel the extractor
	// depends on is missing: the document revision is incompatible
	// with this parser version.
	ErrFormatChanged = errors.New("rules document format changed")

	// ErrOriginParse indicates a required name or description line was
	// absent inside an otherwise-recognized origin section.
	ErrOriginParse = errors.New("origin section malformed")

	// ErrClassParse indicates a required name or description line was
	// absent inside an otherwise-recognized class section.
	ErrClassParse = errors.New("class section malformed")
)

// LineReader is an explicit cursor over the segmented line stream.
// Extractors consume lines greedily and never rewind; after an extract
// call the reader sits exactly past the consumed record, so Pos doubles
// as "how many lines were consumed".
type LineReader struct {
	lines []string
	pos   int
}

// NewLineReader wraps a line slice. The reader does not copy the slice;
// callers that need independent cursors hand each reader its own copy.
func NewLineReader(lines []string) *LineReader {
	return &LineReader{lines: lines}
}

// Next returns the current line and advances the cursor.
func (r *LineReader) Next() (string, bool) {
	if r.pos >= len(r.lines) {
		return "", false
	}
	line := r.lines[r.pos]
	r.pos++
	return line, true
}

// Pos reports how many lines have been consumed.
func (r *LineReader) Pos() int {
	return r.pos
}

// SkipUntil advances past lines until one matches, returning that line.
// The matching line is consumed.
func (r *LineReader) SkipUntil(match func(string) bool) (string, bool) {
	for {
		line, ok := r.Next()
		if !ok {
			return "", false
		}
		if match(line) {
			return line, true
		}
	}
}

// ExtractClass parses one class record. The header line has already
// been consumed by the caller; the reader must sit on the class body's
// separator line. Consumption is greedy and irreversible: on success
// the reader is positioned immediately after the record.
func ExtractClass(header string, r *LineReader) (ClassRecord, error) {
	record := parseClassHeader(header)

	if _, ok := r.Next(); !ok {
		return ClassRecord{}, fmt.Errorf("%w: document ends after class header %q", ErrFormatChanged, record.Name)
	}

	var err error
	if record.Utilities, err = readEntryBlock(r, sentinelPassive, ErrClassParse); err != nil {
		return ClassRecord{}, fmt.Errorf("class %q utilities: %w", record.Name, err)
	}
	if record.Passives, err = readEntryBlock(r, sentinelPrimary, ErrClassParse); err != nil {
		return ClassRecord{}, fmt.Errorf("class %q passives: %w", record.Name, err)
	}
	if record.Primary, err = readAction(r, prefixStop(sentinelSecondary), ErrClassParse, "primary"); err != nil {
		return ClassRecord{}, fmt.Errorf("class %q: %w", record.Name, err)
	}
	if record.Secondary, err = readAction(r, prefixStop(sentinelSpecial), ErrClassParse, "secondary"); err != nil {
		return ClassRecord{}, fmt.Errorf("class %q: %w", record.Name, err)
	}
	if record.Special, err = readAction(r, prefixStop(sentinelSubclasses), ErrClassParse, "special"); err != nil {
		return ClassRecord{}, fmt.Errorf("class %q: %w", record.Name, err)
	}

	return record, nil
}

// ExtractOrigin parses one origin record. The sections mirror a class
// body except the special description runs to the next blank line. A
// "Human" header returns the degenerate empty record immediately and
// consumes nothing; the caller must realign the stream to the next
// record's start itself.
func ExtractOrigin(header string, r *LineReader) (OriginRecord, error) {
	fields := strings.Fields(header)
	if len(fields) == 0 {
		return OriginRecord{}, fmt.Errorf("%w: blank origin header", ErrOriginParse)
	}
	record := OriginRecord{Name: fields[0]}

	if record.Name == originHuman {
		return record, nil
	}

	if _, ok := r.Next(); !ok {
		return OriginRecord{}, fmt.Errorf("%w: document ends after origin header %q", ErrFormatChanged, record.Name)
	}

	var err error
	if record.Utilities, err = readEntryBlock(r, sentinelPassive, ErrOriginParse); err != nil {
		return OriginRecord{}, fmt.Errorf("origin %q utilities: %w", record.Name, err)
	}
	if record.Passives, err = readEntryBlock(r, sentinelPrimary, ErrOriginParse); err != nil {
		return OriginRecord{}, fmt.Errorf("origin %q passives: %w", record.Name, err)
	}
	if record.Primary, err = readAction(r, prefixStop(sentinelSecondary), ErrOriginParse, "primary"); err != nil {
		return OriginRecord{}, fmt.Errorf("origin %q: %w", record.Name, err)
	}
	if record.Secondary, err = readAction(r, prefixStop(sentinelSpecial), ErrOriginParse, "secondary"); err != nil {
		return OriginRecord{}, fmt.Errorf("origin %q: %w", record.Name, err)
	}
	blankStop := func(line string) bool { return strings.TrimSpace(line) == "" }
	if record.Special, err = readAction(r, blankStop, ErrOriginParse, "special"); err != nil {
		return OriginRecord{}, fmt.Errorf("origin %q: %w", record.Name, err)
	}

	return record, nil
}

// parseClassHeader splits a header like `Paladin (II) Req: Knight` into
// name, level and raw requirement text.
func parseClassHeader(header string) ClassRecord {
	record := ClassRecord{}

	working := header
	if i := strings.Index(working, requirementMarker); i >= 0 {
		record.Requirement = strings.TrimSpace(working[i+len(requirementMarker):])
		working = working[:i]
	}

	namePart := working
	if i := strings.Index(working, "("); i >= 0 {
		namePart = working[:i]
		rest := working[i+1:]
		if j := strings.Index(rest, ")"); j >= 0 {
			if level, ok := ParseRoman(strings.TrimSpace(rest[:j])); ok {
				record.Level = &level
			}
		}
	}
	record.Name = strings.TrimSpace(namePart)

	return record
}

// readEntryBlock consumes a utilities or passives block up to and
// including the sentinel line. Within the block a line opens a new
// entry unless it starts with an indentation or bullet marker, in which
// case it extends the description of the most recent entry.
func readEntryBlock(r *LineReader, sentinel string, kindErr error) ([]Action, error) {
	var entries []Action
	for {
		line, ok := r.Next()
		if !ok {
			return nil, fmt.Errorf("%w: missing %q sentinel", ErrFormatChanged, sentinel)
		}
		if strings.HasPrefix(line, sentinel) {
			return entries, nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		if isBulletLine(line) {
			if len(entries) == 0 {
				return nil, fmt.Errorf("%w: description before any entry name", kindErr)
			}
			last := &entries[len(entries)-1]
			text := strings.TrimRight(line, " \t")
			if last.Description == "" {
				last.Description = text
			} else {
				last.Description += "\n" + text
			}
			continue
		}
		entries = append(entries, Action{Name: strings.TrimRight(line, " \t")})
	}
}

// readAction consumes an action name line plus its description block.
// The terminating sentinel line is consumed; a stream that ends before
// the sentinel just ends the description, matching the document's tail.
func readAction(r *LineReader, stop func(string) bool, kindErr error, section string) (Action, error) {
	nameLine, ok := r.Next()
	if !ok {
		return Action{}, fmt.Errorf("%w: missing %s action name", kindErr, section)
	}
	name := strings.TrimRight(nameLine, " \t")
	if strings.TrimSpace(name) == "" {
		return Action{}, fmt.Errorf("%w: blank %s action name", kindErr, section)
	}

	var description []string
	for {
		line, ok := r.Next()
		if !ok || stop(line) {
			break
		}
		description = append(description, strings.TrimRight(line, " \t"))
	}
	return Action{
		Name:        name,
		Description: strings.TrimRight(strings.Join(description, "\n"), "\n"),
	}, nil
}

func prefixStop(sentinel string) func(string) bool {
	return func(line string) bool {
		return strings.HasPrefix(line, sentinel)
	}
}

func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "\t") || strings.HasPrefix(line, "-")
}
