package rules

// Action is a named action or ability parsed from the rules document.
type Action struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ClassRecord is one acquirable class: its leveled header, its five
// action sections and the raw requirement expression gating it.
type ClassRecord struct {
	Name      string   `json:"name"`
	Level     *int     `json:"level,omitempty"`
	Utilities []Action `json:"utilities,omitempty"`
	Passives  []Action `json:"passives,omitempty"`
	Primary   Action   `json:"primary"`
	Secondary Action   `json:"secondary"`
	Special   Action   `json:"special"`

	// Requirement holds the expression text exactly as it appeared
	// after the "Req:" marker; empty means unconditional. The parsed
	// tree is derived on demand via Requires, which keeps records
	// plain data that serializes cleanly.
	Requirement string `json:"requirement,omitempty"`
}

// Requires returns the parsed requirement tree, or nil when the class
// is unconditional. ParseRequirement is total and pure, so re-parsing
// always yields a tree that evaluates identically.
func (c ClassRecord) Requires() Requirement {
	if c.Requirement == "" {
		return nil
	}
	return ParseRequirement(c.Requirement)
}

// OriginRecord is a character's starting archetype. Origins are
// unconditional and unleveled; otherwise they carry the same sections
// a class does.
type OriginRecord struct {
	Name      string   `json:"name"`
	Utilities []Action `json:"utilities,omitempty"`
	Passives  []Action `json:"passives,omitempty"`
	Primary   Action   `json:"primary"`
	Secondary Action   `json:"secondary"`
	Special   Action   `json:"special"`
}
